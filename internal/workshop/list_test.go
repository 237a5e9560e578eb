package workshop

import (
	"errors"
	"strings"
	"testing"
)

func TestFinalizeCountsRealActions(t *testing.T) {
	x := &Variable{Name: "x", Slot: 0}
	l := NewActionList()
	m := l.SkipStart(Compare(VarValue(x), ">", Num(3)), "early exit")
	l.Add(SetVar(x, Num(1)))
	inner := l.SkipStart(nil, "inner")
	l.Add(SetVar(x, Num(2)))
	l.SkipEnd(inner)
	l.Add(SetVar(x, Num(3)))
	l.SkipEnd(m)
	l.Add(SetVar(x, Num(4)))

	if l.Pending() != 0 {
		t.Fatalf("pending = %d", l.Pending())
	}
	out, err := Finalize(l)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}
	if out[0].Kind != ActSkipIf || out[0].Count != 4 {
		t.Fatalf("outer skip = %s %d, want skip-if 4", out[0].Kind, out[0].Count)
	}
	if out[2].Kind != ActSkip || out[2].Count != 1 {
		t.Fatalf("inner skip = %s %d, want skip 1", out[2].Kind, out[2].Count)
	}
	for _, a := range out {
		if a.Kind == ActSkipStart || a.Kind == ActSkipEnd {
			t.Fatalf("placeholder survived finalize: %s", a.Kind)
		}
	}
}

func TestFinalizeSharedLandingPoint(t *testing.T) {
	x := &Variable{Name: "x"}
	l := NewActionList()
	a := l.SkipStart(nil, "a")
	l.Add(SetVar(x, Num(1)))
	b := l.SkipStart(nil, "b")
	l.SkipEnd(a, b)

	out, err := Finalize(l)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out[0].Count != 2 || out[2].Count != 0 {
		t.Fatalf("counts = %d, %d; want 2, 0", out[0].Count, out[2].Count)
	}
}

func TestFinalizeSurvivesInsertBeforeMarker(t *testing.T) {
	x := &Variable{Name: "x"}
	l := NewActionList()
	l.Add(SetVar(x, Num(0)))
	m := l.SkipStart(nil, "")
	l.Add(SetVar(x, Num(1)))
	l.SkipEnd(m)
	l.Insert(0, SetVar(x, Num(-1)))
	l.Insert(3, SetVar(x, Num(9)))

	out, err := Finalize(l)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out[2].Kind != ActSkip || out[2].Count != 2 {
		t.Fatalf("skip = %s %d, want skip 2", out[2].Kind, out[2].Count)
	}
}

func TestFinalizeUnresolved(t *testing.T) {
	l := NewActionList()
	l.SkipStart(nil, "dangling")
	if _, err := Finalize(l); !errors.Is(err, ErrUnresolvedSkip) {
		t.Fatalf("err = %v, want ErrUnresolvedSkip", err)
	}
}

func TestSkipEndTwice(t *testing.T) {
	l := NewActionList()
	m := l.SkipStart(nil, "twice")
	l.SkipEnd(m)
	l.SkipEnd(m)
	if _, err := Finalize(l); err == nil || !strings.Contains(err.Error(), "resolved twice") {
		t.Fatalf("err = %v", err)
	}
}

func TestSpliceCarriesMarkers(t *testing.T) {
	x := &Variable{Name: "x"}
	a := NewActionList()
	b := NewActionList()
	m := b.SkipStart(nil, "")
	b.Add(SetVar(x, Num(1)))
	a.Splice(b)
	a.SkipEnd(m)
	if b.Len() != 0 || b.Pending() != 0 {
		t.Fatalf("source list not drained")
	}
	out, err := Finalize(a)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out[0].Count != 1 {
		t.Fatalf("count = %d", out[0].Count)
	}
}

func TestVarRefIndexedWrite(t *testing.T) {
	over := &Variable{Name: "overflow", Slot: 127}
	scratch := &Variable{Name: "scratch", Slot: 126}
	r := VarRef{Var: over, Element: Num(3), Scratch: scratch}
	l := NewActionList()
	r.SetIndex(l, Num(0), Num(5), "")
	acts := l.Actions()
	if len(acts) != 3 {
		t.Fatalf("len = %d, want 3", len(acts))
	}
	if acts[0].Var != scratch || acts[1].Kind != ActSetVarAtIndex || acts[2].Var != over {
		t.Fatalf("unexpected sequence %s %s %s", acts[0].Kind, acts[1].Kind, acts[2].Kind)
	}
	if acts[2].Kind != ActSetVarAtIndex || acts[2].Index.Num != 3 {
		t.Fatalf("write back should target element 3")
	}
}
