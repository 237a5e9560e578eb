package diag

import (
	"testing"

	"wsc/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(3)
	r := BagReporter{Bag: bag}
	ReportWarning(r, SemaShadowing, source.Span{File: 1, Line: 5, Col: 1}, "w").Emit()
	ReportError(r, SemaUnresolvedSymbol, source.Span{File: 1, Line: 2, Col: 1}, "e").Emit()
	ReportError(r, SemaDuplicateSymbol, source.Span{File: 1, Line: 2, Col: 1}, "e2").Emit()
	ReportError(r, SemaNoOverload, source.Span{File: 1, Line: 1, Col: 1}, "dropped").Emit()
	if bag.Len() != 3 {
		t.Fatalf("len = %d, want 3", bag.Len())
	}
	bag.Sort()
	items := bag.Items()
	if items[0].Code != SemaDuplicateSymbol || items[1].Code != SemaUnresolvedSymbol || items[2].Code != SemaShadowing {
		t.Fatalf("unexpected order: %v %v %v", items[0].Code, items[1].Code, items[2].Code)
	}
	if !bag.HasErrors() || bag.Count(SevWarning) != 1 {
		t.Fatalf("counts wrong: errors=%v warnings=%d", bag.HasErrors(), bag.Count(SevWarning))
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Line: 4, Col: 2}
	for range 3 {
		ReportWarning(r, SemaLambdaSourceUnknown, sp, "Source lambda not found").Emit()
	}
	if bag.Len() != 1 {
		t.Fatalf("len = %d, want 1", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		SemaDuplicateSymbol: "SEM3001",
		LowSlotOverflow:     "LOW4001",
		ProjInvalidManifest: "PRJ5002",
		IOLoadFileError:     "IO6001",
		InpMalformed:        "INP1001",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}
