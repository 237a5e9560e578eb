package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
		{LevelError, ScopeDriver, false},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStartSpanNestsThroughContext(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	ctx, outer := StartSpan(ctx, ScopePass, "lower")
	_, inner := StartSpan(ctx, ScopeNode, "func:f")
	inner.WithExtra("actions", "12").End("")
	outer.End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[1].ParentID != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", events[1].ParentID, outer.ID())
	}
	if events[2].Extra["actions"] != "12" {
		t.Fatalf("extra lost: %v", events[2].Extra)
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", events)
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	Begin(tr, ScopePass, "sema", 0).End("3 diagnostics")
	Begin(tr, ScopeNode, "func:hidden", 0).End("")
	out := buf.String()
	if !strings.Contains(out, "-> sema") || !strings.Contains(out, "<- sema (3 diagnostics)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("node scope leaked at phase level:\n%s", out)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatalf("off tracer must be disabled")
	}
}
