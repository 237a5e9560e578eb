package workshop

import (
	"strings"
	"testing"
)

func TestFormatValue(t *testing.T) {
	g := &Variable{Name: "stack"}
	p := &Variable{Name: "hp", Space: SpacePlayer}
	tests := []struct {
		v    *Value
		want string
	}{
		{Num(1.5), "1.5"},
		{Bool(true), "True"},
		{Null(), "Null"},
		{LastOf(VarValue(g)), "Last Of(Global.stack)"},
		{Index(VarValue(p), Num(0)), "Event Player.hp[0]"},
		{Sub(CountOf(VarValue(g)), Num(1)), "(Count Of(Global.stack) - 1)"},
		{Not(Compare(Num(1), "<", Num(2))), "!(1 < 2)"},
		{Call("Max", Num(1), Num(2)), "Max(1, 2)"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.v); got != tt.want {
			t.Errorf("FormatValue = %q, want %q", got, tt.want)
		}
	}
}

func TestPrintActionsIndentsBlocks(t *testing.T) {
	i := &Variable{Name: "i"}
	acts := []*Action{
		While(Bool(true)),
		If(Compare(VarValue(i), "==", Num(2))),
		Break().WithComment("λ exit"),
		End(),
		End(),
	}
	var sb strings.Builder
	if err := PrintActions(&sb, acts, 0); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d", len(lines))
	}
	if !strings.HasPrefix(lines[2], "        Break;") {
		t.Fatalf("break not nested: %q", lines[2])
	}
	if !strings.HasSuffix(lines[2], "// λ exit") {
		t.Fatalf("comment missing: %q", lines[2])
	}
	if lines[4] != "End;" {
		t.Fatalf("closing end = %q", lines[4])
	}
}
