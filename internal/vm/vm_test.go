package vm_test

import (
	"context"
	"errors"
	"testing"

	"wsc/internal/vm"
	"wsc/internal/workshop"
)

func run(t *testing.T, prog *workshop.Program, opts vm.Options) *vm.VM {
	t.Helper()
	m := vm.New(prog, opts)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return m
}

func global(name string, slot int) *workshop.Variable {
	return &workshop.Variable{Name: name, Space: workshop.SpaceGlobal, Slot: slot}
}

func program(slots int, rules ...*workshop.Rule) *workshop.Program {
	p := &workshop.Program{GlobalSlots: slots, Rules: rules}
	for _, r := range rules {
		if r.Event == workshop.EventSubroutine {
			p.Subroutines = append(p.Subroutines, r.Subroutine)
		}
	}
	return p
}

func rule(actions ...*workshop.Action) *workshop.Rule {
	return &workshop.Rule{Name: "main", Actions: actions}
}

func TestForCountsAndContinues(t *testing.T) {
	i, sum := global("i", 0), global("sum", 1)
	prog := program(2, rule(
		workshop.SetVar(sum, workshop.Num(0)),
		workshop.For(i, workshop.Num(0), workshop.Num(5), workshop.Num(1)),
		workshop.If(workshop.Compare(workshop.VarValue(i), "==", workshop.Num(2))),
		workshop.Continue(),
		workshop.End(),
		workshop.SetVar(sum, workshop.Add(workshop.VarValue(sum), workshop.VarValue(i))),
		workshop.End(),
	))
	m := run(t, prog, vm.Options{})
	if got := m.Globals[1].Number(); got != 8 {
		t.Fatalf("sum = %v, want 8", got)
	}
	if got := m.Globals[0].Number(); got != 5 {
		t.Fatalf("i = %v after loop, want 5", got)
	}
}

func TestNegativeStepFor(t *testing.T) {
	i, log := global("i", 0), global("log", 1)
	prog := program(2, rule(
		workshop.For(i, workshop.Num(3), workshop.Num(0), workshop.Num(-1)),
		workshop.SetVarAtIndex(log, workshop.CountOf(workshop.VarValue(log)), workshop.VarValue(i)),
		workshop.End(),
	))
	m := run(t, prog, vm.Options{})
	if got := m.Globals[1].String(); got != "[3, 2, 1]" {
		t.Fatalf("log = %s", got)
	}
}

func TestIfChain(t *testing.T) {
	x, out := global("x", 0), global("out", 1)
	chain := func(v float64) *workshop.Program {
		return program(2, rule(
			workshop.SetVar(x, workshop.Num(v)),
			workshop.If(workshop.Compare(workshop.VarValue(x), "<", workshop.Num(0))),
			workshop.SetVar(out, workshop.Num(-1)),
			workshop.ElseIf(workshop.Compare(workshop.VarValue(x), "==", workshop.Num(0))),
			workshop.SetVar(out, workshop.Num(0)),
			workshop.Else(),
			workshop.SetVar(out, workshop.Num(1)),
			workshop.End(),
		))
	}
	for _, tc := range []struct{ in, want float64 }{{-5, -1}, {0, 0}, {7, 1}} {
		m := run(t, chain(tc.in), vm.Options{})
		if got := m.Globals[1].Number(); got != tc.want {
			t.Fatalf("x=%v: out = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWhileBreakAndSkip(t *testing.T) {
	n, hit := global("n", 0), global("hit", 1)
	prog := program(2, rule(
		workshop.SetVar(n, workshop.Num(0)),
		workshop.While(workshop.Bool(true)),
		workshop.SetVar(n, workshop.Add(workshop.VarValue(n), workshop.Num(1))),
		workshop.SkipIf(workshop.Compare(workshop.VarValue(n), "<", workshop.Num(4)), 1),
		workshop.Break(),
		workshop.End(),
		workshop.Skip(1),
		workshop.SetVar(hit, workshop.Num(1)),
	))
	m := run(t, prog, vm.Options{})
	if m.Globals[0].Number() != 4 || m.Globals[1].Kind != vm.KindNull {
		t.Fatalf("n = %v hit = %v", m.Globals[0], m.Globals[1])
	}
}

func TestSubroutineAndAbort(t *testing.T) {
	x := global("x", 0)
	sub := &workshop.Rule{Name: "bump", Event: workshop.EventSubroutine, Subroutine: "bump", Actions: []*workshop.Action{
		workshop.SetVar(x, workshop.Add(workshop.VarValue(x), workshop.Num(1))),
	}}
	prog := program(1,
		rule(
			workshop.SetVar(x, workshop.Num(0)),
			workshop.CallSubroutine("bump"),
			workshop.CallSubroutine("bump"),
			workshop.AbortIf(workshop.Compare(workshop.VarValue(x), "==", workshop.Num(2))),
			workshop.SetVar(x, workshop.Num(100)),
		),
		sub,
	)
	m := run(t, prog, vm.Options{})
	if got := m.Globals[0].Number(); got != 2 {
		t.Fatalf("x = %v, want 2", got)
	}
}

func TestPlayerRulesAndConditions(t *testing.T) {
	pv := &workshop.Variable{Name: "mine", Space: workshop.SpacePlayer, Slot: 0}
	prog := &workshop.Program{PlayerSlots: 1, Rules: []*workshop.Rule{{
		Name:       "each",
		Event:      workshop.EventOngoingEachPlayer,
		Conditions: []*workshop.Value{workshop.Bool(true)},
		Actions: []*workshop.Action{
			workshop.SetVar(pv, workshop.EventPlayer()),
			workshop.CallAction("Log", workshop.EventPlayer()),
		},
	}}}
	m := run(t, prog, vm.Options{Players: 3})
	if len(m.Log) != 3 || m.Log[2].Player != 3 {
		t.Fatalf("log = %v", m.Log)
	}
	if got := m.Players[1].Vars[0]; got.Player != 2 {
		t.Fatalf("player 2 var = %v", got)
	}
}

func TestPlayerStorageInGlobalRule(t *testing.T) {
	pv := &workshop.Variable{Name: "mine", Space: workshop.SpacePlayer, Slot: 0}
	prog := program(0, rule(workshop.SetVar(pv, workshop.Num(1))))
	err := vm.New(prog, vm.Options{}).Run(context.Background())
	var ve *vm.VMError
	if !errors.As(err, &ve) || ve.Code != vm.PanicNoEventPlayer {
		t.Fatalf("err = %v, want %s", err, vm.PanicNoEventPlayer)
	}
}

func TestStepLimit(t *testing.T) {
	prog := program(0, rule(workshop.While(workshop.Bool(true)), workshop.End()))
	err := vm.New(prog, vm.Options{MaxSteps: 100}).Run(context.Background())
	var ve *vm.VMError
	if !errors.As(err, &ve) || ve.Code != vm.PanicStepLimit {
		t.Fatalf("err = %v, want step limit", err)
	}
	if len(ve.Backtrace) != 1 || ve.Backtrace[0].Rule != "main" {
		t.Fatalf("backtrace = %+v", ve.Backtrace)
	}
}

func TestUnmatchedBlock(t *testing.T) {
	prog := program(0, rule(workshop.If(workshop.Bool(true))))
	err := vm.New(prog, vm.Options{}).Run(context.Background())
	var ve *vm.VMError
	if !errors.As(err, &ve) || ve.Code != vm.PanicBadBlock {
		t.Fatalf("err = %v, want bad block", err)
	}
}

func TestArrayValueSemantics(t *testing.T) {
	a, b := global("a", 0), global("b", 1)
	prog := program(2, rule(
		workshop.SetVar(a, workshop.Array(workshop.Num(1), workshop.Num(2))),
		workshop.SetVar(b, workshop.VarValue(a)),
		workshop.SetVarAtIndex(b, workshop.Num(3), workshop.Num(9)),
		workshop.SetVar(a, workshop.Slice(workshop.VarValue(a), workshop.Num(0), workshop.Num(1))),
	))
	m := run(t, prog, vm.Options{})
	if got := m.Globals[0].String(); got != "[1]" {
		t.Fatalf("a = %s", got)
	}
	if got := m.Globals[1].String(); got != "[1, 2, null, 9]" {
		t.Fatalf("b = %s", got)
	}
}

func TestIndexConversion(t *testing.T) {
	a := global("a", 0)
	prog := program(1, rule(
		workshop.SetVar(a, workshop.Array()),
		workshop.SetVarAtIndex(a, workshop.Num(2.7), workshop.Num(5)),
	))
	m := run(t, prog, vm.Options{})
	if got := m.Globals[0].String(); got != "[null, null, 5]" {
		t.Fatalf("a = %s, want fractional index truncated", got)
	}

	cases := []struct {
		name  string
		index float64
	}{
		{"negative", -1},
		{"huge", 1e300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog := program(1, rule(
				workshop.SetVar(a, workshop.Array()),
				workshop.SetVarAtIndex(a, workshop.Num(tc.index), workshop.Num(1)),
			))
			err := vm.New(prog, vm.Options{}).Run(context.Background())
			var ve *vm.VMError
			if !errors.As(err, &ve) || ve.Code != vm.PanicOutOfBounds {
				t.Fatalf("err = %v, want out of bounds", err)
			}
		})
	}
}
