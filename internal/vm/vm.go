package vm

import (
	"context"
	"fmt"
	"math"

	"fortio.org/safecast"

	"wsc/internal/workshop"
)

// Options configures execution.
type Options struct {
	Players  int // number of players; 1 when zero
	MaxSteps int // action budget for one Run; 1_000_000 when zero
	MaxDepth int // subroutine nesting limit; 256 when zero
}

// Player is one player with its own variable space.
type Player struct {
	ID    int
	Vars  []Value
	Score float64
	Dead  bool
}

// VM holds the state of one program.
type VM struct {
	prog    *workshop.Program
	opts    Options
	Globals []Value
	Players []*Player
	// Log collects the values passed to the Log action.
	Log []Value
	// Time advances with Wait.
	Time float64

	subs   map[string]*workshop.Rule
	blocks map[*workshop.Rule]*blocks
	calls  []*BacktraceFrame
	player *Player
	steps  int
	ctx    context.Context
}

// New prepares prog for execution.
func New(prog *workshop.Program, opts Options) *VM {
	if opts.Players <= 0 {
		opts.Players = 1
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 1_000_000
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 256
	}
	m := &VM{
		prog:    prog,
		opts:    opts,
		Globals: make([]Value, prog.GlobalSlots),
		subs:    make(map[string]*workshop.Rule),
		blocks:  make(map[*workshop.Rule]*blocks),
	}
	for i := 1; i <= opts.Players; i++ {
		m.Players = append(m.Players, &Player{ID: i, Vars: make([]Value, prog.PlayerSlots)})
	}
	for _, r := range prog.Rules {
		if r.Event == workshop.EventSubroutine {
			m.subs[r.Subroutine] = r
		}
	}
	return m
}

// Run executes every rule once.
func (m *VM) Run(ctx context.Context) error {
	m.ctx = ctx
	for _, r := range m.prog.Rules {
		if r.Event != workshop.EventOngoingGlobal {
			continue
		}
		if err := m.runRule(r, nil); err != nil {
			return err
		}
	}
	for _, p := range m.Players {
		for _, r := range m.prog.Rules {
			if r.Event != workshop.EventOngoingEachPlayer {
				continue
			}
			if err := m.runRule(r, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Steps reports how many actions ran.
func (m *VM) Steps() int { return m.steps }

func (m *VM) runRule(r *workshop.Rule, p *Player) error {
	if err := m.ctx.Err(); err != nil {
		return err
	}
	m.player = p
	defer func() { m.player = nil }()
	for _, c := range r.Conditions {
		v, err := m.eval(c)
		if err != nil {
			return err
		}
		if !v.Truthy() {
			return nil
		}
	}
	_, err := m.exec(r)
	return err
}

// Global reads a named variable of the global space.
func (m *VM) Global(name string) (Value, bool) {
	info, ok := m.prog.LookupVar(name)
	if !ok || info.Space != workshop.SpaceGlobal {
		return Null(), false
	}
	return readVar(m.Globals, info), true
}

// PlayerVar reads a named per-player variable of player id.
func (m *VM) PlayerVar(id int, name string) (Value, bool) {
	info, ok := m.prog.LookupVar(name)
	if !ok || info.Space != workshop.SpacePlayer || id < 1 || id > len(m.Players) {
		return Null(), false
	}
	return readVar(m.Players[id-1].Vars, info), true
}

func readVar(slots []Value, info workshop.VarInfo) Value {
	if info.Slot >= len(slots) {
		return Null()
	}
	v := slots[info.Slot]
	if info.Element < 0 {
		return v
	}
	if elems := v.Elems(); info.Element < len(elems) {
		return elems[info.Element]
	}
	return Null()
}

func (m *VM) space(v *workshop.Variable) (*[]Value, error) {
	if v.Space == workshop.SpaceGlobal {
		return &m.Globals, nil
	}
	if m.player == nil {
		return nil, m.panicf(PanicNoEventPlayer, "%s read without an event player", v)
	}
	return &m.player.Vars, nil
}

func (m *VM) load(v *workshop.Variable) (Value, error) {
	slots, err := m.space(v)
	if err != nil {
		return Null(), err
	}
	if v.Slot < 0 {
		return Null(), m.panicf(PanicOutOfBounds, "negative slot for %s", v)
	}
	if v.Slot >= len(*slots) {
		return Null(), nil
	}
	return (*slots)[v.Slot], nil
}

func (m *VM) store(v *workshop.Variable, val Value) error {
	slots, err := m.space(v)
	if err != nil {
		return err
	}
	if v.Slot < 0 {
		return m.panicf(PanicOutOfBounds, "negative slot for %s", v)
	}
	for len(*slots) <= v.Slot {
		*slots = append(*slots, Null())
	}
	(*slots)[v.Slot] = val
	return nil
}

// storeIndex writes one element, growing the array with nulls.
func (m *VM) storeIndex(v *workshop.Variable, index, val Value) error {
	i, err := m.index(index)
	if err != nil {
		return err
	}
	if i < 0 {
		return m.panicf(PanicOutOfBounds, "element %d of %s", i, v)
	}
	cur, err := m.load(v)
	if err != nil {
		return err
	}
	elems := append([]Value{}, cur.Elems()...)
	for len(elems) <= i {
		elems = append(elems, Null())
	}
	elems[i] = val
	return m.store(v, Value{Kind: KindArray, Arr: elems})
}

func (m *VM) index(v Value) (int, error) {
	i, err := safecast.Convert[int](math.Trunc(v.Number()))
	if err != nil {
		return 0, m.panicf(PanicOutOfBounds, "index %s: %v", v, err)
	}
	return i, nil
}

func (m *VM) eval(v *workshop.Value) (Value, error) {
	if v == nil {
		return Null(), nil
	}
	switch v.Kind {
	case workshop.ValNull:
		return Null(), nil
	case workshop.ValNumber:
		return Number(v.Num), nil
	case workshop.ValBool:
		return Boolean(v.Bool), nil
	case workshop.ValVar:
		return m.load(v.Var)
	case workshop.ValEventPlayer:
		if m.player == nil {
			return Null(), nil
		}
		return PlayerValue(m.player.ID), nil
	case workshop.ValAnd, workshop.ValOr:
		a, err := m.eval(v.Args[0])
		if err != nil {
			return Null(), err
		}
		if a.Truthy() == (v.Kind == workshop.ValOr) {
			return Boolean(a.Truthy()), nil
		}
		b, err := m.eval(v.Args[1])
		if err != nil {
			return Null(), err
		}
		return Boolean(b.Truthy()), nil
	}

	args := make([]Value, len(v.Args))
	for i, a := range v.Args {
		x, err := m.eval(a)
		if err != nil {
			return Null(), err
		}
		args[i] = x
	}
	switch v.Kind {
	case workshop.ValArray:
		return Value{Kind: KindArray, Arr: args}, nil
	case workshop.ValIndex:
		i, err := m.index(args[1])
		if err != nil {
			return Null(), err
		}
		if elems := args[0].Elems(); i >= 0 && i < len(elems) {
			return elems[i], nil
		}
		return Null(), nil
	case workshop.ValLastOf:
		return lastOf(args[0]), nil
	case workshop.ValCountOf:
		return Number(float64(len(args[0].Elems()))), nil
	case workshop.ValSlice:
		return m.slice(args[0], args[1], args[2])
	case workshop.ValAppend:
		return appendTo(args[0], args[1]), nil
	case workshop.ValArith:
		return arith(args[0].Number(), v.Op, args[1].Number())
	case workshop.ValCompare:
		return compare(args[0], v.Op, args[1])
	case workshop.ValNot:
		return Boolean(!args[0].Truthy()), nil
	case workshop.ValCall:
		return m.callValue(v.Name, args)
	}
	return Null(), m.panicf(PanicTypeMismatch, "cannot evaluate %s", workshop.FormatValue(v))
}

func lastOf(v Value) Value {
	elems := v.Elems()
	if len(elems) == 0 {
		return Null()
	}
	return elems[len(elems)-1]
}

func appendTo(arr, v Value) Value {
	elems := append([]Value{}, arr.Elems()...)
	return Value{Kind: KindArray, Arr: append(elems, v)}
}

func (m *VM) slice(arr, start, count Value) (Value, error) {
	s, err := m.index(start)
	if err != nil {
		return Null(), err
	}
	n, err := m.index(count)
	if err != nil {
		return Null(), err
	}
	elems := arr.Elems()
	s = max(0, min(s, len(elems)))
	end := max(s, min(s+n, len(elems)))
	return Value{Kind: KindArray, Arr: append([]Value{}, elems[s:end]...)}, nil
}

func arith(a float64, op string, b float64) (Value, error) {
	switch op {
	case "+":
		return Number(a + b), nil
	case "-":
		return Number(a - b), nil
	case "*":
		return Number(a * b), nil
	case "/":
		if b == 0 {
			return Number(0), nil
		}
		return Number(a / b), nil
	case "%":
		if b == 0 {
			return Number(0), nil
		}
		return Number(math.Mod(a, b)), nil
	}
	return Null(), fmt.Errorf("vm: unknown arithmetic operator %q", op)
}

func compare(a Value, op string, b Value) (Value, error) {
	switch op {
	case "==":
		return Boolean(Equal(a, b)), nil
	case "!=":
		return Boolean(!Equal(a, b)), nil
	case "<":
		return Boolean(a.Number() < b.Number()), nil
	case "<=":
		return Boolean(a.Number() <= b.Number()), nil
	case ">":
		return Boolean(a.Number() > b.Number()), nil
	case ">=":
		return Boolean(a.Number() >= b.Number()), nil
	}
	return Null(), fmt.Errorf("vm: unknown comparison %q", op)
}

// Program returns the program being executed.
func (m *VM) Program() *workshop.Program { return m.prog }
