package vm

import (
	"math"

	"wsc/internal/workshop"
)

func (m *VM) callValue(name string, args []Value) (Value, error) {
	arg := func(i int) Value {
		if i < len(args) {
			return args[i]
		}
		return Null()
	}
	switch name {
	case "Abs":
		return Number(math.Abs(arg(0).Number())), nil
	case "Min":
		return Number(math.Min(arg(0).Number(), arg(1).Number())), nil
	case "Max":
		return Number(math.Max(arg(0).Number(), arg(1).Number())), nil
	case "Round":
		return Number(math.Round(arg(0).Number())), nil
	case "CountOf":
		return Number(float64(len(arg(0).Elems()))), nil
	case "FirstOf":
		if elems := arg(0).Elems(); len(elems) > 0 {
			return elems[0], nil
		}
		return Null(), nil
	case "LastOf":
		return lastOf(arg(0)), nil
	case "Contains":
		for _, e := range arg(0).Elems() {
			if Equal(e, arg(1)) {
				return Boolean(true), nil
			}
		}
		return Boolean(false), nil
	case "Append":
		return appendTo(arg(0), arg(1)), nil
	case "EventPlayer":
		if m.player == nil {
			return Null(), nil
		}
		return PlayerValue(m.player.ID), nil
	case "Score":
		if p := m.playerByValue(arg(0)); p != nil {
			return Number(p.Score), nil
		}
		return Number(0), nil
	case "TotalTime":
		return Number(m.Time), nil
	}
	return Null(), m.panicf(PanicUnknownBuiltin, "unknown value %s", name)
}

func (m *VM) callAction(a *workshop.Action) error {
	args := make([]Value, len(a.Args))
	for i, x := range a.Args {
		v, err := m.eval(x)
		if err != nil {
			return err
		}
		args[i] = v
	}
	switch a.Name {
	case "Wait":
		if len(args) > 0 {
			m.Time += max(0, args[0].Number())
		}
	case "Log":
		v := Null()
		if len(args) > 0 {
			v = args[0]
		}
		m.Log = append(m.Log, v)
	case "SetScore":
		if len(args) == 2 {
			if p := m.playerByValue(args[0]); p != nil {
				p.Score = args[1].Number()
			}
		}
	case "Kill":
		if m.player == nil {
			return m.panicf(PanicNoEventPlayer, "Kill without an event player")
		}
		m.player.Dead = true
	default:
		return m.panicf(PanicUnknownBuiltin, "unknown action %s", a.Name)
	}
	return nil
}

func (m *VM) playerByValue(v Value) *Player {
	if v.Kind != KindPlayer || v.Player < 1 || v.Player > len(m.Players) {
		return nil
	}
	return m.Players[v.Player-1]
}
