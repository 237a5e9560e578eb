package vm

import (
	"strconv"
	"strings"
)

// Kind enumerates runtime value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindPlayer
	KindArray
)

// Value is a runtime value. Arrays have value semantics: writers copy
// before changing an element.
type Value struct {
	Kind   Kind
	Num    float64
	Bool   bool
	Player int
	Arr    []Value
}

func Null() Value { return Value{} }

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func PlayerValue(id int) Value { return Value{Kind: KindPlayer, Player: id} }

func ArrayOf(elems ...Value) Value {
	return Value{Kind: KindArray, Arr: append([]Value{}, elems...)}
}

// Truthy follows the target: null, false, zero and empty arrays are false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNumber:
		return v.Num != 0
	case KindBool:
		return v.Bool
	case KindPlayer:
		return true
	case KindArray:
		return len(v.Arr) > 0
	}
	return false
}

// Number converts v for arithmetic; null is 0.
func (v Value) Number() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

// Elems views v as an array. Null is empty and scalars are one element.
func (v Value) Elems() []Value {
	switch v.Kind {
	case KindArray:
		return v.Arr
	case KindNull:
		return nil
	}
	return []Value{v}
}

// Equal compares values the way the target's Compare does.
func Equal(a, b Value) bool {
	switch {
	case a.Kind == KindArray || b.Kind == KindArray:
		ea, eb := a.Elems(), b.Elems()
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !Equal(ea[i], eb[i]) {
				return false
			}
		}
		return true
	case a.Kind == KindPlayer || b.Kind == KindPlayer:
		return a.Kind == b.Kind && a.Player == b.Player
	}
	return a.Number() == b.Number()
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindPlayer:
		return "player " + strconv.Itoa(v.Player)
	case KindArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "null"
}
