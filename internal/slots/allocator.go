// Package slots assigns storage locations in the two target variable spaces.
//
// Allocation is permanent for the lifetime of one compilation: counters only
// grow and nothing is freed. Every allocation is recorded so the finished
// program can declare the size of each space.
package slots

import (
	"errors"
	"fmt"
	"strings"

	"wsc/internal/workshop"
)

// DefaultLimit is the native slot count of each space on the target.
const DefaultLimit = 128

// reserved native slots at the top of each space: shadow, scratch and
// overflow, in that order.
const reserved = 3

// MinLimit is the smallest usable native slot count.
const MinLimit = reserved + 1

var ErrLimitTooSmall = errors.New("slot limit too small")

// Config sets the native slot count of each space.
type Config struct {
	GlobalSlots int
	PlayerSlots int
}

type space struct {
	limit    int
	next     int
	elements int
	used     int
	shadow   *workshop.Variable
	scratch  *workshop.Variable
	overflow *workshop.Variable
}

// Allocator hands out slots. It is owned by one compilation and not safe for
// concurrent use.
type Allocator struct {
	spaces [2]space
	names  map[string]int
	all    []workshop.VarInfo
}

func New(cfg Config) (*Allocator, error) {
	a := &Allocator{names: make(map[string]int)}
	limits := [2]int{cfg.GlobalSlots, cfg.PlayerSlots}
	for i, lim := range limits {
		if lim == 0 {
			lim = DefaultLimit
		}
		if lim <= reserved {
			return nil, fmt.Errorf("%w: %s space has %d slots, need more than %d",
				ErrLimitTooSmall, workshop.Space(i), lim, reserved)
		}
		a.spaces[i].limit = lim
	}
	return a, nil
}

// Allocate returns a fresh location named after hint. Once the native slots
// of the space are used up the location is an element of the space's
// overflow array.
func (a *Allocator) Allocate(sp workshop.Space, hint string) workshop.VarRef {
	s := &a.spaces[sp]
	name := a.uniqueName(hint)
	if s.next < s.limit-reserved {
		v := &workshop.Variable{Name: name, Space: sp, Slot: s.next}
		s.next++
		s.bump(v.Slot)
		a.all = append(a.all, workshop.VarInfo{Name: name, Space: sp, Slot: v.Slot, Element: -1})
		return workshop.VarRef{Var: v}
	}
	over := a.overflowVar(sp)
	elem := s.elements
	s.elements++
	a.all = append(a.all, workshop.VarInfo{Name: name, Space: sp, Slot: over.Slot, Element: elem})
	return workshop.VarRef{Var: over, Element: workshop.Num(float64(elem)), Scratch: a.Scratch(sp)}
}

// Shadow returns the space's second scratch slot, used by recursion-aware
// element writes that wrap a Scratch sequence.
func (a *Allocator) Shadow(sp workshop.Space) *workshop.Variable {
	s := &a.spaces[sp]
	if s.shadow == nil {
		s.shadow = a.reservedVar(sp, "shadow", s.limit-3)
	}
	return s.shadow
}

// Scratch returns the space's shared scratch slot. Callers use it only for
// short copy-modify-store sequences that never nest.
func (a *Allocator) Scratch(sp workshop.Space) *workshop.Variable {
	s := &a.spaces[sp]
	if s.scratch == nil {
		s.scratch = a.reservedVar(sp, "scratch", s.limit-2)
	}
	return s.scratch
}

func (a *Allocator) overflowVar(sp workshop.Space) *workshop.Variable {
	s := &a.spaces[sp]
	if s.overflow == nil {
		s.overflow = a.reservedVar(sp, "overflow", s.limit-1)
	}
	return s.overflow
}

func (a *Allocator) reservedVar(sp workshop.Space, hint string, slot int) *workshop.Variable {
	v := &workshop.Variable{Name: a.uniqueName(hint), Space: sp, Slot: slot}
	a.spaces[sp].bump(slot)
	a.all = append(a.all, workshop.VarInfo{Name: v.Name, Space: sp, Slot: slot, Element: -1})
	return v
}

func (s *space) bump(slot int) {
	if slot+1 > s.used {
		s.used = slot + 1
	}
}

// Overflowed reports whether any allocation in sp spilled into the overflow
// array.
func (a *Allocator) Overflowed(sp workshop.Space) bool { return a.spaces[sp].elements > 0 }

// Used is the number of native slots the program needs in sp.
func (a *Allocator) Used(sp workshop.Space) int { return a.spaces[sp].used }

// Limit is the configured native slot count of sp.
func (a *Allocator) Limit(sp workshop.Space) int { return a.spaces[sp].limit }

// All lists every allocation in order.
func (a *Allocator) All() []workshop.VarInfo {
	out := make([]workshop.VarInfo, len(a.all))
	copy(out, a.all)
	return out
}

func (a *Allocator) uniqueName(hint string) string {
	base := sanitize(hint)
	n := a.names[base]
	a.names[base] = n + 1
	if n == 0 {
		return base
	}
	name := fmt.Sprintf("%s_%d", base, n)
	for a.names[name] > 0 {
		n++
		name = fmt.Sprintf("%s_%d", base, n)
	}
	a.names[base] = n + 1
	a.names[name] = 1
	return name
}

func sanitize(hint string) string {
	var sb strings.Builder
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if sb.Len() == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "v"
	}
	return sb.String()
}
