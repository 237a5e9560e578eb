package testkit

import (
	"fmt"
	"sort"

	"wsc/internal/vm"
	"wsc/internal/workshop"
)

// CheckProgramInvariants runs structural checks on a finished program:
// 1) no skip placeholder survived finalization
// 2) every skip lands inside its rule, at most one past the last action
// 3) If/While/For are closed by End; Else If and Else only continue an If
// 4) Break and Continue sit inside a loop
// 5) every Call Subroutine names a subroutine of the program
func CheckProgramInvariants(p *workshop.Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	subs := make(map[string]bool, len(p.Subroutines))
	for _, s := range p.Subroutines {
		subs[s] = true
	}
	for _, r := range p.Rules {
		var open []workshop.ActionKind
		loops := 0
		for i, a := range r.Actions {
			switch a.Kind {
			case workshop.ActSkipStart, workshop.ActSkipEnd:
				return fmt.Errorf("%s: placeholder %s at %d", r.Name, a.Kind, i)
			case workshop.ActSkip, workshop.ActSkipIf:
				if a.Count < 0 || i+1+a.Count > len(r.Actions) {
					return fmt.Errorf("%s: skip at %d by %d leaves the rule (%d actions)", r.Name, i, a.Count, len(r.Actions))
				}
			case workshop.ActIf, workshop.ActWhile, workshop.ActFor:
				open = append(open, a.Kind)
				if a.Kind != workshop.ActIf {
					loops++
				}
			case workshop.ActElseIf, workshop.ActElse:
				if len(open) == 0 || open[len(open)-1] != workshop.ActIf {
					return fmt.Errorf("%s: %s at %d does not continue an If", r.Name, a.Kind, i)
				}
			case workshop.ActEnd:
				if len(open) == 0 {
					return fmt.Errorf("%s: End at %d closes nothing", r.Name, i)
				}
				if open[len(open)-1] != workshop.ActIf {
					loops--
				}
				open = open[:len(open)-1]
			case workshop.ActBreak, workshop.ActContinue:
				if loops == 0 {
					return fmt.Errorf("%s: %s at %d outside a loop", r.Name, a.Kind, i)
				}
			case workshop.ActCallSubroutine:
				if !subs[a.Name] {
					return fmt.Errorf("%s: call of unknown subroutine %q at %d", r.Name, a.Name, i)
				}
			}
		}
		if len(open) != 0 {
			return fmt.Errorf("%s: %d blocks left open", r.Name, len(open))
		}
	}
	return nil
}

// LiveArrays lists the plain variables of m that still hold a non-empty
// array. After a run, recursion stacks must all be empty, so anything
// listed that is not a user array is a leaked activation.
func LiveArrays(m *vm.VM) []string {
	var out []string
	for _, info := range m.Program().Vars {
		if info.Element >= 0 {
			continue
		}
		var v vm.Value
		var ok bool
		if info.Space == workshop.SpaceGlobal {
			v, ok = m.Global(info.Name)
			if ok && len(v.Elems()) > 0 && v.Kind == vm.KindArray {
				out = append(out, info.Name)
			}
			continue
		}
		for _, p := range m.Players {
			v, ok = m.PlayerVar(p.ID, info.Name)
			if ok && len(v.Elems()) > 0 && v.Kind == vm.KindArray {
				out = append(out, fmt.Sprintf("%s@%d", info.Name, p.ID))
			}
		}
	}
	sort.Strings(out)
	return out
}
