package symbols

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Validate checks the structural invariants of both arenas and joins every
// violation found.
func (t *Table) Validate() error {
	var errs []error

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := &t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		if scope.Parent.IsValid() {
			if scope.Parent >= scopeID {
				errs = append(errs, fmt.Errorf("scope %d has parent %d allocated after it", scopeID, scope.Parent))
				continue
			}
			if !slices.Contains(t.Scopes.data[scope.Parent].Children, scopeID) {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", scopeID, scope.Parent))
			}
		}
		for name, id := range scope.varIndex {
			if !slices.Contains(scope.Vars, id) {
				errs = append(errs, fmt.Errorf("scope %d name index %d references missing symbol %d", scopeID, name, id))
			}
		}
		if len(scope.varIndex) != len(scope.Vars) {
			errs = append(errs, fmt.Errorf("scope %d has %d variables but %d indexed names", scopeID, len(scope.Vars), len(scope.varIndex)))
		}
		for gi, g := range scope.Groups {
			if scope.groupIndex[g.Name] != gi {
				errs = append(errs, fmt.Errorf("scope %d group %d not indexed", scopeID, g.Name))
			}
			if len(g.Overloads) == 0 {
				errs = append(errs, fmt.Errorf("scope %d group %d is empty", scopeID, g.Name))
			}
		}
	}

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		symbolID, err := toSymbolID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sym := t.Symbols.data[idx]
		scope := t.Scopes.Get(sym.Scope)
		if scope == nil {
			errs = append(errs, fmt.Errorf("symbol %d has invalid scope %d", symbolID, sym.Scope))
			continue
		}
		found := false
		if sym.Kind == SymbolFunction {
			if g := scope.group(sym.Name); g != nil {
				found = slices.Contains(g.Overloads, symbolID)
			}
		} else {
			found = slices.Contains(scope.Vars, symbolID)
		}
		if !found {
			errs = append(errs, fmt.Errorf("symbol %d is missing from scope %d", symbolID, sym.Scope))
		}
		if sym.Kind == SymbolNamespace && !sym.Target.IsValid() {
			errs = append(errs, fmt.Errorf("namespace symbol %d has no member scope", symbolID))
		}
	}

	return errors.Join(errs...)
}

func toScopeID(idx int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(value), nil
}

func toSymbolID(idx int) (SymbolID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoSymbolID, fmt.Errorf("symbol index %d overflow: %w", idx, err)
	}
	return SymbolID(value), nil
}
