package symbols

import (
	"wsc/internal/source"
)

// Declaration is the result of a name lookup: either one variable-like symbol
// or the visible overloads of a function group.
type Declaration struct {
	Scope     ScopeID
	Symbol    SymbolID
	Overloads []SymbolID
}

func (d Declaration) IsGroup() bool { return len(d.Overloads) > 0 }

func visibleAt(access AccessLevel, getPrivate, getProtected bool) bool {
	switch access {
	case AccessPrivate:
		return getPrivate
	case AccessProtected:
		return getProtected
	default:
		return true
	}
}

// Resolve walks from scope to the root and returns the first declaration
// named name. At each level variables are checked before function groups.
// Once the walk leaves a scope that stops private (or protected) lookup, outer
// declarations with that access level are skipped. With requireFunctionLike
// only function groups and lambda-typed variables match.
func (t *Table) Resolve(scope ScopeID, name string, requireFunctionLike bool) (Declaration, bool) {
	id, ok := t.Strings.Find(name)
	if !ok {
		return Declaration{}, false
	}
	getPrivate, getProtected := true, true
	for cur := scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if s == nil {
			break
		}
		if symID, ok := s.variable(id); ok {
			sym := t.Symbols.Get(symID)
			if visibleAt(sym.Access, getPrivate, getProtected) && (!requireFunctionLike || sym.Type.IsLambda()) {
				return Declaration{Scope: cur, Symbol: symID}, true
			}
		}
		if g := s.group(id); g != nil {
			if overloads := t.visibleOverloads(g, getPrivate, getProtected); len(overloads) > 0 {
				return Declaration{Scope: cur, Overloads: overloads}, true
			}
		}
		if s.Flags.Has(ScopeStopsPrivate) {
			getPrivate = false
		}
		if s.Flags.Has(ScopeStopsProtected) {
			getProtected = false
		}
		cur = s.Parent
	}
	return Declaration{}, false
}

func (t *Table) visibleOverloads(g *Group, getPrivate, getProtected bool) []SymbolID {
	out := make([]SymbolID, 0, len(g.Overloads))
	for _, id := range g.Overloads {
		if visibleAt(t.Symbols.Get(id).Access, getPrivate, getProtected) {
			out = append(out, id)
		}
	}
	return out
}

// ResolveOverload walks like Resolve over function groups only and returns
// the first overload whose parameter types equal args exactly. Within one
// group the newest declaration wins, so an override shadows its virtual.
// Partial or ambiguous matches are NotFound; the caller diagnoses them.
func (t *Table) ResolveOverload(scope ScopeID, name string, args []TypeKey) (SymbolID, bool) {
	id, ok := t.Strings.Find(name)
	if !ok {
		return NoSymbolID, false
	}
	getPrivate, getProtected := true, true
	for cur := scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if s == nil {
			break
		}
		if g := s.group(id); g != nil {
			overloads := t.visibleOverloads(g, getPrivate, getProtected)
			for i := len(overloads) - 1; i >= 0; i-- {
				if t.Symbols.Get(overloads[i]).Signature.SameParams(args) {
					return overloads[i], true
				}
			}
		}
		if s.Flags.Has(ScopeStopsPrivate) {
			getPrivate = false
		}
		if s.Flags.Has(ScopeStopsProtected) {
			getProtected = false
		}
		cur = s.Parent
	}
	return NoSymbolID, false
}

// LookupMember looks name up directly in scope, as for a qualified reference
// ns.name. Access is not filtered; callers use AccessCheck.
func (t *Table) LookupMember(scope ScopeID, name string, requireFunctionLike bool) (Declaration, bool) {
	s := t.Scopes.Get(scope)
	id, ok := t.Strings.Find(name)
	if s == nil || !ok {
		return Declaration{}, false
	}
	if symID, ok := s.variable(id); ok {
		if !requireFunctionLike || t.Symbols.Get(symID).Type.IsLambda() {
			return Declaration{Scope: scope, Symbol: symID}, true
		}
	}
	if g := s.group(id); g != nil {
		return Declaration{Scope: scope, Overloads: append([]SymbolID(nil), g.Overloads...)}, true
	}
	return Declaration{}, false
}

// AccessCheck reports whether sym may be used from the scope from. Public
// symbols always pass. Otherwise the parent chain of from must reach the
// declaring scope before crossing a boundary that stops sym's access level.
func (t *Table) AccessCheck(from ScopeID, symID SymbolID) bool {
	sym := t.Symbols.Get(symID)
	if sym == nil {
		return false
	}
	if sym.Access == AccessPublic {
		return true
	}
	for cur := from; cur.IsValid(); {
		if cur == sym.Scope {
			return true
		}
		s := t.Scopes.Get(cur)
		if s == nil {
			return false
		}
		if sym.Access == AccessPrivate && s.Flags.Has(ScopeStopsPrivate) {
			return false
		}
		if sym.Access == AccessProtected && s.Flags.Has(ScopeStopsProtected) {
			return false
		}
		cur = s.Parent
	}
	return false
}

// Overridden finds the virtual (or override) that fn overrides, searching
// from fn's own scope outward and ignoring conflict boundaries.
func (t *Table) Overridden(fn SymbolID) (SymbolID, bool) {
	sym := t.Symbols.Get(fn)
	if sym == nil || sym.Kind != SymbolFunction {
		return NoSymbolID, false
	}
	var params []TypeKey
	if sym.Signature != nil {
		params = sym.Signature.Params
	}
	for cur := sym.Scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if g := s.group(sym.Name); g != nil {
			for _, other := range g.Overloads {
				if other == fn {
					continue
				}
				o := t.Symbols.Get(other)
				if (o.Flags.Has(SymbolFlagVirtual) || o.Flags.Has(SymbolFlagOverride)) && o.Signature.SameParams(params) {
					return other, true
				}
			}
		}
		cur = s.Parent
	}
	return NoSymbolID, false
}

// OverloadsByName lists every visible overload named name, nearest scope
// first. Used by callers to diagnose failed overload resolution.
func (t *Table) OverloadsByName(scope ScopeID, name string) []SymbolID {
	id, ok := t.Strings.Find(name)
	if !ok {
		return nil
	}
	var out []SymbolID
	getPrivate, getProtected := true, true
	for cur := scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if g := s.group(id); g != nil {
			out = append(out, t.visibleOverloads(g, getPrivate, getProtected)...)
		}
		if s.Flags.Has(ScopeStopsPrivate) {
			getPrivate = false
		}
		if s.Flags.Has(ScopeStopsProtected) {
			getProtected = false
		}
		cur = s.Parent
	}
	return out
}

// GetThis returns the nearest bound "this" type, or "".
func (t *Table) GetThis(scope ScopeID) TypeKey {
	for cur := scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if s == nil {
			break
		}
		if s.This != "" {
			return s.This
		}
		cur = s.Parent
	}
	return ""
}

// EnclosingBody returns the nearest scope flagged ScopeFunctionBody at or
// above scope, or NoScopeID outside any body.
func (t *Table) EnclosingBody(scope ScopeID) ScopeID {
	for cur := scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if s == nil {
			break
		}
		if s.Flags.Has(ScopeFunctionBody) {
			return cur
		}
		cur = s.Parent
	}
	return NoScopeID
}

// IsAncestor reports whether ancestor is scope or one of its parents.
func (t *Table) IsAncestor(ancestor, scope ScopeID) bool {
	for cur := scope; cur.IsValid(); {
		if cur == ancestor {
			return true
		}
		s := t.Scopes.Get(cur)
		if s == nil {
			return false
		}
		cur = s.Parent
	}
	return false
}

// Contains reports whether sym is declared directly in scope.
func (t *Table) Contains(scope ScopeID, symID SymbolID) bool {
	sym := t.Symbols.Get(symID)
	return sym != nil && sym.Scope == scope
}

// VisibleNames lists names usable at position at from scope, nearest first,
// stopping after a completion boundary. Declarations later than at are left
// out unless they are whole-context. A zero at disables the position filter.
func (t *Table) VisibleNames(scope ScopeID, at source.Span) []string {
	var out []string
	seen := make(map[source.StringID]bool)
	add := func(name source.StringID) {
		if seen[name] {
			return
		}
		seen[name] = true
		out = append(out, t.Strings.MustLookup(name))
	}
	for cur := scope; cur.IsValid(); {
		s := t.Scopes.Get(cur)
		if s == nil {
			break
		}
		for _, id := range s.Vars {
			if t.scopedAt(id, at, scope) {
				add(t.Symbols.Get(id).Name)
			}
		}
		for _, g := range s.Groups {
			for _, id := range g.Overloads {
				if t.scopedAt(id, at, scope) {
					add(g.Name)
					break
				}
			}
		}
		if s.Flags.Has(ScopeCompletionBoundary) {
			break
		}
		cur = s.Parent
	}
	return out
}

func (t *Table) scopedAt(id SymbolID, at source.Span, getter ScopeID) bool {
	sym := t.Symbols.Get(id)
	if sym.Flags.Has(SymbolFlagInternal) {
		return false
	}
	inPosition := at.IsZero() || sym.Span.IsZero() || sym.Flags.Has(SymbolFlagWholeContext) || !at.Before(sym.Span)
	return inPosition && t.AccessCheck(getter, id)
}
