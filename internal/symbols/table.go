package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"wsc/internal/source"
)

var (
	// ErrDuplicateDeclaration is a user error: the caller reports it.
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	// ErrDuplicateInternal means the compiler generated a clashing name. It is
	// a bug and aborts the unit.
	ErrDuplicateInternal = errors.New("duplicate internal declaration")
)

// DuplicateError names the declaration that a new one collided with.
type DuplicateError struct {
	Name     string
	Kind     SymbolKind
	Existing SymbolID
	Internal bool
}

func (e *DuplicateError) Error() string {
	if e.Internal {
		return fmt.Sprintf("internal %s %q already declared (symbol %d)", e.Kind, e.Name, e.Existing)
	}
	return fmt.Sprintf("%s %q already declared", e.Kind, e.Name)
}

func (e *DuplicateError) Unwrap() error {
	if e.Internal {
		return ErrDuplicateInternal
	}
	return ErrDuplicateDeclaration
}

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table owns the scope and symbol arenas of one compilation unit. It is
// dropped as a whole when the unit is done.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
}

// NewTable builds a fresh table. If strings is nil, a new interner is used.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
	}
}

// NewScope opens a child of parent. Pass NoScopeID for a root.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, flags ScopeFlags, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, flags, span)
}

func (t *Table) Scope(id ScopeID) *Scope { return t.Scopes.Get(id) }

func (t *Table) Symbol(id SymbolID) *Symbol { return t.Symbols.Get(id) }

// Name returns the symbol's identifier or "" when id is invalid.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	name, _ := t.Strings.Lookup(sym.Name)
	return name
}

// Declare installs a user declaration into scope. A clash returns a
// *DuplicateError wrapping ErrDuplicateDeclaration; nothing is installed.
//
// Variables clash only with names declared directly in scope, so inner scopes
// may shadow outer ones. Functions clash with a same-name variable or an
// identical-signature overload anywhere up to the nearest scope that catches
// conflicts, unless the new one overrides a virtual.
func (t *Table) Declare(scope ScopeID, d Decl) (SymbolID, error) {
	return t.declare(scope, d, false)
}

// DeclareInternal installs a compiler-generated declaration. A clash is
// reported as ErrDuplicateInternal.
func (t *Table) DeclareInternal(scope ScopeID, d Decl) (SymbolID, error) {
	d.Flags |= SymbolFlagInternal
	return t.declare(scope, d, true)
}

func (t *Table) declare(scopeID ScopeID, d Decl, internal bool) (SymbolID, error) {
	scope := t.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID, fmt.Errorf("symbols: declare %q into invalid scope %d", d.Name, scopeID)
	}
	if d.Kind == SymbolInvalid {
		return NoSymbolID, fmt.Errorf("symbols: declare %q without a kind", d.Name)
	}
	name := t.Strings.Intern(d.Name)
	if existing := t.conflict(scopeID, name, &d); existing.IsValid() {
		return NoSymbolID, &DuplicateError{Name: d.Name, Kind: d.Kind, Existing: existing, Internal: internal}
	}
	id := t.Symbols.New(&Symbol{
		Name:      name,
		Kind:      d.Kind,
		Scope:     scopeID,
		Span:      d.Span,
		Access:    d.Access,
		Flags:     d.Flags,
		Type:      d.Type,
		Signature: d.Signature,
		Target:    d.Target,
	})
	if d.Kind == SymbolFunction {
		scope.addOverload(name, id)
	} else {
		scope.addVar(name, id)
	}
	return id, nil
}

func (t *Table) conflict(scopeID ScopeID, name source.StringID, d *Decl) SymbolID {
	if d.Kind != SymbolFunction {
		scope := t.Scopes.Get(scopeID)
		if id, ok := scope.variable(name); ok {
			return id
		}
		if g := scope.group(name); g != nil {
			return g.Overloads[0]
		}
		return NoSymbolID
	}

	var params []TypeKey
	if d.Signature != nil {
		params = d.Signature.Params
	}
	for cur := scopeID; cur.IsValid(); {
		scope := t.Scopes.Get(cur)
		if scope == nil {
			break
		}
		if id, ok := scope.variable(name); ok {
			return id
		}
		if g := scope.group(name); g != nil {
			for _, other := range g.Overloads {
				sym := t.Symbols.Get(other)
				if sym.Signature.SameParams(params) && !overrides(d.Flags, sym.Flags) {
					return other
				}
			}
		}
		if scope.Flags.Has(ScopeCatchesConflicts) {
			break
		}
		cur = scope.Parent
	}
	return NoSymbolID
}

func overrides(next, prev SymbolFlags) bool {
	return next.Has(SymbolFlagOverride) && (prev.Has(SymbolFlagVirtual) || prev.Has(SymbolFlagOverride))
}
