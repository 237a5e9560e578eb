package symbols

import (
	"wsc/internal/source"
)

// ScopeKind enumerates scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopePrelude           // built-ins
	ScopeFile              // user top level
	ScopeNamespace
	ScopeRule
	ScopeFunction
	ScopeLambda
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopePrelude:
		return "prelude"
	case ScopeFile:
		return "file"
	case ScopeNamespace:
		return "namespace"
	case ScopeRule:
		return "rule"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// ScopeFlags control visibility cutoffs along the parent chain.
type ScopeFlags uint8

const (
	// ScopeStopsPrivate hides private declarations of outer scopes from
	// lookups that start inside this scope.
	ScopeStopsPrivate ScopeFlags = 1 << iota
	ScopeStopsProtected
	// ScopeCatchesConflicts bounds duplicate checks to this scope and below.
	ScopeCatchesConflicts
	// ScopeCompletionBoundary ends VisibleNames after this scope.
	ScopeCompletionBoundary
	// ScopeFunctionBody marks the outermost scope of a rule, function or
	// lambda: the scope a return statement leaves. See Table.EnclosingBody.
	ScopeFunctionBody
)

func (f ScopeFlags) Has(flag ScopeFlags) bool { return f&flag != 0 }

// Group is a named overload set.
type Group struct {
	Name      source.StringID
	Overloads []SymbolID
}

// Scope is one node of the lexical tree.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Flags    ScopeFlags
	This     TypeKey
	Name     string // used in messages: "namespace Util", "current scope"
	Span     source.Span
	Vars     []SymbolID // variable-like declarations, declaration order
	Groups   []Group
	Children []ScopeID

	varIndex   map[source.StringID]SymbolID
	groupIndex map[source.StringID]int
}

func (s *Scope) variable(name source.StringID) (SymbolID, bool) {
	id, ok := s.varIndex[name]
	return id, ok
}

func (s *Scope) group(name source.StringID) *Group {
	idx, ok := s.groupIndex[name]
	if !ok {
		return nil
	}
	return &s.Groups[idx]
}

func (s *Scope) addVar(name source.StringID, id SymbolID) {
	s.Vars = append(s.Vars, id)
	s.varIndex[name] = id
}

func (s *Scope) addOverload(name source.StringID, id SymbolID) {
	if g := s.group(name); g != nil {
		g.Overloads = append(g.Overloads, id)
		return
	}
	s.groupIndex[name] = len(s.Groups)
	s.Groups = append(s.Groups, Group{Name: name, Overloads: []SymbolID{id}})
}
