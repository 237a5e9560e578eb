package symbols

import (
	"wsc/internal/source"
)

// SymbolKind classifies a declaration.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVar
	SymbolParam
	SymbolFunction
	SymbolNamespace
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVar:
		return "variable"
	case SymbolParam:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolNamespace:
		return "namespace"
	default:
		return "invalid"
	}
}

// IsVariableLike reports kinds stored in Scope.Vars.
func (k SymbolKind) IsVariableLike() bool {
	return k == SymbolVar || k == SymbolParam || k == SymbolNamespace
}

// AccessLevel controls visibility across scope boundaries.
type AccessLevel uint8

const (
	AccessPublic AccessLevel = iota
	AccessProtected
	AccessPrivate
)

func (a AccessLevel) String() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "public"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	// SymbolFlagWholeContext makes the symbol visible before its declaration.
	SymbolFlagWholeContext SymbolFlags = 1 << iota
	SymbolFlagBuiltin
	SymbolFlagVirtual
	SymbolFlagOverride
	SymbolFlagSubroutine
	SymbolFlagReadOnly
	// SymbolFlagInternal marks compiler-generated declarations.
	SymbolFlagInternal
	// SymbolFlagPlayer stores the variable in the per-player space.
	SymbolFlagPlayer
	// SymbolFlagRestricted marks built-ins that need a triggering player.
	SymbolFlagRestricted
	// SymbolFlagAction marks built-ins that are statements, not values.
	SymbolFlagAction
)

func (f SymbolFlags) Has(flag SymbolFlags) bool { return f&flag != 0 }

// Strings returns textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	names := []struct {
		flag  SymbolFlags
		label string
	}{
		{SymbolFlagWholeContext, "whole-context"},
		{SymbolFlagBuiltin, "builtin"},
		{SymbolFlagVirtual, "virtual"},
		{SymbolFlagOverride, "override"},
		{SymbolFlagSubroutine, "subroutine"},
		{SymbolFlagReadOnly, "read-only"},
		{SymbolFlagInternal, "internal"},
		{SymbolFlagPlayer, "player"},
		{SymbolFlagRestricted, "restricted"},
		{SymbolFlagAction, "action"},
	}
	labels := make([]string, 0, 4)
	for _, n := range names {
		if f&n.flag != 0 {
			labels = append(labels, n.label)
		}
	}
	return labels
}

// Symbol describes a named entity declared in a scope.
type Symbol struct {
	Name      source.StringID
	Kind      SymbolKind
	Scope     ScopeID
	Span      source.Span
	Access    AccessLevel
	Flags     SymbolFlags
	Type      TypeKey
	Signature *FunctionSignature
	// Target is the member scope of a namespace symbol.
	Target ScopeID
}

// Decl is the request passed to Declare.
type Decl struct {
	Name      string
	Kind      SymbolKind
	Span      source.Span
	Access    AccessLevel
	Flags     SymbolFlags
	Type      TypeKey
	Signature *FunctionSignature
	Target    ScopeID
}
