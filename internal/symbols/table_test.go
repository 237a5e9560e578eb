package symbols

import (
	"errors"
	"slices"
	"testing"

	"wsc/internal/source"
)

func sig(params ...TypeKey) *FunctionSignature {
	return &FunctionSignature{Params: params, Result: TypeVoid}
}

func mustDeclare(t *testing.T, tbl *Table, scope ScopeID, d Decl) SymbolID {
	t.Helper()
	id, err := tbl.Declare(scope, d)
	if err != nil {
		t.Fatalf("declare %s: %v", d.Name, err)
	}
	return id
}

func TestShadowingResolvesNearest(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	root := tbl.NewScope(ScopeFile, NoScopeID, ScopeCatchesConflicts, source.Span{})
	fn := tbl.NewScope(ScopeFunction, root, ScopeFunctionBody, source.Span{})
	block := tbl.NewScope(ScopeBlock, fn, 0, source.Span{})

	outer := mustDeclare(t, tbl, root, Decl{Name: "x", Kind: SymbolVar, Type: TypeNumber})
	middle := mustDeclare(t, tbl, fn, Decl{Name: "x", Kind: SymbolVar, Type: TypeNumber})
	inner := mustDeclare(t, tbl, block, Decl{Name: "x", Kind: SymbolVar, Type: TypeNumber})

	cases := []struct {
		from ScopeID
		want SymbolID
	}{
		{root, outer},
		{fn, middle},
		{block, inner},
	}
	for _, tc := range cases {
		got, ok := tbl.Resolve(tc.from, "x", false)
		if !ok || got.Symbol != tc.want {
			t.Fatalf("resolve x from %d = %+v, want symbol %d", tc.from, got, tc.want)
		}
	}
}

func TestDuplicateVariableInSameScope(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	root := tbl.NewScope(ScopeFile, NoScopeID, 0, source.Span{})
	first := mustDeclare(t, tbl, root, Decl{Name: "a", Kind: SymbolVar})

	_, err := tbl.Declare(root, Decl{Name: "a", Kind: SymbolVar})
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Existing != first {
		t.Fatalf("expected DuplicateError on %d, got %v", first, err)
	}
	if !errors.Is(err, ErrDuplicateDeclaration) || errors.Is(err, ErrDuplicateInternal) {
		t.Fatalf("user duplicate must wrap ErrDuplicateDeclaration only: %v", err)
	}

	_, err = tbl.DeclareInternal(root, Decl{Name: "a", Kind: SymbolVar})
	if !errors.Is(err, ErrDuplicateInternal) {
		t.Fatalf("internal duplicate must wrap ErrDuplicateInternal: %v", err)
	}
	if got := len(tbl.Scope(root).Vars); got != 1 {
		t.Fatalf("failed declarations must not be installed, have %d vars", got)
	}
}

func TestFunctionConflictsStopAtCatchingScope(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	prelude := tbl.NewScope(ScopePrelude, NoScopeID, 0, source.Span{})
	file := tbl.NewScope(ScopeFile, prelude, ScopeCatchesConflicts, source.Span{})
	inner := tbl.NewScope(ScopeBlock, file, 0, source.Span{})

	mustDeclare(t, tbl, prelude, Decl{Name: "Abs", Kind: SymbolFunction, Signature: sig(TypeNumber)})
	// Same signature below a conflict-catching scope is allowed.
	mustDeclare(t, tbl, file, Decl{Name: "Abs", Kind: SymbolFunction, Signature: sig(TypeNumber)})
	// Same signature in a nested scope without a boundary clashes.
	if _, err := tbl.Declare(inner, Decl{Name: "Abs", Kind: SymbolFunction, Signature: sig(TypeNumber)}); !errors.Is(err, ErrDuplicateDeclaration) {
		t.Fatalf("expected clash, got %v", err)
	}
	// A different signature is a new overload.
	mustDeclare(t, tbl, inner, Decl{Name: "Abs", Kind: SymbolFunction, Signature: sig(TypeBool)})
	// A variable of the same name as a visible function clashes for functions.
	mustDeclare(t, tbl, file, Decl{Name: "Count", Kind: SymbolVar})
	if _, err := tbl.Declare(inner, Decl{Name: "Count", Kind: SymbolFunction, Signature: sig()}); !errors.Is(err, ErrDuplicateDeclaration) {
		t.Fatalf("function over variable must clash, got %v", err)
	}
}

func TestOverrideDoesNotConflict(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	ns := tbl.NewScope(ScopeNamespace, NoScopeID, ScopeCatchesConflicts, source.Span{})
	virt := mustDeclare(t, tbl, ns, Decl{Name: "f", Kind: SymbolFunction, Flags: SymbolFlagVirtual, Signature: sig(TypeNumber)})
	over := mustDeclare(t, tbl, ns, Decl{Name: "f", Kind: SymbolFunction, Flags: SymbolFlagOverride, Signature: sig(TypeNumber)})
	if got, ok := tbl.Overridden(over); !ok || got != virt {
		t.Fatalf("Overridden = %d,%v want %d", got, ok, virt)
	}
	if got, _ := tbl.ResolveOverload(ns, "f", []TypeKey{TypeNumber}); got != over {
		t.Fatalf("override must win resolution, got %d", got)
	}
	if _, err := tbl.Declare(ns, Decl{Name: "f", Kind: SymbolFunction, Signature: sig(TypeNumber)}); err == nil {
		t.Fatalf("plain redeclaration must still clash")
	}
}

func TestResolveOverloadExactOnly(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	root := tbl.NewScope(ScopeFile, NoScopeID, 0, source.Span{})
	signatures := [][]TypeKey{
		{},
		{TypeNumber},
		{TypeBool},
		{TypeNumber, TypeNumber},
		{TypeArray, TypeAny},
	}
	ids := make([]SymbolID, len(signatures))
	for i, params := range signatures {
		ids[i] = mustDeclare(t, tbl, root, Decl{Name: "f", Kind: SymbolFunction, Signature: sig(params...)})
	}
	for i, params := range signatures {
		got, ok := tbl.ResolveOverload(root, "f", params)
		if !ok || got != ids[i] {
			t.Fatalf("f%v resolved to %d, want %d", params, got, ids[i])
		}
	}
	misses := [][]TypeKey{
		{TypeAny},
		{TypeNumber, TypeBool},
		{TypeArray, TypeNumber},
		{TypeNumber, TypeNumber, TypeNumber},
	}
	for _, params := range misses {
		if got, ok := tbl.ResolveOverload(root, "f", params); ok {
			t.Fatalf("f%v must not resolve, got %d", params, got)
		}
	}
}

func TestPrivateBoundary(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	file := tbl.NewScope(ScopeFile, NoScopeID, ScopeCatchesConflicts, source.Span{})
	ns := tbl.NewScope(ScopeNamespace, file, ScopeStopsPrivate|ScopeCatchesConflicts, source.Span{})
	inner := tbl.NewScope(ScopeFunction, ns, ScopeFunctionBody, source.Span{})

	hidden := mustDeclare(t, tbl, file, Decl{Name: "secret", Kind: SymbolVar, Access: AccessPrivate})
	open := mustDeclare(t, tbl, file, Decl{Name: "shared", Kind: SymbolVar})
	member := mustDeclare(t, tbl, ns, Decl{Name: "own", Kind: SymbolVar, Access: AccessPrivate})

	if _, ok := tbl.Resolve(inner, "secret", false); ok {
		t.Fatalf("private declaration above the boundary resolved from inside")
	}
	if got, ok := tbl.Resolve(file, "secret", false); !ok || got.Symbol != hidden {
		t.Fatalf("private declaration must resolve in its own scope")
	}
	if got, ok := tbl.Resolve(inner, "shared", false); !ok || got.Symbol != open {
		t.Fatalf("public declaration must cross the boundary")
	}
	if got, ok := tbl.Resolve(inner, "own", false); !ok || got.Symbol != member {
		t.Fatalf("members inside the boundary must resolve to themselves")
	}
	if tbl.AccessCheck(file, member) {
		t.Fatalf("private member accessible from outside its namespace")
	}
	if !tbl.AccessCheck(inner, member) {
		t.Fatalf("private member must be accessible from inside its namespace")
	}
}

func TestProtectedBoundaryIsIndependent(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	file := tbl.NewScope(ScopeFile, NoScopeID, 0, source.Span{})
	sealed := tbl.NewScope(ScopeNamespace, file, ScopeStopsProtected, source.Span{})
	priv := mustDeclare(t, tbl, file, Decl{Name: "p", Kind: SymbolVar, Access: AccessPrivate})
	prot := mustDeclare(t, tbl, file, Decl{Name: "q", Kind: SymbolVar, Access: AccessProtected})

	if _, ok := tbl.Resolve(sealed, "p", false); !ok {
		t.Fatalf("protected boundary must not hide private declarations")
	}
	if _, ok := tbl.Resolve(sealed, "q", false); ok {
		t.Fatalf("protected boundary must hide protected declarations")
	}
	if !tbl.AccessCheck(sealed, priv) || tbl.AccessCheck(sealed, prot) {
		t.Fatalf("access check disagrees with boundary kinds")
	}
}

func TestRequireFunctionLike(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	root := tbl.NewScope(ScopeFile, NoScopeID, 0, source.Span{})
	inner := tbl.NewScope(ScopeBlock, root, 0, source.Span{})
	fn := mustDeclare(t, tbl, root, Decl{Name: "g", Kind: SymbolFunction, Signature: sig()})
	mustDeclare(t, tbl, inner, Decl{Name: "g", Kind: SymbolVar, Type: TypeNumber})
	lam := mustDeclare(t, tbl, inner, Decl{Name: "h", Kind: SymbolVar, Type: TypeLambda})

	got, ok := tbl.Resolve(inner, "g", true)
	if !ok || !got.IsGroup() || got.Overloads[0] != fn {
		t.Fatalf("function-like lookup must skip the number variable, got %+v", got)
	}
	if got, ok := tbl.Resolve(inner, "h", true); !ok || got.Symbol != lam {
		t.Fatalf("lambda-typed variable must match function-like lookup")
	}
}

func TestVisibleNamesHonoursPositionAndBoundary(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	prelude := tbl.NewScope(ScopePrelude, NoScopeID, 0, source.Span{})
	file := tbl.NewScope(ScopeFile, prelude, ScopeCompletionBoundary, source.Span{})
	fn := tbl.NewScope(ScopeFunction, file, 0, source.Span{})
	mustDeclare(t, tbl, prelude, Decl{Name: "Abs", Kind: SymbolFunction, Signature: sig(TypeNumber)})
	mustDeclare(t, tbl, file, Decl{Name: "hoisted", Kind: SymbolFunction, Flags: SymbolFlagWholeContext, Span: source.Span{File: 1, Line: 50, Col: 1}})
	mustDeclare(t, tbl, fn, Decl{Name: "early", Kind: SymbolVar, Span: source.Span{File: 1, Line: 2, Col: 1}})
	mustDeclare(t, tbl, fn, Decl{Name: "late", Kind: SymbolVar, Span: source.Span{File: 1, Line: 9, Col: 1}})

	names := tbl.VisibleNames(fn, source.Span{File: 1, Line: 5, Col: 1})
	if !slices.Contains(names, "early") || !slices.Contains(names, "hoisted") {
		t.Fatalf("missing names: %v", names)
	}
	if slices.Contains(names, "late") {
		t.Fatalf("declaration after position leaked: %v", names)
	}
	if slices.Contains(names, "Abs") {
		t.Fatalf("completion boundary not honoured: %v", names)
	}
}

func TestGetThisAndValidate(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	file := tbl.NewScope(ScopeFile, NoScopeID, 0, source.Span{})
	rule := tbl.NewScope(ScopeRule, file, 0, source.Span{})
	tbl.Scope(rule).This = TypePlayer
	block := tbl.NewScope(ScopeBlock, rule, 0, source.Span{})
	if got := tbl.GetThis(block); got != TypePlayer {
		t.Fatalf("GetThis = %q", got)
	}
	if got := tbl.GetThis(file); got != "" {
		t.Fatalf("GetThis at file = %q", got)
	}
	if !tbl.IsAncestor(file, block) || tbl.IsAncestor(block, file) {
		t.Fatalf("IsAncestor wrong")
	}
	nsScope := tbl.NewScope(ScopeNamespace, file, 0, source.Span{})
	mustDeclare(t, tbl, file, Decl{Name: "N", Kind: SymbolNamespace, Target: nsScope})
	mustDeclare(t, tbl, block, Decl{Name: "v", Kind: SymbolVar})
	if err := tbl.InstallPrelude(file, []PreludeEntry{{Name: "Wait", Kind: SymbolFunction, Signature: sig(TypeNumber)}}); err != nil {
		t.Fatalf("prelude: %v", err)
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := tbl.InstallPrelude(file, []PreludeEntry{{Name: "Wait", Kind: SymbolFunction, Signature: sig(TypeNumber)}}); !errors.Is(err, ErrDuplicateInternal) {
		t.Fatalf("duplicate prelude must be internal error, got %v", err)
	}
}

func TestEnclosingBody(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	root := tbl.NewScope(ScopeFile, NoScopeID, 0, source.Span{})
	fn := tbl.NewScope(ScopeFunction, root, ScopeFunctionBody, source.Span{})
	block := tbl.NewScope(ScopeBlock, fn, 0, source.Span{})
	lam := tbl.NewScope(ScopeLambda, block, ScopeFunctionBody, source.Span{})
	inner := tbl.NewScope(ScopeBlock, lam, 0, source.Span{})

	cases := []struct {
		from ScopeID
		want ScopeID
	}{
		{root, NoScopeID},
		{fn, fn},
		{block, fn},
		{lam, lam},
		{inner, lam},
	}
	for _, tc := range cases {
		if got := tbl.EnclosingBody(tc.from); got != tc.want {
			t.Fatalf("EnclosingBody(%d) = %d, want %d", tc.from, got, tc.want)
		}
	}
}
