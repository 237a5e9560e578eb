package sema

import (
	"fmt"
	"strings"

	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/source"
	"wsc/internal/symbols"
)

func (tc *typeChecker) record(e *hir.Expr, t symbols.TypeKey) symbols.TypeKey {
	if e.Type != "" {
		t = e.Type
	}
	tc.res.Types[e] = t
	return t
}

// expr checks e in value position and returns its type.
func (tc *typeChecker) expr(e *hir.Expr, scope symbols.ScopeID) symbols.TypeKey {
	if e == nil {
		return symbols.TypeAny
	}
	return tc.record(e, tc.exprType(e, scope))
}

func (tc *typeChecker) exprType(e *hir.Expr, scope symbols.ScopeID) symbols.TypeKey {
	switch d := e.Data.(type) {
	case *hir.NumData:
		return symbols.TypeNumber
	case *hir.BoolData:
		return symbols.TypeBool
	case *hir.RefData:
		sym := tc.ref(e, d, scope)
		if !sym.IsValid() {
			return symbols.TypeAny
		}
		return tc.table.Symbol(sym).Type.OrAny()
	case *hir.BinaryData:
		tc.expr(d.L, scope)
		tc.expr(d.R, scope)
		switch d.Op {
		case "+", "-", "*", "/", "%":
			return symbols.TypeNumber
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return symbols.TypeBool
		}
		tc.errorf(e.Span, diag.InpUnknownKind, "unknown operator %q", d.Op).Emit()
		return symbols.TypeAny
	case *hir.UnaryData:
		tc.expr(d.X, scope)
		switch d.Op {
		case "-":
			return symbols.TypeNumber
		case "!":
			return symbols.TypeBool
		}
		tc.errorf(e.Span, diag.InpUnknownKind, "unknown operator %q", d.Op).Emit()
		return symbols.TypeAny
	case *hir.CallData:
		return tc.call(e, scope, false)
	case *hir.InvokeData:
		calleeType := tc.expr(d.Callee, scope)
		if calleeType != symbols.TypeAny && !calleeType.IsLambda() {
			tc.errorf(d.Callee.Span, diag.SemaNotCallable, "value of type %s cannot be invoked", calleeType).Emit()
		}
		for _, a := range d.Args {
			tc.expr(a, scope)
		}
		tc.res.InvokeSites = append(tc.res.InvokeSites, e)
		tc.invokes = append(tc.invokes, pendingInvoke{expr: e, callee: d.Callee, args: len(d.Args), owner: tc.owner})
		return symbols.TypeAny
	case *hir.IndexData:
		tc.expr(d.Array, scope)
		tc.expr(d.At, scope)
		return symbols.TypeAny
	case *hir.ArrayData:
		for _, el := range d.Elems {
			tc.expr(el, scope)
		}
		return symbols.TypeArray
	case *hir.LambdaData:
		tc.lambda(e, d, scope)
		return symbols.TypeLambda
	}
	switch e.Kind {
	case hir.ExprThis:
		// Global rules reaching this are reported by checkRestricted.
		tc.res.UsesThis[tc.owner] = true
		for _, l := range tc.lambdaOwners() {
			tc.res.UsesThis[l] = true
		}
		tc.direct[tc.owner] = append(tc.direct[tc.owner], e)
		return symbols.TypePlayer
	case hir.ExprNull:
		return symbols.TypeAny
	}
	return symbols.TypeAny
}

// lambdaOwners lists the enclosing callables of the current lambda, which
// must carry its captures.
func (tc *typeChecker) lambdaOwners() []Callable {
	var out []Callable
	for cur := tc.owner; cur.Lambda != nil; {
		owner, ok := tc.res.LambdaOwner[cur.Lambda]
		if !ok {
			break
		}
		out = append(out, owner)
		cur = owner
	}
	return out
}

func (tc *typeChecker) lambda(e *hir.Expr, d *hir.LambdaData, parent symbols.ScopeID) {
	scope := tc.table.NewScope(symbols.ScopeLambda, parent, symbols.ScopeFunctionBody, e.Span)
	tc.table.Scope(scope).Name = "lambda"
	tc.res.LambdaScopes[e] = scope
	tc.res.Lambdas = append(tc.res.Lambdas, e)
	tc.res.LambdaOwner[e] = tc.owner
	for _, p := range d.Params {
		id := tc.declareLocal(scope, symbols.Decl{Name: p.Name, Kind: symbols.SymbolParam, Span: p.Span, Type: p.Type.OrAny()})
		if id.IsValid() {
			tc.res.Params[p] = id
		}
	}

	prevOwner, prevLoops := tc.owner, tc.loops
	tc.owner, tc.loops = LambdaNode(e), 0
	tc.lambdas = append(tc.lambdas, scope)
	if d.IsBlock() {
		tc.res.BlockScopes[d.Body] = scope
		tc.stmts(d.Body.Stmts, scope)
	} else {
		tc.expr(d.Expr, scope)
	}
	tc.lambdas = tc.lambdas[:len(tc.lambdas)-1]
	tc.owner, tc.loops = prevOwner, prevLoops
}

// ref resolves a possibly qualified variable reference.
func (tc *typeChecker) ref(e *hir.Expr, d *hir.RefData, scope symbols.ScopeID) symbols.SymbolID {
	name := d.Path[len(d.Path)-1]
	var decl symbols.Declaration
	if len(d.Path) == 1 {
		var ok bool
		decl, ok = tc.table.Resolve(scope, name, false)
		if !ok {
			tc.unresolved(e.Span, name, scope)
			return symbols.NoSymbolID
		}
	} else {
		nsScope, ok := tc.namespacePath(d.Path[:len(d.Path)-1], scope, e.Span)
		if !ok {
			return symbols.NoSymbolID
		}
		decl, ok = tc.table.LookupMember(nsScope, name, false)
		if !ok {
			tc.unresolved(e.Span, d.Name(), nsScope)
			return symbols.NoSymbolID
		}
		if !decl.IsGroup() && !tc.accessible(e.Span, scope, decl.Symbol) {
			return symbols.NoSymbolID
		}
	}
	if decl.IsGroup() {
		tc.errorf(e.Span, diag.SemaNotCallable, "function %q cannot be used as a value; wrap it in a lambda", d.Name()).Emit()
		return symbols.NoSymbolID
	}
	sym := tc.table.Symbol(decl.Symbol)
	if sym.Kind == symbols.SymbolNamespace {
		tc.errorf(e.Span, diag.SemaNotANamespace, "namespace %q cannot be used as a value", d.Name()).Emit()
		return symbols.NoSymbolID
	}
	if sym.Flags.Has(symbols.SymbolFlagPlayer) {
		// per-player storage is addressed through the event player
		tc.direct[tc.owner] = append(tc.direct[tc.owner], e)
	}
	tc.res.Refs[e] = decl.Symbol
	return decl.Symbol
}

// namespacePath walks ns.inner... and returns the member scope of the last
// namespace.
func (tc *typeChecker) namespacePath(path []string, scope symbols.ScopeID, sp source.Span) (symbols.ScopeID, bool) {
	decl, ok := tc.table.Resolve(scope, path[0], false)
	if !ok {
		tc.unresolved(sp, path[0], scope)
		return symbols.NoScopeID, false
	}
	for i := 0; ; i++ {
		if decl.IsGroup() || tc.table.Symbol(decl.Symbol).Kind != symbols.SymbolNamespace {
			tc.errorf(sp, diag.SemaNotANamespace, "%q is not a namespace", strings.Join(path[:i+1], ".")).Emit()
			return symbols.NoScopeID, false
		}
		if !tc.accessible(sp, scope, decl.Symbol) {
			return symbols.NoScopeID, false
		}
		target := tc.table.Symbol(decl.Symbol).Target
		if i == len(path)-1 {
			return target, true
		}
		decl, ok = tc.table.LookupMember(target, path[i+1], false)
		if !ok {
			tc.unresolved(sp, strings.Join(path[:i+2], "."), target)
			return symbols.NoScopeID, false
		}
	}
}

func (tc *typeChecker) accessible(sp source.Span, from symbols.ScopeID, sym symbols.SymbolID) bool {
	if tc.table.AccessCheck(from, sym) {
		return true
	}
	s := tc.table.Symbol(sym)
	tc.errorf(sp, diag.SemaInaccessible, "%s %q is %s in %s", s.Kind, tc.table.Name(sym), s.Access, tc.scopeName(s.Scope)).
		WithNote(s.Span, "declared here").
		Emit()
	return false
}

func (tc *typeChecker) unresolved(sp source.Span, name string, scope symbols.ScopeID) {
	b := tc.errorf(sp, diag.SemaUnresolvedSymbol, "%q is not defined", name)
	short := name[strings.LastIndexByte(name, '.')+1:]
	if s := suggest(short, tc.table.VisibleNames(scope, sp)); s != "" {
		b = b.WithFix(fmt.Sprintf("did you mean %q?", s))
	}
	b.Emit()
}

// call resolves a named call. Statement position allows actions.
func (tc *typeChecker) call(e *hir.Expr, scope symbols.ScopeID, stmt bool) symbols.TypeKey {
	d := e.Data.(*hir.CallData)
	args := make([]symbols.TypeKey, len(d.Args))
	for i, a := range d.Args {
		args[i] = tc.expr(a, scope)
	}
	name := d.Path[len(d.Path)-1]
	var sym symbols.SymbolID
	if len(d.Path) > 1 {
		nsScope, ok := tc.namespacePath(d.Path[:len(d.Path)-1], scope, e.Span)
		if !ok {
			return symbols.TypeAny
		}
		decl, ok := tc.table.LookupMember(nsScope, name, false)
		if !ok {
			tc.unresolved(e.Span, d.Name(), nsScope)
			return symbols.TypeAny
		}
		if !decl.IsGroup() {
			tc.errorf(e.Span, diag.SemaNotCallable, "%q is a variable; use invoke to call a lambda", d.Name()).Emit()
			return symbols.TypeAny
		}
		sym = tc.pickOverload(e, d.Name(), decl.Overloads, args)
		if sym.IsValid() && !tc.accessible(e.Span, scope, sym) {
			return symbols.TypeAny
		}
	} else if id, ok := tc.table.ResolveOverload(scope, name, args); ok {
		sym = id
	} else {
		decl, ok := tc.table.Resolve(scope, name, false)
		switch {
		case !ok:
			tc.unresolved(e.Span, name, scope)
			return symbols.TypeAny
		case !decl.IsGroup():
			tc.errorf(e.Span, diag.SemaNotCallable, "%q is a variable; use invoke to call a lambda", name).Emit()
			return symbols.TypeAny
		}
		sym = tc.pickOverload(e, name, tc.table.OverloadsByName(scope, name), args)
	}
	if !sym.IsValid() {
		return symbols.TypeAny
	}
	tc.res.Calls[e] = sym
	fn := tc.table.Symbol(sym)
	if fn.Flags.Has(symbols.SymbolFlagAction) && !stmt {
		tc.errorf(e.Span, diag.SemaActionAsValue, "%s is an action and has no value", d.Name()).Emit()
	}
	if fn.Flags.Has(symbols.SymbolFlagBuiltin) {
		if fn.Flags.Has(symbols.SymbolFlagRestricted) {
			tc.direct[tc.owner] = append(tc.direct[tc.owner], e)
		}
	} else {
		tc.res.Sites = append(tc.res.Sites, CallSite{From: tc.owner, To: FuncNode(sym), Expr: e, Traced: true})
	}
	result := fn.Signature.Result
	if result == "" {
		return symbols.TypeAny
	}
	return result
}

func compatible(params, args []symbols.TypeKey) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if params[i] != args[i] && params[i] != symbols.TypeAny && args[i] != symbols.TypeAny {
			return false
		}
	}
	return true
}

// pickOverload runs after exact matching failed. A single compatible
// candidate, treating "any" as a wildcard, is accepted.
func (tc *typeChecker) pickOverload(e *hir.Expr, name string, overloads []symbols.SymbolID, args []symbols.TypeKey) symbols.SymbolID {
	for i := len(overloads) - 1; i >= 0; i-- {
		if tc.table.Symbol(overloads[i]).Signature.SameParams(args) {
			return overloads[i]
		}
	}
	var matches []symbols.SymbolID
	for _, id := range overloads {
		if compatible(tc.table.Symbol(id).Signature.Params, args) {
			matches = append(matches, id)
		}
	}
	argList := (&symbols.FunctionSignature{Params: args}).String()
	switch len(matches) {
	case 1:
		return matches[0]
	case 0:
		b := tc.errorf(e.Span, diag.SemaNoOverload, "no overload of %s accepts %s", name, argList)
		for _, id := range overloads {
			b = b.WithNote(tc.table.Symbol(id).Span, "candidate "+name+tc.table.Symbol(id).Signature.String())
		}
		b.Emit()
	default:
		b := tc.errorf(e.Span, diag.SemaAmbiguousOverload, "call to %s%s is ambiguous", name, argList)
		for _, id := range matches {
			b = b.WithNote(tc.table.Symbol(id).Span, "could be "+name+tc.table.Symbol(id).Signature.String())
		}
		b.Emit()
	}
	return symbols.NoSymbolID
}
