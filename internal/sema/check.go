package sema

import (
	"errors"
	"fmt"

	"wsc/internal/builtins"
	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/source"
	"wsc/internal/symbols"
)

// Options configure a semantic pass over a module.
type Options struct {
	Reporter diag.Reporter
	Strings  *source.Interner
}

// Check resolves every name in mod, records what lowering needs and reports
// user errors to opts.Reporter. The returned error is only set for internal
// failures; user errors leave gaps in the result maps instead.
func Check(mod *hir.Module, opts Options) (*Result, error) {
	table := symbols.NewTable(symbols.Hints{Scopes: 64, Symbols: 128}, opts.Strings)
	res := newResult(mod, table)
	res.InitGlobal = &hir.Rule{Name: "Initial Global", Event: hir.EventGlobal, Body: &hir.Block{}}
	res.InitPlayer = &hir.Rule{Name: "Initial Player", Event: hir.EventEachPlayer, Body: &hir.Block{}}

	tc := &typeChecker{
		res:      res,
		table:    table,
		reporter: opts.Reporter,
		varInit:  make(map[symbols.SymbolID]*hir.Expr),
		direct:   make(map[Callable][]*hir.Expr),
	}
	tc.run()
	return res, errors.Join(tc.internal...)
}

type pendingInvoke struct {
	expr   *hir.Expr
	callee *hir.Expr
	args   int
	owner  Callable
}

type typeChecker struct {
	res      *Result
	table    *symbols.Table
	reporter diag.Reporter
	internal []error

	// walk state
	owner   Callable
	rule    *hir.Rule // enclosing rule, nil inside functions
	loops   int
	lambdas []symbols.ScopeID

	invokes []pendingInvoke
	varInit map[symbols.SymbolID]*hir.Expr
	// direct holds restricted uses (restricted built-ins and this) per
	// callable.
	direct map[Callable][]*hir.Expr
}

func (tc *typeChecker) run() {
	res := tc.res
	res.Prelude = tc.table.NewScope(symbols.ScopePrelude, symbols.NoScopeID, 0, source.Span{})
	tc.table.Scope(res.Prelude).Name = "prelude"
	if err := tc.table.InstallPrelude(res.Prelude, builtins.Prelude()); err != nil {
		tc.internal = append(tc.internal, err)
	}
	res.File = tc.table.NewScope(symbols.ScopeFile, res.Prelude,
		symbols.ScopeCatchesConflicts|symbols.ScopeCompletionBoundary, source.Span{File: res.Module.File})
	tc.table.Scope(res.File).Name = "file " + res.Module.Path

	m := res.Module
	tc.declareMembers(res.File, nil, m.Globals, m.Funcs, m.Namespaces)
	tc.checkOverrides()

	for _, g := range res.Globals {
		tc.globalInit(g)
	}
	for _, f := range res.Funcs {
		tc.function(f)
	}
	for _, r := range m.Rules {
		tc.ruleBody(r)
	}

	tc.traceInvokes()
	tc.checkLambdaRecursion()
	tc.checkRestricted()
}

func (tc *typeChecker) errorf(sp source.Span, code diag.Code, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(tc.reporter, code, sp, fmt.Sprintf(format, args...))
}

func (tc *typeChecker) warnf(sp source.Span, code diag.Code, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportWarning(tc.reporter, code, sp, fmt.Sprintf(format, args...))
}

func (tc *typeChecker) scopeName(id symbols.ScopeID) string {
	s := tc.table.Scope(id)
	if s == nil || s.Name == "" {
		return "the current scope"
	}
	return s.Name
}

// declare installs d and reports a duplicate. It returns NoSymbolID when
// nothing was installed.
func (tc *typeChecker) declare(scope symbols.ScopeID, d symbols.Decl) symbols.SymbolID {
	id, err := tc.table.Declare(scope, d)
	if err == nil {
		return id
	}
	var dup *symbols.DuplicateError
	if errors.As(err, &dup) && !dup.Internal {
		prev := tc.table.Symbol(dup.Existing)
		tc.errorf(d.Span, diag.SemaDuplicateSymbol, "%s %q is already declared in %s", d.Kind, d.Name, tc.scopeName(scope)).
			WithNote(prev.Span, "previous declaration").
			Emit()
		return symbols.NoSymbolID
	}
	tc.internal = append(tc.internal, err)
	return symbols.NoSymbolID
}

// declareLocal declares a rule, function or block local and warns when it
// hides another local.
func (tc *typeChecker) declareLocal(scope symbols.ScopeID, d symbols.Decl) symbols.SymbolID {
	if parent := tc.table.Scope(scope).Parent; parent.IsValid() {
		if prev, ok := tc.table.Resolve(parent, d.Name, false); ok && !prev.IsGroup() && tc.res.IsLocal(prev.Symbol) {
			tc.warnf(d.Span, diag.SemaShadowing, "%q shadows an outer variable", d.Name).
				WithNote(tc.table.Symbol(prev.Symbol).Span, "outer declaration").
				Emit()
		}
	}
	return tc.declare(scope, d)
}

func (tc *typeChecker) declareMembers(scope symbols.ScopeID, prefix []string, globals []*hir.Global, funcs []*hir.Func, namespaces []*hir.Namespace) {
	for _, g := range globals {
		flags := symbols.SymbolFlagWholeContext
		if g.Player {
			flags |= symbols.SymbolFlagPlayer
		}
		typ := g.Type
		if typ == "" && g.Init != nil {
			typ = g.Init.Type
		}
		id := tc.declare(scope, symbols.Decl{
			Name:   g.Name,
			Kind:   symbols.SymbolVar,
			Span:   g.Span,
			Access: g.Access,
			Flags:  flags,
			Type:   typ.OrAny(),
		})
		if !id.IsValid() {
			continue
		}
		tc.res.Globals = append(tc.res.Globals, GlobalInfo{Sym: id, Decl: g, Name: qualify(prefix, g.Name)})
		if g.Init != nil {
			tc.varInit[id] = g.Init
		}
	}
	for _, f := range funcs {
		sig := &symbols.FunctionSignature{Result: f.Result.OrAny()}
		if f.Result == "" {
			sig.Result = symbols.TypeVoid
		}
		for _, p := range f.Params {
			sig.Params = append(sig.Params, p.Type.OrAny())
			sig.ParamNames = append(sig.ParamNames, p.Name)
		}
		flags := symbols.SymbolFlagWholeContext
		if f.Virtual {
			flags |= symbols.SymbolFlagVirtual
		}
		if f.Override {
			flags |= symbols.SymbolFlagOverride
		}
		if f.Subroutine {
			flags |= symbols.SymbolFlagSubroutine
		}
		id := tc.declare(scope, symbols.Decl{
			Name:      f.Name,
			Kind:      symbols.SymbolFunction,
			Span:      f.Span,
			Access:    f.Access,
			Flags:     flags,
			Type:      sig.Result,
			Signature: sig,
		})
		if !id.IsValid() {
			continue
		}
		tc.res.Funcs = append(tc.res.Funcs, FuncInfo{Sym: id, Decl: f, Name: qualify(prefix, f.Name)})
		tc.res.FuncOf[id] = f
	}
	for _, ns := range namespaces {
		flags := symbols.ScopeStopsPrivate | symbols.ScopeCatchesConflicts
		if ns.Sealed {
			flags |= symbols.ScopeStopsProtected
		}
		nsScope := tc.table.NewScope(symbols.ScopeNamespace, scope, flags, ns.Span)
		tc.table.Scope(nsScope).Name = "namespace " + qualify(prefix, ns.Name)
		tc.declare(scope, symbols.Decl{
			Name:   ns.Name,
			Kind:   symbols.SymbolNamespace,
			Span:   ns.Span,
			Access: ns.Access,
			Flags:  symbols.SymbolFlagWholeContext,
			Target: nsScope,
		})
		tc.declareMembers(nsScope, append(append([]string(nil), prefix...), ns.Name), ns.Globals, ns.Funcs, ns.Namespaces)
	}
}

func (tc *typeChecker) checkOverrides() {
	for _, f := range tc.res.Funcs {
		sym := tc.table.Symbol(f.Sym)
		if !sym.Flags.Has(symbols.SymbolFlagOverride) {
			continue
		}
		if _, ok := tc.table.Overridden(f.Sym); !ok {
			tc.errorf(f.Decl.Span, diag.SemaInvalidOverride, "%s%s overrides nothing: no virtual function with these parameters", f.Name, sym.Signature).Emit()
		}
	}
}

func (tc *typeChecker) enter(owner Callable, rule *hir.Rule) func() {
	prevOwner, prevRule, prevLoops := tc.owner, tc.rule, tc.loops
	tc.owner, tc.rule, tc.loops = owner, rule, 0
	return func() {
		tc.owner, tc.rule, tc.loops = prevOwner, prevRule, prevLoops
	}
}

func (tc *typeChecker) globalInit(g GlobalInfo) {
	if g.Decl.Init == nil {
		return
	}
	scope := tc.table.Symbol(g.Sym).Scope
	rule := tc.res.InitGlobal
	if g.Decl.Player {
		rule = tc.res.InitPlayer
		scope = tc.table.NewScope(symbols.ScopeRule, scope, 0, g.Decl.Span)
		tc.table.Scope(scope).This = symbols.TypePlayer
	}
	defer tc.enter(RuleNode(rule), rule)()
	tc.expr(g.Decl.Init, scope)
}

func (tc *typeChecker) function(f FuncInfo) {
	decl := f.Decl
	parent := tc.table.Symbol(f.Sym).Scope
	scope := tc.table.NewScope(symbols.ScopeFunction, parent, symbols.ScopeFunctionBody, decl.Span)
	tc.table.Scope(scope).Name = "function " + f.Name
	tc.res.FuncScopes[decl] = scope
	tc.res.BlockScopes[decl.Body] = scope
	for _, p := range decl.Params {
		id := tc.declare(scope, symbols.Decl{Name: p.Name, Kind: symbols.SymbolParam, Span: p.Span, Type: p.Type.OrAny()})
		if id.IsValid() {
			tc.res.Params[p] = id
		}
	}
	defer tc.enter(FuncNode(f.Sym), nil)()
	tc.stmts(decl.Body.Stmts, scope)
}

func (tc *typeChecker) ruleBody(r *hir.Rule) {
	scope := tc.table.NewScope(symbols.ScopeRule, tc.res.File, symbols.ScopeFunctionBody, r.Span)
	s := tc.table.Scope(scope)
	s.Name = "rule " + r.Name
	if r.Event == hir.EventEachPlayer {
		s.This = symbols.TypePlayer
	}
	tc.res.RuleScopes[r] = scope
	tc.res.BlockScopes[r.Body] = scope
	defer tc.enter(RuleNode(r), r)()
	for _, c := range r.Conditions {
		tc.expr(c, scope)
	}
	tc.stmts(r.Body.Stmts, scope)
}
