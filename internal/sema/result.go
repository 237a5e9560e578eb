package sema

import (
	"strings"

	"wsc/internal/hir"
	"wsc/internal/recursion"
	"wsc/internal/symbols"
)

// Callable is a node of the call graph: a user function, a lambda body, a
// rule, or the shared lambda dispatcher.
type Callable struct {
	Func     symbols.SymbolID
	Lambda   *hir.Expr
	Rule     *hir.Rule
	Dispatch bool
}

// DispatchNode stands for every indirect lambda invocation.
var DispatchNode = Callable{Dispatch: true}

func FuncNode(sym symbols.SymbolID) Callable { return Callable{Func: sym} }

func LambdaNode(e *hir.Expr) Callable { return Callable{Lambda: e} }

func RuleNode(r *hir.Rule) Callable { return Callable{Rule: r} }

// CallSite is one edge of the call graph with the position that caused it.
type CallSite struct {
	From Callable
	To   Callable
	Expr *hir.Expr
	// Traced edges come from calls and from invokes whose source lambda is
	// statically known. Untraced invokes only reach DispatchNode.
	Traced bool
}

// GlobalInfo is a global variable with its qualified name.
type GlobalInfo struct {
	Sym  symbols.SymbolID
	Decl *hir.Global
	Name string
}

// FuncInfo is a user function with its qualified name.
type FuncInfo struct {
	Sym  symbols.SymbolID
	Decl *hir.Func
	Name string
}

// Result holds everything lowering needs to know about a checked module.
type Result struct {
	Module  *hir.Module
	Table   *symbols.Table
	Prelude symbols.ScopeID
	File    symbols.ScopeID

	// InitGlobal and InitPlayer own the initialisers of global and
	// per-player variables.
	InitGlobal *hir.Rule
	InitPlayer *hir.Rule

	// Refs maps variable references to the variable, parameter or global.
	Refs map[*hir.Expr]symbols.SymbolID
	// Calls maps named calls to the chosen overload.
	Calls map[*hir.Expr]symbols.SymbolID
	Types map[*hir.Expr]symbols.TypeKey

	BlockScopes  map[*hir.Block]symbols.ScopeID
	StmtScopes   map[*hir.Stmt]symbols.ScopeID // loop header scopes
	LambdaScopes map[*hir.Expr]symbols.ScopeID
	FuncScopes   map[*hir.Func]symbols.ScopeID
	RuleScopes   map[*hir.Rule]symbols.ScopeID

	// Decls maps var statements, auto-for and foreach loops to the variable
	// they declare.
	Decls   map[*hir.Stmt]symbols.SymbolID
	Params  map[*hir.Param]symbols.SymbolID
	Globals []GlobalInfo
	Funcs   []FuncInfo
	FuncOf  map[symbols.SymbolID]*hir.Func

	// Lambdas lists every lambda in source order; LambdaOwner is the
	// function, rule or lambda whose body contains it.
	Lambdas     []*hir.Expr
	LambdaOwner map[*hir.Expr]Callable
	// LambdaVars maps a lambda to the local it initialises directly.
	LambdaVars map[*hir.Expr]symbols.SymbolID
	// InvokeSites lists every invoke expression in source order.
	InvokeSites []*hir.Expr
	// Invokes maps an invoke expression to its traced source lambda.
	// Untraced invokes are absent.
	Invokes map[*hir.Expr]*hir.Expr
	// Assigned marks variables written after their declaration.
	Assigned map[symbols.SymbolID]bool
	// UsesThis marks callables that read the bound player.
	UsesThis map[Callable]bool

	Sites []CallSite
}

func newResult(mod *hir.Module, table *symbols.Table) *Result {
	return &Result{
		Module:       mod,
		Table:        table,
		Refs:         make(map[*hir.Expr]symbols.SymbolID),
		Calls:        make(map[*hir.Expr]symbols.SymbolID),
		Types:        make(map[*hir.Expr]symbols.TypeKey),
		BlockScopes:  make(map[*hir.Block]symbols.ScopeID),
		StmtScopes:   make(map[*hir.Stmt]symbols.ScopeID),
		LambdaScopes: make(map[*hir.Expr]symbols.ScopeID),
		FuncScopes:   make(map[*hir.Func]symbols.ScopeID),
		RuleScopes:   make(map[*hir.Rule]symbols.ScopeID),
		Decls:        make(map[*hir.Stmt]symbols.SymbolID),
		Params:       make(map[*hir.Param]symbols.SymbolID),
		FuncOf:       make(map[symbols.SymbolID]*hir.Func),
		LambdaOwner:  make(map[*hir.Expr]Callable),
		LambdaVars:   make(map[*hir.Expr]symbols.SymbolID),
		Invokes:      make(map[*hir.Expr]*hir.Expr),
		Assigned:     make(map[symbols.SymbolID]bool),
		UsesThis:     make(map[Callable]bool),
	}
}

// IsLocal reports variables owned by a rule, function, lambda or block.
func (r *Result) IsLocal(sym symbols.SymbolID) bool {
	s := r.Table.Symbol(sym)
	if s == nil || (s.Kind != symbols.SymbolVar && s.Kind != symbols.SymbolParam) {
		return false
	}
	switch r.Table.Scope(s.Scope).Kind {
	case symbols.ScopeRule, symbols.ScopeFunction, symbols.ScopeLambda, symbols.ScopeBlock:
		return true
	}
	return false
}

// TypeOf returns the checked type of e, "any" when unknown.
func (r *Result) TypeOf(e *hir.Expr) symbols.TypeKey {
	return r.Types[e].OrAny()
}

// Graph builds the call graph from the recorded sites. With tracedOnly,
// untraced invokes and the dispatcher are left out.
func (r *Result) Graph(tracedOnly bool) *recursion.Graph[Callable] {
	g := recursion.NewGraph[Callable]()
	for _, f := range r.Funcs {
		g.AddNode(FuncNode(f.Sym))
	}
	for _, l := range r.Lambdas {
		g.AddNode(LambdaNode(l))
	}
	for _, s := range r.Sites {
		if tracedOnly && !s.Traced {
			continue
		}
		g.AddEdge(s.From, s.To)
	}
	return g
}

// Describe names a callable for messages.
func (r *Result) Describe(c Callable) string {
	switch {
	case c.Dispatch:
		return "lambda dispatcher"
	case c.Rule != nil:
		return "rule " + c.Rule.Name
	case c.Lambda != nil:
		return "lambda at " + c.Lambda.Span.String()
	case c.Func.IsValid():
		for _, f := range r.Funcs {
			if f.Sym == c.Func {
				return f.Name
			}
		}
		return r.Table.Name(c.Func)
	}
	return "?"
}

func qualify(prefix []string, name string) string {
	if len(prefix) == 0 {
		return name
	}
	return strings.Join(prefix, ".") + "." + name
}
