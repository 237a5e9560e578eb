package closure

import (
	"wsc/internal/hir"
	"wsc/internal/sema"
	"wsc/internal/symbols"
)

// Class is the representation chosen for a lambda.
type Class uint8

const (
	// Inline expression lambdas are substituted at each invocation.
	Inline Class = iota
	// InlineBlock lambdas are lowered at each invocation like an inlined
	// function.
	InlineBlock
	// Portable lambdas are runtime values dispatched by id.
	Portable
)

func (c Class) String() string {
	switch c {
	case Inline:
		return "inline"
	case InlineBlock:
		return "inline-block"
	case Portable:
		return "portable"
	}
	return "invalid"
}

// Info describes one lambda.
type Info struct {
	Lambda *hir.Expr
	Class  Class
	// ID is the dispatch id of a portable lambda, starting at 1, or 0.
	ID int
	// Captures lists enclosing locals in first-use order.
	Captures []symbols.SymbolID
	// This is set when the body reads the bound player.
	This bool
	// Var is the never-reassigned local the lambda initialises, if any.
	Var symbols.SymbolID
}

// Positions inside a portable closure value.
const (
	IDIndex   = 0
	ThisIndex = 1
)

// CaptureIndex is the array index holding capture n.
func (i *Info) CaptureIndex(n int) int {
	if i.This {
		return 2 + n
	}
	return 1 + n
}

// Analysis holds the decision for every lambda of a module.
type Analysis struct {
	infos    map[*hir.Expr]*Info
	portable []*Info
}

func (a *Analysis) Info(lambda *hir.Expr) *Info { return a.infos[lambda] }

// Portable lists portable lambdas by id.
func (a *Analysis) Portable() []*Info { return a.portable }

// Analyze classifies every lambda in res.
func Analyze(res *sema.Result) *Analysis {
	a := &Analysis{infos: make(map[*hir.Expr]*Info, len(res.Lambdas))}
	uses := refUses(res)
	for _, lam := range res.Lambdas {
		info := &Info{Lambda: lam, Captures: Captures(res, lam), This: readsThis(lam)}
		info.Var = res.LambdaVars[lam]
		d := lam.Data.(*hir.LambdaData)
		switch {
		case !static(res, lam, info.Var, uses):
			info.Class = Portable
			info.ID = len(a.portable) + 1
			a.portable = append(a.portable, info)
		case d.IsBlock():
			info.Class = InlineBlock
		default:
			info.Class = Inline
		}
		a.infos[lam] = info
	}
	return a
}

// Captures lists the locals declared outside lam that its body reads,
// including reads made by lambdas nested inside it. The result depends only
// on the body, so repeated calls agree.
func Captures(res *sema.Result, lam *hir.Expr) []symbols.SymbolID {
	scope := res.LambdaScopes[lam]
	var out []symbols.SymbolID
	seen := make(map[symbols.SymbolID]bool)
	hir.Inspect(lam, func(e *hir.Expr) bool {
		if e.Kind != hir.ExprRef {
			return true
		}
		sym, ok := res.Refs[e]
		if !ok || seen[sym] || !res.IsLocal(sym) {
			return true
		}
		if res.Table.IsAncestor(scope, res.Table.Symbol(sym).Scope) {
			return true
		}
		seen[sym] = true
		out = append(out, sym)
		return true
	})
	return out
}

func readsThis(lam *hir.Expr) bool {
	found := false
	hir.Inspect(lam, func(e *hir.Expr) bool {
		if e.Kind == hir.ExprThis {
			found = true
		}
		return !found
	})
	return found
}

// refUses maps each variable to every reference of it.
func refUses(res *sema.Result) map[symbols.SymbolID][]*hir.Expr {
	out := make(map[symbols.SymbolID][]*hir.Expr)
	for e, sym := range res.Refs {
		out[sym] = append(out[sym], e)
	}
	return out
}

// static reports whether lam is only ever invoked directly through v, from
// the code that defines it.
func static(res *sema.Result, lam *hir.Expr, v symbols.SymbolID, uses map[symbols.SymbolID][]*hir.Expr) bool {
	if !v.IsValid() || res.Assigned[v] {
		return false
	}
	callees := make(map[*hir.Expr]bool)
	for _, inv := range res.InvokeSites {
		if res.Invokes[inv] == lam {
			callees[inv.Data.(*hir.InvokeData).Callee] = true
		}
	}
	for _, ref := range uses[v] {
		if !callees[ref] {
			return false
		}
	}
	owner := res.LambdaOwner[lam]
	for _, s := range res.Sites {
		if s.To == sema.LambdaNode(lam) && s.From != owner {
			return false
		}
	}
	return true
}
