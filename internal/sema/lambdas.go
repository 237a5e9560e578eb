package sema

import (
	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/symbols"
)

// sourceLambda follows e through never-reassigned variables back to the
// lambda expression that produced it.
func (tc *typeChecker) sourceLambda(e *hir.Expr, seen map[symbols.SymbolID]bool) *hir.Expr {
	for e != nil {
		switch e.Kind {
		case hir.ExprLambda:
			return e
		case hir.ExprRef:
			sym, ok := tc.res.Refs[e]
			if !ok || seen[sym] || tc.res.Assigned[sym] {
				return nil
			}
			if tc.table.Symbol(sym).Kind != symbols.SymbolVar {
				return nil
			}
			seen[sym] = true
			e = tc.varInit[sym]
		default:
			return nil
		}
	}
	return nil
}

func (tc *typeChecker) traceInvokes() {
	for _, inv := range tc.invokes {
		lam := tc.sourceLambda(inv.callee, make(map[symbols.SymbolID]bool))
		if lam == nil {
			tc.warnf(inv.expr.Span, diag.SemaLambdaSourceUnknown, "Source lambda not found; recursion and restricted-call checks are skipped for this call").Emit()
			tc.res.Sites = append(tc.res.Sites, CallSite{From: inv.owner, To: DispatchNode, Expr: inv.expr})
			continue
		}
		if want := len(lam.Data.(*hir.LambdaData).Params); want != inv.args {
			tc.errorf(inv.expr.Span, diag.SemaLambdaArity, "lambda takes %d arguments, got %d", want, inv.args).
				WithNote(lam.Span, "lambda defined here").
				Emit()
			continue
		}
		tc.res.Invokes[inv.expr] = lam
		tc.res.Sites = append(tc.res.Sites, CallSite{From: inv.owner, To: LambdaNode(lam), Expr: inv.expr, Traced: true})
	}
}

// checkLambdaRecursion rejects lambdas that reach themselves through traced
// calls. Lambdas never get a stack frame.
func (tc *typeChecker) checkLambdaRecursion() {
	g := tc.res.Graph(true)
	for _, lam := range tc.res.Lambdas {
		node := LambdaNode(lam)
		path := g.PathTo(node, node)
		if path == nil {
			continue
		}
		b := tc.errorf(lam.Span, diag.SemaRecursiveLambda, "lambda calls itself through %s", tc.res.Describe(path[1]))
		if site, ok := tc.firstSite(node, path[1]); ok {
			b = b.WithNote(site.Expr.Span, "recursive call starts here")
		}
		b.Emit()
	}
}

func (tc *typeChecker) firstSite(from, to Callable) (CallSite, bool) {
	for _, s := range tc.res.Sites {
		if s.Traced && s.From == from && s.To == to {
			return s, true
		}
	}
	return CallSite{}, false
}

func restrictedName(e *hir.Expr) string {
	switch d := e.Data.(type) {
	case *hir.CallData:
		return d.Name()
	case *hir.RefData:
		return "per-player variable " + d.Name()
	}
	return "this"
}

// checkRestricted reports player-only operations reachable from rules that
// run without an event player.
func (tc *typeChecker) checkRestricted() {
	roots := []*hir.Rule{tc.res.InitGlobal}
	for _, r := range tc.res.Module.Rules {
		if r.Event == hir.EventGlobal {
			roots = append(roots, r)
		}
	}
	g := tc.res.Graph(true)
	for _, r := range roots {
		root := RuleNode(r)
		for _, use := range tc.direct[root] {
			tc.errorf(use.Span, diag.SemaRestrictedCall, "%s needs an event player, but %s runs globally", restrictedName(use), tc.res.Describe(root)).Emit()
		}
		if !g.Has(root) {
			continue
		}
		reach := g.Reachable(root)
		for _, n := range g.Nodes() {
			uses := tc.direct[n]
			if !reach[n] || n == root || len(uses) == 0 {
				continue
			}
			path := g.PathTo(root, n)
			site, ok := tc.firstSite(root, path[1])
			if !ok {
				continue
			}
			tc.errorf(site.Expr.Span, diag.SemaRestrictedCall, "%s uses %s, which needs an event player, but %s runs globally",
				tc.res.Describe(n), restrictedName(uses[0]), tc.res.Describe(root)).
				WithNote(uses[0].Span, "used here").
				Emit()
		}
	}
}
