package sema

import (
	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/symbols"
)

func (tc *typeChecker) stmts(list []*hir.Stmt, scope symbols.ScopeID) {
	for _, s := range list {
		tc.stmt(s, scope)
	}
}

// block opens a child scope for b.
func (tc *typeChecker) block(b *hir.Block, parent symbols.ScopeID) {
	if b == nil {
		return
	}
	scope := tc.table.NewScope(symbols.ScopeBlock, parent, 0, b.Span)
	tc.res.BlockScopes[b] = scope
	tc.stmts(b.Stmts, scope)
}

func (tc *typeChecker) loopBody(b *hir.Block, parent symbols.ScopeID) {
	tc.loops++
	tc.block(b, parent)
	tc.loops--
}

func (tc *typeChecker) stmt(s *hir.Stmt, scope symbols.ScopeID) {
	switch d := s.Data.(type) {
	case *hir.VarData:
		if id := tc.localVar(s, d, scope); id.IsValid() {
			tc.res.Decls[s] = id
		}
	case *hir.AssignData:
		tc.assign(s, d, scope)
	case *hir.ExprStmtData:
		if d.X.Kind == hir.ExprCall {
			tc.record(d.X, tc.call(d.X, scope, true))
		} else {
			tc.expr(d.X, scope)
		}
	case *hir.IfData:
		tc.condition(d.Cond, scope)
		tc.block(d.Then, scope)
		for _, ei := range d.ElseIfs {
			tc.condition(ei.Cond, scope)
			tc.block(ei.Body, scope)
		}
		tc.block(d.Else, scope)
	case *hir.WhileData:
		tc.condition(d.Cond, scope)
		tc.loopBody(d.Body, scope)
	case *hir.ForData:
		loop := tc.loopScope(s, scope)
		if d.Init != nil {
			switch d.Init.Kind {
			case hir.StmtVar, hir.StmtAssign:
				tc.stmt(d.Init, loop)
			default:
				tc.errorf(d.Init.Span, diag.SemaInvalidLoopInit, "for loop initializer must declare or assign a variable").Emit()
			}
		}
		if d.Cond != nil {
			tc.condition(d.Cond, loop)
		}
		if d.Iter != nil {
			switch d.Iter.Kind {
			case hir.StmtAssign, hir.StmtExpr:
				tc.stmt(d.Iter, loop)
			default:
				tc.errorf(d.Iter.Span, diag.SemaInvalidLoopInit, "for loop iterator must be an assignment or an expression").Emit()
			}
		}
		tc.loopBody(d.Body, loop)
	case *hir.AutoForData:
		tc.autoFor(s, d, scope)
	case *hir.ForeachData:
		tc.expr(d.In, scope)
		loop := tc.loopScope(s, scope)
		id := tc.declareLocal(loop, symbols.Decl{
			Name:  d.Var,
			Kind:  symbols.SymbolVar,
			Span:  s.Span,
			Flags: symbols.SymbolFlagReadOnly,
			Type:  d.Type.OrAny(),
		})
		if id.IsValid() {
			tc.res.Decls[s] = id
		}
		tc.loopBody(d.Body, loop)
	case *hir.ReturnData:
		if d.Value != nil {
			tc.expr(d.Value, scope)
			if body := tc.table.Scope(tc.table.EnclosingBody(scope)); body != nil && body.Kind == symbols.ScopeRule {
				tc.errorf(s.Span, diag.SemaReturnOutsideFunc, "rule %q cannot return a value", tc.rule.Name).Emit()
			}
		}
	case *hir.BlockData:
		tc.block(d.Block, scope)
	case nil:
		switch s.Kind {
		case hir.StmtBreak:
			if tc.loops == 0 {
				tc.errorf(s.Span, diag.SemaBreakOutsideLoop, "break is not inside a loop").Emit()
			}
		case hir.StmtContinue:
			if tc.loops == 0 {
				tc.errorf(s.Span, diag.SemaContinueOutsideLoop, "continue is not inside a loop").Emit()
			}
		}
	}
}

func (tc *typeChecker) loopScope(s *hir.Stmt, parent symbols.ScopeID) symbols.ScopeID {
	loop := tc.table.NewScope(symbols.ScopeBlock, parent, 0, s.Span)
	tc.res.StmtScopes[s] = loop
	return loop
}

func (tc *typeChecker) condition(e *hir.Expr, scope symbols.ScopeID) {
	tc.expr(e, scope)
}

// localVar checks the initializer, then declares, so the initializer still
// sees an outer variable of the same name.
func (tc *typeChecker) localVar(s *hir.Stmt, d *hir.VarData, scope symbols.ScopeID) symbols.SymbolID {
	typ := d.Type
	if d.Init != nil {
		initType := tc.expr(d.Init, scope)
		if typ == "" {
			typ = initType
		}
	}
	id := tc.declareLocal(scope, symbols.Decl{
		Name: d.Name,
		Kind: symbols.SymbolVar,
		Span: s.Span,
		Type: typ.OrAny(),
	})
	if id.IsValid() && d.Init != nil {
		tc.varInit[id] = d.Init
		if d.Init.Kind == hir.ExprLambda {
			tc.res.LambdaVars[d.Init] = id
		}
	}
	return id
}

func (tc *typeChecker) autoFor(s *hir.Stmt, d *hir.AutoForData, scope symbols.ScopeID) {
	loop := tc.loopScope(s, scope)
	switch {
	case d.Decl != nil:
		if id := tc.localVar(s, d.Decl, loop); id.IsValid() {
			tc.res.Decls[s] = id
			tc.res.Assigned[id] = true
		}
	case d.Target != nil:
		if d.Start != nil {
			tc.expr(d.Start, loop)
		}
		if d.Target.Kind != hir.ExprRef {
			tc.expr(d.Target, loop)
			tc.errorf(d.Target.Span, diag.SemaInvalidLoopInit, "auto-for variable must be a plain variable").Emit()
			break
		}
		if sym := tc.writeTarget(d.Target, loop); sym.IsValid() {
			tc.res.Assigned[sym] = true
		}
	default:
		tc.errorf(s.Span, diag.SemaInvalidLoopInit, "auto-for loops require an initializer").Emit()
	}
	tc.expr(d.Stop, loop)
	tc.expr(d.Step, loop)
	tc.loopBody(d.Body, loop)
}

func (tc *typeChecker) assign(s *hir.Stmt, d *hir.AssignData, scope symbols.ScopeID) {
	valueType := tc.expr(d.Value, scope)
	switch d.Op {
	case "=":
	case "+=", "-=", "*=", "/=", "%=":
		if valueType != symbols.TypeNumber && valueType != symbols.TypeAny {
			tc.errorf(d.Value.Span, diag.SemaNoOverload, "%s needs a number, got %s", d.Op, valueType).Emit()
		}
	default:
		tc.errorf(s.Span, diag.InpUnknownKind, "unknown assignment operator %q", d.Op).Emit()
	}
	target := d.Target
	switch target.Kind {
	case hir.ExprRef:
	case hir.ExprIndex:
		idx := target.Data.(*hir.IndexData)
		tc.expr(idx.At, scope)
		tc.record(target, symbols.TypeAny)
		target = idx.Array
		if target.Kind != hir.ExprRef {
			tc.expr(target, scope)
			tc.errorf(target.Span, diag.SemaAssignReadOnly, "only one level of indexing can be assigned").Emit()
			return
		}
	default:
		tc.expr(target, scope)
		tc.errorf(target.Span, diag.SemaAssignReadOnly, "expression is not assignable").Emit()
		return
	}
	if sym := tc.writeTarget(target, scope); sym.IsValid() {
		tc.res.Assigned[sym] = true
	}
}

// writeTarget resolves an assignment target and checks it may be written.
func (tc *typeChecker) writeTarget(ref *hir.Expr, scope symbols.ScopeID) symbols.SymbolID {
	tc.expr(ref, scope)
	sym, ok := tc.res.Refs[ref]
	if !ok {
		return symbols.NoSymbolID
	}
	s := tc.table.Symbol(sym)
	name := tc.table.Name(sym)
	if s.Flags.Has(symbols.SymbolFlagReadOnly) {
		tc.errorf(ref.Span, diag.SemaAssignReadOnly, "%q is read-only", name).
			WithNote(s.Span, "declared here").
			Emit()
		return symbols.NoSymbolID
	}
	if n := len(tc.lambdas); n > 0 && tc.res.IsLocal(sym) && !tc.table.IsAncestor(tc.lambdas[n-1], s.Scope) {
		tc.errorf(ref.Span, diag.SemaAssignReadOnly, "captured variable %q cannot be assigned inside a lambda", name).
			WithNote(s.Span, "declared here").
			Emit()
		return symbols.NoSymbolID
	}
	return sym
}
