package lower

import (
	"fmt"

	"wsc/internal/closure"
	"wsc/internal/hir"
	"wsc/internal/sema"
	"wsc/internal/symbols"
	"wsc/internal/workshop"
)

// call lowers a named call. Built-ins become target values or actions,
// subroutines are entered with Call Subroutine, other functions are inlined.
func (u *unit) call(e *hir.Expr, stmt bool) *workshop.Value {
	d := e.Data.(*hir.CallData)
	sym, ok := u.l.res.Calls[e]
	if !ok {
		return workshop.Null()
	}
	if u.builtin(sym) {
		name := u.l.res.Table.Name(sym)
		args := u.exprs(d.Args)
		if u.l.res.Table.Symbol(sym).Flags.Has(symbols.SymbolFlagAction) {
			u.list.Add(workshop.CallAction(name, args...))
			return workshop.Null()
		}
		v := builtinValue(name, args)
		if stmt {
			return nil
		}
		return v
	}
	if sub := u.l.subs[sym]; sub != nil {
		return u.callSub(sub, d.Args)
	}
	fn := u.l.res.FuncOf[sym]
	if fn == nil {
		u.invariant("%w: call to %s has no body", ErrInvariant, d.Name())
		return workshop.Null()
	}
	vals := u.argValues(d.Args)
	saved := u.enter(sema.FuncNode(sym), nil)
	defer u.leave(saved)
	return u.inlineBody(fn.Body, fn.Params, vals, fn.Result != "" && fn.Result != symbols.TypeVoid)
}

func builtinValue(name string, args []*workshop.Value) *workshop.Value {
	switch {
	case name == "EventPlayer" && len(args) == 0:
		return workshop.EventPlayer()
	case name == "CountOf" && len(args) == 1:
		return workshop.CountOf(args[0])
	case name == "LastOf" && len(args) == 1:
		return workshop.LastOf(args[0])
	case name == "Append" && len(args) == 2:
		return workshop.Append(args[0], args[1])
	}
	return workshop.Call(name, args...)
}

// argValues lowers call arguments for binding to parameters. Parameters are
// written in order, so an argument whose actions may have left values in the
// callee's own slots is copied out first.
func (u *unit) argValues(args []*hir.Expr) []*workshop.Value {
	vals := u.exprs(args)
	for i := 1; i < len(args); i++ {
		if u.needsActions(args[i]) {
			vals[i] = u.spill(vals[i])
		}
	}
	return vals
}

func (u *unit) callSub(sub *subroutine, args []*hir.Expr) *workshop.Value {
	vals := u.exprs(args)
	if len(vals) != len(sub.args) {
		u.invariant("%w: %s takes %d arguments, got %d", ErrInvariant, sub.name, len(sub.args), len(vals))
		return workshop.Null()
	}
	for i, v := range vals {
		sub.args[i].Set(u.list, v, "")
	}
	u.list.Add(workshop.CallSubroutine(sub.name))
	if !sub.hasResult {
		return workshop.Null()
	}
	return sub.ret.Get()
}

// scopeState is what entering another body replaces.
type scopeState struct {
	owner sema.Callable
	this  *workshop.Value
	body  *bodyCtx
	loop  *loopCtx
}

func (u *unit) enter(owner sema.Callable, this *workshop.Value) scopeState {
	s := scopeState{owner: u.owner, this: u.this, body: u.body, loop: u.loop}
	u.owner, u.this, u.body, u.loop = owner, this, nil, nil
	return s
}

func (u *unit) leave(s scopeState) {
	u.owner, u.this, u.body, u.loop = s.owner, s.this, s.body, s.loop
}

// inlineBody expands a function or block lambda body in place and returns
// its result.
func (u *unit) inlineBody(body *hir.Block, params []*hir.Param, vals []*workshop.Value, result bool) *workshop.Value {
	b := &bodyCtx{mark: u.mark(), tail: tailReturn(body)}
	for i, p := range params {
		var v *workshop.Value
		if i < len(vals) {
			v = vals[i]
		}
		u.declare(u.l.res.Params[p], v)
	}
	u.body = b

	// A body whose only return is its last statement yields that value
	// directly. Stacked locals would be popped before it is read.
	if n, _ := countReturns(body); result && u.frame == nil && n == 1 && b.tail != nil {
		u.stmts(body.Stmts[:len(body.Stmts)-1])
		return u.expr(b.tail.Data.(*hir.ReturnData).Value)
	}

	var out workshop.Ref
	if result {
		out = u.temp()
		b.result = out
	}
	u.stmts(body.Stmts)
	u.closeBody(b)
	if out == nil {
		return workshop.Null()
	}
	return out.Get()
}

// countReturns counts the return statements of b outside nested lambdas and
// reports whether any carries a value.
func countReturns(b *hir.Block) (n int, valued bool) {
	var walk func(*hir.Block)
	var stmt func(*hir.Stmt)
	stmt = func(s *hir.Stmt) {
		if s == nil {
			return
		}
		switch d := s.Data.(type) {
		case *hir.ReturnData:
			n++
			valued = valued || d.Value != nil
		case *hir.IfData:
			walk(d.Then)
			for _, ei := range d.ElseIfs {
				walk(ei.Body)
			}
			walk(d.Else)
		case *hir.WhileData:
			walk(d.Body)
		case *hir.ForData:
			walk(d.Body)
		case *hir.AutoForData:
			walk(d.Body)
		case *hir.ForeachData:
			walk(d.Body)
		case *hir.BlockData:
			walk(d.Block)
		case nil:
			if s.Kind == hir.StmtReturn {
				n++
			}
		}
	}
	walk = func(b *hir.Block) {
		if b == nil {
			return
		}
		for _, s := range b.Stmts {
			stmt(s)
		}
	}
	walk(b)
	return n, valued
}

// invoke lowers a lambda call. Lambdas known at the call site are expanded
// in place; everything else goes through the dispatcher.
func (u *unit) invoke(e *hir.Expr, d *hir.InvokeData) *workshop.Value {
	if lam := u.l.res.Invokes[e]; lam != nil {
		if info := u.l.cl.Info(lam); info != nil && info.Class != closure.Portable {
			return u.inlineLambda(lam, d.Args)
		}
	}
	vals := u.exprs(append([]*hir.Expr{d.Callee}, d.Args...))
	closureRef, ret := u.l.dispatchSlots()
	u.l.dispatchUsed = true
	closureRef.Set(u.list, vals[0], "invoke")
	for i, v := range vals[1:] {
		u.l.dispatchArg(i).Set(u.list, v, "")
	}
	u.list.Add(workshop.CallSubroutine(DispatchName))
	return ret.Get()
}

func (u *unit) inlineLambda(lam *hir.Expr, args []*hir.Expr) *workshop.Value {
	ld := lam.Data.(*hir.LambdaData)
	vals := u.argValues(args)
	saved := u.enter(sema.LambdaNode(lam), u.this)
	defer u.leave(saved)
	if ld.IsBlock() {
		_, valued := countReturns(ld.Body)
		return u.inlineBody(ld.Body, ld.Params, vals, valued)
	}
	for i, p := range ld.Params {
		v := workshop.Null()
		if i < len(vals) {
			v = u.spill(vals[i])
		}
		u.env[u.l.res.Params[p]] = binding{value: v}
	}
	return u.expr(ld.Expr)
}

// portableBody emits one dispatcher branch: it unpacks the closure value
// and the arguments, then runs the lambda body with lambda_ret as result.
func (u *unit) portableBody(info *closure.Info, closureRef, ret workshop.VarRef) {
	lam := info.Lambda
	ld := lam.Data.(*hir.LambdaData)
	saved := u.enter(sema.LambdaNode(lam), nil)
	defer u.leave(saved)
	temps := u.temps.used
	defer func() { u.temps.used = temps }()

	mark := u.mark()
	field := func(i int) *workshop.Value {
		return workshop.Index(closureRef.Get(), workshop.Num(float64(i)))
	}
	if info.This {
		u.this = u.local(slotKey{lambda: lam, n: -1, space: u.space}, "lambda_this", field(closure.ThisIndex)).Get()
	}
	for n, sym := range info.Captures {
		hint := fmt.Sprintf("cap_%s", u.l.res.Table.Name(sym))
		u.declareAt(slotKey{lambda: lam, n: n, space: u.space}, sym, hint, field(info.CaptureIndex(n)))
	}
	for i, p := range ld.Params {
		u.declare(u.l.res.Params[p], u.l.dispatchArg(i).Get())
	}

	if !ld.IsBlock() {
		ret.Set(u.list, u.expr(ld.Expr), "return")
		u.exitScope(mark)
		return
	}
	b := &bodyCtx{mark: mark, result: ret, tail: tailReturn(ld.Body)}
	u.body = b
	u.stmts(ld.Body.Stmts)
	u.closeBody(b)
}
