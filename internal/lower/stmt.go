package lower

import (
	"fmt"

	"wsc/internal/closure"
	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/workshop"
)

func (u *unit) stmts(list []*hir.Stmt) {
	for _, s := range list {
		u.stmt(s)
	}
}

// block lowers b in its own scope; stacked locals are popped on the way
// out.
func (u *unit) block(b *hir.Block) {
	if b == nil {
		return
	}
	mark := u.mark()
	u.stmts(b.Stmts)
	u.exitScope(mark)
}

func (u *unit) stmt(s *hir.Stmt) {
	saved := u.temps.used
	defer func() { u.temps.used = saved }()

	switch d := s.Data.(type) {
	case *hir.VarData:
		u.varDecl(s, d)
	case *hir.AssignData:
		u.assign(d)
	case *hir.ExprStmtData:
		if d.X.Kind == hir.ExprCall {
			u.call(d.X, true)
		} else {
			u.expr(d.X)
		}
	case *hir.IfData:
		cond := u.expr(d.Cond)
		u.ifChain(cond, d.Then, d.ElseIfs, d.Else)
	case *hir.WhileData:
		cond, sub := u.exprInto(d.Cond)
		u.loopWith(cond, sub, &loopCtx{nativeContinue: true}, d.Body, nil)
	case *hir.ForData:
		u.forStmt(d)
	case *hir.AutoForData:
		u.autoFor(s, d)
	case *hir.ForeachData:
		u.foreach(s, d)
	case *hir.ReturnData:
		u.ret(s, d.Value)
	case *hir.BlockData:
		u.block(d.Block)
	case nil:
		switch s.Kind {
		case hir.StmtBreak:
			u.brk()
		case hir.StmtContinue:
			u.cont()
		case hir.StmtReturn:
			u.ret(s, nil)
		}
	}
}

func (u *unit) staticLambda(e *hir.Expr) bool {
	return e != nil && e.Kind == hir.ExprLambda && u.l.cl.Info(e).Class != closure.Portable
}

func (u *unit) varDecl(s *hir.Stmt, d *hir.VarData) {
	sym, ok := u.l.res.Decls[s]
	if !ok || u.staticLambda(d.Init) {
		return
	}
	var init *workshop.Value
	if d.Init != nil {
		init = u.expr(d.Init)
	}
	u.declare(sym, init)
}

// writable returns the location an assignment target names.
func (u *unit) writable(e *hir.Expr) (workshop.Ref, bool) {
	sym, ok := u.l.res.Refs[e]
	if !ok {
		return nil, false
	}
	b, ok := u.lookup(sym)
	if !ok || b.ref == nil {
		u.invariant("%w: no writable storage for %s", ErrInvariant, u.l.res.Table.Name(sym))
		return nil, false
	}
	return b.ref, true
}

func (u *unit) assign(d *hir.AssignData) {
	op := d.Op[:1]
	if idx, ok := d.Target.Data.(*hir.IndexData); ok {
		ref, ok := u.writable(idx.Array)
		if !ok {
			return
		}
		vals := u.exprs([]*hir.Expr{idx.At, d.Value})
		at, v := vals[0], vals[1]
		if d.Op != "=" {
			v = workshop.Arith(workshop.Index(ref.Get(), at), op, v)
		}
		ref.SetIndex(u.list, at, v, "")
		return
	}
	ref, ok := u.writable(d.Target)
	if !ok {
		return
	}
	v := u.expr(d.Value)
	if d.Op != "=" {
		v = workshop.Arith(ref.Get(), op, v)
	}
	ref.Set(u.list, v, "")
}

// ifChain emits If / Else If / Else. An else-if whose condition needs actions
// cannot be an Else If, so the rest of the chain nests inside an Else.
func (u *unit) ifChain(cond *workshop.Value, then *hir.Block, elifs []hir.ElseIf, els *hir.Block) {
	u.list.Add(workshop.If(cond))
	u.block(then)
	for i, ei := range elifs {
		c, sub := u.exprInto(ei.Cond)
		if sub.Len() == 0 {
			u.list.Add(workshop.ElseIf(c))
			u.block(ei.Body)
			continue
		}
		u.list.Add(workshop.Else())
		u.list.Splice(sub)
		u.ifChain(c, ei.Body, elifs[i+1:], els)
		u.list.Add(workshop.End())
		return
	}
	if els != nil {
		u.list.Add(workshop.Else())
		u.block(els)
	}
	u.list.Add(workshop.End())
}

// loopWith emits a While loop. A condition that needs actions runs at the
// top of an unconditional loop followed by a skip past its End.
func (u *unit) loopWith(cond *workshop.Value, sub *workshop.ActionList, loop *loopCtx, body *hir.Block, iter func()) {
	if sub == nil || sub.Len() == 0 {
		u.list.Add(workshop.While(cond))
		u.loopBody(loop, body, iter)
		u.list.Add(workshop.End())
		u.list.SkipEnd(loop.breaks...)
		return
	}
	u.list.Add(workshop.While(workshop.Bool(true)).WithComment("condition needs actions"))
	u.list.Splice(sub)
	exit := u.list.SkipStart(workshop.Not(cond), "leave loop")
	u.loopBody(loop, body, iter)
	u.list.Add(workshop.End())
	u.list.SkipEnd(append(loop.breaks, exit)...)
}

// loopBody lowers the body; continues land after its scope is popped and
// before iter.
func (u *unit) loopBody(loop *loopCtx, body *hir.Block, iter func()) {
	prev := u.loop
	u.loop = loop
	loop.bodyMark = u.mark()
	u.block(body)
	u.list.SkipEnd(loop.continues...)
	u.loop = prev
	if iter != nil {
		iter()
	}
}

func (u *unit) forStmt(d *hir.ForData) {
	header := u.mark()
	if d.Init != nil {
		u.stmt(d.Init)
	}
	cond, sub := workshop.Bool(true), (*workshop.ActionList)(nil)
	if d.Cond != nil {
		cond, sub = u.exprInto(d.Cond)
	}
	var iter func()
	if d.Iter != nil {
		iter = func() { u.stmt(d.Iter) }
	}
	u.loopWith(cond, sub, &loopCtx{}, d.Body, iter)
	u.exitScope(header)
}

func (u *unit) autoFor(s *hir.Stmt, d *hir.AutoForData) {
	header := u.mark()
	startExpr := d.Start
	if d.Decl != nil {
		startExpr = d.Decl.Init
	}
	bounds := []*hir.Expr{startExpr, d.Stop, d.Step}
	pure := true
	for _, e := range bounds {
		if u.needsActions(e) {
			pure = false
		}
	}

	// The native For needs a plain slot it can count in.
	var counter workshop.Ref
	sym, declared := u.l.res.Decls[s]
	switch {
	case d.Decl != nil && declared:
		if pure && !u.stackful() {
			if ref := u.l.slot(slotKey{sym: sym, space: u.space}, d.Decl.Name); !ref.Indexed() {
				counter = ref
			}
		}
	case d.Target != nil:
		ref, ok := u.writable(d.Target)
		if !ok {
			return
		}
		counter = ref
		if vr, ok := ref.(workshop.VarRef); !ok || vr.Indexed() {
			pure = false
		}
	default:
		return
	}

	vals := u.exprs(bounds)
	start, stop, step := vals[0], vals[1], vals[2]
	if start == nil {
		start = workshop.Num(0)
	}
	if step == nil {
		step = workshop.Num(1)
	}
	if vr, ok := counter.(workshop.VarRef); ok && pure && !vr.Indexed() {
		if d.Decl != nil {
			u.env[sym] = binding{ref: vr}
		}
		loop := &loopCtx{nativeContinue: true}
		u.list.Add(workshop.For(vr.Var, start, stop, step))
		u.loopBody(loop, d.Body, nil)
		u.list.Add(workshop.End())
		u.list.SkipEnd(loop.breaks...)
		u.exitScope(header)
		return
	}

	diag.ReportWarning(u.l.opts.Reporter, diag.LowAutoForFallback, s.Span,
		fmt.Sprintf("loop counter cannot use the native For action in %s; lowered as a While loop", u.name)).Emit()
	if d.Decl != nil {
		counter = u.declare(sym, start)
	} else {
		counter.Set(u.list, start, "")
	}
	step = u.spill(step)
	cond := countCond(counter.Get(), stop, step)
	iter := func() { counter.Set(u.list, workshop.Add(counter.Get(), step), "") }
	u.loopWith(cond, nil, &loopCtx{}, d.Body, iter)
	u.exitScope(header)
}

// countCond is the test a For action applies before each iteration.
func countCond(counter, stop, step *workshop.Value) *workshop.Value {
	if step.Kind == workshop.ValNumber {
		if step.Num < 0 {
			return workshop.Compare(counter, ">", stop)
		}
		return workshop.Compare(counter, "<", stop)
	}
	up := workshop.And(workshop.Compare(step, ">=", workshop.Num(0)), workshop.Compare(counter, "<", stop))
	down := workshop.And(workshop.Compare(step, "<", workshop.Num(0)), workshop.Compare(counter, ">", stop))
	return workshop.Or(up, down)
}

// foreach counts an index over a copy of the array; the loop variable reads
// the element at that index.
func (u *unit) foreach(s *hir.Stmt, d *hir.ForeachData) {
	arr := u.temp()
	arr.Set(u.list, u.expr(d.In), "foreach "+d.Var)
	header := u.mark()
	idx := u.temp()
	if sym, ok := u.l.res.Decls[s]; ok {
		u.env[sym] = binding{value: workshop.Index(arr.Get(), idx.Get())}
	}
	count := workshop.CountOf(arr.Get())
	if vr, ok := idx.(workshop.VarRef); ok && !vr.Indexed() {
		loop := &loopCtx{nativeContinue: true}
		u.list.Add(workshop.For(vr.Var, workshop.Num(0), count, workshop.Num(1)))
		u.loopBody(loop, d.Body, nil)
		u.list.Add(workshop.End())
		u.list.SkipEnd(loop.breaks...)
	} else {
		idx.Set(u.list, workshop.Num(0), "")
		iter := func() { idx.Set(u.list, workshop.Add(idx.Get(), workshop.Num(1)), "") }
		u.loopWith(workshop.Compare(idx.Get(), "<", count), nil, &loopCtx{}, d.Body, iter)
	}
	u.exitScope(header)
}

func (u *unit) brk() {
	loop := u.loop
	if loop == nil {
		u.invariant("%w: break outside a loop", ErrInvariant)
		return
	}
	u.unwind(loop.bodyMark)
	if u.l.opts.NativeBreak {
		u.list.Add(workshop.Break())
		return
	}
	loop.breaks = append(loop.breaks, u.list.SkipStart(nil, "break"))
}

func (u *unit) cont() {
	loop := u.loop
	if loop == nil {
		u.invariant("%w: continue outside a loop", ErrInvariant)
		return
	}
	u.unwind(loop.bodyMark)
	if loop.nativeContinue && u.l.opts.NativeContinue {
		u.list.Add(workshop.Continue())
		return
	}
	loop.continues = append(loop.continues, u.list.SkipStart(nil, "continue"))
}

func (u *unit) ret(s *hir.Stmt, value *hir.Expr) {
	b := u.body
	if b == nil {
		u.invariant("%w: return outside a body", ErrInvariant)
		return
	}
	if value != nil {
		v := u.expr(value)
		if b.result != nil {
			b.result.Set(u.list, v, "return")
		}
	}
	if s == b.tail {
		return
	}
	if b.rule {
		u.list.Add(workshop.Abort())
		return
	}
	u.unwind(b.mark)
	b.exits = append(b.exits, u.list.SkipStart(nil, "return"))
}
