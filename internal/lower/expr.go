package lower

import (
	"wsc/internal/closure"
	"wsc/internal/hir"
	"wsc/internal/symbols"
	"wsc/internal/workshop"
)

// expr lowers e, appending any actions it needs to the current list.
func (u *unit) expr(e *hir.Expr) *workshop.Value {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case *hir.NumData:
		return workshop.Num(d.Value)
	case *hir.BoolData:
		return workshop.Bool(d.Value)
	case *hir.RefData:
		return u.ref(e)
	case *hir.BinaryData:
		return u.binary(d)
	case *hir.UnaryData:
		x := u.expr(d.X)
		if d.Op == "!" {
			return workshop.Not(x)
		}
		if x.Kind == workshop.ValNumber {
			return workshop.Num(-x.Num)
		}
		return workshop.Arith(workshop.Num(0), "-", x)
	case *hir.CallData:
		return u.call(e, false)
	case *hir.InvokeData:
		return u.invoke(e, d)
	case *hir.IndexData:
		vals := u.exprs([]*hir.Expr{d.Array, d.At})
		return workshop.Index(vals[0], vals[1])
	case *hir.ArrayData:
		return workshop.Array(u.exprs(d.Elems)...)
	case *hir.LambdaData:
		return u.lambdaValue(e)
	}
	if e.Kind == hir.ExprThis {
		return u.thisValue()
	}
	return workshop.Null()
}

// exprInto lowers e into a separate list so the caller can decide where its
// actions go.
func (u *unit) exprInto(e *hir.Expr) (*workshop.Value, *workshop.ActionList) {
	prev := u.list
	u.list = workshop.NewActionList()
	v := u.expr(e)
	sub := u.list
	u.list = prev
	return v, sub
}

// exprs lowers operands left to right. An operand followed by one that runs
// actions is copied to a temporary first, since those actions may change
// what it reads.
func (u *unit) exprs(list []*hir.Expr) []*workshop.Value {
	later := make([]bool, len(list))
	for i := len(list) - 2; i >= 0; i-- {
		later[i] = later[i+1] || u.needsActions(list[i+1])
	}
	out := make([]*workshop.Value, len(list))
	for i, e := range list {
		if e == nil {
			continue
		}
		out[i] = u.expr(e)
		if later[i] {
			out[i] = u.spill(out[i])
		}
	}
	return out
}

// needsActions reports whether lowering e emits actions: user calls and
// lambda invocations do, everything else is a pure value.
func (u *unit) needsActions(e *hir.Expr) bool {
	found := false
	hir.Inspect(e, func(x *hir.Expr) bool {
		switch x.Kind {
		case hir.ExprLambda:
			return false
		case hir.ExprInvoke:
			found = true
		case hir.ExprCall:
			if sym, ok := u.l.res.Calls[x]; ok && !u.builtin(sym) {
				found = true
			}
		}
		return !found
	})
	return found
}

func (u *unit) builtin(sym symbols.SymbolID) bool {
	s := u.l.res.Table.Symbol(sym)
	return s != nil && s.Flags.Has(symbols.SymbolFlagBuiltin)
}

func (u *unit) ref(e *hir.Expr) *workshop.Value {
	sym, ok := u.l.res.Refs[e]
	if !ok {
		return workshop.Null()
	}
	b, ok := u.lookup(sym)
	if !ok {
		u.invariant("%w: %s has no storage in %s", ErrInvariant, u.l.res.Table.Name(sym), u.name)
		return workshop.Null()
	}
	return b.get()
}

func (u *unit) thisValue() *workshop.Value {
	if u.this != nil {
		return u.this
	}
	return workshop.EventPlayer()
}

func (u *unit) binary(d *hir.BinaryData) *workshop.Value {
	switch d.Op {
	case "&&", "||":
		if u.needsActions(d.R) {
			return u.shortCircuit(d)
		}
		vals := u.exprs([]*hir.Expr{d.L, d.R})
		if d.Op == "&&" {
			return workshop.And(vals[0], vals[1])
		}
		return workshop.Or(vals[0], vals[1])
	}
	vals := u.exprs([]*hir.Expr{d.L, d.R})
	switch d.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return workshop.Compare(vals[0], d.Op, vals[1])
	}
	return workshop.Arith(vals[0], d.Op, vals[1])
}

// shortCircuit evaluates the right operand only when the left one does not
// decide the result.
func (u *unit) shortCircuit(d *hir.BinaryData) *workshop.Value {
	t := u.temp()
	t.Set(u.list, u.expr(d.L), d.Op)
	cond := t.Get()
	if d.Op == "||" {
		cond = workshop.Not(cond)
	}
	u.list.Add(workshop.If(cond))
	t.Set(u.list, u.expr(d.R), "")
	u.list.Add(workshop.End())
	return t.Get()
}

// lambdaValue builds the closure value of a portable lambda: its id, the
// bound player when the body reads it, and the captured values.
func (u *unit) lambdaValue(e *hir.Expr) *workshop.Value {
	info := u.l.cl.Info(e)
	if info == nil || info.Class != closure.Portable {
		return workshop.Null()
	}
	elems := []*workshop.Value{workshop.Num(float64(info.ID))}
	if info.This {
		elems = append(elems, u.thisValue())
	}
	for _, sym := range info.Captures {
		b, ok := u.lookup(sym)
		if !ok {
			u.invariant("%w: captured %s has no storage in %s", ErrInvariant, u.l.res.Table.Name(sym), u.name)
			elems = append(elems, workshop.Null())
			continue
		}
		elems = append(elems, b.get())
	}
	return workshop.Array(elems...)
}
