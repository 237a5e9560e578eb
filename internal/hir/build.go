package hir

import (
	"strings"

	"wsc/internal/symbols"
)

// Constructors for building trees in Go code. Nodes get zero spans.

func Num(v float64) *Expr {
	return &Expr{Kind: ExprNum, Type: symbols.TypeNumber, Data: &NumData{Value: v}}
}

func Bool(v bool) *Expr {
	return &Expr{Kind: ExprBool, Type: symbols.TypeBool, Data: &BoolData{Value: v}}
}

func Null() *Expr { return &Expr{Kind: ExprNull} }

func This() *Expr { return &Expr{Kind: ExprThis, Type: symbols.TypePlayer} }

// Ref names a variable; dots qualify it.
func Ref(name string) *Expr {
	return &Expr{Kind: ExprRef, Data: &RefData{Path: strings.Split(name, ".")}}
}

func Bin(l *Expr, op string, r *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Data: &BinaryData{Op: op, L: l, R: r}}
}

func Un(op string, x *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Data: &UnaryData{Op: op, X: x}}
}

func Call(fn string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Data: &CallData{Path: strings.Split(fn, "."), Args: args}}
}

func Invoke(callee *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprInvoke, Data: &InvokeData{Callee: callee, Args: args}}
}

func Index(array, at *Expr) *Expr {
	return &Expr{Kind: ExprIndex, Data: &IndexData{Array: array, At: at}}
}

func Array(elems ...*Expr) *Expr {
	return &Expr{Kind: ExprArray, Type: symbols.TypeArray, Data: &ArrayData{Elems: elems}}
}

func P(name string, typ symbols.TypeKey) *Param { return &Param{Name: name, Type: typ} }

// Lambda builds an expression lambda.
func Lambda(params []*Param, body *Expr) *Expr {
	return &Expr{Kind: ExprLambda, Type: symbols.TypeLambda, Data: &LambdaData{Params: params, Expr: body}}
}

// LambdaBlock builds a block lambda.
func LambdaBlock(params []*Param, body ...*Stmt) *Expr {
	return &Expr{Kind: ExprLambda, Type: symbols.TypeLambda, Data: &LambdaData{Params: params, Body: Body(body...)}}
}

func Body(stmts ...*Stmt) *Block { return &Block{Stmts: stmts} }

func Var(name string, typ symbols.TypeKey, init *Expr) *Stmt {
	return &Stmt{Kind: StmtVar, Data: &VarData{Name: name, Type: typ, Init: init}}
}

func Assign(target *Expr, op string, value *Expr) *Stmt {
	return &Stmt{Kind: StmtAssign, Data: &AssignData{Target: target, Op: op, Value: value}}
}

// Set is Assign with "=".
func Set(target string, value *Expr) *Stmt { return Assign(Ref(target), "=", value) }

func Do(x *Expr) *Stmt { return &Stmt{Kind: StmtExpr, Data: &ExprStmtData{X: x}} }

func Elif(cond *Expr, body ...*Stmt) ElseIf { return ElseIf{Cond: cond, Body: Body(body...)} }

// If builds an if statement; els may be nil.
func If(cond *Expr, then []*Stmt, els []*Stmt, elseIfs ...ElseIf) *Stmt {
	d := &IfData{Cond: cond, Then: Body(then...), ElseIfs: elseIfs}
	if els != nil {
		d.Else = Body(els...)
	}
	return &Stmt{Kind: StmtIf, Data: d}
}

func While(cond *Expr, body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtWhile, Data: &WhileData{Cond: cond, Body: Body(body...)}}
}

func For(init *Stmt, cond *Expr, iter *Stmt, body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtFor, Data: &ForData{Init: init, Cond: cond, Iter: iter, Body: Body(body...)}}
}

// AutoFor declares counter name and counts it from start to stop by step.
func AutoFor(name string, start, stop, step *Expr, body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtAutoFor, Data: &AutoForData{
		Decl: &VarData{Name: name, Type: symbols.TypeNumber, Init: start},
		Stop: stop,
		Step: step,
		Body: Body(body...),
	}}
}

// AutoForVar counts an existing variable; a nil start counts from 0.
func AutoForVar(target *Expr, start, stop, step *Expr, body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtAutoFor, Data: &AutoForData{
		Target: target,
		Start:  start,
		Stop:   stop,
		Step:   step,
		Body:   Body(body...),
	}}
}

func Foreach(name string, in *Expr, body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtForeach, Data: &ForeachData{Var: name, In: in, Body: Body(body...)}}
}

func Break() *Stmt { return &Stmt{Kind: StmtBreak} }

func Continue() *Stmt { return &Stmt{Kind: StmtContinue} }

// Return builds a return; v may be nil.
func Return(v *Expr) *Stmt { return &Stmt{Kind: StmtReturn, Data: &ReturnData{Value: v}} }

func Nested(body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtBlock, Data: &BlockData{Block: Body(body...)}}
}

// Fn builds a function.
func Fn(name string, params []*Param, result symbols.TypeKey, body ...*Stmt) *Func {
	return &Func{Name: name, Params: params, Result: result, Body: Body(body...)}
}

// GlobalRule builds an ongoing-global rule.
func GlobalRule(name string, body ...*Stmt) *Rule {
	return &Rule{Name: name, Event: EventGlobal, Body: Body(body...)}
}

// PlayerRule builds an each-player rule.
func PlayerRule(name string, body ...*Stmt) *Rule {
	return &Rule{Name: name, Event: EventEachPlayer, Body: Body(body...)}
}
