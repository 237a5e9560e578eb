package hir

// Inspect walks e depth-first in evaluation order. fn returning false skips
// the children of that node. Lambda bodies are entered.
func Inspect(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch d := e.Data.(type) {
	case *BinaryData:
		Inspect(d.L, fn)
		Inspect(d.R, fn)
	case *UnaryData:
		Inspect(d.X, fn)
	case *CallData:
		for _, a := range d.Args {
			Inspect(a, fn)
		}
	case *InvokeData:
		Inspect(d.Callee, fn)
		for _, a := range d.Args {
			Inspect(a, fn)
		}
	case *IndexData:
		Inspect(d.Array, fn)
		Inspect(d.At, fn)
	case *ArrayData:
		for _, el := range d.Elems {
			Inspect(el, fn)
		}
	case *LambdaData:
		if d.IsBlock() {
			InspectBlock(d.Body, fn)
		} else {
			Inspect(d.Expr, fn)
		}
	}
}

// InspectBlock applies Inspect to every expression in b.
func InspectBlock(b *Block, fn func(*Expr) bool) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		InspectStmt(s, fn)
	}
}

func InspectStmt(s *Stmt, fn func(*Expr) bool) {
	if s == nil {
		return
	}
	switch d := s.Data.(type) {
	case *VarData:
		Inspect(d.Init, fn)
	case *AssignData:
		Inspect(d.Target, fn)
		Inspect(d.Value, fn)
	case *ExprStmtData:
		Inspect(d.X, fn)
	case *IfData:
		Inspect(d.Cond, fn)
		InspectBlock(d.Then, fn)
		for _, ei := range d.ElseIfs {
			Inspect(ei.Cond, fn)
			InspectBlock(ei.Body, fn)
		}
		InspectBlock(d.Else, fn)
	case *WhileData:
		Inspect(d.Cond, fn)
		InspectBlock(d.Body, fn)
	case *ForData:
		InspectStmt(d.Init, fn)
		Inspect(d.Cond, fn)
		InspectBlock(d.Body, fn)
		InspectStmt(d.Iter, fn)
	case *AutoForData:
		if d.Decl != nil {
			Inspect(d.Decl.Init, fn)
		}
		Inspect(d.Target, fn)
		Inspect(d.Start, fn)
		Inspect(d.Stop, fn)
		Inspect(d.Step, fn)
		InspectBlock(d.Body, fn)
	case *ForeachData:
		Inspect(d.In, fn)
		InspectBlock(d.Body, fn)
	case *ReturnData:
		Inspect(d.Value, fn)
	case *BlockData:
		InspectBlock(d.Block, fn)
	}
}
