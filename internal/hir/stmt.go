package hir

import (
	"wsc/internal/source"
	"wsc/internal/symbols"
)

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtVar StmtKind = iota
	StmtAssign
	StmtExpr
	StmtIf
	StmtWhile
	// StmtFor is the general initializer/condition/iterator loop.
	StmtFor
	// StmtAutoFor counts one numeric variable from start to stop by step.
	StmtAutoFor
	StmtForeach
	StmtBreak
	StmtContinue
	StmtReturn
	StmtBlock
)

func (k StmtKind) String() string {
	switch k {
	case StmtVar:
		return "var"
	case StmtAssign:
		return "assign"
	case StmtExpr:
		return "expr"
	case StmtIf:
		return "if"
	case StmtWhile:
		return "while"
	case StmtFor:
		return "for"
	case StmtAutoFor:
		return "autofor"
	case StmtForeach:
		return "foreach"
	case StmtBreak:
		return "break"
	case StmtContinue:
		return "continue"
	case StmtReturn:
		return "return"
	case StmtBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Stmt is one statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // nil for break and continue
}

// StmtData is the kind-specific payload of a statement.
type StmtData interface {
	stmtData()
}

// VarData declares a local.
type VarData struct {
	Name string
	Type symbols.TypeKey
	Init *Expr
}

// AssignData is Target Op Value, Op one of = += -= *= /= %=.
type AssignData struct {
	Target *Expr
	Op     string
	Value  *Expr
}

type ExprStmtData struct {
	X *Expr
}

type ElseIf struct {
	Span source.Span
	Cond *Expr
	Body *Block
}

type IfData struct {
	Cond    *Expr
	Then    *Block
	ElseIfs []ElseIf
	Else    *Block
}

type WhileData struct {
	Cond *Expr
	Body *Block
}

// ForData is for (Init; Cond; Iter) Body. Every part but Body may be nil.
type ForData struct {
	Init *Stmt
	Cond *Expr
	Iter *Stmt
	Body *Block
}

// AutoForData is for (var; Stop; Step) Body. Exactly one of Decl and Target is
// set in valid input: Decl declares the counter, Target names an existing
// variable. A missing start counts from 0.
type AutoForData struct {
	Decl   *VarData
	Target *Expr
	Start  *Expr
	Stop   *Expr
	Step   *Expr
	Body   *Block
}

type ForeachData struct {
	Var  string
	Type symbols.TypeKey
	In   *Expr
	Body *Block
}

type ReturnData struct {
	Value *Expr
}

type BlockData struct {
	Block *Block
}

func (*VarData) stmtData()      {}
func (*AssignData) stmtData()   {}
func (*ExprStmtData) stmtData() {}
func (*IfData) stmtData()       {}
func (*WhileData) stmtData()    {}
func (*ForData) stmtData()      {}
func (*AutoForData) stmtData()  {}
func (*ForeachData) stmtData()  {}
func (*ReturnData) stmtData()   {}
func (*BlockData) stmtData()    {}
