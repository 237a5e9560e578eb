package hir

import (
	"strings"

	"wsc/internal/source"
	"wsc/internal/symbols"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	ExprNum ExprKind = iota
	ExprBool
	ExprNull
	// ExprRef names a variable, possibly qualified: ns.inner.x.
	ExprRef
	ExprBinary
	ExprUnary
	// ExprCall calls a named function or built-in.
	ExprCall
	// ExprInvoke calls a lambda value.
	ExprInvoke
	ExprIndex
	ExprArray
	ExprLambda
	// ExprThis is the player bound by the enclosing rule.
	ExprThis
)

func (k ExprKind) String() string {
	switch k {
	case ExprNum:
		return "num"
	case ExprBool:
		return "bool"
	case ExprNull:
		return "null"
	case ExprRef:
		return "ref"
	case ExprBinary:
		return "bin"
	case ExprUnary:
		return "un"
	case ExprCall:
		return "call"
	case ExprInvoke:
		return "invoke"
	case ExprIndex:
		return "index"
	case ExprArray:
		return "array"
	case ExprLambda:
		return "lambda"
	case ExprThis:
		return "this"
	default:
		return "unknown"
	}
}

// Expr is one expression. Type is the checker's annotation; empty means
// unknown.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Type symbols.TypeKey
	Data ExprData // nil for null and this
}

// ExprData is the kind-specific payload of an expression.
type ExprData interface {
	exprData()
}

type NumData struct {
	Value float64
}

type BoolData struct {
	Value bool
}

type RefData struct {
	Path []string
}

// Name is the dotted form of the path.
func (d *RefData) Name() string { return strings.Join(d.Path, ".") }

// BinaryData: Op is one of + - * / % == != < <= > >= && ||.
type BinaryData struct {
	Op string
	L  *Expr
	R  *Expr
}

// UnaryData: Op is - or !.
type UnaryData struct {
	Op string
	X  *Expr
}

type CallData struct {
	Path []string
	Args []*Expr
}

func (d *CallData) Name() string { return strings.Join(d.Path, ".") }

type InvokeData struct {
	Callee *Expr
	Args   []*Expr
}

type IndexData struct {
	Array *Expr
	At    *Expr
}

type ArrayData struct {
	Elems []*Expr
}

// LambdaData is either an expression lambda (Expr set) or a block lambda
// (Body set).
type LambdaData struct {
	Params []*Param
	Expr   *Expr
	Body   *Block
}

func (d *LambdaData) IsBlock() bool { return d.Body != nil }

func (*NumData) exprData()    {}
func (*BoolData) exprData()   {}
func (*RefData) exprData()    {}
func (*BinaryData) exprData() {}
func (*UnaryData) exprData()  {}
func (*CallData) exprData()   {}
func (*InvokeData) exprData() {}
func (*IndexData) exprData()  {}
func (*ArrayData) exprData()  {}
func (*LambdaData) exprData() {}
