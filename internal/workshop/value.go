package workshop

// ValueKind enumerates value tree nodes.
type ValueKind uint8

const (
	ValNull ValueKind = iota
	ValNumber
	ValBool
	ValArray // Args are the elements
	ValVar   // Var, read through the event player for the per-player space
	ValEventPlayer
	ValIndex   // Args[0][Args[1]]
	ValLastOf  // Args[0]
	ValCountOf // Args[0]
	ValSlice   // Args[0] from Args[1], Args[2] elements
	ValAppend  // copy of Args[0] with Args[1] appended
	ValArith   // Args[0] Op Args[1]; Op in + - * / %
	ValCompare // Args[0] Op Args[1]; Op in == != < <= > >=
	ValAnd
	ValOr
	ValNot
	ValCall // built-in value Name(Args...)
)

// Value is a side-effect free expression evaluated by the target.
type Value struct {
	Kind ValueKind
	Num  float64
	Bool bool
	Op   string
	Name string
	Var  *Variable
	Args []*Value
}

func Null() *Value { return &Value{Kind: ValNull} }

func Num(n float64) *Value { return &Value{Kind: ValNumber, Num: n} }

func Bool(b bool) *Value { return &Value{Kind: ValBool, Bool: b} }

func Array(elems ...*Value) *Value { return &Value{Kind: ValArray, Args: elems} }

func VarValue(v *Variable) *Value { return &Value{Kind: ValVar, Var: v} }

func EventPlayer() *Value { return &Value{Kind: ValEventPlayer} }

func Index(array, index *Value) *Value {
	return &Value{Kind: ValIndex, Args: []*Value{array, index}}
}

func LastOf(array *Value) *Value { return &Value{Kind: ValLastOf, Args: []*Value{array}} }

func CountOf(array *Value) *Value { return &Value{Kind: ValCountOf, Args: []*Value{array}} }

func Slice(array, start, count *Value) *Value {
	return &Value{Kind: ValSlice, Args: []*Value{array, start, count}}
}

func Append(array, v *Value) *Value {
	return &Value{Kind: ValAppend, Args: []*Value{array, v}}
}

func Arith(a *Value, op string, b *Value) *Value {
	return &Value{Kind: ValArith, Op: op, Args: []*Value{a, b}}
}

func Add(a, b *Value) *Value { return Arith(a, "+", b) }

func Sub(a, b *Value) *Value { return Arith(a, "-", b) }

func Compare(a *Value, op string, b *Value) *Value {
	return &Value{Kind: ValCompare, Op: op, Args: []*Value{a, b}}
}

func And(a, b *Value) *Value { return &Value{Kind: ValAnd, Args: []*Value{a, b}} }

func Or(a, b *Value) *Value { return &Value{Kind: ValOr, Args: []*Value{a, b}} }

func Not(a *Value) *Value { return &Value{Kind: ValNot, Args: []*Value{a}} }

func Call(name string, args ...*Value) *Value {
	return &Value{Kind: ValCall, Name: name, Args: args}
}

// IsConstant reports number, bool and null literals.
func (v *Value) IsConstant() bool {
	switch v.Kind {
	case ValNull, ValNumber, ValBool:
		return true
	}
	return false
}

// IsTrue reports the literal true.
func (v *Value) IsTrue() bool { return v.Kind == ValBool && v.Bool }
