package workshop

// ActionKind enumerates target actions plus the two skip placeholders.
type ActionKind uint8

const (
	ActSetVar ActionKind = iota + 1
	ActSetVarAtIndex
	ActWhile
	ActFor
	ActIf
	ActElseIf
	ActElse
	ActEnd
	ActBreak
	ActContinue
	ActSkip
	ActSkipIf
	ActCallSubroutine
	ActAbort
	ActAbortIf
	ActCall

	ActSkipStart // placeholder, replaced by Finalize
	ActSkipEnd   // landing point, removed by Finalize
)

func (k ActionKind) String() string {
	switch k {
	case ActSetVar:
		return "set"
	case ActSetVarAtIndex:
		return "set-at-index"
	case ActWhile:
		return "while"
	case ActFor:
		return "for"
	case ActIf:
		return "if"
	case ActElseIf:
		return "else-if"
	case ActElse:
		return "else"
	case ActEnd:
		return "end"
	case ActBreak:
		return "break"
	case ActContinue:
		return "continue"
	case ActSkip:
		return "skip"
	case ActSkipIf:
		return "skip-if"
	case ActCallSubroutine:
		return "call-subroutine"
	case ActAbort:
		return "abort"
	case ActAbortIf:
		return "abort-if"
	case ActCall:
		return "call"
	case ActSkipStart:
		return "skip-start"
	case ActSkipEnd:
		return "skip-end"
	}
	return "invalid"
}

// OpensBlock reports actions closed by a matching End.
func (k ActionKind) OpensBlock() bool {
	return k == ActWhile || k == ActFor || k == ActIf
}

// Action is one emitted target action.
type Action struct {
	Kind    ActionKind
	Var     *Variable
	Index   *Value
	Value   *Value // assigned value, or the For start
	Cond    *Value
	Stop    *Value
	Step    *Value
	Count   int
	Name    string // subroutine or built-in
	Args    []*Value
	Comment string

	marker *Marker
}

// WithComment attaches a listing comment; empty strings are ignored.
func (a *Action) WithComment(comment string) *Action {
	if comment != "" {
		a.Comment = comment
	}
	return a
}

func SetVar(v *Variable, value *Value) *Action {
	return &Action{Kind: ActSetVar, Var: v, Value: value}
}

func SetVarAtIndex(v *Variable, index, value *Value) *Action {
	return &Action{Kind: ActSetVarAtIndex, Var: v, Index: index, Value: value}
}

func While(cond *Value) *Action { return &Action{Kind: ActWhile, Cond: cond} }

// For counts v from start towards stop by step: while v < stop for a
// positive step, v > stop for a negative one.
func For(v *Variable, start, stop, step *Value) *Action {
	return &Action{Kind: ActFor, Var: v, Value: start, Stop: stop, Step: step}
}

func If(cond *Value) *Action { return &Action{Kind: ActIf, Cond: cond} }

func ElseIf(cond *Value) *Action { return &Action{Kind: ActElseIf, Cond: cond} }

func Else() *Action { return &Action{Kind: ActElse} }

func End() *Action { return &Action{Kind: ActEnd} }

func Break() *Action { return &Action{Kind: ActBreak} }

func Continue() *Action { return &Action{Kind: ActContinue} }

func Skip(count int) *Action { return &Action{Kind: ActSkip, Count: count} }

func SkipIf(cond *Value, count int) *Action {
	return &Action{Kind: ActSkipIf, Cond: cond, Count: count}
}

func CallSubroutine(name string) *Action { return &Action{Kind: ActCallSubroutine, Name: name} }

func Abort() *Action { return &Action{Kind: ActAbort} }

func AbortIf(cond *Value) *Action { return &Action{Kind: ActAbortIf, Cond: cond} }

func CallAction(name string, args ...*Value) *Action {
	return &Action{Kind: ActCall, Name: name, Args: args}
}
