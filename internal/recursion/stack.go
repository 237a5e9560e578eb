package recursion

import (
	"errors"
	"fmt"

	"wsc/internal/workshop"
)

// ErrUnbalanced means pushes and pops of one activation did not match. It is
// a lowering bug.
var ErrUnbalanced = errors.New("unbalanced recursion stack")

// StackRef is a recursion-aware variable.
type StackRef struct {
	Name string
	Base workshop.VarRef
	// Shadow holds a copy of the top element during element writes.
	Shadow *workshop.Variable
}

var _ workshop.Ref = (*StackRef)(nil)

func (r *StackRef) top() *workshop.Value {
	return workshop.Sub(workshop.CountOf(r.Base.Get()), workshop.Num(1))
}

// Get reads the live value.
func (r *StackRef) Get() *workshop.Value { return workshop.LastOf(r.Base.Get()) }

// Set overwrites the live value in place.
func (r *StackRef) Set(l *workshop.ActionList, v *workshop.Value, comment string) {
	r.Base.SetIndex(l, r.top(), v, comment)
}

// SetIndex writes one element of the array held by the live value.
func (r *StackRef) SetIndex(l *workshop.ActionList, index, v *workshop.Value, comment string) {
	if r.Shadow == nil {
		panic(fmt.Sprintf("recursion: element write through %s needs a shadow slot", r.Name))
	}
	l.Add(workshop.SetVar(r.Shadow, r.Get()).WithComment(comment))
	l.Add(workshop.SetVarAtIndex(r.Shadow, index, v))
	r.Set(l, workshop.VarValue(r.Shadow), "")
}

// Push starts a new activation of the variable holding v.
func (r *StackRef) Push(l *workshop.ActionList, v *workshop.Value, comment string) {
	if v == nil {
		v = workshop.Null()
	}
	r.Base.SetIndex(l, workshop.CountOf(r.Base.Get()), v, comment)
}

// Pop drops the live activation.
func (r *StackRef) Pop(l *workshop.ActionList, comment string) {
	r.Base.Set(l, workshop.Slice(r.Base.Get(), workshop.Num(0), r.top()), comment)
}

// Frame tracks the recursion-aware variables of one function activation so
// that every exit path pops exactly what was pushed.
type Frame struct {
	Name   string
	params []*StackRef
	temps  []*StackRef
	locals []*StackRef
	errs   []error
}

func NewFrame(name string) *Frame { return &Frame{Name: name} }

// PushParam pushes a parameter in the function prologue.
func (f *Frame) PushParam(l *workshop.ActionList, r *StackRef, v *workshop.Value) {
	r.Push(l, v, "push "+r.Name)
	f.params = append(f.params, r)
}

// AddTemp registers a temporary. Temporaries are pushed all at once by
// TempPrologue, after the body has been lowered and they are all known.
func (f *Frame) AddTemp(r *StackRef) { f.temps = append(f.temps, r) }

// TempPrologue returns the push actions for every temporary.
func (f *Frame) TempPrologue() []*workshop.Action {
	l := workshop.NewActionList()
	for _, r := range f.temps {
		r.Push(l, nil, "")
	}
	return l.Actions()
}

// Declare pushes a local at its declaration.
func (f *Frame) Declare(l *workshop.ActionList, r *StackRef, v *workshop.Value) {
	r.Push(l, v, "push "+r.Name)
	f.locals = append(f.locals, r)
}

// Mark is the current local depth, taken at scope entry.
func (f *Frame) Mark() int { return len(f.locals) }

// ExitScope pops locals declared since mark, newest first, on the normal
// fall-through path.
func (f *Frame) ExitScope(l *workshop.ActionList, mark int) {
	if mark > len(f.locals) || mark < 0 {
		f.errs = append(f.errs, fmt.Errorf("%w: %s: scope exit at depth %d with %d live", ErrUnbalanced, f.Name, mark, len(f.locals)))
		return
	}
	f.Unwind(l, mark)
	f.locals = f.locals[:mark]
}

// Unwind emits pops for locals declared since mark without forgetting them.
// Used on early exits that leave several scopes at once.
func (f *Frame) Unwind(l *workshop.ActionList, mark int) {
	for i := len(f.locals) - 1; i >= mark && i >= 0; i-- {
		f.locals[i].Pop(l, "pop "+f.locals[i].Name)
	}
}

// Epilogue pops temporaries and parameters. Every local scope must have been
// exited already.
func (f *Frame) Epilogue(l *workshop.ActionList) {
	if len(f.locals) != 0 {
		f.errs = append(f.errs, fmt.Errorf("%w: %s: %d locals live at epilogue", ErrUnbalanced, f.Name, len(f.locals)))
	}
	for i := len(f.temps) - 1; i >= 0; i-- {
		f.temps[i].Pop(l, "")
	}
	for i := len(f.params) - 1; i >= 0; i-- {
		f.params[i].Pop(l, "pop "+f.params[i].Name)
	}
}

// Err reports every imbalance seen so far.
func (f *Frame) Err() error { return errors.Join(f.errs...) }
