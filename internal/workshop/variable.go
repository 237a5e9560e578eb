package workshop

import "fmt"

// Space is one of the two variable storage spaces.
type Space uint8

const (
	SpaceGlobal Space = iota
	SpacePlayer
)

func (s Space) String() string {
	if s == SpacePlayer {
		return "player"
	}
	return "global"
}

// Variable is one allocated slot.
type Variable struct {
	Name  string
	Space Space
	Slot  int
}

func (v *Variable) String() string {
	if v.Space == SpacePlayer {
		return "Event Player." + v.Name
	}
	return "Global." + v.Name
}

// Ref is a readable and writable storage location.
type Ref interface {
	Get() *Value
	Set(l *ActionList, v *Value, comment string)
	// SetIndex writes one element of the array stored at the location.
	SetIndex(l *ActionList, index, v *Value, comment string)
}

// VarRef is a plain slot, or with Element set, the element of an array slot
// at a constant index.
type VarRef struct {
	Var     *Variable
	Element *Value
	// Scratch is needed for element writes through an indexed location, since
	// the target only writes one index level at a time.
	Scratch *Variable
}

func (r VarRef) Indexed() bool { return r.Element != nil }

func (r VarRef) Get() *Value {
	if r.Element == nil {
		return VarValue(r.Var)
	}
	return Index(VarValue(r.Var), r.Element)
}

func (r VarRef) Set(l *ActionList, v *Value, comment string) {
	if r.Element == nil {
		l.Add(SetVar(r.Var, v).WithComment(comment))
		return
	}
	l.Add(SetVarAtIndex(r.Var, r.Element, v).WithComment(comment))
}

func (r VarRef) SetIndex(l *ActionList, index, v *Value, comment string) {
	if r.Element == nil {
		l.Add(SetVarAtIndex(r.Var, index, v).WithComment(comment))
		return
	}
	if r.Scratch == nil {
		panic(fmt.Sprintf("workshop: element write through %s needs a scratch slot", r.Var.Name))
	}
	l.Add(SetVar(r.Scratch, r.Get()).WithComment(comment))
	l.Add(SetVarAtIndex(r.Scratch, index, v))
	r.Set(l, VarValue(r.Scratch), "")
}
