package workshop

import (
	"fmt"
	"slices"
)

// Marker is one pending forward skip.
type Marker struct {
	start *Action
	end   *Action
}

func (m *Marker) Resolved() bool { return m != nil && m.end != nil }

// ActionList is the append-mostly buffer a function or rule is lowered into.
// Placeholders are linked by pointer, so inserting actions before or after
// them never invalidates a marker.
type ActionList struct {
	actions  []*Action
	created  int
	resolved int
	errs     []error
}

func NewActionList() *ActionList {
	return &ActionList{actions: make([]*Action, 0, 16)}
}

func (l *ActionList) Add(actions ...*Action) {
	l.actions = append(l.actions, actions...)
}

// Insert places actions so that the first lands at position at.
func (l *ActionList) Insert(at int, actions ...*Action) {
	if at < 0 || at > len(l.actions) {
		l.errs = append(l.errs, fmt.Errorf("insert at %d outside [0,%d]", at, len(l.actions)))
		return
	}
	l.actions = slices.Insert(l.actions, at, actions...)
}

// Len counts entries including placeholders.
func (l *ActionList) Len() int { return len(l.actions) }

func (l *ActionList) Actions() []*Action { return l.actions }

// Last returns the final entry or nil.
func (l *ActionList) Last() *Action {
	if len(l.actions) == 0 {
		return nil
	}
	return l.actions[len(l.actions)-1]
}

// Splice moves every entry of other to the end of l, markers included.
func (l *ActionList) Splice(other *ActionList) {
	l.actions = append(l.actions, other.actions...)
	l.created += other.created
	l.resolved += other.resolved
	l.errs = append(l.errs, other.errs...)
	other.actions = other.actions[:0]
	other.created, other.resolved, other.errs = 0, 0, nil
}

// SkipStart emits a forward skip placeholder, conditional when cond is not
// nil. The skip is taken when cond is true.
func (l *ActionList) SkipStart(cond *Value, comment string) *Marker {
	a := &Action{Kind: ActSkipStart, Cond: cond, Comment: comment}
	m := &Marker{start: a}
	a.marker = m
	l.created++
	l.actions = append(l.actions, a)
	return m
}

// SkipEnd places the landing point shared by markers at the current end.
func (l *ActionList) SkipEnd(markers ...*Marker) {
	if len(markers) == 0 {
		return
	}
	end := &Action{Kind: ActSkipEnd}
	for _, m := range markers {
		if m.end != nil {
			l.errs = append(l.errs, fmt.Errorf("skip %q resolved twice", m.start.Comment))
			continue
		}
		m.end = end
		l.resolved++
	}
	l.actions = append(l.actions, end)
}

// Pending counts placeholders still waiting for a landing point.
func (l *ActionList) Pending() int { return l.created - l.resolved }

// Stats returns how many markers were created and resolved.
func (l *ActionList) Stats() (created, resolved int) { return l.created, l.resolved }

// CountReal counts entries that will survive Finalize.
func (l *ActionList) CountReal() int {
	n := 0
	for _, a := range l.actions {
		if a.Kind != ActSkipEnd {
			n++
		}
	}
	return n
}
