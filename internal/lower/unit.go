package lower

import (
	"fmt"

	"wsc/internal/hir"
	"wsc/internal/recursion"
	"wsc/internal/sema"
	"wsc/internal/symbols"
	"wsc/internal/workshop"
)

// slotKey identifies a storage location. Locals share one slot per space
// across every inlined copy of their function; captures and temporaries get
// their own.
type slotKey struct {
	sym    symbols.SymbolID
	lambda *hir.Expr // capture slots of a portable lambda
	n      int
	space  workshop.Space
	unit   int // owner of a temporary, counted from 1
}

// binding is what a name lowers to: a writable location or a substituted
// read-only value.
type binding struct {
	ref   workshop.Ref
	value *workshop.Value
}

func (b binding) get() *workshop.Value {
	if b.ref != nil {
		return b.ref.Get()
	}
	return b.value
}

// bodyCtx is the innermost code a return statement leaves.
type bodyCtx struct {
	rule   bool         // return aborts the rule
	result workshop.Ref // nil when the value is dropped
	mark   int          // frame depth at entry
	tail   *hir.Stmt    // final return, which needs no skip
	exits  []*workshop.Marker
}

type loopCtx struct {
	bodyMark int
	// native loops re-evaluate their header on Continue; loops with an
	// iterator statement need a skip to reach it.
	nativeContinue bool
	breaks         []*workshop.Marker
	continues      []*workshop.Marker
}

type tempPool struct {
	all  []workshop.Ref
	used int
}

// unit is one rule or subroutine being lowered.
type unit struct {
	l     *lowerer
	id    int
	name  string
	space workshop.Space
	list  *workshop.ActionList
	frame *recursion.Frame
	owner sema.Callable
	env   map[symbols.SymbolID]binding
	this  *workshop.Value
	body  *bodyCtx
	loop  *loopCtx
	temps tempPool
	errs  []error
}

func (l *lowerer) newUnit(name string, space workshop.Space, owner sema.Callable, recursive bool) *unit {
	l.units++
	u := &unit{
		l:     l,
		id:    l.units,
		name:  name,
		space: space,
		list:  workshop.NewActionList(),
		owner: owner,
		env:   make(map[symbols.SymbolID]binding),
	}
	if recursive {
		u.frame = recursion.NewFrame(name)
	}
	return u
}

func (u *unit) invariant(format string, args ...any) {
	u.errs = append(u.errs, fmt.Errorf(format, args...))
}

// stackful reports whether locals of the current owner live on stacks.
func (u *unit) stackful() bool {
	return u.frame != nil && u.l.rec[u.owner]
}

func (u *unit) mark() int {
	if u.frame == nil {
		return 0
	}
	return u.frame.Mark()
}

func (u *unit) exitScope(mark int) {
	if u.frame != nil {
		u.frame.ExitScope(u.list, mark)
	}
}

func (u *unit) unwind(mark int) {
	if u.frame != nil {
		u.frame.Unwind(u.list, mark)
	}
}

func (l *lowerer) slot(key slotKey, hint string) workshop.VarRef {
	if ref, ok := l.storage[key]; ok {
		return ref
	}
	ref := l.alloc.Allocate(key.space, hint)
	l.storage[key] = ref
	return ref
}

func (u *unit) stackRef(key slotKey, hint string) *recursion.StackRef {
	return &recursion.StackRef{
		Name:   hint,
		Base:   u.l.slot(key, hint),
		Shadow: u.l.alloc.Shadow(key.space),
	}
}

// declare binds a new local of the current owner and initialises it.
func (u *unit) declare(sym symbols.SymbolID, init *workshop.Value) workshop.Ref {
	return u.declareAt(slotKey{sym: sym, space: u.space}, sym, u.l.res.Table.Name(sym), init)
}

func (u *unit) declareAt(key slotKey, sym symbols.SymbolID, hint string, init *workshop.Value) workshop.Ref {
	ref := u.local(key, hint, init)
	u.env[sym] = binding{ref: ref}
	return ref
}

// local creates storage for a value of the current owner: a stack entry
// when the owner can be re-entered, a shared slot otherwise.
func (u *unit) local(key slotKey, hint string, init *workshop.Value) workshop.Ref {
	if u.stackful() {
		ref := u.stackRef(key, hint)
		u.frame.Declare(u.list, ref, init)
		return ref
	}
	ref := u.l.slot(key, hint)
	if init == nil {
		init = workshop.Null()
	}
	ref.Set(u.list, init, "var "+hint)
	return ref
}

// lookup finds the binding of a resolved name.
func (u *unit) lookup(sym symbols.SymbolID) (binding, bool) {
	if b, ok := u.env[sym]; ok {
		return b, true
	}
	if ref, ok := u.l.globals[sym]; ok {
		return binding{ref: ref}, true
	}
	return binding{}, false
}

// temp returns a free temporary, valid until the enclosing statement ends.
func (u *unit) temp() workshop.Ref {
	p := &u.temps
	if p.used < len(p.all) {
		p.used++
		return p.all[p.used-1]
	}
	key := slotKey{n: len(p.all), space: u.space, unit: u.id}
	var ref workshop.Ref
	if u.frame != nil {
		sr := u.stackRef(key, "tmp")
		u.frame.AddTemp(sr)
		ref = sr
	} else {
		ref = u.l.slot(key, "tmp")
	}
	p.all = append(p.all, ref)
	p.used++
	return ref
}

// spill copies v into a temporary unless it is a literal.
func (u *unit) spill(v *workshop.Value) *workshop.Value {
	if v.IsConstant() {
		return v
	}
	t := u.temp()
	t.Set(u.list, v, "")
	return t.Get()
}

// closeBody pops what the body declared and lands its early returns.
func (u *unit) closeBody(b *bodyCtx) {
	u.exitScope(b.mark)
	u.list.SkipEnd(b.exits...)
}

// tailReturn returns the final statement of b when it is a return.
func tailReturn(b *hir.Block) *hir.Stmt {
	if b == nil || len(b.Stmts) == 0 {
		return nil
	}
	last := b.Stmts[len(b.Stmts)-1]
	if last.Kind == hir.StmtReturn {
		return last
	}
	return nil
}
