package lower

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wsc/internal/closure"
	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/recursion"
	"wsc/internal/sema"
	"wsc/internal/slots"
	"wsc/internal/source"
	"wsc/internal/symbols"
	"wsc/internal/trace"
	"wsc/internal/workshop"
)

// DispatchName is the subroutine that runs portable lambdas.
const DispatchName = "LambdaDispatch"

// Options configure one lowering.
type Options struct {
	Slots slots.Config
	// NativeBreak and NativeContinue allow the target's Break and Continue
	// actions. Without them loop exits use skips.
	NativeBreak    bool
	NativeContinue bool
	Reporter       diag.Reporter
}

// DefaultOptions targets the full action set with default slot limits.
func DefaultOptions() Options {
	return Options{NativeBreak: true, NativeContinue: true}
}

// subroutine is a function compiled once and entered with Call Subroutine.
type subroutine struct {
	name string
	fn   sema.FuncInfo
	// args are written by callers. For a non-recursive subroutine they are
	// the parameters themselves.
	args      []workshop.VarRef
	ret       workshop.VarRef
	hasResult bool
	recursive bool
	space     workshop.Space
}

type lowerer struct {
	ctx   context.Context
	res   *sema.Result
	cl    *closure.Analysis
	opts  Options
	alloc *slots.Allocator
	graph *recursion.Graph[sema.Callable]
	rec   map[sema.Callable]bool

	globals  map[symbols.SymbolID]workshop.VarRef
	storage  map[slotKey]workshop.VarRef
	subs     map[symbols.SymbolID]*subroutine
	subNames map[string]bool
	// internal holds the declarations of generated slots.
	internal symbols.ScopeID

	units int

	dispatchUsed    bool
	dispatchClosure *workshop.VarRef
	dispatchRet     *workshop.VarRef
	dispatchArgs    []workshop.VarRef

	errs []error
}

// Lower compiles a checked module. User problems found on the way are
// reported as warnings or errors to opts.Reporter; the returned error is
// only set for invariant failures, as an *InvariantError.
func Lower(ctx context.Context, res *sema.Result, opts Options) (*workshop.Program, error) {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	alloc, err := slots.New(opts.Slots)
	if err != nil {
		return nil, err
	}
	l := &lowerer{
		ctx:      ctx,
		res:      res,
		cl:       closure.Analyze(res),
		opts:     opts,
		alloc:    alloc,
		globals:  make(map[symbols.SymbolID]workshop.VarRef),
		storage:  make(map[slotKey]workshop.VarRef),
		subs:     make(map[symbols.SymbolID]*subroutine),
		subNames: make(map[string]bool),
	}
	l.internal = res.Table.NewScope(symbols.ScopeBlock, res.File, symbols.ScopeCatchesConflicts, source.Span{})
	res.Table.Scope(l.internal).Name = "generated"
	return l.run()
}

func (l *lowerer) run() (*workshop.Program, error) {
	l.buildGraph()
	for _, g := range l.res.Globals {
		space := workshop.SpaceGlobal
		if g.Decl.Player {
			space = workshop.SpacePlayer
		}
		l.globals[g.Sym] = l.alloc.Allocate(space, g.Name)
	}
	l.planSubroutines()

	prog := &workshop.Program{}
	var errs []error
	add := func(r *workshop.Rule, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		if r != nil {
			prog.Rules = append(prog.Rules, r)
		}
	}
	add(l.initRule(l.res.InitGlobal, workshop.SpaceGlobal))
	add(l.initRule(l.res.InitPlayer, workshop.SpacePlayer))
	for _, r := range l.res.Module.Rules {
		add(l.rule(r))
	}
	for _, f := range l.res.Funcs {
		if sub := l.subs[f.Sym]; sub != nil {
			add(l.subroutine(sub))
			prog.Subroutines = append(prog.Subroutines, sub.name)
		}
	}
	if l.dispatchUsed || len(l.cl.Portable()) > 0 {
		add(l.dispatcher())
		prog.Subroutines = append(prog.Subroutines, DispatchName)
	}
	errs = append(errs, l.errs...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, sp := range []workshop.Space{workshop.SpaceGlobal, workshop.SpacePlayer} {
		if l.alloc.Overflowed(sp) {
			diag.ReportWarning(l.opts.Reporter, diag.LowSlotOverflow, source.Span{File: l.res.Module.File},
				fmt.Sprintf("more than %d %s variables; the rest are stored as elements of an overflow array", l.alloc.Limit(sp)-3, sp)).Emit()
		}
	}
	prog.GlobalSlots = l.alloc.Used(workshop.SpaceGlobal)
	prog.PlayerSlots = l.alloc.Used(workshop.SpacePlayer)
	prog.Vars = l.alloc.All()
	return prog, nil
}

// buildGraph extends the checked call graph with the dispatcher: invokes of
// portable lambdas reach it, and it reaches every portable lambda.
func (l *lowerer) buildGraph() {
	g := recursion.NewGraph[sema.Callable]()
	for _, f := range l.res.Funcs {
		g.AddNode(sema.FuncNode(f.Sym))
	}
	for _, s := range l.res.Sites {
		to := s.To
		if to.Lambda != nil && l.cl.Info(to.Lambda).Class == closure.Portable {
			to = sema.DispatchNode
		}
		g.AddEdge(s.From, to)
	}
	for _, info := range l.cl.Portable() {
		g.AddEdge(sema.DispatchNode, sema.LambdaNode(info.Lambda))
	}
	l.graph = g
	l.rec = g.Recursive()
}

func (l *lowerer) planSubroutines() {
	for _, f := range l.res.Funcs {
		recursive := l.rec[sema.FuncNode(f.Sym)]
		if !f.Decl.Subroutine && !recursive {
			continue
		}
		if recursive && !f.Decl.Subroutine {
			diag.ReportWarning(l.opts.Reporter, diag.LowPromotedToSubr, f.Decl.Span,
				fmt.Sprintf("%s is recursive and is compiled as a subroutine", f.Name)).Emit()
		}
		sub := &subroutine{
			name:      l.subName(f),
			fn:        f,
			hasResult: f.Decl.Result != "" && f.Decl.Result != symbols.TypeVoid,
			recursive: recursive,
		}
		if f.Decl.PlayerLocals {
			sub.space = workshop.SpacePlayer
		}
		for i, p := range f.Decl.Params {
			hint := sub.name + "_" + p.Name
			if recursive {
				hint = fmt.Sprintf("%s_arg%d", sub.name, i)
			}
			sub.args = append(sub.args, l.generated(workshop.SpaceGlobal, hint))
		}
		if sub.hasResult {
			sub.ret = l.generated(workshop.SpaceGlobal, sub.name+"_ret")
		}
		l.subs[f.Sym] = sub
	}
}

func (l *lowerer) subName(f sema.FuncInfo) string {
	name := f.Decl.SubroutineName
	if name == "" {
		name = strings.ReplaceAll(f.Name, ".", "_")
	}
	if l.subNames[name] || name == DispatchName {
		diag.ReportError(l.opts.Reporter, diag.LowDuplicateSubName, f.Decl.Span,
			fmt.Sprintf("subroutine name %q is already used", name)).Emit()
		base := name
		for i := 2; l.subNames[name] || name == DispatchName; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
	}
	l.subNames[name] = true
	return name
}

// generated allocates a compiler-owned slot and records it in the internal
// scope so that clashing generated names are caught.
func (l *lowerer) generated(space workshop.Space, hint string) workshop.VarRef {
	ref := l.alloc.Allocate(space, hint)
	if _, err := l.res.Table.DeclareInternal(l.internal, symbols.Decl{Name: ref.Var.Name + elementSuffix(ref), Kind: symbols.SymbolVar}); err != nil {
		l.errs = append(l.errs, &InvariantError{Unit: hint, Err: err})
	}
	return ref
}

func elementSuffix(ref workshop.VarRef) string {
	if ref.Element == nil {
		return ""
	}
	return fmt.Sprintf("[%g]", ref.Element.Num)
}

func (l *lowerer) dispatchSlots() (closureRef, ret workshop.VarRef) {
	if l.dispatchClosure == nil {
		c := l.generated(workshop.SpaceGlobal, "lambda_closure")
		r := l.generated(workshop.SpaceGlobal, "lambda_ret")
		l.dispatchClosure, l.dispatchRet = &c, &r
	}
	return *l.dispatchClosure, *l.dispatchRet
}

func (l *lowerer) dispatchArg(i int) workshop.VarRef {
	for len(l.dispatchArgs) <= i {
		l.dispatchArgs = append(l.dispatchArgs, l.generated(workshop.SpaceGlobal, fmt.Sprintf("lambda_arg%d", len(l.dispatchArgs))))
	}
	return l.dispatchArgs[i]
}

func ruleSpace(r *hir.Rule) workshop.Space {
	if r.Event == hir.EventEachPlayer {
		return workshop.SpacePlayer
	}
	return workshop.SpaceGlobal
}

func ruleEvent(r *hir.Rule) workshop.EventKind {
	if r.Event == hir.EventEachPlayer {
		return workshop.EventOngoingEachPlayer
	}
	return workshop.EventOngoingGlobal
}

// finish finalizes u into a rule.
func (l *lowerer) finish(u *unit, rule *workshop.Rule, span *trace.Span) (*workshop.Rule, error) {
	actions, err := workshop.Finalize(u.list)
	if u.frame != nil {
		err = errors.Join(err, u.frame.Err())
	}
	err = errors.Join(err, errors.Join(u.errs...))
	if err != nil {
		span.End("failed")
		return nil, &InvariantError{Unit: u.name, Err: err}
	}
	rule.Actions = actions
	span.End(fmt.Sprintf("%d actions", len(actions)))
	return rule, nil
}

func (l *lowerer) initRule(r *hir.Rule, space workshop.Space) (*workshop.Rule, error) {
	_, span := trace.StartSpan(l.ctx, trace.ScopeNode, "lower "+r.Name)
	u := l.newUnit(r.Name, space, sema.RuleNode(r), false)
	for _, g := range l.res.Globals {
		if g.Decl.Init == nil || g.Decl.Player != (space == workshop.SpacePlayer) {
			continue
		}
		mark := u.temps.used
		v := u.expr(g.Decl.Init)
		l.globals[g.Sym].Set(u.list, v, g.Name)
		u.temps.used = mark
	}
	if u.list.Len() == 0 {
		span.End("empty")
		return nil, nil
	}
	return l.finish(u, &workshop.Rule{Name: r.Name, Event: ruleEvent(r)}, span)
}

func (l *lowerer) rule(r *hir.Rule) (*workshop.Rule, error) {
	_, span := trace.StartSpan(l.ctx, trace.ScopeNode, "lower rule "+r.Name)
	u := l.newUnit(r.Name, ruleSpace(r), sema.RuleNode(r), false)
	out := &workshop.Rule{Name: r.Name, Event: ruleEvent(r)}

	// Conditions after the first one that needs actions become Abort If
	// checks at the top of the body.
	inBody := false
	for _, c := range r.Conditions {
		v, sub := u.exprInto(c)
		if !inBody && sub.Len() == 0 {
			out.Conditions = append(out.Conditions, v)
			continue
		}
		inBody = true
		u.list.Splice(sub)
		u.list.Add(workshop.AbortIf(workshop.Not(v)).WithComment("condition"))
	}
	u.body = &bodyCtx{rule: true}
	u.stmts(r.Body.Stmts)
	return l.finish(u, out, span)
}

func (l *lowerer) subroutine(sub *subroutine) (*workshop.Rule, error) {
	_, span := trace.StartSpan(l.ctx, trace.ScopeNode, "lower subroutine "+sub.name)
	if sub.recursive {
		span.WithExtra("recursive", "true")
	}
	decl := sub.fn.Decl
	u := l.newUnit(sub.name, sub.space, sema.FuncNode(sub.fn.Sym), sub.recursive)
	for i, p := range decl.Params {
		sym := l.res.Params[p]
		if sub.recursive {
			ref := u.stackRef(slotKey{sym: sym, space: u.space}, p.Name)
			u.frame.PushParam(u.list, ref, sub.args[i].Get())
			u.env[sym] = binding{ref: ref}
			continue
		}
		u.env[sym] = binding{ref: sub.args[i]}
	}
	b := &bodyCtx{tail: tailReturn(decl.Body)}
	if sub.hasResult {
		b.result = sub.ret
	}
	u.body = b
	u.stmts(decl.Body.Stmts)
	u.closeBody(b)
	if u.frame != nil {
		u.frame.Epilogue(u.list)
		u.list.Insert(0, u.frame.TempPrologue()...)
	}
	return l.finish(u, &workshop.Rule{Name: sub.name, Event: workshop.EventSubroutine, Subroutine: sub.name}, span)
}

// dispatcher lowers every portable lambda into one subroutine that selects
// the body by the id stored in the closure value.
func (l *lowerer) dispatcher() (*workshop.Rule, error) {
	_, span := trace.StartSpan(l.ctx, trace.ScopeNode, "lower "+DispatchName)
	closureRef, ret := l.dispatchSlots()
	u := l.newUnit(DispatchName, workshop.SpaceGlobal, sema.DispatchNode, l.rec[sema.DispatchNode])
	for n, info := range l.cl.Portable() {
		cond := workshop.Compare(workshop.Index(closureRef.Get(), workshop.Num(closure.IDIndex)), "==", workshop.Num(float64(info.ID)))
		comment := fmt.Sprintf("lambda %d (%s)", info.ID, info.Lambda.Span)
		if n == 0 {
			u.list.Add(workshop.If(cond).WithComment(comment))
		} else {
			u.list.Add(workshop.ElseIf(cond).WithComment(comment))
		}
		u.portableBody(info, closureRef, ret)
	}
	if len(l.cl.Portable()) > 0 {
		u.list.Add(workshop.End())
	}
	if u.frame != nil {
		u.frame.Epilogue(u.list)
		u.list.Insert(0, u.frame.TempPrologue()...)
	}
	return l.finish(u, &workshop.Rule{Name: DispatchName, Event: workshop.EventSubroutine, Subroutine: DispatchName}, span)
}
