package vm

import (
	"wsc/internal/workshop"
)

// blocks is the static block structure of one action list. Entries are -1
// where they do not apply.
type blocks struct {
	end  []int // If/ElseIf/Else/While/For: the End closing it
	next []int // If/ElseIf: the following ElseIf, Else or End of its chain
	head []int // End, ElseIf, Else: the opening action
	loop []int // Break/Continue: innermost enclosing While or For
}

func (m *VM) blocksOf(r *workshop.Rule) (*blocks, error) {
	if b, ok := m.blocks[r]; ok {
		return b, nil
	}
	n := len(r.Actions)
	b := &blocks{end: fill(n), next: fill(n), head: fill(n), loop: fill(n)}
	var open []int
	last := make(map[int]int) // chain head -> latest branch
	for i, a := range r.Actions {
		switch a.Kind {
		case workshop.ActIf, workshop.ActWhile, workshop.ActFor:
			open = append(open, i)
			last[i] = i
		case workshop.ActElseIf, workshop.ActElse:
			if len(open) == 0 || r.Actions[open[len(open)-1]].Kind != workshop.ActIf {
				return nil, m.panicf(PanicBadBlock, "%s: %s at %d outside an If", r.Name, a.Kind, i)
			}
			h := open[len(open)-1]
			if r.Actions[last[h]].Kind == workshop.ActElse {
				return nil, m.panicf(PanicBadBlock, "%s: %s at %d after Else", r.Name, a.Kind, i)
			}
			b.next[last[h]] = i
			b.head[i] = h
			last[h] = i
		case workshop.ActEnd:
			if len(open) == 0 {
				return nil, m.panicf(PanicBadBlock, "%s: End at %d closes nothing", r.Name, i)
			}
			h := open[len(open)-1]
			open = open[:len(open)-1]
			b.head[i] = h
			b.end[h] = i
			if r.Actions[last[h]].Kind != workshop.ActElse {
				b.next[last[h]] = i
			}
			for j := h + 1; j < i; j++ {
				if b.head[j] == h && (r.Actions[j].Kind == workshop.ActElseIf || r.Actions[j].Kind == workshop.ActElse) {
					b.end[j] = i
				}
			}
		case workshop.ActBreak, workshop.ActContinue:
			for k := len(open) - 1; k >= 0; k-- {
				if kind := r.Actions[open[k]].Kind; kind == workshop.ActWhile || kind == workshop.ActFor {
					b.loop[i] = open[k]
					break
				}
			}
			if b.loop[i] < 0 {
				return nil, m.panicf(PanicBadBlock, "%s: %s at %d outside a loop", r.Name, a.Kind, i)
			}
		}
	}
	if len(open) > 0 {
		return nil, m.panicf(PanicBadBlock, "%s: %s at %d is never closed", r.Name, r.Actions[open[len(open)-1]].Kind, open[len(open)-1])
	}
	m.blocks[r] = b
	return b, nil
}

func fill(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = -1
	}
	return s
}

// exec runs the actions of r. It reports whether an Abort ended the rule.
func (m *VM) exec(r *workshop.Rule) (bool, error) {
	if len(m.calls) >= m.opts.MaxDepth {
		return false, m.panicf(PanicCallDepth, "%s: more than %d nested subroutine calls", r.Name, m.opts.MaxDepth)
	}
	b, err := m.blocksOf(r)
	if err != nil {
		return false, err
	}
	frame := &BacktraceFrame{Rule: r.Name}
	m.calls = append(m.calls, frame)
	defer func() { m.calls = m.calls[:len(m.calls)-1] }()

	acts := r.Actions
	ip := 0
	for ip < len(acts) {
		frame.PC = ip
		m.steps++
		if m.steps > m.opts.MaxSteps {
			return false, m.panicf(PanicStepLimit, "more than %d actions executed", m.opts.MaxSteps)
		}
		if m.steps%4096 == 0 {
			if err := m.ctx.Err(); err != nil {
				return false, err
			}
		}
		a := acts[ip]
		next := ip + 1
		switch a.Kind {
		case workshop.ActSetVar:
			v, err := m.eval(a.Value)
			if err != nil {
				return false, err
			}
			if err := m.store(a.Var, v); err != nil {
				return false, err
			}
		case workshop.ActSetVarAtIndex:
			idx, err := m.eval(a.Index)
			if err != nil {
				return false, err
			}
			v, err := m.eval(a.Value)
			if err != nil {
				return false, err
			}
			if err := m.storeIndex(a.Var, idx, v); err != nil {
				return false, err
			}
		case workshop.ActIf:
			next, err = m.branch(acts, b, ip)
		case workshop.ActElseIf, workshop.ActElse:
			// reached from the end of a taken branch
			next = b.end[ip] + 1
		case workshop.ActWhile:
			c, err := m.eval(a.Cond)
			if err != nil {
				return false, err
			}
			if !c.Truthy() {
				next = b.end[ip] + 1
			}
		case workshop.ActFor:
			start, serr := m.eval(a.Value)
			if serr != nil {
				return false, serr
			}
			if serr := m.store(a.Var, start); serr != nil {
				return false, serr
			}
			next, err = m.forCheck(a, b, ip)
		case workshop.ActEnd:
			h := b.head[ip]
			switch acts[h].Kind {
			case workshop.ActWhile:
				next = h
			case workshop.ActFor:
				next, err = m.forStep(acts[h], b, h)
			}
		case workshop.ActBreak:
			next = b.end[b.loop[ip]] + 1
		case workshop.ActContinue:
			l := b.loop[ip]
			if acts[l].Kind == workshop.ActWhile {
				next = l
			} else {
				next, err = m.forStep(acts[l], b, l)
			}
		case workshop.ActSkip:
			next = ip + 1 + a.Count
		case workshop.ActSkipIf:
			c, err := m.eval(a.Cond)
			if err != nil {
				return false, err
			}
			if c.Truthy() {
				next = ip + 1 + a.Count
			}
		case workshop.ActCallSubroutine:
			sub := m.subs[a.Name]
			if sub == nil {
				return false, m.panicf(PanicUnknownSubroutine, "no subroutine %q", a.Name)
			}
			aborted, err := m.exec(sub)
			if err != nil || aborted {
				return aborted, err
			}
		case workshop.ActAbort:
			return true, nil
		case workshop.ActAbortIf:
			c, err := m.eval(a.Cond)
			if err != nil {
				return false, err
			}
			if c.Truthy() {
				return true, nil
			}
		case workshop.ActCall:
			err = m.callAction(a)
		default:
			return false, m.panicf(PanicBadBlock, "%s: %s at %d cannot be executed", r.Name, a.Kind, ip)
		}
		if err != nil {
			return false, err
		}
		if next > len(acts) || next < 0 {
			return false, m.panicf(PanicOutOfBounds, "%s: jump to %d past the end", r.Name, next)
		}
		ip = next
	}
	return false, nil
}

// branch picks the taken arm of the chain opened at ip.
func (m *VM) branch(acts []*workshop.Action, b *blocks, ip int) (int, error) {
	for j := ip; ; j = b.next[j] {
		a := acts[j]
		switch a.Kind {
		case workshop.ActEnd, workshop.ActElse:
			return j + 1, nil
		}
		c, err := m.eval(a.Cond)
		if err != nil {
			return 0, err
		}
		if c.Truthy() {
			return j + 1, nil
		}
	}
}

// forCheck tests the counter of the For at ip against its stop value.
func (m *VM) forCheck(a *workshop.Action, b *blocks, ip int) (int, error) {
	cur, err := m.load(a.Var)
	if err != nil {
		return 0, err
	}
	stop, err := m.eval(a.Stop)
	if err != nil {
		return 0, err
	}
	step, err := m.eval(a.Step)
	if err != nil {
		return 0, err
	}
	in := cur.Number() < stop.Number()
	if step.Number() < 0 {
		in = cur.Number() > stop.Number()
	}
	if in {
		return ip + 1, nil
	}
	return b.end[ip] + 1, nil
}

func (m *VM) forStep(a *workshop.Action, b *blocks, ip int) (int, error) {
	cur, err := m.load(a.Var)
	if err != nil {
		return 0, err
	}
	step, err := m.eval(a.Step)
	if err != nil {
		return 0, err
	}
	if err := m.store(a.Var, Number(cur.Number()+step.Number())); err != nil {
		return 0, err
	}
	return m.forCheck(a, b, ip)
}
