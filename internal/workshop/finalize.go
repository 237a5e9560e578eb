package workshop

import (
	"errors"
	"fmt"
)

// ErrUnresolvedSkip means a skip placeholder never got a landing point. It is
// a lowering bug, never a user error.
var ErrUnresolvedSkip = errors.New("unresolved skip marker")

// ErrBackwardSkip means a landing point was placed before its skip.
var ErrBackwardSkip = errors.New("skip lands before its start")

// Finalize patches every placeholder with its distance and returns the
// actions the target runs. The distance is the number of real actions
// strictly between the skip and its landing point.
func Finalize(l *ActionList) ([]*Action, error) {
	errs := append([]error(nil), l.errs...)
	if created, resolved := l.Stats(); created != resolved {
		errs = append(errs, fmt.Errorf("%w: %d created, %d resolved", ErrUnresolvedSkip, created, resolved))
	}

	pos := make(map[*Action]int, len(l.actions))
	count := 0
	for _, a := range l.actions {
		pos[a] = count
		if a.Kind != ActSkipEnd {
			count++
		}
	}

	out := make([]*Action, 0, count)
	for _, a := range l.actions {
		switch a.Kind {
		case ActSkipEnd:
			continue
		case ActSkipStart:
			m := a.marker
			if m == nil || m.end == nil {
				errs = append(errs, fmt.Errorf("%w: %q", ErrUnresolvedSkip, a.Comment))
				out = append(out, Skip(0).WithComment(a.Comment))
				continue
			}
			dist := pos[m.end] - pos[a] - 1
			if dist < 0 {
				errs = append(errs, fmt.Errorf("%w: %q", ErrBackwardSkip, a.Comment))
				dist = 0
			}
			patched := Skip(dist)
			if a.Cond != nil {
				patched = SkipIf(a.Cond, dist)
			}
			out = append(out, patched.WithComment(a.Comment))
		default:
			out = append(out, a)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
