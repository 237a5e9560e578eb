package lower

import (
	"errors"
	"fmt"
)

// ErrInvariant marks lowering bugs. User mistakes are reported as
// diagnostics and never surface as ErrInvariant.
var ErrInvariant = errors.New("lowering invariant violated")

// InvariantError is a fatal failure while lowering one rule or subroutine.
type InvariantError struct {
	Unit string
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s in %s: %v", ErrInvariant, e.Unit, e.Err)
}

func (e *InvariantError) Unwrap() []error { return []error{ErrInvariant, e.Err} }
