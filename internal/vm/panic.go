package vm

import (
	"fmt"
	"strings"
)

// PanicCode identifies the kind of runtime failure.
type PanicCode int

// Stable panic codes - do not change values.
const (
	PanicTypeMismatch      PanicCode = 1003 // VM1003: value of the wrong kind
	PanicOutOfBounds       PanicCode = 1004 // VM1004: bad slot or array index
	PanicUnknownBuiltin    PanicCode = 1005 // VM1005: built-in not provided by the runtime
	PanicUnknownSubroutine PanicCode = 1006 // VM1006: Call Subroutine target missing
	PanicNoEventPlayer     PanicCode = 1007 // VM1007: player storage read in a global rule
	PanicStepLimit         PanicCode = 1008 // VM1008: step budget exhausted
	PanicBadBlock          PanicCode = 1009 // VM1009: unmatched If/While/For/End
	PanicCallDepth         PanicCode = 1010 // VM1010: subroutine nesting too deep
)

// String returns the code as "VM1003" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// BacktraceFrame is one active rule or subroutine.
type BacktraceFrame struct {
	Rule string
	PC   int
}

// VMError is a runtime failure of an emitted program.
type VMError struct {
	Code      PanicCode
	Message   string
	Backtrace []BacktraceFrame // innermost first
}

func (e *VMError) Error() string {
	return fmt.Sprintf("panic %s: %s", e.Code, e.Message)
}

// Format renders the error with its backtrace.
func (e *VMError) Format() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\n")
	if len(e.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, f := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s action %d\n", i, f.Rule, f.PC)
		}
	}
	return sb.String()
}

func (m *VM) panicf(code PanicCode, format string, args ...any) *VMError {
	bt := make([]BacktraceFrame, 0, len(m.calls))
	for i := len(m.calls) - 1; i >= 0; i-- {
		bt = append(bt, *m.calls[i])
	}
	return &VMError{Code: code, Message: fmt.Sprintf(format, args...), Backtrace: bt}
}
