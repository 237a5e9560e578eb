package source

import (
	"fmt"
)

// Span points at a construct inside a fixture file. Line and Col are 1-based;
// the zero Span means "no location" (generated code).
type Span struct {
	File FileID
	Line uint32
	Col  uint32
}

func (s Span) IsZero() bool {
	return s.Line == 0 && s.Col == 0
}

func (s Span) String() string {
	if s.IsZero() {
		return "<generated>"
	}
	return fmt.Sprintf("%d:%d:%d", s.File, s.Line, s.Col)
}

// Before reports whether s starts strictly before other in the same file.
// Spans from different files are never ordered.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return false
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}

// Less is a total order used for sorting diagnostics.
func (s Span) Less(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}
