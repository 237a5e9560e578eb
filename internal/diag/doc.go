// Package diag defines the user-facing diagnostic model shared by the
// semantic walk, the lowering passes and the driver.
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form (INP/SEM/LOW/PRJ/IO prefixes), a short message, the
// primary source.Span and optional notes and fix suggestions.
//
// Producers never hold a Bag directly. They receive a Reporter and use
// ReportError / ReportWarning to build and Emit a record. BagReporter collects
// into a Bag, DedupReporter filters repeats.
//
// Package diag does no formatting; rendering lives in internal/diagfmt.
//
// Internal invariant violations (a bug in the compiler rather than in the
// user's program) are not diagnostics. They travel as Go errors and abort the
// unit being compiled.
package diag
