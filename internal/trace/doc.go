// Package trace records structured begin/end/point events for the compiler
// pipeline.
//
// A Tracer is carried through context.Context (WithTracer / FromContext) and
// filters events by Level and Scope:
//
//	phase  -> driver and pass events (load, sema, lower, finalize)
//	detail -> per compilation unit events
//	debug  -> per function, closure and loop events emitted while lowering
//
// StreamTracer writes every accepted event immediately as text or NDJSON.
// RingTracer keeps the last N events in memory so that a failed unit can dump
// what happened right before the failure. MultiTracer fans out to both.
package trace
