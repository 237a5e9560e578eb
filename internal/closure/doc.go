// Package closure decides how each lambda is represented in the emitted
// program and what it captures from the enclosing code.
//
// A lambda whose only uses are direct invocations in its own body of code is
// expanded at each call site: expression lambdas as a substituted value,
// block lambdas like an inlined function. Every other lambda is portable: its
// value is the array [id, bound player?, captures...] and invocations go
// through one shared dispatch subroutine that tests the id.
package closure
