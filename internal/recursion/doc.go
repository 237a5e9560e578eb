// Package recursion finds functions that can be active more than once on one
// call chain and emulates a call stack for their variables.
//
// The target has one call/return primitive and no frames. A recursion-aware
// variable is an array slot whose last element is the live value: entering a
// scope pushes, leaving it pops, reads take the last element. Because every
// activation only touches its own top element, a caller sees its values
// unchanged when the callee returns.
package recursion
