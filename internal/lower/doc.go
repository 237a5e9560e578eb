// Package lower turns a checked module into a workshop program.
//
// Every rule and every out-of-line function becomes one flat action list.
// Structured control flow maps onto the target's block actions where they
// fit and onto forward skips where they do not. Functions are expanded at
// each call site unless they are marked as subroutines or take part in
// recursion; recursive code keeps its variables on array-backed stacks.
// Portable lambdas share one dispatch subroutine.
package lower
