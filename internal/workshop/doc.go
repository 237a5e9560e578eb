// Package workshop models the target program: flat action lists grouped into
// rules, value trees, two variable spaces and the one call/return primitive.
//
// The target has no jump instruction. Forward exits are built from skip
// markers: ActionList.SkipStart emits a placeholder and ActionList.SkipEnd
// marks where it lands. Finalize replaces each placeholder with Skip or
// Skip If carrying the number of real actions in between.
package workshop
