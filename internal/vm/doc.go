// Package vm executes compiled programs. It is the reference for what an
// emitted action list means: blocks are matched statically, skips move a
// flat instruction pointer, and Call Subroutine runs the named subroutine
// to completion in the caller's event context.
//
// One Run executes every rule once, in program order: global rules first,
// then each player's rules with that player as the event player.
package vm
