package hir

import (
	"wsc/internal/source"
	"wsc/internal/symbols"
)

// RuleEvent selects which players a rule runs for.
type RuleEvent uint8

const (
	// EventGlobal rules run once, without a triggering player.
	EventGlobal RuleEvent = iota
	// EventEachPlayer rules run once per player.
	EventEachPlayer
)

func (e RuleEvent) String() string {
	if e == EventEachPlayer {
		return "each_player"
	}
	return "global"
}

// Module is one compilation unit.
type Module struct {
	Path       string
	File       source.FileID
	Namespaces []*Namespace
	Globals    []*Global
	Funcs      []*Func
	Rules      []*Rule
}

// Namespace groups members behind access levels.
type Namespace struct {
	Name   string
	Span   source.Span
	Access symbols.AccessLevel
	// Sealed namespaces hide protected members from the outside as well.
	Sealed     bool
	Globals    []*Global
	Funcs      []*Func
	Namespaces []*Namespace
}

// Global is a rule-independent variable.
type Global struct {
	Name   string
	Span   source.Span
	Type   symbols.TypeKey
	Player bool
	Access symbols.AccessLevel
	Init   *Expr
}

type Param struct {
	Name string
	Span source.Span
	Type symbols.TypeKey
}

// Func is a user function.
type Func struct {
	Name   string
	Span   source.Span
	Params []*Param
	Result symbols.TypeKey
	Access symbols.AccessLevel
	// Subroutine requests out-of-line compilation.
	Subroutine     bool
	SubroutineName string
	// PlayerLocals stores the locals of an out-of-line function in the
	// per-player space.
	PlayerLocals bool
	Virtual      bool
	Override     bool
	Body         *Block
}

// Rule is a top-level unit of execution.
type Rule struct {
	Name       string
	Span       source.Span
	Event      RuleEvent
	Conditions []*Expr
	Body       *Block
}

// Block is a braced statement list with its own scope.
type Block struct {
	Span  source.Span
	Stmts []*Stmt
}
