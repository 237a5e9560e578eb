// Package builtins is the fixed table of target-provided functions. The table
// is built once at start-up from literal descriptors and installed into the
// prelude scope of every compilation unit.
package builtins

import (
	"wsc/internal/symbols"
)

// Kind says how a built-in is emitted.
type Kind uint8

const (
	// KindValue built-ins are expressions.
	KindValue Kind = iota
	// KindAction built-ins are statements and yield no value.
	KindAction
)

// Descriptor describes one built-in.
type Descriptor struct {
	Name   string
	Params []symbols.TypeKey
	Result symbols.TypeKey
	Kind   Kind
	// Restricted built-ins need a triggering player and cannot run from an
	// ongoing-global rule.
	Restricted bool
	Doc        string
}

const (
	numT    = symbols.TypeNumber
	boolT   = symbols.TypeBool
	arrT    = symbols.TypeArray
	anyT    = symbols.TypeAny
	playerT = symbols.TypePlayer
	voidT   = symbols.TypeVoid
)

var table = []Descriptor{
	{Name: "Abs", Params: []symbols.TypeKey{numT}, Result: numT, Doc: "absolute value"},
	{Name: "Min", Params: []symbols.TypeKey{numT, numT}, Result: numT},
	{Name: "Max", Params: []symbols.TypeKey{numT, numT}, Result: numT},
	{Name: "Round", Params: []symbols.TypeKey{numT}, Result: numT, Doc: "round to nearest integer"},
	{Name: "CountOf", Params: []symbols.TypeKey{arrT}, Result: numT},
	{Name: "FirstOf", Params: []symbols.TypeKey{arrT}, Result: anyT},
	{Name: "LastOf", Params: []symbols.TypeKey{arrT}, Result: anyT},
	{Name: "Contains", Params: []symbols.TypeKey{arrT, anyT}, Result: boolT},
	{Name: "Append", Params: []symbols.TypeKey{arrT, anyT}, Result: arrT, Doc: "copy of the array with the value appended"},
	{Name: "EventPlayer", Result: playerT, Restricted: true, Doc: "player that triggered the rule"},
	{Name: "Score", Params: []symbols.TypeKey{playerT}, Result: numT},
	{Name: "TotalTime", Result: numT},
	{Name: "Wait", Params: []symbols.TypeKey{numT}, Result: voidT, Kind: KindAction},
	{Name: "Log", Params: []symbols.TypeKey{anyT}, Result: voidT, Kind: KindAction, Doc: "append a value to the inspector log"},
	{Name: "SetScore", Params: []symbols.TypeKey{playerT, numT}, Result: voidT, Kind: KindAction},
	{Name: "Kill", Result: voidT, Kind: KindAction, Restricted: true, Doc: "kill the event player"},
}

var byName = func() map[string][]int {
	m := make(map[string][]int, len(table))
	for i, d := range table {
		m[d.Name] = append(m[d.Name], i)
	}
	return m
}()

// All returns the table in registration order.
func All() []Descriptor {
	out := make([]Descriptor, len(table))
	copy(out, table)
	return out
}

// Lookup finds the descriptor named name with exactly these parameters.
func Lookup(name string, params []symbols.TypeKey) (Descriptor, bool) {
	for _, idx := range byName[name] {
		d := table[idx]
		if (&symbols.FunctionSignature{Params: d.Params}).SameParams(params) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Prelude converts the table into prelude entries for symbols.Table.
func Prelude() []symbols.PreludeEntry {
	entries := make([]symbols.PreludeEntry, 0, len(table))
	for _, d := range table {
		flags := symbols.SymbolFlags(0)
		if d.Restricted {
			flags |= symbols.SymbolFlagRestricted
		}
		if d.Kind == KindAction {
			flags |= symbols.SymbolFlagAction
		}
		entries = append(entries, symbols.PreludeEntry{
			Name:  d.Name,
			Kind:  symbols.SymbolFunction,
			Flags: flags,
			Type:  d.Result,
			Signature: &symbols.FunctionSignature{
				Params: append([]symbols.TypeKey(nil), d.Params...),
				Result: d.Result,
			},
		})
	}
	return entries
}
