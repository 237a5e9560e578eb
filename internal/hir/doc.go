// Package hir is the typed, block-structured input of the lowering engine.
//
// Parsing and type checking happen outside this module. The hand-off format
// is a YAML document (see Decode); tests build trees directly with the
// constructors in build.go.
package hir
