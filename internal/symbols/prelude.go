package symbols

import (
	"errors"
	"fmt"
)

// PreludeEntry describes a symbol injected before user declarations.
type PreludeEntry struct {
	Name      string
	Kind      SymbolKind
	Flags     SymbolFlags
	Type      TypeKey
	Signature *FunctionSignature
}

// InstallPrelude declares entries into scope as built-ins. A duplicate entry
// is an internal error.
func (t *Table) InstallPrelude(scope ScopeID, entries []PreludeEntry) error {
	var errs []error
	for _, e := range entries {
		_, err := t.DeclareInternal(scope, Decl{
			Name:      e.Name,
			Kind:      e.Kind,
			Flags:     e.Flags | SymbolFlagBuiltin | SymbolFlagWholeContext,
			Type:      e.Type,
			Signature: e.Signature,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("prelude %s%s: %w", e.Name, e.Signature, err))
		}
	}
	return errors.Join(errs...)
}
