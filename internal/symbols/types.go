package symbols

import "strings"

// TypeKey is the textual type of a declaration as annotated by the type
// checker. Types compare by exact string equality.
type TypeKey string

const (
	TypeAny    TypeKey = "any"
	TypeNumber TypeKey = "number"
	TypeBool   TypeKey = "bool"
	TypeArray  TypeKey = "array"
	TypePlayer TypeKey = "player"
	TypeLambda TypeKey = "lambda"
	TypeVoid   TypeKey = "void"
)

// IsLambda reports whether values of k can be invoked.
func (k TypeKey) IsLambda() bool {
	return k == TypeLambda || strings.HasPrefix(string(k), "lambda(")
}

func (k TypeKey) OrAny() TypeKey {
	if k == "" {
		return TypeAny
	}
	return k
}

// FunctionSignature is the parameter/result view used for overloads.
type FunctionSignature struct {
	Params     []TypeKey
	ParamNames []string
	Result     TypeKey
}

// SameParams reports exact parameter-type equality.
func (s *FunctionSignature) SameParams(params []TypeKey) bool {
	if s == nil {
		return len(params) == 0
	}
	if len(s.Params) != len(params) {
		return false
	}
	for i := range params {
		if s.Params[i] != params[i] {
			return false
		}
	}
	return true
}

func (s *FunctionSignature) String() string {
	if s == nil {
		return "()"
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = string(p)
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if s.Result != "" && s.Result != TypeVoid {
		out += " " + string(s.Result)
	}
	return out
}
