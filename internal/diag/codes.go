package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Fixture input
	InpInfo        Code = 1000
	InpMalformed   Code = 1001
	InpUnknownKind Code = 1002
	InpMissingNode Code = 1003

	// Semantic
	SemaInfo                Code = 3000
	SemaDuplicateSymbol     Code = 3001
	SemaUnresolvedSymbol    Code = 3002
	SemaInaccessible        Code = 3003
	SemaNoOverload          Code = 3004
	SemaAmbiguousOverload   Code = 3005
	SemaInvalidLoopInit     Code = 3006
	SemaAssignReadOnly      Code = 3007
	SemaInvalidOverride     Code = 3008
	SemaRestrictedCall      Code = 3009
	SemaNotCallable         Code = 3010
	SemaBreakOutsideLoop    Code = 3011
	SemaContinueOutsideLoop Code = 3012
	SemaReturnOutsideFunc   Code = 3013
	SemaNotANamespace       Code = 3014
	SemaRecursiveLambda     Code = 3015
	SemaLambdaArity         Code = 3016
	SemaActionAsValue       Code = 3017
	SemaShadowing           Code = 3050
	SemaLambdaSourceUnknown Code = 3051

	// Lowering
	LowInfo             Code = 4000
	LowSlotOverflow     Code = 4001
	LowAutoForFallback  Code = 4002
	LowPromotedToSubr   Code = 4003
	LowDuplicateSubName Code = 4004

	// Project
	ProjInfo            Code = 5000
	ProjMissingManifest Code = 5001
	ProjInvalidManifest Code = 5002

	// IO
	IOInfo          Code = 6000
	IOLoadFileError Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	InpInfo:                 "Input information",
	InpMalformed:            "Malformed program fixture",
	InpUnknownKind:          "Unknown node kind",
	InpMissingNode:          "Required node is missing",
	SemaInfo:                "Semantic information",
	SemaDuplicateSymbol:     "Duplicate declaration",
	SemaUnresolvedSymbol:    "Unresolved name",
	SemaInaccessible:        "Inaccessible due to access level",
	SemaNoOverload:          "No overload matches the argument types",
	SemaAmbiguousOverload:   "Ambiguous call",
	SemaInvalidLoopInit:     "Invalid loop initializer",
	SemaAssignReadOnly:      "Cannot assign to read-only variable",
	SemaInvalidOverride:     "Invalid override",
	SemaRestrictedCall:      "Restricted call in this context",
	SemaNotCallable:         "Value is not callable",
	SemaBreakOutsideLoop:    "break outside of a loop",
	SemaContinueOutsideLoop: "continue outside of a loop",
	SemaReturnOutsideFunc:   "return outside of a function",
	SemaNotANamespace:       "Name is not a namespace",
	SemaRecursiveLambda:     "Lambda invokes itself",
	SemaLambdaArity:         "Wrong number of lambda arguments",
	SemaActionAsValue:       "Action used as a value",
	SemaShadowing:           "Declaration shadows an outer one",
	SemaLambdaSourceUnknown: "Source lambda not found",
	LowInfo:                 "Lowering information",
	LowSlotOverflow:         "Variable stored in overflow array",
	LowAutoForFallback:      "Counting loop lowered without native primitive",
	LowPromotedToSubr:       "Recursive function compiled as a subroutine",
	LowDuplicateSubName:     "Subroutine name already used",
	ProjInfo:                "Project information",
	ProjMissingManifest:     "Project manifest not found",
	ProjInvalidManifest:     "Invalid project manifest",
	IOInfo:                  "IO information",
	IOLoadFileError:         "Failed to load file",
}

// ID returns the stable textual form, e.g. SEM3001.
func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if title, ok := codeDescription[c]; ok {
		return title
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
