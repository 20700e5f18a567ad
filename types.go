// Completion: 100% - scalar type system complete
package main

import "fmt"

// ScalarType is the set of value types the language and the emitter understand.
// "pointer-to-scalar" is not a distinct kind here: it is represented by
// wrapping a ScalarType in an Operand/Symbol with IsPointer=true, which
// forces the effective size to 2 regardless of the pointee's own size.
type ScalarType int

const (
	TypeBool ScalarType = iota
	TypeUint8
	TypeUint16
	TypeUint32
	TypeString
)

func (t ScalarType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Size returns the natural size in bytes of the type, ignoring any
// pointer modifier. String is represented as a 2-byte DS-relative offset.
func (t ScalarType) Size() int {
	switch t {
	case TypeBool, TypeUint8:
		return 1
	case TypeUint16:
		return 2
	case TypeUint32:
		return 4
	case TypeString:
		return 2
	default:
		compilerError("ScalarType.Size: unknown scalar type %v", t)
		return 0
	}
}

// EffectiveSize returns the size a symbol or operand occupies given the
// pointer modifier: a pointer to any scalar is always 2 bytes (a near
// DS-relative offset), per the data model's "pointer-to-scalar" rule.
func EffectiveSize(t ScalarType, isPointer bool) int {
	if isPointer {
		return 2
	}
	return t.Size()
}

// SymbolKind distinguishes the different named entities the symbol table
// tracks. Kept as a single enum (rather than an interface hierarchy) since
// every Symbol is small and the kind-specific fields are just left zero for
// kinds that don't use them.
type SymbolKind int

const (
	SymFunction SymbolKind = iota
	SymFunctionPrototype
	SymEntryPoint
	SymSharedFunction
	SymLabel
	SymScalarVar
	SymStringVar
)

func (k SymbolKind) String() string {
	switch k {
	case SymFunction:
		return "function"
	case SymFunctionPrototype:
		return "function-prototype"
	case SymEntryPoint:
		return "entry-point"
	case SymSharedFunction:
		return "shared-function"
	case SymLabel:
		return "label"
	case SymScalarVar:
		return "scalar-var"
	case SymStringVar:
		return "string-var"
	default:
		return "unknown-kind"
	}
}

// IsCallable reports whether the symbol kind can appear as a Call target.
func (k SymbolKind) IsCallable() bool {
	switch k {
	case SymFunction, SymFunctionPrototype, SymEntryPoint, SymSharedFunction:
		return true
	default:
		return false
	}
}

// SharedFunctionName enumerates the runtime helpers that ship as part of
// the image's code section only when referenced (see shared_funcs.go).
type SharedFunctionName string

const (
	SharedPrintString    SharedFunctionName = "PrintString"
	SharedPrintUint32    SharedFunctionName = "PrintUint32"
	SharedPrintNewLine   SharedFunctionName = "PrintNewLine"
	SharedReadUint32     SharedFunctionName = "ReadUint32"
	SharedGetCommandLine SharedFunctionName = "GetCommandLine"
	SharedStringsEqual   SharedFunctionName = "StringsEqual"
)

// AllSharedFunctions lists the six helpers in a fixed emission order.
var AllSharedFunctions = []SharedFunctionName{
	SharedPrintString,
	SharedPrintUint32,
	SharedPrintNewLine,
	SharedReadUint32,
	SharedGetCommandLine,
	SharedStringsEqual,
}

func IsSharedFunctionName(name string) bool {
	for _, s := range AllSharedFunctions {
		if string(s) == name {
			return true
		}
	}
	return false
}

// fmtSize is a small helper used by diagnostics that want to print a type
// together with its resolved byte size, e.g. "uint32 (4 bytes)".
func fmtSize(t ScalarType, isPointer bool) string {
	return fmt.Sprintf("%s (%d bytes)", t, EffectiveSize(t, isPointer))
}
