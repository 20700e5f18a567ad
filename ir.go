// Completion: 100% - three-address IR complete
package main

// AssignOp enumerates the arithmetic/move operators an Assign instruction
// can carry. None is a plain copy/store; Negate is unary.
type AssignOp int

const (
	AssignNone AssignOp = iota
	AssignNegate
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignRem
	AssignShl
	AssignShr
)

func (a AssignOp) String() string {
	switch a {
	case AssignNone:
		return "="
	case AssignNegate:
		return "neg"
	case AssignAdd:
		return "+"
	case AssignSub:
		return "-"
	case AssignMul:
		return "*"
	case AssignDiv:
		return "/"
	case AssignRem:
		return "%"
	case AssignShl:
		return "<<"
	case AssignShr:
		return ">>"
	default:
		return "?"
	}
}

// IsUnary reports whether the op ignores operand b (None/Negate both do:
// None is a bare copy of a, Negate is -a).
func (a AssignOp) IsUnary() bool {
	return a == AssignNone || a == AssignNegate
}

// CompareOp enumerates the comparisons (and the two logical combinators)
// an If instruction can carry.
type CompareOp int

const (
	CompareLogOr CompareOp = iota
	CompareLogAnd
	CompareEq
	CompareNe
	CompareGt
	CompareLt
	CompareGe
	CompareLe
)

func (c CompareOp) String() string {
	switch c {
	case CompareLogOr:
		return "||"
	case CompareLogAnd:
		return "&&"
	case CompareEq:
		return "=="
	case CompareNe:
		return "!="
	case CompareGt:
		return ">"
	case CompareLt:
		return "<"
	case CompareGe:
		return ">="
	case CompareLe:
		return "<="
	default:
		return "?"
	}
}

// Negated returns the comparison that holds exactly when c does not, used
// by the parser to branch past an if/while body when its condition fails
// (operand-order canonicalization in emit_control.go uses Swapped instead).
func (c CompareOp) Negated() CompareOp {
	switch c {
	case CompareEq:
		return CompareNe
	case CompareNe:
		return CompareEq
	case CompareGt:
		return CompareLe
	case CompareLt:
		return CompareGe
	case CompareGe:
		return CompareLt
	case CompareLe:
		return CompareGt
	default:
		internalErr("CompareOp.Negated: %v has no negation (logical op)", c)
		return c
	}
}

// Swapped returns the comparison that holds when operands 1 and 2 are
// exchanged (a > b  <=>  b < a).
func (c CompareOp) Swapped() CompareOp {
	switch c {
	case CompareEq, CompareNe:
		return c
	case CompareGt:
		return CompareLt
	case CompareLt:
		return CompareGt
	case CompareGe:
		return CompareLe
	case CompareLe:
		return CompareGe
	default:
		internalErr("CompareOp.Swapped: %v cannot be swapped (logical op)", c)
		return c
	}
}

// OperandKind distinguishes a literal from a named variable reference.
type OperandKind int

const (
	OperandConstant OperandKind = iota
	OperandVariable
)

// Operand is either a literal value (decimal or string, depending on Type)
// or a variable reference by name, per the data model in spec §3.
type Operand struct {
	Value     string
	Type      ScalarType
	IsPointer bool
	Kind      OperandKind
}

func ConstOperand(value string, t ScalarType) Operand {
	return Operand{Value: value, Type: t, Kind: OperandConstant}
}

func VarOperand(name string, t ScalarType, isPointer bool) Operand {
	return Operand{Value: name, Type: t, IsPointer: isPointer, Kind: OperandVariable}
}

func (o Operand) IsConstant() bool { return o.Kind == OperandConstant }
func (o Operand) IsVariable() bool { return o.Kind == OperandVariable }

// InstrKind tags the variant carried by an Instr.
type InstrKind int

const (
	InstrAssign InstrKind = iota
	InstrGoto
	InstrGotoLabel
	InstrIf
	InstrPush
	InstrCall
	InstrReturn
)

// Instr is the tagged union described in spec §3. Only the fields relevant
// to Kind are populated; this mirrors the "record per kind, selected by tag"
// shape the REDESIGN notes ask for in place of a class hierarchy with unused
// fields.
type Instr struct {
	Kind InstrKind

	// Assign
	AssignOp AssignOp
	Dst      string
	A, B     Operand

	// Goto
	TargetIP int

	// GotoLabel
	Label string

	// If
	Compare CompareOp

	// Push
	PushSym string

	// Call
	CallTarget string
	ReturnDst  string

	// Return
	HasValue bool
	Value    Operand
}

// IRStream is a singly-linked sequence of tagged IR instructions consumed
// left-to-right by the emitter (C3). Backed by a slice rather than an
// explicit linked list node type: indices double as the IP_src addresses
// the rest of the core keys its maps on, which is simpler than threading
// pointers through a list while preserving the "consumed left to right,
// indexable by IP" semantics the spec requires.
type IRStream struct {
	instrs []Instr
}

func NewIRStream() *IRStream {
	return &IRStream{}
}

// Append adds an instruction and returns its IP (index).
func (s *IRStream) Append(ins Instr) int {
	s.instrs = append(s.instrs, ins)
	return len(s.instrs) - 1
}

func (s *IRStream) Len() int {
	return len(s.instrs)
}

func (s *IRStream) At(ip int) Instr {
	if ip < 0 || ip >= len(s.instrs) {
		internalErr("IRStream.At: ip %d out of range [0,%d)", ip, len(s.instrs))
	}
	return s.instrs[ip]
}

// All returns the full instruction slice for read-only iteration.
func (s *IRStream) All() []Instr {
	return s.instrs
}

// SetTarget rewrites the TargetIP of an already-appended Goto/If
// instruction. Used only by the front end while a function body is still
// being parsed, to resolve a structural forward branch (an if/while
// condition jumping past its body) once the body's extent is known; the
// core itself never mutates an instruction once appended.
func (s *IRStream) SetTarget(ip, targetIP int) {
	if ip < 0 || ip >= len(s.instrs) {
		internalErr("IRStream.SetTarget: ip %d out of range [0,%d)", ip, len(s.instrs))
	}
	s.instrs[ip].TargetIP = targetIP
}
