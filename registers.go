// Completion: 100% - x86 register encodings complete
package main

// Raw ModR/M register-field encodings for the registers the emitter
// addresses structurally (frame pointer, stack pointer) rather than through
// the allocator. SI/DI are included for completeness even though nothing
// in this emitter currently binds a descriptor to them.
const (
	regFieldAX uint8 = 0
	regFieldCX uint8 = 1
	regFieldDX uint8 = 2
	regFieldBX uint8 = 3
	regFieldSP uint8 = 4
	regFieldBP uint8 = 5
	regFieldSI uint8 = 6
	regFieldDI uint8 = 7
)

// x86RegField returns the 3-bit ModR/M register field for one of the four
// general-purpose registers, independent of operand width: the encoding is
// the same whether the caller means AL, AX or EAX (Encoding 0), and so on
// through BL/BX/EBX (Encoding 3). Modeled on the teacher's reg.go table,
// narrowed to the 4 registers this ISA subset allocates.
func x86RegField(r Reg) uint8 {
	switch r.parentOf() {
	case RegAX:
		return 0
	case RegCX:
		return 1
	case RegDX:
		return 2
	case RegBX:
		return 3
	default:
		internalErr("x86RegField: %v is not a general-purpose register", r)
		return 0
	}
}

// widthOf reports how many bytes a register view occupies: 1 for the
// AL/AH/CL/... sub-registers, 2 for AX/CX/DX/BX/SI/DI, 0 for anything else.
// It never reports 4: EAX etc. have no distinct Reg constant here, and width
// 4 is requested explicitly by callers that hold a 16-bit Reg and want its
// 32-bit form.
func widthOf(r Reg) int {
	switch r {
	case RegAL, RegCL, RegDL, RegBL, RegAH, RegCH, RegDH, RegBH:
		return 1
	case RegAX, RegCX, RegDX, RegBX, RegSI, RegDI:
		return 2
	default:
		return 0
	}
}

// isHighByte reports whether r names the high half of a 16-bit register
// (AH/CH/DH/BH), which needs no REX-equivalent prefix in 16-bit real mode
// but does need the ModR/M reg/rm field to select the "high" encoding
// (4-7) rather than the "low" one (0-3) when used as an 8-bit operand.
func isHighByte(r Reg) bool {
	switch r {
	case RegAH, RegCH, RegDH, RegBH:
		return true
	default:
		return false
	}
}

// x86Reg8Field returns the ModR/M field for an 8-bit register reference,
// accounting for the high-byte encodings (4=AH, 5=CH, 6=DH, 7=BH).
func x86Reg8Field(r Reg) uint8 {
	field := x86RegField(r)
	if isHighByte(r) {
		field += 4
	}
	return field
}

// modRM builds a ModR/M byte for register-direct addressing (mod=11):
// both operands are registers, never memory. Memory operands have their own
// encoders below: modRMDisp8 ([BP+disp8]), modRMAbsDisp16 (DS-relative
// absolute), and modRMSI/modRMDI ([SI]/[DI], used by the shared helpers).
func modRM(regField, rmField uint8) uint8 {
	return 0xC0 | ((regField & 7) << 3) | (rmField & 7)
}

// modRMDisp8 builds a ModR/M byte for [BP+disp8]-style addressing
// (mod=01, rm=110 selects BP-relative with an 8-bit displacement that
// follows the ModR/M byte).
func modRMDisp8(regField uint8) uint8 {
	return 0x40 | ((regField & 7) << 3) | 0x06
}

// modRMAbsDisp16 builds a ModR/M byte for a plain 16-bit displacement with
// no base/index register (mod=00, rm=110), used for direct DS-relative
// addressing of statics and string literals.
func modRMAbsDisp16(regField uint8) uint8 {
	return 0x00 | ((regField & 7) << 3) | 0x06
}

// modRMSI builds a ModR/M byte for [SI]-relative addressing with no
// displacement (mod=00, rm=100), used by the shared runtime helpers to walk
// a fixed input/command-line buffer byte by byte.
func modRMSI(regField uint8) uint8 {
	return 0x00 | ((regField & 7) << 3) | 0x04
}

// modRMDI is modRMSI's [DI] counterpart (mod=00, rm=101).
func modRMDI(regField uint8) uint8 {
	return 0x00 | ((regField & 7) << 3) | 0x05
}

// operandSizePrefix is 0x66: real mode defaults to 16-bit operands, so every
// instruction that operates on a 32-bit register (EAX, EBX, ...) needs this
// prefix immediately before its opcode. Centralized here per the design
// note in spec §9 ("enforce via a single encoder helper").
const operandSizePrefix = 0x66

// emit32 writes the operand-size prefix followed by the given opcode bytes,
// the one helper every 32-bit-operand instruction in emitter.go routes
// through.
func (e *Emitter) emit32(opcodeAndOperands ...uint8) {
	e.buf.WriteU8(operandSizePrefix)
	for _, b := range opcodeAndOperands {
		e.buf.WriteU8(b)
	}
}

// emit16 writes opcode bytes with no operand-size prefix (the real-mode
// default already matches 16-bit operands).
func (e *Emitter) emit16(opcodeAndOperands ...uint8) {
	for _, b := range opcodeAndOperands {
		e.buf.WriteU8(b)
	}
}
