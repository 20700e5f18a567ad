// Completion: 100% - low-level move/load/store encodings complete
package main

// This file holds the primitive x86 encodings shared by the register
// allocator (regalloc.go) and the Assign lowering (emit_assign.go): moves
// between register and register, register and immediate, and register and
// memory (stack-relative for locals, DS-relative for statics/strings).
// Grounded in the teacher's mov.go / mov_x86_64.go register-to-register and
// register-to-memory encoders, adapted to 16-bit real mode with the 0x66
// operand-size prefix in place of a REX byte.

// emitWidth chooses emit16 vs emit32 for the requested operand size.
func (e *Emitter) emitWidth(size int, opcodeAndOperands ...uint8) {
	if size == 4 {
		e.emit32(opcodeAndOperands...)
	} else {
		e.emit16(opcodeAndOperands...)
	}
}

// xorRegReg emits XOR dst, src (used both to zero a register cheaply and,
// with dst==src, as the canonical "zero this register" idiom).
func (e *Emitter) xorRegReg(dst, src Reg, size int) {
	if size == 1 {
		e.emit16(0x30, modRM(x86Reg8Field(src), x86Reg8Field(dst)))
		return
	}
	e.emitWidth(size, 0x31, modRM(x86RegField(src), x86RegField(dst)))
}

// zeroReg is xorRegReg(reg, reg, size).
func (e *Emitter) zeroReg(reg Reg, size int) {
	e.xorRegReg(reg, reg, size)
}

// movImmToReg emits MOV r, imm with the opcode chosen for width (8-bit
// opcode 0xB0+r, 16/32-bit opcode 0xB8+r, both taking the raw low-3-bits
// register field since neither needs a ModR/M byte).
func (e *Emitter) movImmToReg(reg Reg, size int, imm uint32) {
	field := regFieldOf(reg, size)
	if size == 1 {
		e.emit16(0xB0+field, uint8(imm))
		return
	}
	if size == 4 {
		e.emit32(0xB8 + field)
		e.buf.WriteU32(imm)
		return
	}
	e.emit16(0xB8 + field)
	e.buf.WriteU16(uint16(imm))
}

// regFieldOf returns the ModR/M register field for reg at the given width,
// accounting for the AH/CH/DH/BH high-byte encodings when size==1.
func regFieldOf(reg Reg, size int) uint8 {
	if size == 1 {
		return x86Reg8Field(reg)
	}
	return x86RegField(reg)
}

// movRegToReg emits MOV dst, src for same-width register views.
func (e *Emitter) movRegToReg(dst, src Reg, size int) {
	if size == 1 {
		e.emit16(0x88, modRM(x86Reg8Field(src), x86Reg8Field(dst)))
		return
	}
	e.emitWidth(size, 0x89, modRM(x86RegField(src), x86RegField(dst)))
}

// loadFromSlot emits MOV reg, [mem] where mem is sym's storage location:
// [bp+disp8] for a local/parameter (offset already finalized, see
// assignFrameOffsets), or a DS-relative absolute for a static (deferred via
// a ToDsAbs16 backpatch since its final offset isn't known until C8).
func (e *Emitter) loadFromSlot(reg Reg, size int, sym *Symbol, curIP int) {
	opcode := uint8(0x8B) // MOV r16/32, r/m
	if size == 1 {
		opcode = 0x8A // MOV r8, r/m8
	}
	if sym.HasParent {
		field := regFieldOf(reg, size)
		e.emitWidth(size, opcode, modRMDisp8(field))
		disp := int8(sym.OffsetOrSize)
		if int(disp) != sym.OffsetOrSize {
			encodingErr(curIP, "stack reference %d beyond signed-8-bit window for %q", sym.OffsetOrSize, sym.Name)
		}
		e.buf.WriteU8(uint8(disp))
		return
	}
	field := regFieldOf(reg, size)
	e.emitWidth(size, opcode, modRMAbsDisp16(field))
	off := e.buf.WriteU16(0)
	e.backpatch.AddDsAbs16ToSymbol(off, curIP, sym.Name)
}

// movRegToLocal emits MOV [bp+disp8], reg for a local/parameter.
func (e *Emitter) movRegToLocal(reg Reg, size int, sym *Symbol, curIP int) {
	field := regFieldOf(reg, size)
	opcode := uint8(0x89) // MOV r/m, r16/32
	if size == 1 {
		opcode = 0x88 // MOV r/m8, r8
	}
	e.emitWidth(size, opcode, modRMDisp8(field))
	disp := int8(sym.OffsetOrSize)
	if int(disp) != sym.OffsetOrSize {
		encodingErr(curIP, "stack reference %d beyond signed-8-bit window for %q", sym.OffsetOrSize, sym.Name)
	}
	e.buf.WriteU8(uint8(disp))
}

// movRegToStatic emits MOV [ds:abs16], reg for a global scalar, deferring
// the address via a ToDsAbs16 backpatch.
func (e *Emitter) movRegToStatic(reg Reg, size int, sym *Symbol, curIP int) {
	field := regFieldOf(reg, size)
	opcode := uint8(0x89) // MOV r/m, r16/32
	if size == 1 {
		opcode = 0x88 // MOV r/m8, r8
	}
	e.emitWidth(size, opcode, modRMAbsDisp16(field))
	off := e.buf.WriteU16(0)
	e.backpatch.AddDsAbs16ToSymbol(off, curIP, sym.Name)
}

// movStringAddrToReg emits MOV r16, imm16 where the immediate is the
// DS-relative address of an interned string, deferred via a ToDsAbs16
// backpatch (spec §4.4.1: string constants are moved by address, not value).
func (e *Emitter) movStringAddrToReg(reg Reg, strValue string, curIP int) {
	e.internString(strValue)
	field := x86RegField(reg)
	e.emit16(0xB8 + field)
	off := e.buf.WriteU16(0)
	e.backpatch.AddDsAbs16ToSymbol(off, curIP, stringSymbolName(strValue))
}

// internString registers a string literal in first-use order, deduplicated
// by value (spec §4.4.5 / §4.6: "strings are laid out in the order they
// were interned").
func (e *Emitter) internString(value string) int {
	if idx, ok := e.stringIndex[value]; ok {
		return idx
	}
	idx := len(e.stringOrder)
	e.stringOrder = append(e.stringOrder, value)
	e.stringIndex[value] = idx
	return idx
}

// stringSymbolName is the synthetic backpatch-target name used for an
// interned string literal, namespaced away from user identifiers.
func stringSymbolName(value string) string {
	return "$str:" + value
}
