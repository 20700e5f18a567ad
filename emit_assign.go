// Completion: 100% - Assign instruction lowering complete
package main

import "strconv"

// emitAssign lowers one Assign IR instruction per spec §4.4.1. dst names the
// symbol receiving the result; a and b are ins.A / ins.B, already resolved
// Operands.
func (e *Emitter) emitAssign(ip int, ins Instr) {
	dstSym := e.syms.LookupVariable(e.currentScope(), ins.Dst)
	size := dstSym.EffectiveSize()

	switch ins.AssignOp {
	case AssignNone:
		e.emitAssignNone(ip, dstSym, size, ins.A)
	case AssignNegate:
		e.emitAssignNegate(ip, dstSym, size, ins.A)
	case AssignAdd, AssignSub:
		e.emitAssignAddSub(ip, dstSym, size, ins.AssignOp, ins.A, ins.B)
	case AssignMul:
		e.emitAssignMul(ip, dstSym, size, ins.A, ins.B)
	case AssignDiv, AssignRem:
		e.emitAssignDivRem(ip, dstSym, size, ins.AssignOp, ins.A, ins.B)
	case AssignShl, AssignShr:
		e.emitAssignShift(ip, dstSym, size, ins.AssignOp, ins.A, ins.B)
	default:
		internalErr("emitAssign: unhandled op %v at IP %d", ins.AssignOp, ip)
	}
}

// currentScope returns the name of the function presently being compiled,
// or "" at global scope (statics are only ever initialized implicitly, so
// this is always non-empty while walking a function body, but globals-only
// IR bodies are tolerated for tests that exercise the emitter directly).
func (e *Emitter) currentScope() string {
	if e.fn == nil {
		return ""
	}
	return e.fn.Name
}

// emitAssignNone implements the None (copy/store) case: a string constant
// moves its interned address; anything else size-matches and moves.
func (e *Emitter) emitAssignNone(ip int, dst *Symbol, size int, a Operand) {
	d := e.vardescs.GetOrCreate(dst)
	d.LastUsed = ip

	if a.Type == TypeString && a.IsConstant() {
		reg := e.GetUnused(ip)
		e.movStringAddrToReg(reg, a.Value, ip)
		d.Reg = reg
		d.IsDirty = true
		return
	}

	if a.IsConstant() {
		reg := e.GetUnused(ip)
		e.LoadConstant(parseIntOperand(a.Value), reg, size)
		d.Reg = reg
		d.IsDirty = true
		return
	}

	srcSym := e.syms.LookupVariable(e.currentScope(), a.Value)
	srcReg := e.LoadVariable(srcSym, size, ip)
	d.Reg = srcReg.parentOf()
	d.IsDirty = true
}

// emitAssignNegate loads the operand and emits NEG rm{8,16,32}.
func (e *Emitter) emitAssignNegate(ip int, dst *Symbol, size int, a Operand) {
	reg := e.materialize(a, size, ip)
	field := regFieldOf(reg, size)
	opcode := uint8(0xF7) // NEG r/m16/32 (/3)
	if size == 1 {
		opcode = 0xF6 // NEG r/m8 (/3)
	}
	e.emitWidth(size, opcode, modRM(3, field))

	d := e.vardescs.GetOrCreate(dst)
	d.LastUsed = ip
	d.Reg = reg.parentOf()
	d.IsDirty = true
}

// emitAssignAddSub implements Add/Sub per spec §4.4.1, including the
// compile-time constant fold, the string-concatenation special case for
// Add, and operand canonicalization so the constant lands in operand 2.
func (e *Emitter) emitAssignAddSub(ip int, dst *Symbol, size int, op AssignOp, a, b Operand) {
	if op == AssignAdd && a.IsConstant() && b.IsConstant() && a.Type == TypeString && b.Type == TypeString {
		concat := a.Value + b.Value
		reg := e.GetUnused(ip)
		e.movStringAddrToReg(reg, concat, ip)
		d := e.vardescs.GetOrCreate(dst)
		d.LastUsed = ip
		d.Reg = reg
		d.IsDirty = true
		return
	}

	if a.IsConstant() && b.IsConstant() {
		av, bv := parseIntOperand(a.Value), parseIntOperand(b.Value)
		var result int64
		if op == AssignAdd {
			result = av + bv
		} else {
			result = av - bv
		}
		reg := e.GetUnused(ip)
		e.LoadConstant(result, reg, size)
		d := e.vardescs.GetOrCreate(dst)
		d.LastUsed = ip
		d.Reg = reg
		d.IsDirty = true
		return
	}

	// Canonicalize: constant (if any) becomes operand 2.
	swapped := false
	if a.IsConstant() && !b.IsConstant() {
		a, b = b, a
		swapped = true
	}

	dstReg := e.materialize(a, size, ip)

	if b.IsConstant() {
		imm := parseIntOperand(b.Value)
		field := regFieldOf(dstReg, size)
		opcodeExt := uint8(0) // ADD
		if op == AssignSub {
			opcodeExt = 5 // SUB
		}
		e.emitWidth(size, 0x81, modRM(opcodeExt, field))
		if size == 4 {
			e.buf.WriteU32(uint32(imm))
		} else {
			e.buf.WriteU16(uint16(imm))
		}
		if swapped && op == AssignSub {
			// a - b was requested but we computed b - a (b materialized as
			// operand 1 after the swap); negate to correct the sign.
			e.emitWidth(size, 0xF7, modRM(3, field))
		}
	} else {
		srcReg := e.materialize(b, size, ip)
		dstField := regFieldOf(dstReg, size)
		srcField := regFieldOf(srcReg, size)
		opcode := uint8(0x01) // ADD r/m, r
		if op == AssignSub {
			opcode = 0x29 // SUB r/m, r
		}
		e.emitWidth(size, opcode, modRM(srcField, dstField))
		if swapped && op == AssignSub {
			e.emitWidth(size, 0xF7, modRM(3, dstField))
		}
	}

	d := e.vardescs.GetOrCreate(dst)
	d.LastUsed = ip
	d.Reg = dstReg.parentOf()
	d.IsDirty = true
}

// emitAssignMul implements Mul per spec §4.4.1: result always accumulates
// in AX/DX:AX, with DX spilled and suppressed for the duration.
func (e *Emitter) emitAssignMul(ip int, dst *Symbol, size int, a, b Operand) {
	release := e.SuppressRegister(RegDX)
	defer release()

	e.CopyVariableToOrLoadConst(a, RegAX, size, ip)
	e.SaveAndUnload(RegDX, ip)

	rmReg := e.materialize(b, size, ip)
	field := regFieldOf(rmReg, size)
	e.emitWidth(size, 0xF7, modRM(4, field)) // MUL r/m (/4)

	d := e.vardescs.GetOrCreate(dst)
	d.LastUsed = ip
	d.Reg = RegAX
	d.IsDirty = true
}

// emitAssignDivRem implements Div/Rem per spec §4.4.1.
func (e *Emitter) emitAssignDivRem(ip int, dst *Symbol, size int, op AssignOp, a, b Operand) {
	release := e.SuppressRegister(RegDX)
	defer release()

	// The divide overwrites AX (and DX for 16/32-bit widths): their tenants
	// are written back first if still referenced, and the dividend is loaded
	// as a fresh copy.
	e.SaveAndUnload(RegAX, ip)
	e.CopyVariableToOrLoadConst(a, RegAX, size, ip)
	if size == 1 {
		// DIV r/m8 divides the full 16-bit AX, not just AL; zero AH so a
		// stray high byte never corrupts an 8-bit/bool division.
		e.zeroReg(RegAH, 1)
	} else {
		e.SaveAndUnload(RegDX, ip)
		e.zeroReg(RegDX, size)
	}

	divisor := e.materializeAvoiding(b, size, ip, RegAX, RegDX)
	field := regFieldOf(divisor, size)
	opcode := uint8(0xF7) // DIV r/m16/32 (/6)
	if size == 1 {
		opcode = 0xF6 // DIV r/m8 (/6)
	}
	e.emitWidth(size, opcode, modRM(6, field))
	if owner := e.vardescs.OwnerOf(RegAX); owner != nil {
		owner.Reg = RegNone // the dividend's copy in AX is gone
	}

	d := e.vardescs.GetOrCreate(dst)
	d.LastUsed = ip
	if op == AssignDiv {
		d.Reg = RegAX
	} else if size == 1 {
		// 8-bit Rem: the remainder lands in AH; move it down to AL, then
		// zero AH so the descriptor's bound byte (AL) holds the full value.
		e.movRegToReg(RegAL, RegAH, 1)
		e.zeroReg(RegAH, 1)
		d.Reg = RegAX
	} else {
		d.Reg = RegDX
	}
	d.IsDirty = true
}

// emitAssignShift implements Shl/Shr: the count must land in CL.
func (e *Emitter) emitAssignShift(ip int, dst *Symbol, size int, op AssignOp, a, b Operand) {
	valueReg := e.materialize(a, size, ip)
	e.CopyVariableToOrLoadConst(b, RegCX, 1, ip)

	field := regFieldOf(valueReg, size)
	opcodeExt := uint8(4) // SHL
	if op == AssignShr {
		opcodeExt = 5 // SHR
	}
	e.emitWidth(size, 0xD3, modRM(opcodeExt, field))

	d := e.vardescs.GetOrCreate(dst)
	d.LastUsed = ip
	d.Reg = valueReg.parentOf()
	d.IsDirty = true
}

// materialize loads an Operand (constant or variable) into some register
// and returns it at the requested width, without forcing a specific one.
func (e *Emitter) materialize(o Operand, size int, ip int) Reg {
	if o.IsConstant() {
		reg := e.GetUnused(ip)
		e.LoadConstant(parseIntOperand(o.Value), reg, size)
		return widthForSize(reg, size)
	}
	sym := e.syms.LookupVariable(e.currentScope(), o.Value)
	return e.LoadVariable(sym, size, ip)
}

// materializeAvoiding is materialize but forced away from the given
// parents, used for the divisor in Div/Rem (must not land in AX or DX).
func (e *Emitter) materializeAvoiding(o Operand, size int, ip int, avoid ...Reg) Reg {
	if o.IsVariable() {
		sym := e.syms.LookupVariable(e.currentScope(), o.Value)
		if d := e.vardescs.Lookup(sym); d != nil && d.Reg != RegNone && !isAvoided(d.Reg, avoid) {
			d.LastUsed = ip
			return widthForSize(d.Reg.parentOf(), size)
		}
	}
	for _, parent := range gprParents {
		if isAvoided(parent, avoid) {
			continue
		}
		if e.isSuppressed(parent) {
			continue
		}
		if e.vardescs.OwnerOf(parent) != nil {
			continue
		}
		if o.IsConstant() {
			e.LoadConstant(parseIntOperand(o.Value), parent, size)
			return widthForSize(parent, size)
		}
		sym := e.syms.LookupVariable(e.currentScope(), o.Value)
		d := e.vardescs.GetOrCreate(sym)
		d.LastUsed = ip
		storedSize := sym.EffectiveSize()
		if storedSize < size {
			e.zeroReg(parent, size)
		}
		e.loadFromSlot(widthForSize(parent, storedSize), storedSize, sym, ip)
		d.Reg = parent
		d.IsDirty = false
		return widthForSize(parent, size)
	}
	internalErr("materializeAvoiding: no eligible register at IP %d", ip)
	return RegNone
}

func isAvoided(r Reg, avoid []Reg) bool {
	for _, a := range avoid {
		if r.parentOf() == a.parentOf() {
			return true
		}
	}
	return false
}

// CopyVariableToOrLoadConst forces an Operand (constant or variable) into
// regDst specifically.
func (e *Emitter) CopyVariableToOrLoadConst(o Operand, regDst Reg, size int, ip int) {
	if o.IsConstant() {
		if owner := e.vardescs.OwnerOf(regDst.parentOf()); owner != nil {
			e.SaveAndUnload(regDst, ip)
		}
		e.LoadConstant(parseIntOperand(o.Value), regDst, size)
		return
	}
	sym := e.syms.LookupVariable(e.currentScope(), o.Value)
	e.CopyVariableTo(sym, regDst, size, ip)
}

// parseIntOperand parses a decimal constant operand's text value; the front
// end only ever produces well-formed unsigned decimal literals here.
func parseIntOperand(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		internalErr("parseIntOperand: malformed constant %q", s)
	}
	return v
}
