// Completion: 100% - control-flow instruction lowering complete
package main

// emitGoto implements unconditional jump to a known IR index (spec §4.4.2):
// spill everything, then emit jmp rel16, patching immediately if the target
// has already been generated (a backward jump) or queuing a backpatch.
func (e *Emitter) emitGoto(ip int, ins Instr) {
	if ins.TargetIP == ip {
		internalErr("emitGoto: self-loop at IP %d", ip)
	}
	if ins.TargetIP == ip+1 {
		// Single-step forward jumps are eliminated entirely; nothing to emit.
		return
	}

	e.SaveAndUnloadAll(ip)
	e.emit16(0xE9)
	fieldOff := e.buf.WriteU16(0)
	anchor := e.buf.Offset()

	if dst, ok := e.ipSrcToDst[ins.TargetIP]; ok {
		e.buf.PatchI16At(fieldOff, int16(dst-anchor))
		return
	}
	e.backpatch.AddRel16ToIP(fieldOff, anchor, ip, ins.TargetIP)
}

// emitGotoLabel implements jump-to-label, resolving through the symbol
// table when the label has already been declared in this function and
// deferring to a backpatch otherwise (a label only ever precedes its own
// declaration in source when the jump is backward, but the label symbol
// itself may not carry its final ip_dst until the enclosing IR walk
// reaches it).
func (e *Emitter) emitGotoLabel(ip int, ins Instr) {
	e.SaveAndUnloadAll(ip)
	e.emit16(0xE9)
	fieldOff := e.buf.WriteU16(0)
	anchor := e.buf.Offset()

	if sym, ok := e.syms.TryLookupVariable(e.currentScope(), ins.Label); ok && sym.Kind == SymLabel {
		if dst, ok := e.ipSrcToDst[sym.IP]; ok {
			e.buf.PatchI16At(fieldOff, int16(dst-anchor))
			return
		}
	}
	e.backpatch.AddRel16ToLabel(fieldOff, anchor, ip, e.currentScope(), ins.Label)
}

// emitIf implements conditional branch lowering per spec §4.4.3: compare,
// then a short conditional jump, with constant-vs-constant folding and a
// rel8-overflow promotion to a two-instruction jcc-over-jmp sequence.
func (e *Emitter) emitIf(ip int, ins Instr) {
	a, b := ins.A, ins.B

	if a.IsConstant() && b.IsConstant() {
		e.emitConstantIf(ip, ins, a, b)
		return
	}

	swapped := false
	cmp := ins.Compare
	if a.IsConstant() && !b.IsConstant() {
		a, b = b, a
		cmp = cmp.Swapped()
		swapped = true
	}
	_ = swapped

	size := operandSize(a)
	if cmp == CompareLogOr || cmp == CompareLogAnd {
		e.emitLogicalIf(ip, ins, a, b, cmp, size)
		return
	}

	aReg := e.materialize(a, size, ip)
	if b.IsConstant() {
		field := regFieldOf(aReg, size)
		e.emitWidth(size, 0x81, modRM(7, field)) // CMP r/m, imm (/7)
		imm := parseIntOperand(b.Value)
		if size == 4 {
			e.buf.WriteU32(uint32(imm))
		} else {
			e.buf.WriteU16(uint16(imm))
		}
	} else {
		bReg := e.materialize(b, size, ip)
		e.emitWidth(size, 0x39, modRM(regFieldOf(bReg, size), regFieldOf(aReg, size))) // CMP r/m, r
	}

	e.emitConditionalJump(ip, ins.TargetIP, cmp)
}

// emitLogicalIf lowers LogOr/LogAnd: a test/or/and of the two operands
// followed by jnz (spec §4.4.3: "the compare is an or/and rm, r/imm
// followed by jnz").
func (e *Emitter) emitLogicalIf(ip int, ins Instr, a, b Operand, cmp CompareOp, size int) {
	aReg := e.materialize(a, size, ip)
	opcode := uint8(0x09) // OR r/m, r
	if cmp == CompareLogAnd {
		opcode = 0x21 // AND r/m, r
	}
	if b.IsConstant() {
		ext := uint8(1) // OR /1
		if cmp == CompareLogAnd {
			ext = 4 // AND /4
		}
		field := regFieldOf(aReg, size)
		e.emitWidth(size, 0x81, modRM(ext, field))
		imm := parseIntOperand(b.Value)
		if size == 4 {
			e.buf.WriteU32(uint32(imm))
		} else {
			e.buf.WriteU16(uint16(imm))
		}
	} else {
		bReg := e.materialize(b, size, ip)
		e.emitWidth(size, opcode, modRM(regFieldOf(bReg, size), regFieldOf(aReg, size)))
	}
	e.emitConditionalJump(ip, ins.TargetIP, CompareNe)
}

// emitConstantIf folds a compile-time-decidable branch to either an
// unconditional jump or a no-op (spec §4.4.3).
func (e *Emitter) emitConstantIf(ip int, ins Instr, a, b Operand) {
	if !evalCompareConst(ins.Compare, a.Value, b.Value) {
		return
	}
	e.emitGoto(ip, Instr{Kind: InstrGoto, TargetIP: ins.TargetIP})
}

func evalCompareConst(cmp CompareOp, aStr, bStr string) bool {
	a, b := parseIntOperand(aStr), parseIntOperand(bStr)
	switch cmp {
	case CompareEq:
		return a == b
	case CompareNe:
		return a != b
	case CompareGt:
		return a > b
	case CompareLt:
		return a < b
	case CompareGe:
		return a >= b
	case CompareLe:
		return a <= b
	case CompareLogOr:
		return a != 0 || b != 0
	case CompareLogAnd:
		return a != 0 && b != 0
	default:
		internalErr("evalCompareConst: unhandled comparator %v", cmp)
		return false
	}
}

// conditionCode maps a CompareOp to the Jcc opcode byte (0x70 range, 1-byte
// rel8 form), per the x86 condition-code encoding.
func conditionCode(cmp CompareOp) uint8 {
	switch cmp {
	case CompareEq:
		return 0x74 // JE
	case CompareNe:
		return 0x75 // JNE
	case CompareGt:
		return 0x7F // JG
	case CompareLt:
		return 0x7C // JL
	case CompareGe:
		return 0x7D // JGE
	case CompareLe:
		return 0x7E // JLE
	default:
		internalErr("conditionCode: %v has no Jcc encoding", cmp)
		return 0
	}
}

// emitConditionalJump emits Jcc rel8, patching immediately for a backward
// target whose displacement fits in 8 bits, promoting to a Jcc-over-Jmp
// two-instruction form when it does not (spec §4.4.3), and queuing a
// backpatch when the target is not yet known.
func (e *Emitter) emitConditionalJump(ip, targetIP int, cmp CompareOp) {
	cc := conditionCode(cmp)

	if dst, ok := e.ipSrcToDst[targetIP]; ok {
		anchorGuess := e.buf.Offset() + 2
		disp := dst - anchorGuess
		if disp >= -128 && disp <= 127 {
			e.emit16(cc)
			off := e.buf.WriteU8(0)
			e.buf.PatchI8At(off, int8(dst-e.buf.Offset()))
			return
		}
		e.emitPromotedConditionalJump(cc, dst)
		return
	}

	// Forward reference: default to the short form, registering a Rel8
	// backpatch; the displacement bound is enforced when it resolves.
	e.emit16(cc)
	off := e.buf.WriteU8(0)
	anchor := e.buf.Offset()
	e.backpatch.AddRel8ToIP(off, anchor, ip, targetIP)
}

// emitPromotedConditionalJump emits the inverted-condition-over-jmp form:
// j!cc +3; jmp rel16 target (spec §4.4.3's 10-byte promotion guideline).
func (e *Emitter) emitPromotedConditionalJump(cc uint8, dst int) {
	inverted := invertConditionCode(cc)
	e.emit16(inverted, 3)
	e.emit16(0xE9)
	off := e.buf.WriteU16(0)
	anchor := e.buf.Offset()
	e.buf.PatchI16At(off, int16(dst-anchor))
}

func invertConditionCode(cc uint8) uint8 {
	return cc ^ 0x01
}

// operandSize reports the byte width to compare at, given one of an If's
// (possibly constant) operands; constants carry their comparison partner's
// width implicitly, so callers always derive size from the variable side
// when one exists.
func operandSize(o Operand) int {
	return EffectiveSize(o.Type, o.IsPointer)
}
