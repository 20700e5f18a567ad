// Completion: 100% - LRU register allocator with spill/reload complete
package main

// This file is the second operation group of the single emitter/allocator
// component described in spec §9: it owns the four GPR parents (AX, CX, DX,
// BX) and the descriptors bound to them, and emits its own spill-store
// bytes directly into the shared buffer -- there is no separate Allocator
// type to avoid a cyclic dependency back into the emitter.

// GetUnused returns a register not currently bound to any descriptor of the
// current function, spilling the least-recently-used one if all four are
// bound (spec §4.3).
func (e *Emitter) GetUnused(curIP int) Reg {
	if r, ok := e.tryGetUnused(); ok {
		return r
	}

	// All four are bound (or suppressed): evict the descriptor with the
	// smallest LastUsed among the ones that are actually eligible.
	var victim *VarDescriptor
	for _, parent := range gprParents {
		if e.isSuppressed(parent) {
			continue
		}
		d := e.vardescs.OwnerOf(parent)
		if d == nil {
			continue
		}
		if victim == nil || d.LastUsed < victim.LastUsed {
			victim = d
		}
	}
	if victim == nil {
		internalErr("GetUnused: no eligible register to spill (all suppressed) at IP %d", curIP)
	}
	reg := victim.Reg
	e.SaveAndUnload(reg, curIP)
	return reg
}

// TryGetUnused returns a register not bound to any descriptor, without
// spilling; ok is false if every eligible register is taken.
func (e *Emitter) TryGetUnused() (Reg, bool) {
	return e.tryGetUnused()
}

func (e *Emitter) tryGetUnused() (Reg, bool) {
	for _, parent := range gprParents {
		if e.isSuppressed(parent) {
			continue
		}
		if e.vardescs.OwnerOf(parent) == nil {
			return parent, true
		}
	}
	return RegNone, false
}

// referencedAfter implements the spill policy of spec §4.3.1: a forward
// walk from curIP to the function's end IP, true if any later instruction
// of the current function references sym by name.
func (e *Emitter) referencedAfter(sym *Symbol, curIP int) bool {
	for ip := curIP + 1; ip < e.fnEndIP; ip++ {
		if instrReferences(e.ir.At(ip), sym.Name) {
			return true
		}
	}
	return false
}

func instrReferences(ins Instr, name string) bool {
	switch ins.Kind {
	case InstrAssign:
		return ins.Dst == name || operandReferences(ins.A, name) || operandReferences(ins.B, name)
	case InstrIf:
		return operandReferences(ins.A, name) || operandReferences(ins.B, name)
	case InstrPush:
		return ins.PushSym == name
	case InstrCall:
		return ins.ReturnDst == name
	case InstrReturn:
		return ins.HasValue && operandReferences(ins.Value, name)
	default:
		return false
	}
}

func operandReferences(o Operand, name string) bool {
	return o.IsVariable() && o.Value == name
}

// widthForSize returns the Reg view of parent matching the requested byte
// width (1 -> low byte, 2/4 -> the 16-bit parent; 32-bit operations use the
// parent's 16-bit Reg together with the 0x66 prefix, so there is no
// separate 4-byte Reg constant).
func widthForSize(parent Reg, size int) Reg {
	if size == 1 {
		switch parent {
		case RegAX:
			return RegAL
		case RegCX:
			return RegCL
		case RegDX:
			return RegDL
		case RegBX:
			return RegBL
		}
	}
	return parent
}

// SaveAndUnload writes reg's tenant back to its stack slot if it is dirty
// and still referenced later in the function, then clears its binding
// (spec §4.3, §4.3.1, invariant 4).
func (e *Emitter) SaveAndUnload(reg Reg, curIP int) {
	d := e.vardescs.OwnerOf(reg)
	if d == nil {
		return
	}
	if d.IsDirty && e.referencedAfter(d.Symbol, curIP) {
		e.storeRegToSlot(d, curIP)
	}
	d.Reg = RegNone
	d.IsDirty = false
}

// SaveAndUnloadAll is the barrier invoked before every control-transfer
// boundary (spec §5): after it returns, no variable in the current
// function has a register binding.
func (e *Emitter) SaveAndUnloadAll(curIP int) {
	for _, parent := range gprParents {
		e.SaveAndUnload(parent, curIP)
	}
}

// storeRegToSlot writes a dirty descriptor's register value back to its
// stack slot (locals) or static slot (DS-relative, backpatched).
func (e *Emitter) storeRegToSlot(d *VarDescriptor, curIP int) {
	sym := d.Symbol
	size := sym.EffectiveSize()
	reg := widthForSize(d.Reg.parentOf(), size)

	if sym.HasParent {
		e.movRegToLocal(reg, size, sym, curIP)
	} else {
		e.movRegToStatic(reg, size, sym, curIP)
	}
}

// LoadVariable ensures var's value is available in a register of at least
// desiredSize bytes, loading from memory if needed and zero-extending when
// the stored width is narrower than requested (spec §4.3: "all values are
// unsigned").
func (e *Emitter) LoadVariable(sym *Symbol, desiredSize int, curIP int) Reg {
	d := e.vardescs.GetOrCreate(sym)
	d.LastUsed = curIP

	if d.Reg != RegNone {
		if sym.EffectiveSize() < desiredSize {
			e.zeroExtendInPlace(d, desiredSize)
		}
		return widthForSize(d.Reg.parentOf(), desiredSize)
	}

	parent := e.GetUnused(curIP)
	storedSize := sym.EffectiveSize()
	if storedSize < desiredSize {
		e.zeroReg(parent, desiredSize)
	}
	loadReg := widthForSize(parent, storedSize)
	e.loadFromSlot(loadReg, storedSize, sym, curIP)

	d.Reg = parent
	d.IsDirty = false
	return widthForSize(parent, desiredSize)
}

// CopyVariableTo forces sym's value into regDst specifically, spilling
// regDst's current tenant first (spec §4.3).
func (e *Emitter) CopyVariableTo(sym *Symbol, regDst Reg, desiredSize int, curIP int) {
	parent := regDst.parentOf()
	if owner := e.vardescs.OwnerOf(parent); owner != nil && owner.Symbol != sym {
		e.SaveAndUnload(parent, curIP)
	}

	d := e.vardescs.GetOrCreate(sym)
	d.LastUsed = curIP
	if d.Reg == parent {
		if sym.EffectiveSize() < desiredSize {
			e.zeroExtendInPlace(d, desiredSize)
		}
		return
	}

	storedSize := sym.EffectiveSize()
	if storedSize < desiredSize {
		e.zeroReg(parent, desiredSize)
	}
	e.loadFromSlot(widthForSize(parent, storedSize), storedSize, sym, curIP)
	d.Reg = parent
	d.IsDirty = false
}

// LoadConstant emits a minimal-encoding immediate move: mov r, imm, using
// xor r, r for a zero immediate.
func (e *Emitter) LoadConstant(value int64, reg Reg, desiredSize int) {
	if value == 0 {
		e.xorRegReg(reg, reg, desiredSize)
		return
	}
	e.movImmToReg(reg, desiredSize, uint32(value))
}

// zeroExtendInPlace widens an already-loaded register value to desiredSize
// by masking off the stale high bits above its current width: AND reg,
// 0x00FF to go from 8 to 16 bits resident, or the 32-bit equivalent mask to
// go to 32. All values are unsigned, so masking is a correct zero-extend.
func (e *Emitter) zeroExtendInPlace(d *VarDescriptor, desiredSize int) {
	parent := d.Reg.parentOf()
	current := d.Symbol.EffectiveSize()
	if current >= desiredSize {
		return
	}
	var mask uint32
	switch current {
	case 1:
		mask = 0x000000FF
	case 2:
		mask = 0x0000FFFF
	default:
		internalErr("zeroExtendInPlace: unexpected current width %d", current)
	}
	e.andRegImm(parent, desiredSize, mask)
}

// andRegImm emits AND r/m{16,32}, imm{16,32} (opcode extension /4).
func (e *Emitter) andRegImm(reg Reg, size int, mask uint32) {
	field := x86RegField(reg)
	if size == 4 {
		e.emit32(0x81, modRM(4, field))
		e.buf.WriteU32(mask)
	} else {
		e.emit16(0x81, modRM(4, field))
		e.buf.WriteU16(uint16(mask))
	}
}
