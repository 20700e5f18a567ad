// Completion: 100% - Push/Call/Return instruction lowering complete
package main

// emitPush stages a Push IR entry onto the in-emitter parameter stack; it
// never emits bytes itself (spec §4.4.4).
func (e *Emitter) emitPush(ip int, ins Instr) {
	e.pendingPush = append(e.pendingPush, ins)
}

// emitCall drains the staged pushes in right-to-left order (so the first
// declared parameter is pushed last and ends up at [BP+6]), then emits
// call rel16. The callee's formal parameter types decide each push's width;
// 8-bit values are zero-extended to 16-bit since DOS push granularity is
// 16-bit (spec §4.4.4).
func (e *Emitter) emitCall(ip int, ins Instr) {
	callee, isKnown := e.syms.TryResolveFunction(ins.CallTarget)
	var params []*Symbol
	if isKnown && callee.Kind != SymSharedFunction {
		params = e.syms.ParametersOf(ins.CallTarget)
	}

	pushes := e.pendingPush
	e.pendingPush = nil

	for i := len(pushes) - 1; i >= 0; i-- {
		e.emitOnePush(ip, pushes[i], i, params)
	}

	if isKnown && callee.Kind == SymSharedFunction {
		e.syms.BumpSharedFunctionRef(ins.CallTarget)
	}

	e.SaveAndUnloadAll(ip)
	e.emit16(0xE8)
	fieldOff := e.buf.WriteU16(0)
	anchor := e.buf.Offset()

	// A shared function's address is never known at call-emission time (it
	// is only laid out later, by emitSharedFunctions during packaging), so
	// every call to one always defers to the backpatch registry.
	if isKnown && callee.Kind != SymSharedFunction {
		if dst, ok := e.ipSrcToDst[callee.IP]; ok {
			e.buf.PatchI16At(fieldOff, int16(dst-anchor))
		} else {
			e.backpatch.AddRel16ToFunction(fieldOff, anchor, ip, ins.CallTarget)
		}
	} else {
		e.backpatch.AddRel16ToFunction(fieldOff, anchor, ip, ins.CallTarget)
	}

	if ins.ReturnDst != "" {
		dstSym := e.syms.LookupVariable(e.currentScope(), ins.ReturnDst)
		if owner := e.vardescs.OwnerOf(RegAX); owner != nil && owner.Symbol != dstSym {
			e.SaveAndUnload(RegAX, ip)
		}
		d := e.vardescs.GetOrCreate(dstSym)
		d.LastUsed = ip
		d.Reg = RegAX
		d.IsDirty = true
	}
}

// emitOnePush emits a single argument's push, zero-extending an 8-bit value
// to 16 bits and handling string-constant arguments by DS-relative address.
func (e *Emitter) emitOnePush(ip int, ins Instr, index int, params []*Symbol) {
	pushSize := 2
	if index < len(params) {
		if sz := params[index].EffectiveSize(); sz > pushSize {
			pushSize = sz
		}
	}

	sym, isVar := e.syms.TryLookupVariable(e.currentScope(), ins.PushSym)
	if isVar {
		if sym.ScalarType == TypeString && !sym.IsPointer {
			reg := e.LoadVariable(sym, 2, ip)
			e.emit16(0x50 + x86RegField(reg))
			return
		}
		if pushSize > 4 {
			pushSize = 4
		}
		reg := e.LoadVariable(sym, pushSize, ip)
		field := x86RegField(reg)
		if pushSize == 4 {
			e.emit32(0x50 + field)
		} else {
			e.emit16(0x50 + field)
		}
		return
	}

	// Constant argument: the IR carries a literal in PushSym's text form for
	// constant pushes that never got a variable binding; fall back to
	// pushing through a scratch register since x86 PUSH imm encodings are
	// variable-width and the emitter standardizes on register pushes.
	reg := e.GetUnused(ip)
	e.LoadConstant(parseIntOperand(ins.PushSym), reg, 2)
	e.emit16(0x50 + x86RegField(reg))
}

// emitReturn implements the function epilogue from spec §4.4: spill
// everything, place the return value, restore the frame, and clean the
// stack stdcall-style.
func (e *Emitter) emitReturn(ip int, ins Instr) {
	e.SaveAndUnloadAll(ip)

	fn := e.fn
	if ins.HasValue {
		size := operandSize(ins.Value)
		if fn.Kind == SymEntryPoint {
			e.materializeInto(ins.Value, RegAX, 1, ip)
		} else {
			e.materializeInto(ins.Value, RegAX, size, ip)
		}
	}

	if fn.Kind == SymEntryPoint {
		// DOS INT 21h function 4Ch: terminate with return code in AL.
		if !ins.HasValue {
			e.zeroReg(RegAX, 1)
		}
		e.emit16(0xB4, 0x4C) // mov ah, 4Ch
		e.emit16(0xCD, 0x21) // int 21h
		return
	}

	// mov esp, ebp
	e.emit32(0x89, modRM(regFieldBP, regFieldSP))
	// pop ebp
	e.emit32(0x5D)

	paramBytes := 0
	for _, p := range e.syms.ParametersOf(fn.Name) {
		// 8-bit arguments occupy a full 16-bit push (see emitOnePush).
		paramBytes += max(p.EffectiveSize(), 2)
	}
	if paramBytes == 0 {
		e.emit16(0xC3) // retn
		return
	}
	e.emit16(0xC2) // retn imm16
	e.buf.WriteU16(uint16(paramBytes))
}

// materializeInto forces an Operand into a specific register, used for the
// Return value (which must land in AX regardless of what the allocator
// would otherwise pick).
func (e *Emitter) materializeInto(o Operand, reg Reg, size int, ip int) {
	if o.IsConstant() {
		if o.Type == TypeString {
			e.movStringAddrToReg(reg, o.Value, ip)
			return
		}
		if owner := e.vardescs.OwnerOf(reg.parentOf()); owner != nil {
			e.SaveAndUnload(reg, ip)
		}
		e.LoadConstant(parseIntOperand(o.Value), reg, size)
		return
	}
	sym := e.syms.LookupVariable(e.currentScope(), o.Value)
	e.CopyVariableTo(sym, reg, size, ip)
}
