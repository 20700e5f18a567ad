// Completion: 100% - shared runtime helper emission complete
package main

// emitSharedFunctions writes the machine code for every shared helper whose
// RefCount is > 0 (spec §4.4.5), in AllSharedFunctions order. Called once
// the IR pass has placed every user function, so Call sites already
// targeting a shared function resolve through the ordinary Rel16 backpatch
// path once these bodies get their own ip_dst here.
func (e *Emitter) emitSharedFunctions() {
	for _, name := range AllSharedFunctions {
		sym, ok := e.syms.TryResolveFunction(string(name))
		if !ok || sym.RefCount == 0 {
			continue
		}
		sym.IP = e.buf.Offset()
		switch name {
		case SharedPrintString:
			e.emitPrintString()
		case SharedPrintUint32:
			e.emitPrintUint32()
		case SharedPrintNewLine:
			e.emitPrintNewLine()
		case SharedReadUint32:
			e.emitReadUint32()
		case SharedGetCommandLine:
			e.emitGetCommandLine()
		case SharedStringsEqual:
			e.emitStringsEqual()
		}
	}
}

// readBufferSymbolName names the fixed DOS-style input buffer (byte 0:
// max length, byte 1: returned length, bytes 2..: characters) the packager
// reserves in the static segment when ReadUint32 is referenced.
const readBufferSymbolName = "$readbuf"

// ReadBufferSize is the total byte size of the reserved input buffer,
// including its 2-byte header: room for 10 decimal digits (max uint32).
const ReadBufferSize = 12

// emitPrintString: DS-relative, '$'-terminated string address in DX;
// INT 21h/09h; retn.
func (e *Emitter) emitPrintString() {
	e.emit16(0xB4, 0x09) // mov ah, 09h
	e.emit16(0xCD, 0x21) // int 21h
	e.emit16(0xC3)       // retn
}

// emitPrintUint32: value in EAX, printed as decimal via repeated
// divide-by-10 into a push-stack of digits, then drained with LOOP.
func (e *Emitter) emitPrintUint32() {
	e.emit32(0x51) // push ecx
	e.emit32(0x52) // push edx
	e.emit32(0x53) // push ebx

	e.emit16(0xB9) // mov cx, 0  (digit count)
	e.buf.WriteU16(0)

	divTop := e.buf.Offset()
	e.emit32(0x31, modRM(regFieldDX, regFieldDX)) // xor edx, edx
	e.emit16(0xBB)                                // mov bx, 10
	e.buf.WriteU16(10)
	e.emit32(0xF7, modRM(6, regFieldBX))          // div ebx (/6)
	e.emit16(0x52)                                // push dx
	e.emit16(0x41)                                // inc cx
	e.emit32(0x85, modRM(regFieldAX, regFieldAX)) // test eax, eax
	e.emit16(0x75)                                // jnz divTop
	backOff := e.buf.WriteU8(0)
	e.buf.PatchI8At(backOff, int8(divTop-e.buf.Offset()))

	printTop := e.buf.Offset()
	e.emit16(0x5A)                       // pop dx
	e.emit16(0x80, modRM(0, regFieldDX)) // add dl, imm8 (/0)
	e.buf.WriteU8('0')
	e.emit16(0xB4, 0x02) // mov ah, 02h
	e.emit16(0xCD, 0x21) // int 21h
	e.emit16(0xE2)       // loop printTop (dec cx; jnz)
	loopOff := e.buf.WriteU8(0)
	e.buf.PatchI8At(loopOff, int8(printTop-e.buf.Offset()))

	e.emit32(0x5B) // pop ebx
	e.emit32(0x5A) // pop edx
	e.emit32(0x59) // pop ecx
	e.emit16(0xC3)
}

// emitPrintNewLine: CR LF via two INT 21h/02h calls.
func (e *Emitter) emitPrintNewLine() {
	e.emit16(0xB4, 0x02)
	e.emit16(0xB2, '\r')
	e.emit16(0xCD, 0x21)
	e.emit16(0xB4, 0x02)
	e.emit16(0xB2, '\n')
	e.emit16(0xCD, 0x21)
	e.emit16(0xC3)
}

// emitReadUint32: reads a decimal line into the reserved input buffer via
// INT 21h/0Ah, then folds its digits into EAX.
func (e *Emitter) emitReadUint32() {
	e.emit32(0x51) // push ecx
	e.emit32(0x52) // push edx
	e.emit32(0x53) // push ebx
	e.emit16(0x56) // push si

	e.emit16(0xBE) // mov si, imm16 (backpatched to $readbuf's DS address)
	off := e.buf.WriteU16(0)
	e.backpatch.AddDsAbs16ToSymbol(off, -1, readBufferSymbolName)

	e.emit16(0xC6, modRMSI(0)) // mov byte [si], imm8 (/0): write max-length header
	e.buf.WriteU8(ReadBufferSize - 2)

	e.emit16(0x89, modRM(regFieldSI, regFieldDX)) // mov dx, si
	e.emit16(0xB4, 0x0A)                          // mov ah, 0Ah
	e.emit16(0xCD, 0x21)                          // int 21h

	e.emit16(0x32, modRM(x86Reg8Field(RegCH), x86Reg8Field(RegCH))) // xor ch, ch
	e.emit16(0x46)                                // inc si  (point at returned-length byte)
	e.emit16(0x8A, modRMSI(regFieldCX))           // mov cl, [si]
	e.emit16(0x46)                                // inc si  (point at first digit)

	e.emit32(0x31, modRM(regFieldAX, regFieldAX)) // xor eax, eax

	top := e.buf.Offset()
	e.emit16(0x85, modRM(regFieldCX, regFieldCX)) // test cx, cx
	e.emit16(0x74)                                // je done
	doneJmpOff := e.buf.WriteU8(0)

	e.emit32(0x6B, modRM(regFieldAX, regFieldAX)) // imul eax, eax, 10
	e.buf.WriteU8(10)
	e.emit16(0x8A, modRMSI(regFieldDX)) // mov dl, [si]
	e.emit16(0x80, modRM(5, regFieldDX))
	e.buf.WriteU8('0') // sub dl, '0'
	e.emit16(0x32, modRM(x86Reg8Field(RegDH), x86Reg8Field(RegDH))) // xor dh, dh
	e.emit32(0x01, modRM(regFieldDX, regFieldAX)) // add eax, edx
	e.emit16(0x46)                                // inc si
	e.emit16(0x49)                                // dec cx
	e.emit16(0xEB)                                // jmp top
	backOff := e.buf.WriteU8(0)
	e.buf.PatchI8At(backOff, int8(top-e.buf.Offset()))

	doneIP := e.buf.Offset()
	e.buf.PatchI8At(doneJmpOff, int8(doneIP-(doneJmpOff+1)))

	e.emit16(0x5E) // pop si
	e.emit32(0x5B) // pop ebx
	e.emit32(0x5A) // pop edx
	e.emit32(0x59) // pop ecx
	e.emit16(0xC3)
}

// emitGetCommandLine: the PSP command tail always lives at offset 0x81 in
// the program segment (0x80 holds its length byte); return its address in
// DX.
func (e *Emitter) emitGetCommandLine() {
	e.emit16(0xBA) // mov dx, 0x0081
	e.buf.WriteU16(0x0081)
	e.emit16(0xC3)
}

// emitStringsEqual: DS-relative '$'-terminated string addresses in AX and
// DX; result boolean (0/1) in AL. Walks both strings via SI/DI, comparing
// byte by byte until a mismatch or both reach '$'.
func (e *Emitter) emitStringsEqual() {
	e.emit16(0x56)                                 // push si
	e.emit16(0x57)                                  // push di
	e.emit16(0x89, modRM(regFieldAX, regFieldSI))   // mov si, ax
	e.emit16(0x89, modRM(regFieldDX, regFieldDI))   // mov di, dx

	top := e.buf.Offset()
	e.emit16(0x8A, modRMSI(regFieldCX)) // mov cl, [si]
	e.emit16(0x3A, modRMDI(regFieldCX)) // cmp cl, [di]
	e.emit16(0x75)                      // jne notEqual
	neOff := e.buf.WriteU8(0)

	e.emit16(0x80, modRM(7, regFieldCX)) // cmp cl, '$' (/7)
	e.buf.WriteU8('$')
	e.emit16(0x74) // je equal
	eqOff := e.buf.WriteU8(0)

	e.emit16(0x46) // inc si
	e.emit16(0x47) // inc di
	e.emit16(0xEB) // jmp top
	backOff := e.buf.WriteU8(0)
	e.buf.PatchI8At(backOff, int8(top-e.buf.Offset()))

	notEqualIP := e.buf.Offset()
	e.buf.PatchI8At(neOff, int8(notEqualIP-(neOff+1)))
	e.emit16(0xB0, 0x00) // mov al, 0
	e.emit16(0xEB)       // jmp finish
	finishJmpOff := e.buf.WriteU8(0)

	equalIP := e.buf.Offset()
	e.buf.PatchI8At(eqOff, int8(equalIP-(eqOff+1)))
	e.emit16(0xB0, 0x01) // mov al, 1

	finishIP := e.buf.Offset()
	e.buf.PatchI8At(finishJmpOff, int8(finishIP-(finishJmpOff+1)))

	e.emit16(0x5F) // pop di
	e.emit16(0x5E) // pop si
	e.emit16(0xC3)
}
