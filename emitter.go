// Completion: 100% - instruction emitter driver complete
package main

// Emitter is the x86 code generator (C7): it walks the IR linearly,
// consults the finalized symbol table through C4/C5, writes bytes through
// the byte buffer (C1), and records deferred fixes in the backpatch
// registry (C6). Per the design note in spec §9, the emitter and the
// register allocator are modeled as a single component with two operation
// groups sharing the output buffer -- regalloc.go adds methods to this same
// type rather than introducing a separate cyclic dependency.
type Emitter struct {
	buf       *ByteBuffer
	syms      *SymbolTable
	ir        *IRStream
	backpatch *BackpatchRegistry
	vardescs  *VarDescriptorTable

	// ipSrcToDst maps every IR index that begins an emitted instruction
	// (or a function/label target) to its byte offset in buf, populated
	// as emission reaches each one so backward jumps resolve immediately.
	ipSrcToDst map[int]int

	// current function context; nil before the first function prologue.
	fn        *Symbol
	fnEndIP   int // IR index one past the current function's last instruction
	localSize int // running allocator for negative BP-relative offsets

	// suppressedRegs holds registers the allocator must not hand out right
	// now (e.g. DX during a divide); manipulated only through SuppressRegister.
	suppressedRegs map[Reg]bool

	// pendingPush holds staged Push arguments for the next Call, in the
	// order Push was invoked (left-to-right source order); Call drains it
	// right-to-left per the calling convention.
	pendingPush []Instr

	// interned strings, in first-use order, deduplicated by value.
	stringOrder []string
	stringIndex map[string]int

	// stack size requested via "#stack N" / "#stack ^N"; 0 means "use the
	// packager's default".
	requestedStackSize uint16
	stackSizeIsAtLeast bool

	entryIP int // ip_dst of the entry point, for the MZ header's CS:IP
}

func NewEmitter(syms *SymbolTable, ir *IRStream) *Emitter {
	return &Emitter{
		buf:            NewByteBuffer(),
		syms:           syms,
		ir:             ir,
		backpatch:      NewBackpatchRegistry(),
		vardescs:       NewVarDescriptorTable(),
		ipSrcToDst:     make(map[int]int),
		suppressedRegs: make(map[Reg]bool),
		stringIndex:    make(map[string]int),
		entryIP:        -1,
	}
}

// CompileIR runs the full C7 pass over the IR stream and returns the error
// encountered, if any (recovering the panics that internalErr/encodingErr
// raise, per the propagation policy in spec §7).
func (e *Emitter) CompileIR() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	e.syms.Finalize()

	for ip := 0; ip < e.ir.Len(); ip++ {
		e.stepOne(ip)
	}

	e.resolveIPAndLabelBackpatches()

	// Calls to a shared function (PrintString, ReadUint32, ...) still carry
	// an unresolved Rel16ToFunction entry here: those helpers only get a
	// final ip_dst once PackageExecutable emits them. Final completeness is
	// asserted there, after static-data layout, not here.
	return nil
}

// stepOne emits the bytes for one IR instruction, first recording the
// ip_src -> ip_dst mapping and checking whether this IP begins a function
// (the symbol table marks a function's first instruction via its IP field).
func (e *Emitter) stepOne(ip int) {
	e.ipSrcToDst[ip] = e.buf.Offset()
	e.maybeEnterFunction(ip)

	ins := e.ir.At(ip)
	tracef("IR#%d kind %d at offset %#04x\n", ip, ins.Kind, e.buf.Offset())
	switch ins.Kind {
	case InstrAssign:
		e.emitAssign(ip, ins)
	case InstrGoto:
		e.emitGoto(ip, ins)
	case InstrGotoLabel:
		e.emitGotoLabel(ip, ins)
	case InstrIf:
		e.emitIf(ip, ins)
	case InstrPush:
		e.emitPush(ip, ins)
	case InstrCall:
		e.emitCall(ip, ins)
	case InstrReturn:
		e.emitReturn(ip, ins)
	default:
		internalErr("stepOne: unhandled IR kind %v at IP %d", ins.Kind, ip)
	}
}

// maybeEnterFunction runs the function-prologue sequence from spec §4.4
// whenever ip is the recorded entry IP of a Function/EntryPoint symbol.
func (e *Emitter) maybeEnterFunction(ip int) {
	for _, fn := range e.syms.AllFunctions() {
		if fn.IP == ip {
			e.enterFunction(fn)
			return
		}
	}
}

// enterFunction performs the five prologue steps of spec §4.4:
//  1. set parent/clear function-local state
//  2. register the function's ip_dst for linkage
//  3. push ebp; mov ebp, esp (0x66-prefixed)
//  4. compute per-local offsets
//  5. sub esp, imm16 sized to the local area
func (e *Emitter) enterFunction(fn *Symbol) {
	e.fn = fn
	e.fnEndIP = functionEndIP(e.syms, e.ir, fn)
	e.vardescs.Reset()
	e.pendingPush = nil

	// fn.IP stays the IR source index throughout (functionEndIP and every
	// call-site lookup key off it via ipSrcToDst); the dst byte offset
	// recorded here is already in ipSrcToDst[fn.IP] from stepOne's top line.
	if fn.Kind == SymEntryPoint {
		e.entryIP = e.buf.Offset()
	}

	// push ebp
	e.emit32(0x55)
	// mov ebp, esp  (MOV r/m32, r32: 0x89 /r, ModRM.reg=ESP, ModRM.rm=EBP)
	e.emit32(0x89, modRM(regFieldSP, regFieldBP))

	e.assignFrameOffsets(fn)

	// sub esp, imm16
	localBytes := uint16(fn.OffsetOrSize)
	if localBytes > 0 {
		e.emit32(0x81, 0xEC)
		e.buf.WriteU16(localBytes)
	}
}

// functionEndIP finds the IR index one past fn's last instruction: the IP
// of the next Function/EntryPoint symbol that starts after fn, or ir.Len()
// if fn is the last function in the stream.
func functionEndIP(syms *SymbolTable, ir *IRStream, fn *Symbol) int {
	end := ir.Len()
	for _, other := range syms.AllFunctions() {
		if other.IP > fn.IP && other.IP < end {
			end = other.IP
		}
	}
	return end
}

// assignFrameOffsets computes the frame layout described in spec §3:
// parameters get positive offsets from +6 in declared order; locals get
// negative offsets in declaration order, each sized per its scalar type.
// The legal window is [-128, +127]; this function raises an EncodingError
// for a parameter or local outside it, and loadFromSlot/movRegToLocal check
// each displacement again as they encode it.
func (e *Emitter) assignFrameOffsets(fn *Symbol) {
	offset := 6
	for _, p := range e.syms.ParametersOf(fn.Name) {
		if offset > 127 {
			encodingErr(fn.IP, "function %q: parameter %q falls outside the signed-8-bit stack window (offset %d)", fn.Name, p.Name, offset)
		}
		p.OffsetOrSize = offset
		offset += max(p.EffectiveSize(), 2) // 8-bit arguments are pushed as 16 bits
	}

	offset = 0
	for _, local := range e.syms.LocalsOf(fn.Name) {
		offset -= local.EffectiveSize()
		if offset < -128 {
			encodingErr(fn.IP, "function %q: local %q falls outside the signed-8-bit stack window (offset %d)", fn.Name, local.Name, offset)
		}
		local.OffsetOrSize = offset
	}
	fn.OffsetOrSize = -offset
}

// SuppressRegister pushes reg into the suppressed set for the duration of a
// scoped section (e.g. a divide, which clobbers DX) and returns a release
// function. The guard is always released via defer at the call site so
// suppression never leaks across an instruction boundary (spec §5).
func (e *Emitter) SuppressRegister(reg Reg) func() {
	parent := reg.parentOf()
	already := e.suppressedRegs[parent]
	e.suppressedRegs[parent] = true
	return func() {
		if !already {
			delete(e.suppressedRegs, parent)
		}
	}
}

func (e *Emitter) isSuppressed(reg Reg) bool {
	return e.suppressedRegs[reg.parentOf()]
}

// resolveIPAndLabelBackpatches drains every Rel8/Rel16 backpatch entry now
// that every function and label has a final ip_dst (spec §4.5: "resolve
// jump and call targets once the full IR pass completes").
func (e *Emitter) resolveIPAndLabelBackpatches() {
	e.backpatch.ResolveByIPAndLabel(e.buf, e.ipSrcToDst, e.syms)
}
