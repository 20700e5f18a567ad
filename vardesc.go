// Completion: 100% - variable descriptor table complete
package main

// Reg identifies a physical or sub-register slot. Sub-register views
// (AL/AH/CL/CH/DL/DH/BL/BH) alias the low/high byte of their 16-bit parent;
// RegNone means "not currently bound to any register".
type Reg int

const (
	RegNone Reg = iota
	RegAL
	RegCL
	RegDL
	RegBL
	RegAH
	RegCH
	RegDH
	RegBH
	RegAX
	RegCX
	RegDX
	RegBX
	RegSI
	RegDI
)

func (r Reg) String() string {
	names := [...]string{"none", "al", "cl", "dl", "bl", "ah", "ch", "dh", "bh", "ax", "cx", "dx", "bx", "si", "di"}
	if int(r) < 0 || int(r) >= len(names) {
		return "?"
	}
	return names[r]
}

// parentOf maps a register (sub or full) to its owning 16-bit GPR. The
// allocator only ever binds a descriptor to one of the four parents
// (AX, CX, DX, BX); sub-register requests are resolved to the parent before
// binding, since the allocator treats the parent as the unit of allocation.
func (r Reg) parentOf() Reg {
	switch r {
	case RegAX, RegAL, RegAH:
		return RegAX
	case RegCX, RegCL, RegCH:
		return RegCX
	case RegDX, RegDL, RegDH:
		return RegDX
	case RegBX, RegBL, RegBH:
		return RegBX
	default:
		return RegNone
	}
}

// gprParents is the fixed set of four general-purpose registers the
// allocator owns (spec §4.3).
var gprParents = [4]Reg{RegAX, RegCX, RegDX, RegBX}

// VarDescriptor is the per-local/static runtime record the emitter creates
// when it starts compiling a function and destroys on function exit
// (spec §3). SI/DI never get bound to a descriptor today -- only the four
// GPR parents participate in allocation -- but the Reg type includes them
// since the ISA reserves them and a future extension may want to spill into
// them explicitly.
type VarDescriptor struct {
	Symbol *Symbol

	Reg Reg

	// Location: signed 8-bit stack offset from BP for locals, or an
	// absolute DS offset for statics (resolved via backpatch until then).
	Location int

	// LastUsed is the IR index of the most recent reference to this
	// variable; used by the spill policy's forward-liveness walk.
	LastUsed int

	// IsDirty is true when the register's value differs from the value
	// in memory (the stack slot, or the not-yet-backpatched static slot).
	IsDirty bool
}

// VarDescriptorTable owns every descriptor live during the compilation of
// one function, statics' descriptors included. Descriptors for
// other functions are never bound to a register; the table is recreated
// per function to keep that invariant trivially true.
type VarDescriptorTable struct {
	bySymbolName map[string]*VarDescriptor
}

func NewVarDescriptorTable() *VarDescriptorTable {
	return &VarDescriptorTable{bySymbolName: make(map[string]*VarDescriptor)}
}

// GetOrCreate returns the descriptor for sym, creating a fresh (unbound,
// clean) one on first reference within the current function.
func (t *VarDescriptorTable) GetOrCreate(sym *Symbol) *VarDescriptor {
	if d, ok := t.bySymbolName[sym.Name]; ok {
		return d
	}
	d := &VarDescriptor{Symbol: sym, Reg: RegNone, Location: sym.OffsetOrSize}
	t.bySymbolName[sym.Name] = d
	return d
}

// Lookup returns the existing descriptor for sym, or nil if none exists yet.
func (t *VarDescriptorTable) Lookup(sym *Symbol) *VarDescriptor {
	return t.bySymbolName[sym.Name]
}

// OwnerOf returns the descriptor currently bound to reg's parent GPR within
// this function, or nil if that register is free. Enforces invariant 3
// (register uniqueness): callers never need to search further than this.
func (t *VarDescriptorTable) OwnerOf(reg Reg) *VarDescriptor {
	parent := reg.parentOf()
	if parent == RegNone {
		return nil
	}
	for _, d := range t.bySymbolName {
		if d.Reg != RegNone && d.Reg.parentOf() == parent {
			return d
		}
	}
	return nil
}

// All returns every descriptor created so far in this function, in
// unspecified order (callers that need determinism sort by symbol name).
func (t *VarDescriptorTable) All() []*VarDescriptor {
	out := make([]*VarDescriptor, 0, len(t.bySymbolName))
	for _, d := range t.bySymbolName {
		out = append(out, d)
	}
	return out
}

// Reset clears the table, matching the "destroyed on function exit"
// lifetime in spec §3 / §5 (no alias survives past the end of a function).
func (t *VarDescriptorTable) Reset() {
	t.bySymbolName = make(map[string]*VarDescriptor)
}
