// Completion: 100% - backpatch registry complete
package main

// BackpatchKind tags the four deferred-write shapes the emitter can queue
// (spec §4.5). Each carries just the fields its kind needs, per the
// REDESIGN note preferring tagged records over a class hierarchy with
// partly-populated fields.
type BackpatchKind int

const (
	PatchRel8 BackpatchKind = iota
	PatchRel16
	PatchDsAbs16
	PatchStack8
)

// backpatchTarget identifies what a pending write resolves against: an IR
// instruction index, a label name (scoped to a function), a function name,
// or an interned string/static symbol name. Exactly one of these is set,
// selected by the owning Entry's own bookkeeping (see resolve below).
type backpatchTarget struct {
	hasIP      bool
	ip         int
	label      string
	inFunction string // scope for label lookups; "" for function/string targets
	isFunction bool
	isSymbol   bool // statics and strings resolved by symbol name
}

// BackpatchEntry is a pending write of a relative or absolute address into
// an earlier buffer position, to be resolved once its target's location is
// known (spec §3 "Backpatch Entry").
type BackpatchEntry struct {
	Kind BackpatchKind

	// Offset is the buffer position to write into.
	Offset int

	// AnchorIP is ip_dst right after the field being patched; used to
	// compute target - anchor for Rel8/Rel16.
	AnchorIP int

	target backpatchTarget

	// irIndex is the originating IR index, carried only for diagnostics.
	irIndex int
}

// BackpatchRegistry is append-only during code emission and drained in
// resolution order once the IR pass completes (spec §5).
type BackpatchRegistry struct {
	entries []*BackpatchEntry
}

func NewBackpatchRegistry() *BackpatchRegistry {
	return &BackpatchRegistry{}
}

func (r *BackpatchRegistry) addIPTarget(kind BackpatchKind, offset, anchorIP, irIndex, targetIP int) {
	r.entries = append(r.entries, &BackpatchEntry{
		Kind: kind, Offset: offset, AnchorIP: anchorIP, irIndex: irIndex,
		target: backpatchTarget{hasIP: true, ip: targetIP},
	})
}

// AddRel8ToIP queues a signed 8-bit displacement targeting a not-yet-known
// IP (a forward jump/branch).
func (r *BackpatchRegistry) AddRel8ToIP(offset, anchorIP, irIndex, targetIP int) {
	r.addIPTarget(PatchRel8, offset, anchorIP, irIndex, targetIP)
}

// AddRel16ToIP queues a signed 16-bit displacement targeting a not-yet-known IP.
func (r *BackpatchRegistry) AddRel16ToIP(offset, anchorIP, irIndex, targetIP int) {
	r.addIPTarget(PatchRel16, offset, anchorIP, irIndex, targetIP)
}

// AddRel16ToLabel queues a signed 16-bit displacement targeting a label
// declared within fn (GotoLabel before the label has been seen).
func (r *BackpatchRegistry) AddRel16ToLabel(offset, anchorIP, irIndex int, fn, label string) {
	r.entries = append(r.entries, &BackpatchEntry{
		Kind: PatchRel16, Offset: offset, AnchorIP: anchorIP, irIndex: irIndex,
		target: backpatchTarget{label: label, inFunction: fn},
	})
}

// AddRel16ToFunction queues a call-site displacement targeting a function
// whose address is not yet known (a forward declaration).
func (r *BackpatchRegistry) AddRel16ToFunction(offset, anchorIP, irIndex int, function string) {
	r.entries = append(r.entries, &BackpatchEntry{
		Kind: PatchRel16, Offset: offset, AnchorIP: anchorIP, irIndex: irIndex,
		target: backpatchTarget{label: function, isFunction: true},
	})
}

// AddDsAbs16ToSymbol queues an absolute DS-relative address write,
// resolved once the packager has assigned the symbol (string or static) a
// final offset.
func (r *BackpatchRegistry) AddDsAbs16ToSymbol(offset, irIndex int, symbol string) {
	r.entries = append(r.entries, &BackpatchEntry{
		Kind: PatchDsAbs16, Offset: offset, irIndex: irIndex,
		target: backpatchTarget{label: symbol, isSymbol: true},
	})
}

// AddStack8ToLocal queues a signed 8-bit frame-offset write, resolved once
// the local's finalized stack slot is known (it always is, by the time the
// enclosing function finishes compiling, so in practice this resolves
// immediately -- it exists to keep a single resolution code path).
func (r *BackpatchRegistry) AddStack8ToLocal(offset, irIndex int, fn, local string) {
	r.entries = append(r.entries, &BackpatchEntry{
		Kind: PatchStack8, Offset: offset, irIndex: irIndex,
		target: backpatchTarget{label: local, inFunction: fn},
	})
}

// pending returns every entry of the given kind still unresolved.
func (r *BackpatchRegistry) pending(kind BackpatchKind) []*BackpatchEntry {
	var out []*BackpatchEntry
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ResolveByIPAndLabel resolves every Rel8/Rel16 entry whose target is
// either a known IP (ip_src -> ip_dst map) or a label/function name already
// present in the symbol table, writing target_ip_dst - anchor_ip_dst, and
// removes them from the registry. Called after the full IR pass, once
// every function and label has a known ip_dst.
func (r *BackpatchRegistry) ResolveByIPAndLabel(buf *ByteBuffer, ipSrcToDst map[int]int, syms *SymbolTable) {
	var remaining []*BackpatchEntry
	for _, e := range r.entries {
		if e.Kind != PatchRel8 && e.Kind != PatchRel16 {
			remaining = append(remaining, e)
			continue
		}
		targetDst, ok := resolveRelTargetDst(e, ipSrcToDst, syms)
		if !ok {
			remaining = append(remaining, e)
			continue
		}
		disp := targetDst - e.AnchorIP
		writeRelDisplacement(buf, e, disp)
	}
	r.entries = remaining
}

func resolveRelTargetDst(e *BackpatchEntry, ipSrcToDst map[int]int, syms *SymbolTable) (int, bool) {
	if e.target.hasIP {
		dst, ok := ipSrcToDst[e.target.ip]
		return dst, ok
	}
	if e.target.isFunction {
		sym, ok := syms.TryResolveFunction(e.target.label)
		if !ok {
			return 0, false
		}
		if sym.Kind == SymSharedFunction {
			// Shared functions carry their final byte offset directly in IP
			// (set once, when emitSharedFunctions lays them out) rather than
			// an IR source index, since they have no place in the IR stream.
			// IP==0 means emitSharedFunctions hasn't laid it out yet: the
			// helpers are placed after all user code, never at offset 0,
			// while RefCount is already bumped when the call is emitted.
			if sym.IP == 0 {
				return 0, false
			}
			return sym.IP, true
		}
		dst, ok := ipSrcToDst[sym.IP]
		return dst, ok
	}
	// Label, scoped to a function.
	sym, ok := syms.TryLookupVariable(e.target.inFunction, e.target.label)
	if !ok || sym.Kind != SymLabel {
		return 0, false
	}
	dst, ok := ipSrcToDst[sym.IP]
	return dst, ok
}

func writeRelDisplacement(buf *ByteBuffer, e *BackpatchEntry, disp int) {
	switch e.Kind {
	case PatchRel8:
		if disp < -128 || disp > 127 {
			encodingErr(e.irIndex, "short-jump displacement %d out of range [-128,127]", disp)
		}
		buf.PatchI8At(e.Offset, int8(disp))
	case PatchRel16:
		if disp < -32768 || disp > 32767 {
			encodingErr(e.irIndex, "near-jump displacement %d out of range [-32768,32767]", disp)
		}
		buf.PatchI16At(e.Offset, int16(disp))
	default:
		internalErr("writeRelDisplacement: unexpected kind %v", e.Kind)
	}
}

// ResolveStatics resolves every ToDsAbs16 entry using the final static base
// and per-symbol offsets the packager computed, and every ToStack8 entry
// using the finalized frame offset already stored on the local's symbol,
// removing them from the registry.
func (r *BackpatchRegistry) ResolveStatics(buf *ByteBuffer, staticBase uint16, staticOffsets map[string]int, syms *SymbolTable) {
	var remaining []*BackpatchEntry
	for _, e := range r.entries {
		switch e.Kind {
		case PatchDsAbs16:
			off, ok := staticOffsets[e.target.label]
			if !ok {
				remaining = append(remaining, e)
				continue
			}
			buf.PatchU16At(e.Offset, staticBase+uint16(off))
		case PatchStack8:
			sym, ok := syms.TryLookupVariable(e.target.inFunction, e.target.label)
			if !ok {
				remaining = append(remaining, e)
				continue
			}
			if sym.OffsetOrSize < -128 || sym.OffsetOrSize > 127 {
				encodingErr(e.irIndex, "stack reference %d beyond signed-8-bit window for %q", sym.OffsetOrSize, e.target.label)
			}
			buf.PatchI8At(e.Offset, int8(sym.OffsetOrSize))
		default:
			remaining = append(remaining, e)
		}
	}
	r.entries = remaining
}

// AllResolved reports whether the registry has been fully drained; a
// non-empty registry at this point is an internal error (spec §4.5).
func (r *BackpatchRegistry) AllResolved() bool {
	return len(r.entries) == 0
}

// Count returns the number of entries still registered (ResolveByIPAndLabel
// and ResolveStatics drop the entries they resolve from r.entries).
func (r *BackpatchRegistry) Count() int {
	return len(r.entries)
}
