// Completion: 100% - MZ executable packager complete
package main

// This file implements the Executable Packager (C8): a fixed 28-byte MZ
// header, a static-data segment (interned strings then scalar statics,
// plus the reserved input buffer ReadUint32 needs), and the header
// size/entry-point fixups that can only be computed once the whole image
// exists. Grounded in the teacher's pe.go/elf.go header-struct-then-patch
// style, adapted to the much smaller real-mode MZ format described in
// spec §4.6.

const (
	mzHeaderSize      = 28
	mzParagraphSize   = 16
	mzBlockSize       = 512
	mzSignature       = "MZ"
	defaultStackBytes = 0x0800 // 2 KiB, used when no #stack directive is present
)

// Image is the final byte-for-byte MZ executable plus the bookkeeping
// needed to patch its header once every section is laid out.
type Image struct {
	header     [mzHeaderSize]byte
	code       []byte
	staticData []byte
	entryIP    int
	stackSize  uint16
}

// PackageExecutable runs C8 over a compiled Emitter: emits the shared
// functions, resolves the IP/label backpatches (already done by
// CompileIR), lays out static data, resolves the remaining ToDsAbs16/
// ToStack8 backpatches, and produces the final header + byte stream.
func PackageExecutable(e *Emitter) []byte {
	e.emitSharedFunctions()
	e.resolveIPAndLabelBackpatches()

	staticData, staticOffsets := layoutStaticData(e)

	stackSize := e.requestedStackSize
	if stackSize == 0 {
		stackSize = defaultStackBytes
	}

	code := e.buf.Bytes()
	staticBase := uint16(mzRoundUpParagraphs(mzHeaderSize)*mzParagraphSize + len(code))

	e.backpatch.ResolveStatics(e.buf, staticBase, staticOffsets, e.syms)
	if !e.backpatch.AllResolved() {
		internalErr("PackageExecutable: %d backpatch entries remain unresolved after static layout", e.backpatch.Count())
	}

	img := &Image{
		code:       e.buf.Finalize(),
		staticData: staticData,
		entryIP:    e.entryIP,
		stackSize:  stackSize,
	}
	return img.build()
}

// layoutStaticData places every interned string (in first-use order,
// '$'-terminated for INT 21h/09h), then every global scalar static, then
// the reserved ReadUint32 input buffer if that helper is referenced,
// returning the concatenated bytes and each symbol's byte offset within
// them (spec §4.6).
func layoutStaticData(e *Emitter) ([]byte, map[string]int) {
	var data []byte
	offsets := make(map[string]int)

	for _, s := range e.stringOrder {
		offsets[stringSymbolName(s)] = len(data)
		data = append(data, []byte(s)...)
		data = append(data, '$')
	}

	for _, static := range e.syms.AllStatics() {
		offsets[static.Name] = len(data)
		size := static.EffectiveSize()
		data = append(data, make([]byte, size)...)
		static.IP = offsets[static.Name]
	}

	if sym, ok := e.syms.TryResolveFunction(string(SharedReadUint32)); ok && sym.RefCount > 0 {
		offsets[readBufferSymbolName] = len(data)
		data = append(data, make([]byte, ReadBufferSize)...)
	}

	return data, offsets
}

func mzRoundUpParagraphs(size int) int {
	return (size + mzParagraphSize - 1) / mzParagraphSize
}

// build assembles the final byte stream: header, code, static data, then
// patches the header's size and entry-point fields now that the total
// length is known (spec §4.6's "final pass").
func (img *Image) build() []byte {
	headerParagraphs := mzRoundUpParagraphs(mzHeaderSize)
	totalLen := headerParagraphs*mzParagraphSize + len(img.code) + len(img.staticData)

	blockCount := (totalLen + mzBlockSize - 1) / mzBlockSize
	if blockCount == 0 {
		blockCount = 1
	}
	lastBlockSize := totalLen % mzBlockSize
	if lastBlockSize == 0 {
		lastBlockSize = mzBlockSize
	}

	buf := NewByteBuffer()
	buf.WriteBytes([]byte(mzSignature))     // e_magic
	buf.WriteU16(uint16(lastBlockSize))     // e_cblp
	buf.WriteU16(uint16(blockCount))        // e_cp
	buf.WriteU16(0)                         // e_crlc (relocations)
	buf.WriteU16(uint16(headerParagraphs))  // e_cparhdr
	buf.WriteU16(0x0000)                    // e_minalloc
	buf.WriteU16(0xFFFF)                    // e_maxalloc
	buf.WriteU16(0x0000)                    // e_ss (code segment, no separate stack segment)
	buf.WriteU16(img.stackSize)             // e_sp
	buf.WriteU16(0)                         // e_csum (unchecked)
	buf.WriteU16(uint16(img.entryIP))       // e_ip
	buf.WriteU16(0x0000)                    // e_cs
	buf.WriteU16(0x0000)                    // e_lfarlc (relocation table offset; no relocations)
	buf.WriteU16(0)                         // e_ovno

	header := buf.Finalize()
	if len(header) != mzHeaderSize {
		internalErr("PackageExecutable: built header of %d bytes, expected %d", len(header), mzHeaderSize)
	}

	out := make([]byte, 0, totalLen)
	out = append(out, header...)
	pad := headerParagraphs*mzParagraphSize - len(header)
	out = append(out, make([]byte, pad)...)
	out = append(out, img.code...)
	out = append(out, img.staticData...)
	return out
}
