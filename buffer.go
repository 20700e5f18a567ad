// Completion: 100% - byte buffer complete
package main

import "encoding/binary"

// ByteBuffer is a growable byte output with a monotonic write offset (C1).
// Modeled on the teacher's BufferWrapper (emit.go) but stripped of the
// per-byte stderr tracing (tracef is used at call sites instead, since the
// core wants to trace semantic events, not raw bytes) and extended with the
// reserve/patch pair the emitter's backpatching needs.
//
// Growth is amortized by append, and a re-growth of the underlying slice may
// move storage; Reserve therefore returns an offset rather than a slice, and
// callers fill the reserved bytes later through the Patch*At helpers.
type ByteBuffer struct {
	data []byte
}

// NewByteBuffer returns an empty buffer with a small initial capacity.
func NewByteBuffer() *ByteBuffer {
	return &ByteBuffer{data: make([]byte, 0, 256)}
}

// Offset returns the current write cursor, i.e. the length of committed bytes.
func (b *ByteBuffer) Offset() int {
	return len(b.data)
}

// Reserve grows the buffer by n zero bytes and returns the offset at which
// they begin. The caller may fill them immediately via Patch*At, but must
// not hold on to a slice across a later Reserve/Write call.
func (b *ByteBuffer) Reserve(n int) int {
	off := len(b.data)
	b.data = append(b.data, make([]byte, n)...)
	return off
}

// WriteU8 appends a single byte and returns its offset.
func (b *ByteBuffer) WriteU8(v uint8) int {
	off := len(b.data)
	b.data = append(b.data, v)
	return off
}

// WriteU16 appends a little-endian 16-bit value and returns its offset.
func (b *ByteBuffer) WriteU16(v uint16) int {
	off := len(b.data)
	b.data = append(b.data, byte(v), byte(v>>8))
	return off
}

// WriteU32 appends a little-endian 32-bit value and returns its offset.
func (b *ByteBuffer) WriteU32(v uint32) int {
	off := len(b.data)
	b.data = append(b.data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	return off
}

// WriteBytes appends a raw byte slice and returns its starting offset.
func (b *ByteBuffer) WriteBytes(bs []byte) int {
	off := len(b.data)
	b.data = append(b.data, bs...)
	return off
}

// WriteN appends n copies of v and returns the starting offset; used for
// padding (zero-fill) and for reserved-but-not-yet-known regions.
func (b *ByteBuffer) WriteN(v byte, n int) int {
	off := len(b.data)
	for i := 0; i < n; i++ {
		b.data = append(b.data, v)
	}
	return off
}

// PatchU8At overwrites a single previously committed byte.
func (b *ByteBuffer) PatchU8At(off int, v uint8) {
	b.data[off] = v
}

// PatchI8At overwrites a previously committed byte with a signed value.
func (b *ByteBuffer) PatchI8At(off int, v int8) {
	b.data[off] = byte(v)
}

// PatchU16At overwrites two previously committed bytes, little-endian.
func (b *ByteBuffer) PatchU16At(off int, v uint16) {
	binary.LittleEndian.PutUint16(b.data[off:off+2], v)
}

// PatchI16At overwrites two previously committed bytes with a signed value.
func (b *ByteBuffer) PatchI16At(off int, v int16) {
	binary.LittleEndian.PutUint16(b.data[off:off+2], uint16(v))
}

// PatchU32At overwrites four previously committed bytes, little-endian.
func (b *ByteBuffer) PatchU32At(off int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[off:off+4], v)
}

// Bytes returns the committed bytes. The caller must treat this as
// read-only; Finalize is the intended way to take ownership of the content.
func (b *ByteBuffer) Bytes() []byte {
	return b.data
}

// Finalize returns the final byte stream and detaches it from the buffer.
// Matches invariant 1 (byte-write coherence): every byte written here,
// directly or via a later Patch*, is exactly what ends up at that offset.
func (b *ByteBuffer) Finalize() []byte {
	out := b.data
	b.data = nil
	return out
}

// Len reports the number of committed bytes.
func (b *ByteBuffer) Len() int {
	return len(b.data)
}
