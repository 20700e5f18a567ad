package main

import "testing"

func TestByteBuffer_WriteAndPatch(t *testing.T) {
	b := NewByteBuffer()
	b.WriteU8(0xAA)
	off16 := b.WriteU16(0x1234)
	off32 := b.WriteU32(0xDEADBEEF)

	b.PatchU16At(off16, 0x5678)
	b.PatchU32At(off32, 0x11223344)

	got := b.Bytes()
	want := []byte{0xAA, 0x78, 0x56, 0x44, 0x33, 0x22, 0x11}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestByteBuffer_ReserveThenPatch(t *testing.T) {
	b := NewByteBuffer()
	b.WriteU8(0x01)
	off := b.Reserve(2)
	b.WriteU8(0x02)

	b.PatchI8At(off, -1)
	b.PatchU8At(off+1, 0x99)

	want := []byte{0x01, 0xFF, 0x99, 0x02}
	got := b.Bytes()
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], w)
		}
	}
}

func TestByteBuffer_FinalizeDetaches(t *testing.T) {
	b := NewByteBuffer()
	b.WriteU8(0x42)
	out := b.Finalize()
	if len(out) != 1 || out[0] != 0x42 {
		t.Fatalf("Finalize() = %v, want [0x42]", out)
	}
	if b.Len() != 0 {
		t.Fatalf("buffer not cleared after Finalize, Len() = %d", b.Len())
	}
}

func TestByteBuffer_PatchI16Negative(t *testing.T) {
	b := NewByteBuffer()
	off := b.WriteU16(0)
	b.PatchI16At(off, -5)
	got := b.Bytes()
	want := uint16(0xFFFB) // -5 as uint16, little-endian
	gotVal := uint16(got[0]) | uint16(got[1])<<8
	if gotVal != want {
		t.Fatalf("PatchI16At(-5) = %#x, want %#x", gotVal, want)
	}
}

func TestByteBuffer_WriteNPadding(t *testing.T) {
	b := NewByteBuffer()
	b.WriteN(0xCC, 3)
	got := b.Bytes()
	if len(got) != 3 || got[0] != 0xCC || got[1] != 0xCC || got[2] != 0xCC {
		t.Fatalf("WriteN(0xCC, 3) = % x, want [cc cc cc]", got)
	}
}
