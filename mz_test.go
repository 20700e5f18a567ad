package main

import (
	"encoding/binary"
	"testing"
)

func TestCompile_MinimalMain_MZHeaderInvariant(t *testing.T) {
	src := "func main() {\n  return;\n}\n"
	syms, ir, stackSize, _ := ParseProgram(src)

	e := NewEmitter(syms, ir)
	e.requestedStackSize = stackSize
	if err := e.CompileIR(); err != nil {
		t.Fatalf("CompileIR() error = %v", err)
	}

	image := PackageExecutable(e)

	if len(image) < mzHeaderSize {
		t.Fatalf("image too short: %d bytes", len(image))
	}
	if string(image[0:2]) != "MZ" {
		t.Fatalf("e_magic = %q, want \"MZ\"", image[0:2])
	}

	cblp := binary.LittleEndian.Uint16(image[2:4])
	cp := binary.LittleEndian.Uint16(image[4:6])
	cparhdr := binary.LittleEndian.Uint16(image[8:10])
	eip := binary.LittleEndian.Uint16(image[20:22])
	esp := binary.LittleEndian.Uint16(image[16:18])

	headerBytes := int(cparhdr) * mzParagraphSize
	totalLen := len(image)

	// invariant: (block_count-1)*512 + last_block_size == total file size
	computed := (int(cp)-1)*mzBlockSize + int(cblp)
	if computed != totalLen {
		t.Fatalf("(e_cp-1)*512+e_cblp = %d, want total image length %d", computed, totalLen)
	}
	if headerBytes%mzParagraphSize != 0 {
		t.Fatalf("header size %d is not a paragraph multiple", headerBytes)
	}
	if totalLen != 43 {
		t.Fatalf("total length = %d, want 43 for this minimal program", totalLen)
	}
	if cp != 1 {
		t.Fatalf("e_cp = %d, want 1", cp)
	}
	if cblp != 43 {
		t.Fatalf("e_cblp = %d, want 43", cblp)
	}
	if eip != 0 {
		t.Fatalf("e_ip = %d, want 0 (main is the first thing emitted)", eip)
	}
	if esp != defaultStackBytes {
		t.Fatalf("e_sp = %#x, want default %#x", esp, defaultStackBytes)
	}
}

func TestCompile_StackDirectiveSetsEsp(t *testing.T) {
	src := "#stack 4096\nfunc main() {\n  return;\n}\n"
	syms, ir, stackSize, _ := ParseProgram(src)

	e := NewEmitter(syms, ir)
	e.requestedStackSize = stackSize
	if err := e.CompileIR(); err != nil {
		t.Fatalf("CompileIR() error = %v", err)
	}
	image := PackageExecutable(e)

	esp := binary.LittleEndian.Uint16(image[16:18])
	if esp != 4096 {
		t.Fatalf("e_sp = %d, want 4096", esp)
	}
}
