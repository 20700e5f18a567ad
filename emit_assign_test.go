package main

import "testing"

func TestEmitAssign_ConstantFoldAdd(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "x", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -2})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrAssign, AssignOp: AssignAdd, Dst: "x", A: ConstOperand("3", TypeUint16), B: ConstOperand("4", TypeUint16)}
	e.emitAssign(0, ins)

	want := []byte{0xB8, 0x07, 0x00} // mov ax, 7
	got := e.buf.Bytes()
	if len(got) != len(want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}

	d := e.vardescs.Lookup(syms.LookupVariable("f", "x"))
	if d == nil || d.Reg.parentOf() != RegAX || !d.IsDirty {
		t.Fatalf("descriptor for x = %+v, want bound to AX and dirty", d)
	}
}

func TestEmitAssign_ConstantFoldStringConcat(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "s", Kind: SymScalarVar, ScalarType: TypeString, Parent: "f", HasParent: true, OffsetOrSize: -2})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrAssign, AssignOp: AssignAdd, Dst: "s", A: ConstOperand("foo", TypeString), B: ConstOperand("bar", TypeString)}
	e.emitAssign(0, ins)

	if len(e.stringOrder) != 1 || e.stringOrder[0] != "foobar" {
		t.Fatalf("stringOrder = %v, want [foobar]", e.stringOrder)
	}
	if e.backpatch.Count() != 1 {
		t.Fatalf("backpatch.Count() = %d, want 1 (the deferred address of the interned string)", e.backpatch.Count())
	}
}

func TestEmitAssign_NegateLoadsStaticThenNegates(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "g", Kind: SymScalarVar, ScalarType: TypeUint16}) // global static, no parent
	syms.Declare(&Symbol{Name: "x", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -2})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrAssign, AssignOp: AssignNegate, Dst: "x", A: VarOperand("g", TypeUint16, false)}
	e.emitAssign(0, ins)

	want := []byte{0x8B, 0x06, 0x00, 0x00, 0xF7, 0xD8} // mov ax, [g]; neg ax
	got := e.buf.Bytes()
	if len(got) != len(want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
	if e.backpatch.Count() != 1 {
		t.Fatalf("expected 1 pending DsAbs16 backpatch for the static load, got %d", e.backpatch.Count())
	}
}

func TestEmitAssign_DivU8ZeroesAH(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "a", Kind: SymScalarVar, ScalarType: TypeUint8, Parent: "f", HasParent: true, OffsetOrSize: -1})
	syms.Declare(&Symbol{Name: "q", Kind: SymScalarVar, ScalarType: TypeUint8, Parent: "f", HasParent: true, OffsetOrSize: -2})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrAssign, AssignOp: AssignDiv, Dst: "q", A: VarOperand("a", TypeUint8, false), B: ConstOperand("7", TypeUint8)}
	e.emitAssign(0, ins)

	// mov al, [bp-1]; xor ah, ah; mov cl, 7; div cl
	want := []byte{0x8A, 0x46, 0xFF, 0x30, 0xE4, 0xB1, 0x07, 0xF6, 0xF1}
	got := e.buf.Bytes()
	if len(got) != len(want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}

	d := e.vardescs.Lookup(syms.LookupVariable("f", "q"))
	if d == nil || d.Reg != RegAX || !d.IsDirty {
		t.Fatalf("descriptor for q = %+v, want bound to AX and dirty", d)
	}
}

func TestEmitAssign_RemU8MovesAHDownAndClearsIt(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "a", Kind: SymScalarVar, ScalarType: TypeUint8, Parent: "f", HasParent: true, OffsetOrSize: -1})
	syms.Declare(&Symbol{Name: "r", Kind: SymScalarVar, ScalarType: TypeUint8, Parent: "f", HasParent: true, OffsetOrSize: -2})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrAssign, AssignOp: AssignRem, Dst: "r", A: VarOperand("a", TypeUint8, false), B: ConstOperand("7", TypeUint8)}
	e.emitAssign(0, ins)

	// mov al, [bp-1]; xor ah, ah; mov cl, 7; div cl; mov al, ah; xor ah, ah
	want := []byte{0x8A, 0x46, 0xFF, 0x30, 0xE4, 0xB1, 0x07, 0xF6, 0xF1, 0x88, 0xE0, 0x30, 0xE4}
	got := e.buf.Bytes()
	if len(got) != len(want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}

	d := e.vardescs.Lookup(syms.LookupVariable("f", "r"))
	if d == nil || d.Reg != RegAX || !d.IsDirty {
		t.Fatalf("descriptor for r = %+v, want bound to AX and dirty", d)
	}
}

func TestEmitAssign_AddVariablePlusConstant(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "n", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -2})
	syms.Declare(&Symbol{Name: "out", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -4})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrAssign, AssignOp: AssignAdd, Dst: "out", A: VarOperand("n", TypeUint16, false), B: ConstOperand("1", TypeUint16)}
	e.emitAssign(0, ins)

	// load n ([bp-2] -> ax), then ADD ax, imm16 1 (no constant fold possible: n is a variable)
	want := []byte{0x8B, 0x46, 0xFE, 0x81, 0xC0, 0x01, 0x00}
	got := e.buf.Bytes()
	if len(got) != len(want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
