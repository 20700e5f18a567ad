package main

import "testing"

func TestEmitter_GetUnused_SpillsLeastRecentlyUsed(t *testing.T) {
	syms := NewSymbolTable()
	ir := NewIRStream()
	e := NewEmitter(syms, ir)
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 0 // no instructions follow, so no descriptor is "referenced later"

	symA := &Symbol{Name: "a", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true}
	symB := &Symbol{Name: "b", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true}
	symC := &Symbol{Name: "c", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true}
	symD := &Symbol{Name: "d", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true}

	bind := func(sym *Symbol, reg Reg, lastUsed int) {
		d := e.vardescs.GetOrCreate(sym)
		d.Reg = reg
		d.LastUsed = lastUsed
	}
	bind(symA, RegAX, 10)
	bind(symB, RegCX, 3) // least recently used -- should be evicted
	bind(symC, RegDX, 7)
	bind(symD, RegBX, 5)

	got := e.GetUnused(20)
	if got != RegCX {
		t.Fatalf("GetUnused evicted %v, want %v (LRU)", got, RegCX)
	}
	if owner := e.vardescs.OwnerOf(RegCX); owner != nil {
		t.Fatalf("expected RegCX freed after eviction, still owned by %+v", owner)
	}
}

func TestEmitter_TryGetUnused_FalseWhenAllBound(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}

	for _, reg := range []Reg{RegAX, RegCX, RegDX, RegBX} {
		sym := &Symbol{Name: reg.String(), Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true}
		d := e.vardescs.GetOrCreate(sym)
		d.Reg = reg
	}
	if _, ok := e.TryGetUnused(); ok {
		t.Fatal("expected TryGetUnused to report no free register")
	}
}

func TestEmitter_SaveAndUnload_DirtyAndReferenced_EmitsStore(t *testing.T) {
	syms := NewSymbolTable()
	ir := NewIRStream()
	ir.Append(Instr{Kind: InstrReturn, HasValue: true, Value: VarOperand("v", TypeUint16, false)}) // ip 0, references "v"
	e := NewEmitter(syms, ir)
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	sym := &Symbol{Name: "v", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -4}
	d := e.vardescs.GetOrCreate(sym)
	d.Reg = RegAX
	d.IsDirty = true
	d.LastUsed = -1

	e.SaveAndUnload(RegAX, -1)

	if d.Reg != RegNone {
		t.Fatal("expected descriptor cleared after SaveAndUnload")
	}
	want := []byte{0x89, 0x46, 0xFC} // mov [bp-4], ax
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

func TestEmitter_SaveAndUnload_DirtyNotReferenced_NoStore(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 0 // nothing follows curIP, so nothing is "referenced later"

	sym := &Symbol{Name: "v", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -4}
	d := e.vardescs.GetOrCreate(sym)
	d.Reg = RegAX
	d.IsDirty = true

	e.SaveAndUnload(RegAX, 0)

	if d.Reg != RegNone {
		t.Fatal("expected descriptor cleared")
	}
	if e.buf.Len() != 0 {
		t.Fatalf("expected no bytes emitted for a dead store, got %d", e.buf.Len())
	}
}

func TestEmitter_LoadConstant_ZeroUsesXor(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.LoadConstant(0, RegAX, 2)
	want := []byte{0x31, 0xC0} // xor ax, ax
	got := e.buf.Bytes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestEmitter_LoadConstant_NonzeroUsesMov(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.LoadConstant(5, RegCX, 2)
	want := []byte{0xB9, 0x05, 0x00} // mov cx, 5
	got := e.buf.Bytes()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
