package main

import "testing"

func TestEmitIf_ConstantFoldTaken_EmitsUnconditionalJump(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrIf, Compare: CompareEq, A: ConstOperand("7", TypeUint32), B: ConstOperand("7", TypeUint32), TargetIP: 50}
	e.emitIf(0, ins)

	got := e.buf.Bytes()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != 0xE9 {
		t.Fatalf("opcode = %#x, want 0xE9 (jmp rel16)", got[0])
	}
	if e.backpatch.Count() != 1 {
		t.Fatalf("expected 1 pending Rel16 backpatch, got %d", e.backpatch.Count())
	}
}

func TestEmitIf_ConstantFoldNotTaken_EmitsNothing(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1

	ins := Instr{Kind: InstrIf, Compare: CompareEq, A: ConstOperand("7", TypeUint32), B: ConstOperand("8", TypeUint32), TargetIP: 50}
	e.emitIf(0, ins)

	if e.buf.Len() != 0 {
		t.Fatalf("expected no bytes emitted, got %d", e.buf.Len())
	}
}

func TestEmitIf_ConstantFoldTaken_SingleStepEliminated(t *testing.T) {
	e := NewEmitter(NewSymbolTable(), NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 2

	ins := Instr{Kind: InstrIf, Compare: CompareEq, A: ConstOperand("1", TypeUint32), B: ConstOperand("1", TypeUint32), TargetIP: 1}
	e.emitIf(0, ins)

	if e.buf.Len() != 0 {
		t.Fatalf("expected single-step jump eliminated, got %d bytes", e.buf.Len())
	}
}

func TestEmitIf_VariableCompare_BackwardTarget(t *testing.T) {
	syms := NewSymbolTable()
	syms.Declare(&Symbol{Name: "i", Kind: SymScalarVar, ScalarType: TypeUint16, Parent: "f", HasParent: true, OffsetOrSize: -2})
	e := NewEmitter(syms, NewIRStream())
	e.fn = &Symbol{Name: "f", Kind: SymFunction}
	e.fnEndIP = 1
	e.ipSrcToDst[0] = 0 // backward target already emitted at byte offset 0

	ins := Instr{Kind: InstrIf, Compare: CompareGe, A: VarOperand("i", TypeUint16, false), B: ConstOperand("10", TypeUint16), TargetIP: 0}
	e.emitIf(5, ins)

	got := e.buf.Bytes()
	if len(got) < 9 {
		t.Fatalf("too few bytes emitted: % x", got)
	}
	// load i from [bp-2] into ax
	if got[0] != 0x8B || got[1] != 0x46 || got[2] != 0xFE {
		t.Fatalf("load sequence = % x, want load [bp-2] into ax", got[:3])
	}
	// cmp ax, imm16 10
	if got[3] != 0x81 {
		t.Fatalf("expected CMP r/m,imm16 opcode 0x81, got %#x", got[3])
	}
	if jcc := got[7]; jcc != 0x7D { // JGE
		t.Fatalf("condition code = %#x, want 0x7D (JGE)", jcc)
	}
}

func TestInvertConditionCode(t *testing.T) {
	pairs := map[byte]byte{0x74: 0x75, 0x75: 0x74, 0x7F: 0x7E, 0x7E: 0x7F, 0x7C: 0x7D, 0x7D: 0x7C}
	for cc, want := range pairs {
		if got := invertConditionCode(cc); got != want {
			t.Fatalf("invertConditionCode(%#x) = %#x, want %#x", cc, got, want)
		}
	}
}
