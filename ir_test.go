package main

import "testing"

func TestCompareOp_NegatedRoundTrips(t *testing.T) {
	cases := []CompareOp{CompareEq, CompareNe, CompareGt, CompareLt, CompareGe, CompareLe}
	for _, c := range cases {
		if c.Negated().Negated() != c {
			t.Fatalf("%v.Negated().Negated() != %v", c, c)
		}
	}
}

func TestCompareOp_SwappedRoundTrips(t *testing.T) {
	cases := []CompareOp{CompareEq, CompareNe, CompareGt, CompareLt, CompareGe, CompareLe}
	for _, c := range cases {
		if c.Swapped().Swapped() != c {
			t.Fatalf("%v.Swapped().Swapped() != %v", c, c)
		}
	}
}

func TestCompareOp_NegatedIsExclusive(t *testing.T) {
	want := map[CompareOp]CompareOp{
		CompareEq: CompareNe, CompareNe: CompareEq,
		CompareGt: CompareLe, CompareLe: CompareGt,
		CompareLt: CompareGe, CompareGe: CompareLt,
	}
	for c, w := range want {
		if got := c.Negated(); got != w {
			t.Fatalf("%v.Negated() = %v, want %v", c, got, w)
		}
	}
}

func TestAssignOp_IsUnary(t *testing.T) {
	if !AssignNone.IsUnary() || !AssignNegate.IsUnary() {
		t.Fatal("AssignNone/AssignNegate should be unary")
	}
	for _, op := range []AssignOp{AssignAdd, AssignSub, AssignMul, AssignDiv, AssignRem, AssignShl, AssignShr} {
		if op.IsUnary() {
			t.Fatalf("%v should not be unary", op)
		}
	}
}

func TestIRStream_AppendAndSetTarget(t *testing.T) {
	ir := NewIRStream()
	ip0 := ir.Append(Instr{Kind: InstrIf, Compare: CompareEq})
	ip1 := ir.Append(Instr{Kind: InstrReturn})
	if ip0 != 0 || ip1 != 1 {
		t.Fatalf("unexpected IPs: %d, %d", ip0, ip1)
	}
	ir.SetTarget(ip0, 5)
	if ir.At(ip0).TargetIP != 5 {
		t.Fatalf("TargetIP = %d, want 5", ir.At(ip0).TargetIP)
	}
	if ir.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ir.Len())
	}
}

func TestOperand_ConstructorsAndPredicates(t *testing.T) {
	c := ConstOperand("7", TypeUint32)
	if !c.IsConstant() || c.IsVariable() {
		t.Fatalf("ConstOperand should report IsConstant=true, IsVariable=false: %+v", c)
	}
	v := VarOperand("x", TypeUint16, true)
	if v.IsConstant() || !v.IsVariable() || !v.IsPointer {
		t.Fatalf("VarOperand should report IsVariable=true, carry IsPointer: %+v", v)
	}
}
