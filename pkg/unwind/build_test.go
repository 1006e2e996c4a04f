package unwind

import (
	"testing"

	"github.com/0b01/tail2-go/pkg/dwarfframe"
)

func TestTranslateAmd64JustReturn(t *testing.T) {
	// A typical leaf function: cfa = rsp+16, return address stored at
	// cfa-8, no frame pointer saved.
	ctx := &dwarfframe.FrameContext{
		CFA:        dwarfframe.DWRule{Rule: dwarfframe.RuleCFA, Reg: 7, Offset: 16},
		RetAddrReg: 16,
		Regs: map[uint64]dwarfframe.DWRule{
			16: {Rule: dwarfframe.RuleOffset, Offset: -8},
		},
	}
	rule, err := Translate(ctx, 0x1000, AMD64)
	if err != nil {
		t.Fatal(err)
	}
	if rule.Kind != KindOffsetSpAndRestoreReturn {
		t.Fatalf("kind = %v, want OffsetSpAndRestoreReturn", rule.Kind)
	}
	if rule.K != 2 { // 16 / 8
		t.Fatalf("K = %d, want 2", rule.K)
	}
	if rule.A != -1 { // -8 / 8
		t.Fatalf("A = %d, want -1", rule.A)
	}
}

func TestTranslateAmd64WeirdReturnOffset(t *testing.T) {
	ctx := &dwarfframe.FrameContext{
		CFA:        dwarfframe.DWRule{Rule: dwarfframe.RuleCFA, Reg: 7, Offset: 16},
		RetAddrReg: 16,
		Regs: map[uint64]dwarfframe.DWRule{
			16: {Rule: dwarfframe.RuleOffset, Offset: -24},
		},
	}
	_, err := Translate(ctx, 0x1000, AMD64)
	te, ok := err.(*TranslationError)
	if !ok || te.Kind != ReturnAddressRuleWasWeird {
		t.Fatalf("err = %v, want ReturnAddressRuleWasWeird", err)
	}
}

func TestTranslateArm64UseFramePointer(t *testing.T) {
	// Canonical AArch64 "stp x29, x30, [sp, -16]!; mov x29, sp" frame:
	// cfa = x29+16, x30 (lr) at cfa-8, x29 (fp) at cfa-16.
	ctx := &dwarfframe.FrameContext{
		CFA:        dwarfframe.DWRule{Rule: dwarfframe.RuleCFA, Reg: 29, Offset: 16},
		RetAddrReg: 30,
		Regs: map[uint64]dwarfframe.DWRule{
			30: {Rule: dwarfframe.RuleOffset, Offset: -8},
			29: {Rule: dwarfframe.RuleOffset, Offset: -16},
		},
	}
	rule, err := Translate(ctx, 0x2000, ARM64)
	if err != nil {
		t.Fatal(err)
	}
	if rule.Kind != KindUseFramePointer {
		t.Fatalf("kind = %v, want UseFramePointer", rule.Kind)
	}
}

func TestTranslateArm64OffsetSpWithFrame(t *testing.T) {
	ctx := &dwarfframe.FrameContext{
		CFA:        dwarfframe.DWRule{Rule: dwarfframe.RuleCFA, Reg: 31, Offset: 32},
		RetAddrReg: 30,
		Regs: map[uint64]dwarfframe.DWRule{
			30: {Rule: dwarfframe.RuleOffset, Offset: -8},
			29: {Rule: dwarfframe.RuleOffset, Offset: -16},
		},
	}
	rule, err := Translate(ctx, 0x2000, ARM64)
	if err != nil {
		t.Fatal(err)
	}
	if rule.Kind != KindOffsetSpAndRestoreFrameAndReturn {
		t.Fatalf("kind = %v, want OffsetSpAndRestoreFrameAndReturn", rule.Kind)
	}
	if rule.K != 2 { // 32 / 16
		t.Fatalf("K = %d, want 2", rule.K)
	}
}

func TestTranslateSpOffsetDoesNotFit(t *testing.T) {
	ctx := &dwarfframe.FrameContext{
		CFA:        dwarfframe.DWRule{Rule: dwarfframe.RuleCFA, Reg: 7, Offset: 8<<20 + 3}, // not a multiple of 8
		RetAddrReg: 16,
		Regs:       map[uint64]dwarfframe.DWRule{},
	}
	_, err := Translate(ctx, 0x1000, AMD64)
	te, ok := err.(*TranslationError)
	if !ok || te.Kind != SpOffsetDoesNotFit {
		t.Fatalf("err = %v, want SpOffsetDoesNotFit", err)
	}
}

func TestTranslateCfaIsExpression(t *testing.T) {
	ctx := &dwarfframe.FrameContext{
		CFA: dwarfframe.DWRule{Rule: dwarfframe.RuleExpression, Expression: []byte{0x03}},
	}
	_, err := Translate(ctx, 0x1000, AMD64)
	te, ok := err.(*TranslationError)
	if !ok || te.Kind != CfaIsExpression {
		t.Fatalf("err = %v, want CfaIsExpression", err)
	}
}

func TestTranslateUndefinedReturnIsLeaf(t *testing.T) {
	ctx := &dwarfframe.FrameContext{
		CFA:        dwarfframe.DWRule{Rule: dwarfframe.RuleCFA, Reg: 7, Offset: 8},
		RetAddrReg: 16,
		Regs:       map[uint64]dwarfframe.DWRule{},
	}
	rule, err := Translate(ctx, 0x1000, AMD64)
	if err != nil {
		t.Fatal(err)
	}
	if rule.Kind != KindOffsetSpFirstFrame {
		t.Fatalf("kind = %v, want OffsetSpFirstFrame", rule.Kind)
	}
}
