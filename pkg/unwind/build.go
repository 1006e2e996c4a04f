package unwind

import "github.com/0b01/tail2-go/pkg/dwarfframe"

// Arch supplies the few architecture-specific facts the translation
// procedure needs: which DWARF register numbers are sp and fp, how
// many bytes one unit of sp offset represents, and any extra
// architecture-specific sanity check on the return-address rule.
type Arch interface {
	Name() string
	SPDivisor() int64
	SPReg() uint64
	FPReg() uint64
	ValidateReturnAddressRule(ra dwarfframe.DWRule) *TranslationErrorKind
}

func fitsInt16(v int64) bool {
	return v >= -32768 && v <= 32767
}

// Translate turns one evaluated DWARF CFI row into a closed-form
// Rule, or reports precisely why it could not.
func Translate(ctx *dwarfframe.FrameContext, pc uint64, arch Arch) (Rule, error) {
	cfa := ctx.CFA
	switch cfa.Rule {
	case dwarfframe.RuleCFA:
		switch cfa.Reg {
		case arch.SPReg():
			return translateSpCFA(ctx, pc, arch)
		case arch.FPReg():
			return translateFpCFA(ctx, pc, arch)
		default:
			return Invalid, &TranslationError{Kind: CfaIsOffsetFromUnknownRegister, PC: pc}
		}
	default:
		return Invalid, &TranslationError{Kind: CfaIsExpression, PC: pc}
	}
}

func translateSpCFA(ctx *dwarfframe.FrameContext, pc uint64, arch Arch) (Rule, error) {
	cfa := ctx.CFA
	divisor := arch.SPDivisor()
	if cfa.Offset%divisor != 0 || !fitsInt16(cfa.Offset/divisor) {
		return Invalid, &TranslationError{Kind: SpOffsetDoesNotFit, PC: pc}
	}
	k := int16(cfa.Offset / divisor)

	raRule := ctx.Regs[ctx.RetAddrReg]
	if kind := arch.ValidateReturnAddressRule(raRule); kind != nil {
		return Invalid, &TranslationError{Kind: *kind, PC: pc}
	}
	fpRule := ctx.Regs[arch.FPReg()]

	switch raRule.Rule {
	case dwarfframe.RuleUndefined:
		if fpRule.Rule != dwarfframe.RuleUndefined {
			return Invalid, &TranslationError{Kind: RestoringFpButNotLr, PC: pc}
		}
		return Rule{Kind: KindOffsetSpFirstFrame, K: k}, nil

	case dwarfframe.RuleOffset:
		if raRule.Offset%8 != 0 || !fitsInt16(raRule.Offset/8) {
			return Invalid, &TranslationError{Kind: LrStorageOffsetDoesNotFit, PC: pc}
		}
		raOff := int16(raRule.Offset / 8)

		if fpRule.Rule == dwarfframe.RuleUndefined {
			return Rule{Kind: KindOffsetSpAndRestoreReturn, K: k, A: raOff}, nil
		}
		if fpRule.Rule != dwarfframe.RuleOffset {
			return Invalid, &TranslationError{Kind: RegisterNotStoredRelativeToCfa, PC: pc}
		}
		if fpRule.Offset%8 != 0 || !fitsInt16(fpRule.Offset/8) {
			return Invalid, &TranslationError{Kind: FpStorageOffsetDoesNotFit, PC: pc}
		}
		fpOff := int16(fpRule.Offset / 8)
		return Rule{Kind: KindOffsetSpAndRestoreFrameAndReturn, K: k, A: raOff, B: fpOff}, nil

	default:
		return Invalid, &TranslationError{Kind: ReturnAddressRuleWasWeird, PC: pc}
	}
}

func translateFpCFA(ctx *dwarfframe.FrameContext, pc uint64, arch Arch) (Rule, error) {
	cfa := ctx.CFA
	raRule := ctx.Regs[ctx.RetAddrReg]
	fpRule := ctx.Regs[arch.FPReg()]

	if raRule.Rule != dwarfframe.RuleOffset {
		return Invalid, &TranslationError{Kind: FramePointerRuleDoesNotRestoreLr, PC: pc}
	}
	if fpRule.Rule != dwarfframe.RuleOffset {
		return Invalid, &TranslationError{Kind: FramePointerRuleDoesNotRestoreFp, PC: pc}
	}
	if fpRule.Offset > 0 {
		// The saved frame pointer should always live at a negative
		// offset from the current CFA; a positive offset means this
		// isn't the standard chained-frame-pointer convention.
		return Invalid, &TranslationError{Kind: FramePointerRuleHasStrangeBpOffset, PC: pc}
	}
	if !fitsInt16(cfa.Offset) {
		return Invalid, &TranslationError{Kind: SpOffsetFromFpDoesNotFit, PC: pc}
	}
	if !fitsInt16(raRule.Offset) {
		return Invalid, &TranslationError{Kind: LrStorageOffsetDoesNotFit, PC: pc}
	}
	if !fitsInt16(fpRule.Offset) {
		return Invalid, &TranslationError{Kind: FpStorageOffsetDoesNotFit, PC: pc}
	}

	spOff := int16(cfa.Offset)
	raOff := int16(raRule.Offset)
	fpOff := int16(fpRule.Offset)
	if spOff == 16 && fpOff == -16 && raOff == -8 {
		return Rule{Kind: KindUseFramePointer}, nil
	}
	return Rule{Kind: KindUseFramePointerWithOffsets, K: spOff, A: raOff, B: fpOff}, nil
}
