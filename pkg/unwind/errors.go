package unwind

import "fmt"

// TranslationErrorKind enumerates every reason a DWARF CFI row can
// fail to translate into a closed-form Rule.
type TranslationErrorKind uint8

const (
	CfaIsExpression TranslationErrorKind = iota
	CfaIsOffsetFromUnknownRegister
	ReturnAddressRuleWithUnexpectedOffset
	ReturnAddressRuleWasWeird
	SpOffsetDoesNotFit
	RegisterNotStoredRelativeToCfa
	RestoringFpButNotLr
	LrStorageOffsetDoesNotFit
	FpStorageOffsetDoesNotFit
	SpOffsetFromFpDoesNotFit
	FramePointerRuleDoesNotRestoreLr
	FramePointerRuleDoesNotRestoreFp
	FramePointerRuleHasStrangeBpOffset
)

func (k TranslationErrorKind) String() string {
	switch k {
	case CfaIsExpression:
		return "CfaIsExpression"
	case CfaIsOffsetFromUnknownRegister:
		return "CfaIsOffsetFromUnknownRegister"
	case ReturnAddressRuleWithUnexpectedOffset:
		return "ReturnAddressRuleWithUnexpectedOffset"
	case ReturnAddressRuleWasWeird:
		return "ReturnAddressRuleWasWeird"
	case SpOffsetDoesNotFit:
		return "SpOffsetDoesNotFit"
	case RegisterNotStoredRelativeToCfa:
		return "RegisterNotStoredRelativeToCfa"
	case RestoringFpButNotLr:
		return "RestoringFpButNotLr"
	case LrStorageOffsetDoesNotFit:
		return "LrStorageOffsetDoesNotFit"
	case FpStorageOffsetDoesNotFit:
		return "FpStorageOffsetDoesNotFit"
	case SpOffsetFromFpDoesNotFit:
		return "SpOffsetFromFpDoesNotFit"
	case FramePointerRuleDoesNotRestoreLr:
		return "FramePointerRuleDoesNotRestoreLr"
	case FramePointerRuleDoesNotRestoreFp:
		return "FramePointerRuleDoesNotRestoreFp"
	case FramePointerRuleHasStrangeBpOffset:
		return "FramePointerRuleHasStrangeBpOffset"
	default:
		return "Unknown"
	}
}

// TranslationError reports why a CFI row at a given PC could not be
// turned into a closed-form Rule.
type TranslationError struct {
	Kind TranslationErrorKind
	PC   uint64
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("unwind: cannot translate CFI at pc %#x: %s", e.PC, e.Kind)
}

// WalkErrorKind enumerates every reason the software walker stops a
// stack trace before reaching its natural root.
type WalkErrorKind uint8

const (
	InvalidRule WalkErrorKind = iota
	CouldNotReadStack
	FramepointerUnwindingMovedBackwards
	DidNotAdvance
	IntegerOverflow
	ReturnAddressIsNull
)

func (k WalkErrorKind) String() string {
	switch k {
	case InvalidRule:
		return "InvalidRule"
	case CouldNotReadStack:
		return "CouldNotReadStack"
	case FramepointerUnwindingMovedBackwards:
		return "FramepointerUnwindingMovedBackwards"
	case DidNotAdvance:
		return "DidNotAdvance"
	case IntegerOverflow:
		return "IntegerOverflow"
	case ReturnAddressIsNull:
		return "ReturnAddressIsNull"
	default:
		return "Unknown"
	}
}

// WalkError reports why the walker stopped at a given stack address.
type WalkError struct {
	Kind WalkErrorKind
	Addr uint64
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("unwind: walk stopped at %#x: %s", e.Addr, e.Kind)
}
