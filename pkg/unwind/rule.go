// Package unwind implements the closed-form unwind rule set of the
// spec: translation of DWARF CFI rows into a handful of fixed-width
// rules (pkg/dwarfframe feeds this package), a compact address-sorted
// table of those rules, and a software walker that applies them with
// the same bounded-loop, bounded-read discipline the in-kernel
// program (bpf/tail2.bpf.c) is required to follow.
package unwind

// Kind is the tag of a closed-form UnwindRule.
type Kind uint8

const (
	// KindInvalid marks a PC range whose CFI row could not be
	// translated; the walker stops at this address and reports an
	// InvalidRule error.
	KindInvalid Kind = iota

	// KindNoOp applies only at the topmost frame, where registers are
	// unchanged. Walk takes no link-register value, so it ends the walk
	// cleanly at a NoOp row without adding a frame.
	KindNoOp

	// KindNoOpFirstFrame is NoOp's "stack ends here" twin: it behaves
	// like NoOp when is_first_frame is true, and like Done (stack
	// root reached) otherwise. DWARF's "undefined" can mean either.
	KindNoOpFirstFrame

	// KindOffsetSp: new_sp = sp + K*spDivisor; return address =
	// *(new_sp - 8), the conventional slot one word below the CFA.
	// Used when the CFA rule is a plain sp-offset and the
	// return-address rule doesn't need the first-frame gating
	// KindOffsetSpFirstFrame exists for. K is measured in spDivisor
	// units (16 on AArch64, 8 on x86_64).
	KindOffsetSp

	// KindOffsetSpFirstFrame behaves like OffsetSp (recovering the
	// return address at *(new_sp-8)) when is_first_frame is true, and
	// like Done (stack root reached) otherwise, for the same reason as
	// KindNoOpFirstFrame: DWARF's "undefined" return-address rule is
	// only safely read as "nothing saved here" once past the leaf.
	KindOffsetSpFirstFrame

	// KindOffsetSpAndRestoreReturn: new_sp = sp + K*spDivisor; return
	// address = read(new_sp + 8*RAOff).
	KindOffsetSpAndRestoreReturn

	// KindOffsetSpAndRestoreFrameAndReturn: new_sp = sp + K*spDivisor;
	// new_fp = read(new_sp + 8*FPOff); return address =
	// read(new_sp + 8*RAOff).
	KindOffsetSpAndRestoreFrameAndReturn

	// KindUseFramePointer: new_sp = fp + 16 (AArch64) / fp + 16
	// (x86_64, using the canonical push-rbp encoding); new_fp =
	// *fp; return address = *(fp + 8). On x86_64 new_sp is also
	// read directly as *(new_sp_computed - 8) per spec; both
	// formulations agree for the canonical frame-pointer prologue.
	KindUseFramePointer

	// KindUseFramePointerWithOffsets is the generalised frame-pointer
	// rule: new_sp = fp + SPOff; new_fp = read(fp + FPOff); return
	// address = read(fp + RAOff). Offsets are raw byte offsets.
	KindUseFramePointerWithOffsets
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindNoOp:
		return "NoOp"
	case KindNoOpFirstFrame:
		return "NoOpIfFirstFrameOtherwiseStackEndsHere"
	case KindOffsetSp:
		return "OffsetSp"
	case KindOffsetSpFirstFrame:
		return "OffsetSpIfFirstFrameOtherwiseStackEndsHere"
	case KindOffsetSpAndRestoreReturn:
		return "OffsetSpAndRestoreReturn"
	case KindOffsetSpAndRestoreFrameAndReturn:
		return "OffsetSpAndRestoreFrameAndReturn"
	case KindUseFramePointer:
		return "UseFramePointer"
	case KindUseFramePointerWithOffsets:
		return "UseFramePointerWithOffsets"
	default:
		return "Unknown"
	}
}

// Rule is a single closed-form unwind rule. All variants fit in the
// same fixed-width struct (one tag byte plus three int16 payload
// fields) so that Encode produces a value no larger than 16 bytes,
// satisfying the "compact binary form" requirement for installation
// into a bounded in-kernel map.
type Rule struct {
	Kind Kind
	K    int16 // OffsetSp* multiplier in spDivisor units, or SPOff in bytes for UseFramePointerWithOffsets
	A    int16 // RAOff (return-address offset)
	B    int16 // FPOff (frame-pointer offset) or FPOff for the generalised FP rule
}

// RuleSize is the fixed encoded width of a Rule, in bytes.
const RuleSize = 8

// Encode produces the fixed-width binary form of a rule.
func (r Rule) Encode() [RuleSize]byte {
	var b [RuleSize]byte
	b[0] = byte(r.Kind)
	putInt16(b[2:4], r.K)
	putInt16(b[4:6], r.A)
	putInt16(b[6:8], r.B)
	return b
}

// DecodeRule parses the fixed-width binary form produced by Encode.
func DecodeRule(b [RuleSize]byte) Rule {
	return Rule{
		Kind: Kind(b[0]),
		K:    getInt16(b[2:4]),
		A:    getInt16(b[4:6]),
		B:    getInt16(b[6:8]),
	}
}

func putInt16(b []byte, v int16) {
	b[0] = byte(uint16(v))
	b[1] = byte(uint16(v) >> 8)
}

func getInt16(b []byte) int16 {
	return int16(uint16(b[0]) | uint16(b[1])<<8)
}

// Invalid is the sentinel rule for PC ranges that could not be
// translated from DWARF CFI.
var Invalid = Rule{Kind: KindInvalid}
