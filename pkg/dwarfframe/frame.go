// Package dwarfframe parses DWARF Call Frame Information (CIE/FDE
// records, typically found in the .eh_frame or .debug_frame sections
// of an ELF object) and evaluates it into a closed-form FrameContext
// for a given program counter.
//
// The public contract mirrors the one delve's pkg/proc/stack.go
// expects of a frame package: FrameContext, DWRule, the
// Rule* constants, FrameDescriptionEntries.FDEForPC and
// FrameDescriptionEntry.EstablishFrame.
package dwarfframe

import "fmt"

// Rule is the kind of DWARF register-recovery rule.
type Rule uint8

const (
	RuleUndefined Rule = iota
	RuleSameVal
	RuleOffset
	RuleValOffset
	RuleRegister
	RuleExpression
	RuleValExpression
	RuleArchitectural
	RuleCFA
	RuleFramePointer
)

// DWRule is one register's recovery rule relative to the CFA, or a
// register number, or a DWARF expression.
type DWRule struct {
	Rule       Rule
	Offset     int64
	Reg        uint64
	Expression []byte
}

// FrameContext is the evaluated state of every tracked register (and
// the CFA pseudo-register) at a particular PC.
type FrameContext struct {
	CFA        DWRule
	Regs       map[uint64]DWRule
	RetAddrReg uint64

	cie *CommonInformationEntry
	fde *FrameDescriptionEntry
}

// ErrNoFDEForPC is returned by FDEForPC when no FDE covers the
// requested address.
type ErrNoFDEForPC struct {
	PC uint64
}

func (e *ErrNoFDEForPC) Error() string {
	return fmt.Sprintf("could not find FDE for PC %#x", e.PC)
}

// CommonInformationEntry holds the fields shared by a set of FDEs.
type CommonInformationEntry struct {
	Length                uint64
	CIE_id                uint64
	Version                uint8
	Augmentation           string
	CodeAlignmentFactor    uint64
	DataAlignmentFactor    int64
	ReturnAddressRegister  uint64
	InitialInstructions    []byte
	FDEPointerEncoding     uint8
	staticBase             uint64
}

// FrameDescriptionEntry describes the unwind program for one
// contiguous range of addresses.
type FrameDescriptionEntry struct {
	Begin, End uint64
	CIE        *CommonInformationEntry
	Instructions []byte
}

// Cover reports whether pc falls inside this FDE's address range.
func (fde *FrameDescriptionEntry) Cover(pc uint64) bool {
	return fde.Begin <= pc && pc < fde.End
}

// EstablishFrame runs the CIE's initial instructions followed by the
// FDE's instructions, stopping at the row that covers pc, and returns
// the resulting FrameContext.
func (fde *FrameDescriptionEntry) EstablishFrame(pc uint64) (*FrameContext, error) {
	m := newCFIMachine(fde)
	ctx, err := m.run(pc)
	if err != nil {
		return nil, err
	}
	ctx.cie = fde.CIE
	ctx.fde = fde
	return ctx, nil
}

// FrameDescriptionEntries is a collection of FDEs in section order,
// analogous to delve's frame.FrameDescriptionEntries.
type FrameDescriptionEntries []*FrameDescriptionEntry

// FDEForPC performs a linear scan for the FDE covering pc. The
// number of FDEs in a single object is small enough (thousands, not
// millions) that this need not be a binary search; the index-based
// binary search bound by MAX_ROWS lives in pkg/unwind, which is the
// structure actually installed into the in-kernel map.
func (fdes FrameDescriptionEntries) FDEForPC(pc uint64) (*FrameDescriptionEntry, error) {
	for _, fde := range fdes {
		if fde.Cover(pc) {
			return fde, nil
		}
	}
	return nil, &ErrNoFDEForPC{PC: pc}
}
