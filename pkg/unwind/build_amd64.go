package unwind

import "github.com/0b01/tail2-go/pkg/dwarfframe"

// amd64Arch encodes the x86_64 System V ABI's DWARF register
// conventions: rsp is register 7, rbp is register 6, and the return
// address (whose DWARF register number is reported by the CIE, and
// is conventionally 16 for rip) sits exactly 8 bytes below the CFA
// when a function hasn't otherwise clobbered it.
type amd64Arch struct{}

// AMD64 is the x86_64 Arch.
var AMD64 Arch = amd64Arch{}

func (amd64Arch) Name() string      { return "amd64" }
func (amd64Arch) SPDivisor() int64  { return 8 }
func (amd64Arch) SPReg() uint64     { return 7 }
func (amd64Arch) FPReg() uint64     { return 6 }

func (amd64Arch) ValidateReturnAddressRule(ra dwarfframe.DWRule) *TranslationErrorKind {
	if ra.Rule == dwarfframe.RuleOffset && ra.Offset != -8 {
		kind := ReturnAddressRuleWasWeird
		return &kind
	}
	return nil
}
