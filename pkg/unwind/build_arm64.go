package unwind

import "github.com/0b01/tail2-go/pkg/dwarfframe"

// arm64Arch encodes the AArch64 PCS's DWARF register conventions: sp
// is register 31, the frame pointer x29 is register 29, and the link
// register x30 (the return-address register reported by the CIE)
// carries no architecture-specific extra constraint the way x86_64's
// push-based return address does.
type arm64Arch struct{}

// ARM64 is the AArch64 Arch.
var ARM64 Arch = arm64Arch{}

func (arm64Arch) Name() string     { return "arm64" }
func (arm64Arch) SPDivisor() int64 { return 16 }
func (arm64Arch) SPReg() uint64    { return 31 }
func (arm64Arch) FPReg() uint64    { return 29 }

func (arm64Arch) ValidateReturnAddressRule(dwarfframe.DWRule) *TranslationErrorKind {
	return nil
}
