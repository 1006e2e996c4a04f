package dwarfframe

import "fmt"

// DWARF call frame instruction opcodes (DWARF v4/v5 §6.4.2). Only the
// subset emitted by gcc/clang/go's own eh_frame generator is
// implemented; anything else is reported through an error rather than
// causing a panic, consistent with "the builder never panics."
const (
	opAdvanceLoc       = 0x1 << 6
	opOffset           = 0x2 << 6
	opRestore          = 0x3 << 6
	opExtended         = 0x0

	opNop              = 0x00
	opSetLoc           = 0x01
	opAdvanceLoc1      = 0x02
	opAdvanceLoc2      = 0x03
	opAdvanceLoc4      = 0x04
	opOffsetExtended   = 0x05
	opRestoreExtended  = 0x06
	opUndefined        = 0x07
	opSameValue        = 0x08
	opRegister         = 0x09
	opRememberState    = 0x0a
	opRestoreState     = 0x0b
	opDefCFA           = 0x0c
	opDefCFARegister   = 0x0d
	opDefCFAOffset     = 0x0e
	opDefCFAExpression = 0x0f
	opExpression       = 0x10
	opOffsetExtendedSf = 0x11
	opDefCFASf         = 0x12
	opDefCFAOffsetSf   = 0x13
	opValOffset        = 0x14
	opValOffsetSf      = 0x15
	opValExpression    = 0x16
	opGNUArgsSize      = 0x2e
)

type cfiMachine struct {
	fde *FrameDescriptionEntry
	buf *cursor

	loc        uint64
	codeAlign  uint64
	dataAlign  int64
	ctx        *FrameContext
	stack      []*FrameContext
}

func newCFIMachine(fde *FrameDescriptionEntry) *cfiMachine {
	return &cfiMachine{
		fde:       fde,
		codeAlign: fde.CIE.CodeAlignmentFactor,
		dataAlign: fde.CIE.DataAlignmentFactor,
		ctx: &FrameContext{
			Regs:       map[uint64]DWRule{},
			RetAddrReg: fde.CIE.ReturnAddressRegister,
		},
	}
}

// run executes CIE initial instructions followed by the FDE program,
// stopping once loc has advanced past pc (or the program is
// exhausted), and returns the frame state valid at pc.
func (m *cfiMachine) run(pc uint64) (*FrameContext, error) {
	m.loc = m.fde.Begin

	if err := m.exec(newCursor(m.fde.CIE.InitialInstructions), pc); err != nil {
		return nil, err
	}
	if err := m.exec(newCursor(m.fde.Instructions), pc); err != nil {
		return nil, err
	}
	return m.snapshot(), nil
}

func (m *cfiMachine) snapshot() *FrameContext {
	cp := &FrameContext{
		CFA:        m.ctx.CFA,
		RetAddrReg: m.ctx.RetAddrReg,
		Regs:       make(map[uint64]DWRule, len(m.ctx.Regs)),
	}
	for k, v := range m.ctx.Regs {
		cp.Regs[k] = v
	}
	return cp
}

func (m *cfiMachine) exec(c *cursor, pc uint64) error {
	for !c.done() {
		if m.loc > pc {
			return nil
		}
		op := c.u8()
		hi := op & 0xc0
		lo := op & 0x3f

		switch {
		case hi == opAdvanceLoc:
			m.loc += uint64(lo) * m.codeAlign
		case hi == opOffset:
			off := c.uleb()
			m.ctx.Regs[uint64(lo)] = DWRule{Rule: RuleOffset, Offset: int64(off) * m.dataAlign}
		case hi == opRestore:
			delete(m.ctx.Regs, uint64(lo))
		default:
			switch lo {
			case opNop:
			case opSetLoc:
				m.loc = c.u64()
			case opAdvanceLoc1:
				m.loc += uint64(c.u8()) * m.codeAlign
			case opAdvanceLoc2:
				m.loc += uint64(c.u16()) * m.codeAlign
			case opAdvanceLoc4:
				m.loc += uint64(c.u32()) * m.codeAlign
			case opOffsetExtended:
				reg := c.uleb()
				off := c.uleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleOffset, Offset: int64(off) * m.dataAlign}
			case opRestoreExtended:
				delete(m.ctx.Regs, c.uleb())
			case opUndefined:
				m.ctx.Regs[c.uleb()] = DWRule{Rule: RuleUndefined}
			case opSameValue:
				m.ctx.Regs[c.uleb()] = DWRule{Rule: RuleSameVal}
			case opRegister:
				reg := c.uleb()
				src := c.uleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleRegister, Reg: src}
			case opRememberState:
				m.stack = append(m.stack, m.snapshot())
			case opRestoreState:
				if n := len(m.stack); n > 0 {
					saved := m.stack[n-1]
					m.stack = m.stack[:n-1]
					m.ctx.CFA = saved.CFA
					m.ctx.Regs = saved.Regs
				}
			case opDefCFA:
				reg := c.uleb()
				off := c.uleb()
				m.ctx.CFA = DWRule{Rule: RuleCFA, Reg: reg, Offset: int64(off)}
			case opDefCFARegister:
				m.ctx.CFA.Reg = c.uleb()
				m.ctx.CFA.Rule = RuleCFA
			case opDefCFAOffset:
				m.ctx.CFA.Offset = int64(c.uleb())
				m.ctx.CFA.Rule = RuleCFA
			case opDefCFAExpression:
				n := c.uleb()
				m.ctx.CFA = DWRule{Rule: RuleExpression, Expression: c.bytes(int(n))}
			case opExpression:
				reg := c.uleb()
				n := c.uleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleExpression, Expression: c.bytes(int(n))}
			case opOffsetExtendedSf:
				reg := c.uleb()
				off := c.sleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleOffset, Offset: off * m.dataAlign}
			case opDefCFASf:
				reg := c.uleb()
				off := c.sleb()
				m.ctx.CFA = DWRule{Rule: RuleCFA, Reg: reg, Offset: off * m.dataAlign}
			case opDefCFAOffsetSf:
				m.ctx.CFA.Offset = c.sleb() * m.dataAlign
				m.ctx.CFA.Rule = RuleCFA
			case opValOffset:
				reg := c.uleb()
				off := c.uleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleValOffset, Offset: int64(off) * m.dataAlign}
			case opValOffsetSf:
				reg := c.uleb()
				off := c.sleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleValOffset, Offset: off * m.dataAlign}
			case opValExpression:
				reg := c.uleb()
				n := c.uleb()
				m.ctx.Regs[reg] = DWRule{Rule: RuleValExpression, Expression: c.bytes(int(n))}
			case opGNUArgsSize:
				c.uleb() // consumed, not tracked
			default:
				return fmt.Errorf("dwarfframe: unsupported CFA opcode %#x", op)
			}
		}
		if c.err != nil {
			return c.err
		}
	}
	return nil
}
