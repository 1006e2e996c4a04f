package dwarfframe

import "fmt"

// DWARF exception-header pointer encoding bytes (LSB Core spec §10.5).
const (
	peOmit    = 0xff
	peAbsptr  = 0x00
	peUleb128 = 0x01
	peUdata2  = 0x02
	peUdata4  = 0x03
	peUdata8  = 0x04
	peSleb128 = 0x09
	peSdata2  = 0x0a
	peSdata4  = 0x0b
	peSdata8  = 0x0c

	peApplMask  = 0x70
	peAbsApp    = 0x00
	pePcRelApp  = 0x10
	peDataRelApp = 0x30
)

// ParseEHFrame parses the bytes of an ELF .eh_frame section into
// FrameDescriptionEntry values, in the order they appear in the
// section (they are not sorted by address). sectionAddr is the
// static virtual address (SVMA) of the start of the section, used to
// resolve DW_EH_PE_pcrel-encoded pointers.
func ParseEHFrame(data []byte, sectionAddr uint64, ptrSize int) (FrameDescriptionEntries, error) {
	p := &parser{data: data, sectionAddr: sectionAddr, ptrSize: ptrSize, cies: map[int]*CommonInformationEntry{}}
	return p.parse()
}

type parser struct {
	data        []byte
	sectionAddr uint64
	ptrSize     int
	cies        map[int]*CommonInformationEntry
}

func (p *parser) parse() (FrameDescriptionEntries, error) {
	var fdes FrameDescriptionEntries
	off := 0
	for off < len(p.data) {
		recordStart := off
		c := newCursor(p.data[off:])
		length := c.u32()
		if c.err != nil {
			break
		}
		if length == 0 {
			// zero terminator record
			break
		}
		if length == 0xffffffff {
			return nil, fmt.Errorf("dwarfframe: 64-bit DWARF eh_frame not supported")
		}
		bodyStart := off + 4
		bodyEnd := bodyStart + int(length)
		if bodyEnd > len(p.data) {
			return nil, fmt.Errorf("dwarfframe: record at offset %d overruns section", recordStart)
		}
		body := p.data[bodyStart:bodyEnd]
		bc := newCursor(body)
		id := bc.u32()
		if bc.err != nil {
			return nil, bc.err
		}

		if id == 0 {
			cie, err := p.parseCIE(body[4:], recordStart)
			if err != nil {
				return nil, err
			}
			p.cies[recordStart] = cie
		} else {
			// In .eh_frame the CIE pointer is the distance, subtracted
			// from the address of the id field itself, to the start of
			// the CIE record.
			ciePos := bodyStart - int(id)
			cie, ok := p.cies[ciePos]
			if !ok {
				return nil, fmt.Errorf("dwarfframe: FDE at %d references unknown CIE at %d", recordStart, ciePos)
			}
			fde, err := p.parseFDE(body[4:], cie, bodyStart+4)
			if err != nil {
				return nil, err
			}
			fdes = append(fdes, fde)
		}

		off = bodyEnd
	}
	return fdes, nil
}

func (p *parser) parseCIE(body []byte, recordStart int) (*CommonInformationEntry, error) {
	c := newCursor(body)
	cie := &CommonInformationEntry{staticBase: p.sectionAddr}
	cie.Version = c.u8()
	cie.Augmentation = c.cstring()

	cie.CodeAlignmentFactor = c.uleb()
	cie.DataAlignmentFactor = c.sleb()
	if cie.Version == 1 {
		cie.ReturnAddressRegister = uint64(c.u8())
	} else {
		cie.ReturnAddressRegister = c.uleb()
	}

	cie.FDEPointerEncoding = peAbsptr
	if len(cie.Augmentation) > 0 && cie.Augmentation[0] == 'z' {
		augLen := c.uleb()
		augStart := c.off
		for _, ch := range cie.Augmentation[1:] {
			switch ch {
			case 'R':
				cie.FDEPointerEncoding = c.u8()
			case 'P':
				enc := c.u8()
				if _, err := p.readEncodedPointer(c, enc, p.sectionAddr+uint64(recordStart)); err != nil {
					return nil, err
				}
			case 'L':
				c.u8() // LSDA encoding byte, not otherwise used
			case 'S', 'B', 'G':
				// signal frame / BTI / MTE markers: no operand
			}
		}
		// Skip to the end of the augmentation data regardless of
		// whether every letter above was understood.
		c.off = augStart + int(augLen)
	}
	if c.err != nil {
		return nil, c.err
	}
	cie.InitialInstructions = append([]byte{}, body[c.off:]...)
	return cie, nil
}

func (p *parser) parseFDE(body []byte, cie *CommonInformationEntry, fieldsStart int) (*FrameDescriptionEntry, error) {
	c := newCursor(body)
	pcRelBase := p.sectionAddr + uint64(fieldsStart)
	begin, err := p.readEncodedPointer(c, cie.FDEPointerEncoding, pcRelBase)
	if err != nil {
		return nil, err
	}
	rangeLen, err := p.readEncodedPointer(c, cie.FDEPointerEncoding&0x0f, 0)
	if err != nil {
		return nil, err
	}

	if len(cie.Augmentation) > 0 && cie.Augmentation[0] == 'z' {
		augLen := c.uleb()
		c.off += int(augLen)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &FrameDescriptionEntry{
		Begin:        begin,
		End:          begin + rangeLen,
		CIE:          cie,
		Instructions: append([]byte{}, body[c.off:]...),
	}, nil
}

// readEncodedPointer decodes one DW_EH_PE-encoded value. pcRelBase is
// the address of the encoded field itself, used only when the
// application part of the encoding is pePcRelApp.
func (p *parser) readEncodedPointer(c *cursor, encoding uint8, pcRelBase uint64) (uint64, error) {
	if encoding == peOmit {
		return 0, nil
	}
	appl := encoding & peApplMask
	size := encoding & 0x0f

	var v uint64
	var signed bool
	switch size {
	case peAbsptr:
		if p.ptrSize == 4 {
			v = uint64(c.u32())
		} else {
			v = c.u64()
		}
	case peUdata2:
		v = uint64(c.u16())
	case peUdata4:
		v = uint64(c.u32())
	case peUdata8:
		v = c.u64()
	case peSdata2:
		v = uint64(int64(int16(c.u16())))
		signed = true
	case peSdata4:
		v = uint64(int64(int32(c.u32())))
		signed = true
	case peSdata8:
		v = uint64(int64(c.u64()))
		signed = true
	case peUleb128:
		v = c.uleb()
	case peSleb128:
		v = uint64(c.sleb())
		signed = true
	default:
		return 0, fmt.Errorf("dwarfframe: unsupported pointer encoding size %#x", size)
	}
	if c.err != nil {
		return 0, c.err
	}

	switch appl {
	case peAbsApp:
		return v, nil
	case pePcRelApp:
		if signed {
			return uint64(int64(pcRelBase) + int64(v)), nil
		}
		return pcRelBase + v, nil
	case peDataRelApp:
		// Relative to the start of the containing section; callers
		// that need this (rare for FDE begin/range) get a best-effort
		// section-relative value.
		return p.sectionAddr + v, nil
	default:
		return 0, fmt.Errorf("dwarfframe: unsupported pointer application %#x", appl)
	}
}
