// Package symbol turns raw program counters from a native stack
// sample into human-readable frames: it loads each mapped
// executable's unwind table and symbol table once, then resolves
// addresses against its symbol table, caching the work per file path.
package symbol

import (
	"debug/elf"
	"fmt"
	"sort"

	"github.com/0b01/tail2-go/pkg/dwarfframe"
	"github.com/0b01/tail2-go/pkg/unwind"
)

// MaxEHFrameSize bounds how large a .eh_frame section a Module will
// load; LoadModule rejects a file whose section is larger.
const MaxEHFrameSize = 512 << 10

// Module is what the profiler needs to resolve and unwind addresses
// from one ELF file on disk: its unwind table and its function symbol
// table. It holds no load bias; the Symbolizer derives each address's
// file offset from the process mapping it falls in.
type Module struct {
	Path string

	ehFrameAddr uint64
	table       *unwind.Table
	arch        unwind.Arch
	symbols     SymbolTable
}

// LoadModule parses path's ELF file, builds an unwind table from its
// .eh_frame section, and indexes its symbol table. arch selects which
// CFA/register convention to translate DWARF CFI rows into.
func LoadModule(path string, arch unwind.Arch) (*Module, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("symbol: opening %s: %w", path, err)
	}
	defer f.Close()

	ehFrame := f.Section(".eh_frame")
	if ehFrame == nil {
		return nil, fmt.Errorf("symbol: %s has no .eh_frame section", path)
	}
	if ehFrame.Size > MaxEHFrameSize {
		return nil, fmt.Errorf("symbol: %s .eh_frame is %d bytes, exceeds %d byte limit", path, ehFrame.Size, MaxEHFrameSize)
	}
	data, err := ehFrame.Data()
	if err != nil {
		return nil, fmt.Errorf("symbol: reading .eh_frame of %s: %w", path, err)
	}

	ptrSize := 8
	if f.Class == elf.ELFCLASS32 {
		ptrSize = 4
	}

	fdes, err := dwarfframe.ParseEHFrame(data, ehFrame.Addr, ptrSize)
	if err != nil {
		return nil, fmt.Errorf("symbol: parsing .eh_frame of %s: %w", path, err)
	}

	rows := make([]unwind.Row, 0, len(fdes))
	for _, fde := range fdes {
		ctx, err := fde.EstablishFrame(fde.Begin)
		if err != nil {
			continue
		}
		rule, err := unwind.Translate(ctx, fde.Begin, arch)
		if err != nil {
			continue
		}
		rows = append(rows, unwind.Row{Addr: fde.Begin, Rule: rule})
	}
	table, err := unwind.NewTable(rows)
	if err != nil {
		return nil, fmt.Errorf("symbol: building unwind table for %s: %w", path, err)
	}

	symbols, err := loadSymbolTable(f)
	if err != nil {
		return nil, fmt.Errorf("symbol: loading symbol table of %s: %w", path, err)
	}

	return &Module{
		Path:        path,
		ehFrameAddr: ehFrame.Addr,
		table:       table,
		arch:        arch,
		symbols:     symbols,
	}, nil
}

// Table returns the module's unwind table.
func (m *Module) Table() *unwind.Table {
	return m.table
}

// Symbols returns the module's function symbol table.
func (m *Module) Symbols() SymbolTable {
	return m.symbols
}

// Symbol is one named, sized function symbol from an ELF symbol table.
type Symbol struct {
	Name  string
	Value uint64
	Size  uint64
}

// SymbolTable is a Value-sorted slice of Symbol supporting address
// lookup by nearest-preceding start address.
type SymbolTable []Symbol

func loadSymbolTable(f *elf.File) (SymbolTable, error) {
	syms, err := f.Symbols()
	if err != nil && len(syms) == 0 {
		// A stripped binary or one with only dynamic symbols is not an
		// error: fall back to .dynsym.
		syms, err = f.DynamicSymbols()
		if err != nil {
			return nil, nil
		}
	}
	out := make(SymbolTable, 0, len(syms))
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value == 0 {
			continue
		}
		out = append(out, Symbol{Name: s.Name, Value: s.Value, Size: s.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// Lookup returns the symbol whose range contains addr, if any.
func (t SymbolTable) Lookup(addr uint64) (Symbol, bool) {
	i := sort.Search(len(t), func(i int) bool { return t[i].Value > addr })
	if i == 0 {
		return Symbol{}, false
	}
	s := t[i-1]
	if s.Size != 0 && addr >= s.Value+s.Size {
		return Symbol{}, false
	}
	return s, true
}
