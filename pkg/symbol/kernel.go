package symbol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// KernelSymbols resolves kernel instruction addresses (as produced by
// the kernel's own stack-trace map) against /proc/kallsyms.
type KernelSymbols struct {
	table SymbolTable
}

// LoadKernelSymbols parses /proc/kallsyms. Unresolvable addresses
// (value 0, printed for unprivileged readers under kptr_restrict) are
// skipped rather than treated as an error, since a restricted kernel
// symbol file is a common, expected configuration.
func LoadKernelSymbols() (*KernelSymbols, error) {
	f, err := os.Open("/proc/kallsyms")
	if err != nil {
		return nil, fmt.Errorf("symbol: opening /proc/kallsyms: %w", err)
	}
	defer f.Close()
	return parseKallsyms(f)
}

func parseKallsyms(r io.Reader) (*KernelSymbols, error) {
	var table SymbolTable
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		addr, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil || addr == 0 {
			continue
		}
		kind := fields[1]
		// Only function symbols are useful for stack resolution: text
		// (t/T), weak text (w/W).
		switch kind {
		case "t", "T", "w", "W":
		default:
			continue
		}
		table = append(table, Symbol{Name: fields[2], Value: addr})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("symbol: reading kallsyms: %w", err)
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Value < table[j].Value })
	for i := range table {
		if i+1 < len(table) {
			table[i].Size = table[i+1].Value - table[i].Value
		}
	}
	return &KernelSymbols{table: table}, nil
}

// Resolve returns the name of the kernel function containing addr, or
// false if addr falls outside every known symbol's range.
func (k *KernelSymbols) Resolve(addr uint64) (string, bool) {
	s, ok := k.table.Lookup(addr)
	if !ok {
		return "", false
	}
	return s.Name, true
}
