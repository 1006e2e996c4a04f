package unwind

import "sort"

// Row is one entry of an UnwindTable: the rule that applies from Addr
// (inclusive) up to the next row's Addr (exclusive).
type Row struct {
	Addr uint64
	Rule Rule
}

// MaxRows bounds the number of rows a single UnwindTable may hold.
// This mirrors the fixed-capacity map the in-kernel program looks
// rows up in; a table built for an object with more FDEs than this is
// rejected rather than silently truncated.
const MaxRows = 131072

// Table is an address-sorted, gapless sequence of unwind rows for one
// module. Lookup performs a bounded binary search, matching the
// lookup the in-kernel program performs against its installed copy.
type Table struct {
	Rows []Row
}

// NewTable builds a Table from rows in arbitrary order, sorting them
// by address. It returns an error if the result would exceed MaxRows.
func NewTable(rows []Row) (*Table, error) {
	if len(rows) > MaxRows {
		return nil, errTooManyRows(len(rows))
	}
	cp := append([]Row(nil), rows...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Addr < cp[j].Addr })
	return &Table{Rows: cp}, nil
}

type errTooManyRows int

func (e errTooManyRows) Error() string {
	return "unwind: table has more rows than the installed map can hold"
}

// Lookup returns the row whose range covers pc: the greatest row with
// Addr <= pc, clamped to the first row for any pc below the table's
// lowest address (there is no gap before row 0; it covers everything
// up to its successor). It reports false only for an empty table.
func (t *Table) Lookup(pc uint64) (Row, bool) {
	rows := t.Rows
	n := len(rows)
	if n == 0 {
		return Row{}, false
	}
	// sort.Search finds the first index for which rows[i].Addr > pc;
	// the covering row, if any, is the one just before it.
	i := sort.Search(n, func(i int) bool { return rows[i].Addr > pc })
	if i == 0 {
		return rows[0], true
	}
	return rows[i-1], true
}
