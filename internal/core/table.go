package core

// table.go defines the in-memory table the cleaner operates on.
//
// Cells are loosely typed because the raw table comes straight from CSV text:
// a cell is either missing, a text value, or a number. Numeric stages convert
// text cells to numbers; everything else is left as text.

import (
	"math"
	"strings"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindText
	KindNumber
)

// Value is a single table cell. The zero Value is missing.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Missing returns a missing cell.
func Missing() Value {
	return Value{}
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric cell. NaN is stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Kind returns the cell kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNumber reports whether the cell holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsText reports whether the cell holds text.
func (v Value) IsText() bool { return v.kind == KindText }

// Float returns the numeric value and whether the cell is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String returns the textual form written to CSV.
// Missing cells render as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// Row maps column name to cell. Absent keys read as missing.
type Row map[string]Value

// Table is an ordered set of columns and rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Append adds a row to the table.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// HasColumns reports whether every named column is present.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if !t.HasColumn(n) {
			return false
		}
	}
	return true
}

// PresentColumns filters names down to those present, keeping their order.
func (t *Table) PresentColumns(names []string) []string {
	var out []string
	for _, n := range names {
		if t.HasColumn(n) {
			out = append(out, n)
		}
	}
	return out
}

// Column returns the cells of one column in row order.
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// DropColumns removes the named columns from the header and every row.
func (t *Table) DropColumns(names ...string) {
	if len(names) == 0 {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	t.Columns = kept

	for _, r := range t.Rows {
		for n := range drop {
			delete(r, n)
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(c.Columns, t.Columns)
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		c.Rows[i] = nr
	}
	return c
}

// rowKey builds a key identifying a row by the textual form of every column.
// Missing cells compare equal to each other and differ from empty text.
func (t *Table) rowKey(r Row) string {
	var b strings.Builder
	for _, c := range t.Columns {
		v := r[c]
		if v.IsMissing() {
			b.WriteByte('m')
		} else {
			b.WriteByte('v')
			b.WriteString(v.String())
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}
