package models

import (
	"strconv"
)

// ValueKind identifies the scalar kind held in a table cell.
type ValueKind int

const (
	// KindMissing marks an absent value. Missing cells compare equal to each
	// other during risk grouping and never equal to a real value.
	KindMissing ValueKind = iota
	KindNumber
	KindString
)

// Value is a single table cell: a number, a string, or missing.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Text   string    `json:"text,omitempty"`
}

// Num creates a numeric value
func Num(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// Str creates a string value
func Str(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// Missing creates a missing value
func Missing() Value {
	return Value{Kind: KindMissing}
}

// IsMissing reports whether the value is absent
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// AsNumber returns the numeric interpretation of the value. String cells that
// parse as a float count as numeric so dirty columns can still be bucketed.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindString:
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Format renders the value the way it is written to CSV. Missing values render
// as the empty string; numbers use the shortest exact representation.
func (v Value) Format() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindString:
		return v.Text
	default:
		return ""
	}
}

// Table is an ordered collection of rows sharing a single column set. Tables
// are immutable by convention: transforms return a new table and never modify
// the receiver.
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// NewTable creates an empty table with the given column set
func NewTable(columns []string) *Table {
	return &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]Value, 0),
	}
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the column count
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of a named column
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether the table contains a named column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// AppendRow adds a row. The row must match the column count; callers validate
// before appending.
func (t *Table) AppendRow(row []Value) {
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	clone := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(t.Rows)),
	}
	for i, row := range t.Rows {
		clone.Rows[i] = append([]Value(nil), row...)
	}
	return clone
}

// IsNumericColumn reports whether every non-missing cell in the column is a
// number and at least one such cell exists. An all-missing column is not
// numeric.
func (t *Table) IsNumericColumn(name string) bool {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return false
	}
	seen := false
	for _, row := range t.Rows {
		switch row[idx].Kind {
		case KindNumber:
			seen = true
		case KindString:
			return false
		}
	}
	return seen
}

// NumericColumns returns the names of all numeric columns in table order
func (t *Table) NumericColumns() []string {
	numeric := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if t.IsNumericColumn(col) {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

// ColumnValues returns the numeric values of a column, skipping missing cells
func (t *Table) ColumnValues(name string) []float64 {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil
	}
	values := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row[idx].Kind == KindNumber {
			values = append(values, row[idx].Number)
		}
	}
	return values
}
