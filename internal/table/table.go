// Package table holds the in-memory tabular data model produced by ingestion.
// A Table is immutable once returned by the parser; every analysis stage reads it
// without copying.
package table

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the storage representation inferred for a column at ingestion time.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int64"
	case KindFloat:
		return "float64"
	case KindBool:
		return "bool"
	case KindTime:
		return "datetime64"
	default:
		return "object"
	}
}

// IsNumeric reports whether the storage kind is an integer or floating-point kind.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// Column is one named, typed column. Values is populated for numeric kinds and
// holds NaN at missing positions. Text always carries the trimmed source cell.
type Column struct {
	Name   string
	Kind   Kind
	Values []float64
	Text   []string
	Null   []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Text) }

// MissingCount counts cells flagged as missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}
	return n
}

// NonMissing returns the numeric values of the column with missing cells dropped.
// It returns nil for non-numeric columns.
func (c *Column) NonMissing() []float64 {
	if !c.Kind.IsNumeric() {
		return nil
	}
	out := make([]float64, 0, len(c.Values))
	for i, v := range c.Values {
		if c.Null[i] || math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Cell returns the display text of row i; missing cells render as "NaN".
func (c *Column) Cell(i int) string {
	if i < 0 || i >= len(c.Text) {
		return ""
	}
	if c.Null[i] {
		return "NaN"
	}
	return c.Text[i]
}

// Table is an ordered set of equally long columns.
type Table struct {
	Name string
	Rows int
	// TotalRows counts data rows in the source, including rows dropped by a row limit.
	TotalRows int
	Columns   []*Column
}

// Truncated reports whether ingestion kept fewer rows than the source held.
func (t *Table) Truncated() bool { return t.TotalRows > t.Rows }

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the header in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Head returns up to n rows of display text, in column order.
func (t *Table) Head(n int) [][]string {
	if n > t.Rows {
		n = t.Rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = c.Cell(i)
		}
		rows[i] = row
	}
	return rows
}

// Validate checks the uniform-length invariant.
func (t *Table) Validate() error {
	for _, c := range t.Columns {
		if c.Len() != t.Rows || len(c.Null) != t.Rows {
			return fmt.Errorf("column %q has %d cells, table has %d rows", c.Name, c.Len(), t.Rows)
		}
		if c.Kind.IsNumeric() && len(c.Values) != t.Rows {
			return fmt.Errorf("column %q has %d numeric values, table has %d rows", c.Name, len(c.Values), t.Rows)
		}
	}
	return nil
}

// missingTokens mirrors the common pandas NA markers.
var missingTokens = map[string]struct{}{
	"":      {},
	"na":    {},
	"n/a":   {},
	"nan":   {},
	"-nan":  {},
	"null":  {},
	"none":  {},
	"#n/a":  {},
	"<na>":  {},
	"#null": {},
}

// IsMissingToken is the single missing-value predicate: a cell is missing when its
// trimmed text is empty or one of the NA markers above (case-insensitive).
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
