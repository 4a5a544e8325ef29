// Package explain computes per-feature attributions for model predictions.
package explain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Background is the frozen reference sample used as the neutral baseline
// for attribution. Loaded once at startup, read-only, identical across
// calls.
type Background struct {
	columns []string
	index   map[string]int
	rows    [][]float64
}

// NewBackground builds a background set from column names and row values.
// Rows must all have one value per column; an empty set is representable
// but will be rejected by the attributor.
func NewBackground(columns []string, rows [][]float64) (*Background, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("explain: background has no columns")
	}

	b := &Background{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]float64, len(rows)),
	}
	copy(b.columns, columns)

	for i, c := range columns {
		if _, dup := b.index[c]; dup {
			return nil, fmt.Errorf("explain: duplicate background column %q", c)
		}
		b.index[c] = i
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("explain: background row %d has %d values, expected %d",
				i, len(row), len(columns))
		}
		b.rows[i] = make([]float64, len(row))
		copy(b.rows[i], row)
	}

	return b, nil
}

// Rows returns the number of reference records.
func (b *Background) Rows() int {
	return len(b.rows)
}

// Columns returns the background column names. The slice is a copy.
func (b *Background) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}

// HasColumn reports whether the background carries the named column.
func (b *Background) HasColumn(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Means returns per-column means in the requested column order.
func (b *Background) Means(order []string) ([]float64, error) {
	if len(b.rows) == 0 {
		return nil, fmt.Errorf("explain: background set is empty")
	}

	means := make([]float64, len(order))
	col := make([]float64, len(b.rows))

	for i, name := range order {
		idx, ok := b.index[name]
		if !ok {
			return nil, fmt.Errorf("explain: background is missing column %q", name)
		}
		for r, row := range b.rows {
			col[r] = row[idx]
		}
		means[i] = stat.Mean(col, nil)
	}

	return means, nil
}
