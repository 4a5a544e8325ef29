// Package feature assembles and validates fixed-schema feature vectors.
package feature

import (
	"fmt"

	"github.com/fraudlens/fraudlens/internal/domain"
)

// Vector is a single-row tabular structure: named numeric columns in an
// arbitrary order. Column order is fixed later by the scorer against the
// model's recorded feature ordering.
type Vector struct {
	names  []string
	values []float64
	index  map[string]int
}

// NewVector builds a vector from parallel name/value slices.
// The slices are copied; the caller keeps ownership of its own.
func NewVector(names []string, values []float64) (*Vector, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("feature: %d names but %d values", len(names), len(values))
	}

	v := &Vector{
		names:  make([]string, len(names)),
		values: make([]float64, len(values)),
		index:  make(map[string]int, len(names)),
	}
	copy(v.names, names)
	copy(v.values, values)

	for i, n := range names {
		if _, dup := v.index[n]; dup {
			return nil, fmt.Errorf("feature: duplicate column %q", n)
		}
		v.index[n] = i
	}
	return v, nil
}

// Len returns the number of columns.
func (v *Vector) Len() int {
	return len(v.names)
}

// Names returns the column names in storage order. The slice is a copy.
func (v *Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values returns the column values in storage order. The slice is a copy.
func (v *Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Value returns the value of a named column.
func (v *Vector) Value(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// WithValue returns a copy of the vector with one column replaced.
// The receiver is never mutated.
func (v *Vector) WithValue(name string, value float64) (*Vector, error) {
	i, ok := v.index[name]
	if !ok {
		return nil, &domain.SchemaError{Field: name, Reason: "no such column"}
	}

	out := v.clone()
	out.values[i] = value
	return out, nil
}

// Select returns the values reordered to match the given column names.
// Every requested name must be present.
func (v *Vector) Select(order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		idx, ok := v.index[name]
		if !ok {
			return nil, &domain.SchemaError{Field: name, Reason: "expected by model but absent from vector"}
		}
		out[i] = v.values[idx]
	}
	return out, nil
}

func (v *Vector) clone() *Vector {
	out := &Vector{
		names:  make([]string, len(v.names)),
		values: make([]float64, len(v.values)),
		index:  make(map[string]int, len(v.index)),
	}
	copy(out.names, v.names)
	copy(out.values, v.values)
	for k, i := range v.index {
		out.index[k] = i
	}
	return out
}
