// Package preprocess applies the frozen training-time scaling transform.
package preprocess

import (
	"fmt"
	"math"

	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/feature"
)

// Scaler holds the fitted standardization parameters for the unbounded
// fields (elapsed time and amount). Loaded once at startup, never mutated,
// shared by all concurrent inference calls.
type Scaler struct {
	fields []string
	mean   []float64
	scale  []float64
}

// NewScaler builds a scaler from fitted per-field parameters. A zero or
// non-finite scale invalidates every downstream probability, so it is
// rejected here rather than at call time.
func NewScaler(fields []string, mean, scale []float64) (*Scaler, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("preprocess: no scaled fields")
	}
	if len(mean) != len(fields) || len(scale) != len(fields) {
		return nil, fmt.Errorf("preprocess: %d fields but %d means and %d scales",
			len(fields), len(mean), len(scale))
	}

	for i, f := range fields {
		if !domain.IsSchemaField(f) {
			return nil, fmt.Errorf("preprocess: %q is not a schema field", f)
		}
		if scale[i] == 0 || math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) {
			return nil, fmt.Errorf("preprocess: invalid scale %v for field %q", scale[i], f)
		}
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("preprocess: invalid mean %v for field %q", mean[i], f)
		}
	}

	s := &Scaler{
		fields: make([]string, len(fields)),
		mean:   make([]float64, len(mean)),
		scale:  make([]float64, len(scale)),
	}
	copy(s.fields, fields)
	copy(s.mean, mean)
	copy(s.scale, scale)
	return s, nil
}

// Fields returns the names of the scaled fields.
func (s *Scaler) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Transform standardizes exactly the fitted fields, (x - mean) / scale,
// and passes every other column through unchanged. The input vector is
// never mutated; the scaler state is never mutated.
func (s *Scaler) Transform(vec *feature.Vector) (*feature.Vector, error) {
	out := vec
	for i, field := range s.fields {
		raw, ok := out.Value(field)
		if !ok {
			return nil, &domain.SchemaError{Field: field, Reason: "scaled field absent from vector"}
		}

		scaled := (raw - s.mean[i]) / s.scale[i]

		next, err := out.WithValue(field, scaled)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
