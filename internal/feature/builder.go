package feature

import (
	"encoding/json"
	"math"

	"github.com/fraudlens/fraudlens/internal/domain"
)

// Builder validates caller-supplied records against the fixed 30-field
// schema and assembles them into vectors. Safe for concurrent use.
type Builder struct {
	policy domain.SchemaPolicy
}

// NewBuilder creates a builder with the given unknown-field policy.
func NewBuilder(policy domain.SchemaPolicy) *Builder {
	if policy == "" {
		policy = domain.SchemaStrict
	}
	return &Builder{policy: policy}
}

// Build validates that every schema field is present and is a finite real
// number, then assembles a vector in caller-arbitrary column order. Unknown
// extra fields are rejected under the strict policy and ignored under the
// lenient policy.
func (b *Builder) Build(raw domain.RawRecord) (*Vector, error) {
	if b.policy == domain.SchemaStrict {
		for name := range raw {
			if !domain.IsSchemaField(name) {
				return nil, &domain.SchemaError{Field: name, Reason: "unrecognized field"}
			}
		}
	}

	names := domain.FieldNames()
	values := make([]float64, len(names))

	for i, name := range names {
		v, ok := raw[name]
		if !ok {
			return nil, &domain.SchemaError{Field: name, Reason: "required field is missing"}
		}

		f, err := toFloat(v)
		if err != nil {
			return nil, &domain.SchemaError{Field: name, Reason: "value is not numeric"}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &domain.SchemaError{Field: name, Reason: "value is not a finite number"}
		}

		values[i] = f
	}

	return NewVector(names, values)
}

// toFloat accepts the numeric shapes a JSON decoder can produce.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, &domain.SchemaError{Reason: "not a number"}
	}
}
