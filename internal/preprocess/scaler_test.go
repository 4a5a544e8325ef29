package preprocess

import (
	"testing"

	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/feature"
)

func buildVector(t *testing.T, overrides map[string]float64) *feature.Vector {
	t.Helper()

	names := domain.FieldNames()
	values := make([]float64, len(names))
	for i, n := range names {
		if v, ok := overrides[n]; ok {
			values[i] = v
		}
	}

	vec, err := feature.NewVector(names, values)
	if err != nil {
		t.Fatalf("failed to build vector: %v", err)
	}
	return vec
}

func newTestScaler(t *testing.T) *Scaler {
	t.Helper()

	s, err := NewScaler(
		[]string{domain.FieldAmount, domain.FieldTime},
		[]float64{88.3, 94813.8},
		[]float64{250.1, 47488.1},
	)
	if err != nil {
		t.Fatalf("failed to create scaler: %v", err)
	}
	return s
}

func TestTransformStandardizes(t *testing.T) {
	s := newTestScaler(t)

	vec := buildVector(t, map[string]float64{
		domain.FieldAmount: 88.3,
		domain.FieldTime:   94813.8,
	})

	out, err := s.Transform(vec)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	// Values at the fitted mean standardize to exactly zero.
	if v, _ := out.Value(domain.FieldAmount); v != 0 {
		t.Errorf("expected Amount = 0, got %v", v)
	}
	if v, _ := out.Value(domain.FieldTime); v != 0 {
		t.Errorf("expected Time = 0, got %v", v)
	}
}

func TestTransformLeavesOtherColumnsUntouched(t *testing.T) {
	s := newTestScaler(t)

	vec := buildVector(t, map[string]float64{
		domain.FieldAmount: 500,
		"V1":               -1.25,
		"V28":              3.75,
	})

	out, err := s.Transform(vec)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	for _, name := range domain.FieldNames() {
		if name == domain.FieldAmount || name == domain.FieldTime {
			continue
		}
		before, _ := vec.Value(name)
		after, _ := out.Value(name)
		if before != after {
			t.Errorf("column %s changed: %v -> %v", name, before, after)
		}
	}
}

// Two records identical except Amount must differ only in the transformed
// Amount column.
func TestTransformScaleInvariance(t *testing.T) {
	s := newTestScaler(t)

	a := buildVector(t, map[string]float64{domain.FieldAmount: 10, "V7": 2.5})
	b := buildVector(t, map[string]float64{domain.FieldAmount: 1900, "V7": 2.5})

	outA, err := s.Transform(a)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	outB, err := s.Transform(b)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	for _, name := range domain.FieldNames() {
		va, _ := outA.Value(name)
		vb, _ := outB.Value(name)

		if name == domain.FieldAmount {
			if va == vb {
				t.Error("transformed Amount should differ")
			}
			continue
		}
		if va != vb {
			t.Errorf("column %s should be identical, got %v vs %v", name, va, vb)
		}
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	s := newTestScaler(t)

	vec := buildVector(t, map[string]float64{domain.FieldAmount: 750})
	before, _ := vec.Value(domain.FieldAmount)

	if _, err := s.Transform(vec); err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	after, _ := vec.Value(domain.FieldAmount)
	if before != after {
		t.Errorf("input vector mutated: %v -> %v", before, after)
	}
}

func TestNewScalerValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		mean   []float64
		scale  []float64
	}{
		{"ZeroScale", []string{domain.FieldAmount}, []float64{0}, []float64{0}},
		{"LengthMismatch", []string{domain.FieldAmount}, []float64{0, 1}, []float64{1}},
		{"UnknownField", []string{"V99"}, []float64{0}, []float64{1}},
		{"NoFields", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScaler(tt.fields, tt.mean, tt.scale); err == nil {
				t.Error("expected error")
			}
		})
	}
}
