// Package model implements the frozen binary classifier and the scorer.
package model

import (
	"fmt"
	"math"

	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/feature"
	"gonum.org/v1/gonum/floats"
)

// Model is the fitted logistic classifier: per-feature weights, an
// intercept, a probability threshold, and the exact ordered feature list
// the model was trained on. Loaded once at startup, never mutated, shared
// by all concurrent inference calls.
type Model struct {
	featureOrder []string
	weights      []float64 // aligned with featureOrder
	intercept    float64
	threshold    float64
}

// New builds a model from fitted parameters. Weights are keyed by feature
// name; every name in order must have a weight.
func New(order []string, weights map[string]float64, intercept, threshold float64) (*Model, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("model: empty feature order")
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("model: threshold %v outside (0,1)", threshold)
	}

	m := &Model{
		featureOrder: make([]string, len(order)),
		weights:      make([]float64, len(order)),
		intercept:    intercept,
		threshold:    threshold,
	}
	copy(m.featureOrder, order)

	seen := make(map[string]bool, len(order))
	for i, name := range order {
		if seen[name] {
			return nil, fmt.Errorf("model: duplicate feature %q in order", name)
		}
		seen[name] = true

		w, ok := weights[name]
		if !ok {
			return nil, fmt.Errorf("model: no weight for feature %q", name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("model: non-finite weight for feature %q", name)
		}
		m.weights[i] = w
	}

	return m, nil
}

// FeatureOrder returns the exact feature-name ordering the model expects.
// The slice is a copy.
func (m *Model) FeatureOrder() []string {
	out := make([]string, len(m.featureOrder))
	copy(out, m.featureOrder)
	return out
}

// Weights returns the fitted weights aligned with FeatureOrder.
// The slice is a copy.
func (m *Model) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// Threshold returns the fitted decision threshold.
func (m *Model) Threshold() float64 {
	return m.threshold
}

// Align reorders and selects the vector's columns to exactly match the
// model's recorded feature ordering. A mismatched order silently produces
// wrong predictions, so every expected name must be present.
func (m *Model) Align(vec *feature.Vector) ([]float64, error) {
	return vec.Select(m.featureOrder)
}

// Margin returns the raw log-odds for an aligned input, w·x + b.
func (m *Model) Margin(aligned []float64) (float64, error) {
	if len(aligned) != len(m.weights) {
		return 0, &domain.SchemaError{
			Reason: fmt.Sprintf("aligned vector has %d columns, model expects %d", len(aligned), len(m.weights)),
		}
	}

	margin := floats.Dot(m.weights, aligned) + m.intercept
	if math.IsNaN(margin) {
		return 0, &domain.ModelError{Reason: "scoring produced NaN margin"}
	}
	return margin, nil
}

// PredictProba returns the probability of the positive (fraud) class for
// an aligned input. The result is always a finite float64 in [0,1]; a
// margin of ±Inf saturates to 1 or 0 rather than failing.
func (m *Model) PredictProba(aligned []float64) (float64, error) {
	margin, err := m.Margin(aligned)
	if err != nil {
		return 0, err
	}
	return sigmoid(margin), nil
}

// Predict returns the discrete label for a probability, thresholded by the
// model's own fitted decision boundary.
func (m *Model) Predict(probability float64) string {
	if probability >= m.threshold {
		return domain.LabelFraud
	}
	return domain.LabelLegit
}

func sigmoid(x float64) float64 {
	// Split on sign to avoid overflow in math.Exp for large |x|.
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
