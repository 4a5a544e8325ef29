package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/model"
)

// Attributor computes signed per-feature contributions for one prediction
// against the background reference set. For a linear model the
// interventional Shapley values are exact and closed-form:
//
//	contribution_i = w_i * (x_i - mean(background_i))
//
// computed on the log-odds scale, so the contributions sum exactly to the
// gap between this prediction's margin and the background's average margin
// (the efficiency property). The computation is fully deterministic.
type Attributor struct {
	weights []float64
	means   []float64 // background column means, aligned to the model order
	order   []string
	topK    int
}

// NewAttributor validates the background set against the model and
// precomputes aligned column means. An empty or schema-mismatched
// background fails with an ExplainabilityError, never a crash.
func NewAttributor(m *model.Model, bg *Background, topK int) (*Attributor, error) {
	if topK <= 0 {
		topK = 5
	}
	if bg == nil || bg.Rows() == 0 {
		return nil, &domain.ExplainabilityError{Reason: "background reference set is empty"}
	}

	order := m.FeatureOrder()
	means, err := bg.Means(order)
	if err != nil {
		return nil, &domain.ExplainabilityError{
			Reason: fmt.Sprintf("background schema mismatch: %v", err),
		}
	}

	return &Attributor{
		weights: m.Weights(),
		means:   means,
		order:   order,
		topK:    topK,
	}, nil
}

// Attribute computes one signed contribution per feature for an aligned
// input, ranks features by descending absolute contribution, and truncates
// to the top K. Rank order is preserved in the returned mapping; ties break
// on model feature order so the ranking is stable.
func (a *Attributor) Attribute(aligned []float64) (domain.TopFeatures, error) {
	if len(aligned) != len(a.weights) {
		return nil, &domain.ExplainabilityError{
			Reason: fmt.Sprintf("input has %d features, attributor expects %d", len(aligned), len(a.weights)),
		}
	}

	contributions := make(domain.TopFeatures, len(a.order))
	for i, name := range a.order {
		contributions[i] = domain.FeatureContribution{
			Name:  name,
			Value: a.weights[i] * (aligned[i] - a.means[i]),
		}
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return math.Abs(contributions[i].Value) > math.Abs(contributions[j].Value)
	})

	if len(contributions) > a.topK {
		contributions = contributions[:a.topK]
	}
	return contributions, nil
}

// Efficiency returns the exact sum of all contributions for an aligned
// input: the gap between its margin and the background's average margin.
func (a *Attributor) Efficiency(aligned []float64) (float64, error) {
	if len(aligned) != len(a.weights) {
		return 0, &domain.ExplainabilityError{
			Reason: fmt.Sprintf("input has %d features, attributor expects %d", len(aligned), len(a.weights)),
		}
	}

	var sum float64
	for i := range a.weights {
		sum += a.weights[i] * (aligned[i] - a.means[i])
	}
	return sum, nil
}
