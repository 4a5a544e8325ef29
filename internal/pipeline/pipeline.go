// Package pipeline composes the inference stages into one atomic call.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/explain"
	"github.com/fraudlens/fraudlens/internal/feature"
	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/model"
	"github.com/fraudlens/fraudlens/internal/preprocess"
)

// Pipeline is the inference facade: build → preprocess → score → attribute
// → assemble. All state is frozen at construction; concurrent calls share
// it without coordination. Calling twice with an identical record yields an
// identical result.
type Pipeline struct {
	builder          *feature.Builder
	scaler           *preprocess.Scaler
	model            *model.Model
	attributor       *explain.Attributor
	attributorErr    error
	onExplainFailure domain.ExplainabilityPolicy
}

// New wires the facade from the three frozen artifacts. An empty or
// schema-mismatched background set is not fatal here: the resulting
// ExplainabilityError surfaces per call, where the explainability policy
// decides between failing the call and degrading to a score-only result.
func New(cfg domain.InferenceConfig, scaler *preprocess.Scaler, m *model.Model, bg *explain.Background) (*Pipeline, error) {
	onFailure := cfg.Explainability
	if onFailure == "" {
		onFailure = domain.ExplainFail
	}

	p := &Pipeline{
		builder:          feature.NewBuilder(cfg.Schema),
		scaler:           scaler,
		model:            m,
		onExplainFailure: onFailure,
	}

	attributor, err := explain.NewAttributor(m, bg, cfg.TopK)
	if err != nil {
		p.attributorErr = err
	} else {
		p.attributor = attributor
	}

	return p, nil
}

// Infer runs the full pipeline for one raw record. Any stage failure
// short-circuits the remaining stages and surfaces a tagged error; no
// partial result is ever returned as success. A caller-side timeout simply
// abandons the result; nothing here touches shared mutable state.
func (p *Pipeline) Infer(ctx context.Context, raw domain.RawRecord) (*domain.PredictionResult, error) {
	vec, err := p.builder.Build(raw)
	if err != nil {
		return nil, err
	}

	scaled, err := p.scaler.Transform(vec)
	if err != nil {
		return nil, err
	}

	aligned, err := p.model.Align(scaled)
	if err != nil {
		return nil, err
	}

	scoreStart := time.Now()
	probability, err := p.model.PredictProba(aligned)
	if err != nil {
		return nil, err
	}
	label := p.model.Predict(probability)
	metrics.ScoreDuration.Observe(time.Since(scoreStart).Seconds())

	result := &domain.PredictionResult{
		FraudProbability: probability,
		Prediction:       label,
	}

	attrStart := time.Now()
	top, err := p.attribute(aligned)
	if err != nil {
		if p.onExplainFailure == domain.ExplainDegrade {
			slog.Warn("attribution failed, returning score-only result", "error", err)
			return result, nil
		}
		return nil, err
	}
	metrics.AttributionDuration.Observe(time.Since(attrStart).Seconds())

	result.TopFeatures = top
	return result, nil
}

func (p *Pipeline) attribute(aligned []float64) (domain.TopFeatures, error) {
	if p.attributor == nil {
		return nil, p.attributorErr
	}
	return p.attributor.Attribute(aligned)
}

// FeatureOrder exposes the model's expected ordering for diagnostics.
func (p *Pipeline) FeatureOrder() []string {
	return p.model.FeatureOrder()
}

// Threshold exposes the model's fitted decision boundary for diagnostics.
func (p *Pipeline) Threshold() float64 {
	return p.model.Threshold()
}
