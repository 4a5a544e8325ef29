package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fraudlens/fraudlens/internal/cache"
	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/history"
	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/pipeline"
	"github.com/fraudlens/fraudlens/internal/policy"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	pipe      *pipeline.Pipeline
	cache     domain.Cache
	bus       domain.EventBus
	triage    *policy.Engine
	recorder  *history.Recorder
	version   string
	resultTTL time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(pipe *pipeline.Pipeline, c domain.Cache, bus domain.EventBus, triage *policy.Engine, recorder *history.Recorder, version string, resultTTL time.Duration) *Handler {
	if resultTTL <= 0 {
		resultTTL = time.Minute
	}
	return &Handler{
		pipe:      pipe,
		cache:     c,
		bus:       bus,
		triage:    triage,
		recorder:  recorder,
		version:   version,
		resultTTL: resultTTL,
	}
}

// Root returns service metadata.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "fraudlens",
		"version":  h.version,
		"features": domain.FieldCount,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to score.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pipe == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// Predict handles POST /predict requests. The body is a flat JSON
// object holding the full transaction record.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := domain.RawRecord{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	// Identical records score identically, so serve repeats from cache.
	key := cache.RecordKey(raw)
	if cached, found := cache.GetResult(ctx, h.cache, key); found {
		metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	if h.cache != nil {
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
	}

	result, err := h.pipe.Infer(ctx, raw)
	if err != nil {
		status, kind := classifyError(err)
		metrics.PredictionErrorsTotal.WithLabelValues(kind).Inc()
		h.publishFailure(ctx, raw, err)

		msg := err.Error()
		if status == http.StatusInternalServerError {
			slog.Error("inference failed", "error", err)
			msg = "internal inference error"
		}
		writeError(w, status, msg)
		return
	}

	if h.triage != nil && h.triage.Enabled() {
		amount := recordFloat(raw, domain.FieldAmount)
		txTime := recordFloat(raw, domain.FieldTime)
		flagged, err := h.triage.Review(result, amount, txTime)
		if err != nil {
			slog.Warn("triage evaluation failed", "error", err)
		} else {
			result.Review = &flagged
		}
	}

	metrics.PredictionsTotal.WithLabelValues(result.Prediction).Inc()
	cache.SetResult(ctx, h.cache, key, result, h.resultTTL)
	h.publishCompleted(ctx, raw, result)

	writeJSON(w, http.StatusOK, result)
}

// History returns recent predictions, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeJSON(w, http.StatusOK, []domain.PredictionEvent{})
		return
	}
	writeJSON(w, http.StatusOK, h.recorder.List())
}

// ClearHistory discards recorded predictions.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if h.recorder != nil {
		h.recorder.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publishCompleted(ctx context.Context, raw domain.RawRecord, result *domain.PredictionResult) {
	if h.bus == nil {
		return
	}

	event := domain.PredictionEvent{
		ID:               uuid.New().String(),
		Amount:           recordFloat(raw, domain.FieldAmount),
		Time:             recordFloat(raw, domain.FieldTime),
		FraudProbability: result.FraudProbability,
		Prediction:       result.Prediction,
		TopFeatures:      result.TopFeatures,
		Review:           result.Review,
		ObservedAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal prediction event", "error", err)
		return
	}

	if err := h.bus.Publish(ctx, domain.TopicPredictionCompleted, payload); err != nil {
		slog.Warn("failed to publish prediction event", "error", err)
	}
}

func (h *Handler) publishFailure(ctx context.Context, raw domain.RawRecord, inferErr error) {
	if h.bus == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"amount": recordFloat(raw, domain.FieldAmount),
		"error":  inferErr.Error(),
	})
	if err != nil {
		return
	}

	if err := h.bus.Publish(ctx, domain.TopicPredictionFailed, payload); err != nil {
		slog.Warn("failed to publish failure event", "error", err)
	}
}

// classifyError maps pipeline errors to HTTP status and a metric kind.
func classifyError(err error) (int, string) {
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		return http.StatusBadRequest, "schema"
	}

	var explainErr *domain.ExplainabilityError
	if errors.As(err, &explainErr) {
		return http.StatusUnprocessableEntity, "explainability"
	}

	var modelErr *domain.ModelError
	if errors.As(err, &modelErr) {
		return http.StatusInternalServerError, "model"
	}

	return http.StatusInternalServerError, "internal"
}

// recordFloat extracts a numeric field from a raw record, tolerating
// the types a JSON decode can produce. Returns 0 when absent.
func recordFloat(raw domain.RawRecord, field string) float64 {
	switch v := raw[field].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError emits the uniform error payload.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
