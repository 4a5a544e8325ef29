// Package history keeps a bounded in-memory record of recent
// predictions, populated from prediction events on the bus.
package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/fraudlens/fraudlens/internal/domain"
)

const defaultMaxEntries = 1000

// Recorder is a fixed-capacity ring buffer of prediction events.
// When full, the oldest entry is dropped. Safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	entries []domain.PredictionEvent
	start   int
	count   int
	sub     domain.Subscription
}

// NewRecorder creates a recorder holding at most maxEntries events.
func NewRecorder(maxEntries int) *Recorder {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Recorder{
		entries: make([]domain.PredictionEvent, maxEntries),
	}
}

// Attach subscribes the recorder to completed predictions on the bus.
func (r *Recorder) Attach(ctx context.Context, bus domain.EventBus) error {
	sub, err := bus.Subscribe(ctx, domain.TopicPredictionCompleted, func(ctx context.Context, msg *domain.Message) error {
		var event domain.PredictionEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			slog.Error("failed to decode prediction event",
				"message_id", msg.ID,
				"error", err,
			)
			return err
		}
		r.Add(event)
		return nil
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()
	return nil
}

// Add records an event, evicting the oldest when at capacity.
func (r *Recorder) Add(event domain.PredictionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.entries) {
		r.entries[(r.start+r.count)%len(r.entries)] = event
		r.count++
		return
	}

	r.entries[r.start] = event
	r.start = (r.start + 1) % len(r.entries)
}

// List returns recorded events, newest first.
func (r *Recorder) List() []domain.PredictionEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PredictionEvent, r.count)
	for i := 0; i < r.count; i++ {
		out[r.count-1-i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Clear discards all recorded events.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = 0
	r.count = 0
}

// Close detaches the recorder from the bus.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return r.sub.Unsubscribe()
	}
	return nil
}
