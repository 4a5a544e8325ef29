package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/fraudlens/fraudlens/internal/bus"
	"github.com/fraudlens/fraudlens/internal/domain"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &domain.PredictionEvent{Prediction: domain.LabelLegit, Amount: 0.5}
	if !client.shouldSend(event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_FraudOnly(t *testing.T) {
	client := &Client{sub: Subscription{FraudOnly: true}}

	fraud := &domain.PredictionEvent{Prediction: domain.LabelFraud}
	legit := &domain.PredictionEvent{Prediction: domain.LabelLegit}

	if !client.shouldSend(fraud) {
		t.Error("Should receive fraud predictions")
	}
	if client.shouldSend(legit) {
		t.Error("Should NOT receive legit predictions")
	}
}

func TestShouldSend_MinAmountFilter(t *testing.T) {
	client := &Client{sub: Subscription{MinAmount: 10.0}}

	large := &domain.PredictionEvent{Amount: 15.0}
	small := &domain.PredictionEvent{Amount: 5.0}

	if !client.shouldSend(large) {
		t.Error("Should receive large transaction")
	}
	if client.shouldSend(small) {
		t.Error("Should NOT receive small transaction")
	}
}

func TestShouldSend_MinRiskScoreFilter(t *testing.T) {
	client := &Client{sub: Subscription{MinRiskScore: 0.8}}

	risky := &domain.PredictionEvent{FraudProbability: 0.95}
	safe := &domain.PredictionEvent{FraudProbability: 0.1}

	if !client.shouldSend(risky) {
		t.Error("Should receive high-risk prediction")
	}
	if client.shouldSend(safe) {
		t.Error("Should NOT receive low-risk prediction")
	}
}

func TestShouldSend_CombinedFilters(t *testing.T) {
	client := &Client{sub: Subscription{FraudOnly: true, MinAmount: 100.0}}

	both := &domain.PredictionEvent{Prediction: domain.LabelFraud, Amount: 500.0}
	fraudSmall := &domain.PredictionEvent{Prediction: domain.LabelFraud, Amount: 50.0}

	if !client.shouldSend(both) {
		t.Error("Should receive event matching all filters")
	}
	if client.shouldSend(fraudSmall) {
		t.Error("All filters must match")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHubBroadcastStats(t *testing.T) {
	h := testHub()

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	h.Broadcast(&domain.PredictionEvent{ID: "evt-1"})
	h.Broadcast(&domain.PredictionEvent{ID: "evt-2"})

	deadline := time.After(time.Second)
	for h.totalEvents.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for broadcast processing")
		case <-time.After(5 * time.Millisecond):
		}
	}

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("expected no clients, got %v", stats["connectedClients"])
	}

	cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for hub shutdown")
	}
}

func TestHubAttach(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Attach(ctx, b); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	go h.Run(ctx)

	time.Sleep(10 * time.Millisecond)

	payload, _ := json.Marshal(domain.PredictionEvent{ID: "evt-bus", Prediction: domain.LabelFraud})
	if err := b.Publish(ctx, domain.TopicPredictionCompleted, payload); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	deadline := time.After(time.Second)
	for h.totalEvents.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for bus event to reach hub")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
