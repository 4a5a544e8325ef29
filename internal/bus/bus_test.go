package bus

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fraudlens/fraudlens/internal/domain"
)

func TestChannelBus(t *testing.T) {
	bus := NewChannelBus(100)
	defer bus.Close()

	ctx := context.Background()

	t.Run("PublishAndSubscribe", func(t *testing.T) {
		var received atomic.Bool
		var receivedMsg *domain.Message

		var wg sync.WaitGroup
		wg.Add(1)

		_, err := bus.Subscribe(ctx, "test.topic", func(ctx context.Context, msg *domain.Message) error {
			receivedMsg = msg
			received.Store(true)
			wg.Done()
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		// Allow subscription to be active
		time.Sleep(10 * time.Millisecond)

		err = bus.Publish(ctx, "test.topic", []byte("hello"))
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}

		if !received.Load() {
			t.Error("message not received")
		}
		if string(receivedMsg.Payload) != "hello" {
			t.Errorf("unexpected payload: %s", receivedMsg.Payload)
		}
		if receivedMsg.Topic != "test.topic" {
			t.Errorf("unexpected topic: %s", receivedMsg.Topic)
		}
	})

	t.Run("TopicIsolation", func(t *testing.T) {
		var count atomic.Int32

		_, err := bus.Subscribe(ctx, "topic.a", func(ctx context.Context, msg *domain.Message) error {
			count.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		time.Sleep(10 * time.Millisecond)

		if err := bus.Publish(ctx, "topic.b", []byte("x")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		time.Sleep(50 * time.Millisecond)

		if count.Load() != 0 {
			t.Error("subscriber received message from different topic")
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		var count atomic.Int32

		sub, err := bus.Subscribe(ctx, "topic.c", func(ctx context.Context, msg *domain.Message) error {
			count.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		time.Sleep(10 * time.Millisecond)

		if err := sub.Unsubscribe(); err != nil {
			t.Fatalf("unsubscribe failed: %v", err)
		}

		if err := bus.Publish(ctx, "topic.c", []byte("x")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		time.Sleep(50 * time.Millisecond)

		if count.Load() != 0 {
			t.Error("unsubscribed handler received message")
		}
	})
}

func TestChannelBusClosed(t *testing.T) {
	bus := NewChannelBus(10)
	if err := bus.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	ctx := context.Background()

	if err := bus.Publish(ctx, "t", nil); err == nil {
		t.Error("expected publish to closed bus to fail")
	}
	if _, err := bus.Subscribe(ctx, "t", nil); err == nil {
		t.Error("expected subscribe to closed bus to fail")
	}
	if err := bus.Ping(ctx); err == nil {
		t.Error("expected ping of closed bus to fail")
	}
}

func TestChannelBusPredictionEvent(t *testing.T) {
	bus := NewChannelBus(10)
	defer bus.Close()

	ctx := context.Background()
	received := make(chan domain.PredictionEvent, 1)

	_, err := bus.Subscribe(ctx, domain.TopicPredictionCompleted, func(ctx context.Context, msg *domain.Message) error {
		var event domain.PredictionEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return err
		}
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	event := domain.PredictionEvent{
		ID:               "evt-1",
		Amount:           149.62,
		FraudProbability: 0.87,
		Prediction:       domain.LabelFraud,
	}
	payload, _ := json.Marshal(event)

	if err := bus.Publish(ctx, domain.TopicPredictionCompleted, payload); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.ID != event.ID || got.FraudProbability != event.FraudProbability {
			t.Errorf("event changed in transit: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for prediction event")
	}
}

func TestNewBus(t *testing.T) {
	t.Run("Channel", func(t *testing.T) {
		b, err := New(domain.EventBusConfig{Type: "channel"})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer b.Close()
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
			t.Error("expected error for unsupported type")
		}
	})
}
