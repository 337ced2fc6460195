package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/daily-pulse/backend/internal/models"
)

func TestPulseStreamHubRelaysPublishedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := newTestRedis(t)
	hub := NewPulseStreamHub(ctx, rdb, "")
	publisher := NewPulsePublisher(rdb)
	updates, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	pulse := samplePulse("2024-05-01", models.StatusGood, 6.5)
	pulse.MarketIndex = floatPtr(500.1)
	event := NewPulseEvent(EventPulseCreated, pulse)

	// The subscription is established asynchronously; keep publishing until it lands.
	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case payload := <-updates:
			var got PulseEvent
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if got.Type != EventPulseCreated || got.Date != "2024-05-01" || got.Status != models.StatusGood {
				t.Fatalf("unexpected event %+v", got)
			}
			if got.MarketIndex == nil || *got.MarketIndex != 500.1 {
				t.Fatalf("unexpected sp500 %v", got.MarketIndex)
			}
			return
		case <-tick.C:
			publisher.OnPulseChanged(ctx, event)
		case <-deadline:
			t.Fatal("timed out waiting for pulse event")
		}
	}
}

func TestPulseStreamHubUnsubscribeClosesChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewPulseStreamHub(ctx, newTestRedis(t), PulseUpdateChannel)
	updates, unsubscribe := hub.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
}

func TestPulseStreamHubDropsOldestForSlowSubscriber(t *testing.T) {
	hub := &PulseStreamHub{subscribers: make(map[chan []byte]struct{})}
	updates, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	for i := 0; i < cap(updates)+1; i++ {
		hub.broadcast([]byte{byte(i)})
	}

	first := <-updates
	if first[0] != 1 {
		t.Fatalf("expected oldest message to be dropped, got %d first", first[0])
	}
}
