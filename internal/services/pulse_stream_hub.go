package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const PulseUpdateChannel = "pulse:updates"

const (
	EventPulseCreated     = "pulse.created"
	EventMarketBackfilled = "pulse.market_backfilled"
)

// PulseEvent is published whenever a pulse row is written
type PulseEvent struct {
	Type        string        `json:"type"`
	Date        string        `json:"date"`
	Status      models.Status `json:"status"`
	Score       *float64      `json:"score"`
	MarketIndex *float64      `json:"sp500"`
}

func NewPulseEvent(kind string, p *models.Pulse) PulseEvent {
	return PulseEvent{
		Type:        kind,
		Date:        p.Date.UTC().Format(models.DateLayout),
		Status:      p.Status,
		Score:       p.Score,
		MarketIndex: p.MarketIndex,
	}
}

// PulseStreamHub fans Redis pub/sub pulse updates out to SSE clients with a
// single Redis subscription per process.
type PulseStreamHub struct {
	redis       *redis.Client
	channelName string

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

// NewPulseStreamHub starts relaying channel until ctx is cancelled.
func NewPulseStreamHub(ctx context.Context, rdb *redis.Client, channel string) *PulseStreamHub {
	if channel == "" {
		channel = PulseUpdateChannel
	}
	hub := &PulseStreamHub{
		redis:       rdb,
		channelName: channel,
		subscribers: make(map[chan []byte]struct{}),
	}

	go hub.run(ctx)

	return hub
}

func (h *PulseStreamHub) run(ctx context.Context) {
	for {
		pubsub := h.redis.Subscribe(ctx, h.channelName)
		ch := pubsub.Channel(redis.WithChannelSize(256))

	relay:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break relay
				}
				h.broadcast([]byte(msg.Payload))
			}
		}

		_ = pubsub.Close()

		// Avoid tight loop if Redis connection drops
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (h *PulseStreamHub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub <- payload:
		default:
			// Slow subscriber: drop its oldest message
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- payload:
			default:
			}
		}
	}
}

// Subscribe registers a new listener and returns a channel plus cleanup function.
func (h *PulseStreamHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 32)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// PulsePublisher announces pulse writes on the Redis channel read by PulseStreamHub
type PulsePublisher struct {
	Redis   *redis.Client
	Channel string
}

func NewPulsePublisher(rdb *redis.Client) *PulsePublisher {
	return &PulsePublisher{Redis: rdb, Channel: PulseUpdateChannel}
}

// Publish sends event to every process subscribed to the channel.
func (p *PulsePublisher) Publish(ctx context.Context, event PulseEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Redis.Publish(ctx, p.Channel, data).Err()
}

// OnPulseChanged publishes event, logging instead of failing the write path
func (p *PulsePublisher) OnPulseChanged(ctx context.Context, event PulseEvent) {
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish pulse update for %s: %v", event.Date, err)
	}
}
