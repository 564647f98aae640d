package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "cases:changes"

// RedisBus fans events out to every instance through Redis pub/sub.
// Local subscribers receive events only once they come back from Redis,
// so every instance sees the same stream.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *InMemoryBus
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{client: client, channel: channel, local: NewBus()}
}

// Connect parses url, pings the server and returns a client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (b *RedisBus) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Warn("event encode failed", "type", e.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		slog.Warn("event publish failed; delivering locally only", "type", e.Type, "error", err)
		b.local.Publish(e)
	}
}

func (b *RedisBus) Subscribe(types ...Type) (<-chan Event, func()) {
	return b.local.Subscribe(types...)
}

// Run relays messages from Redis to local subscribers until ctx is done.
func (b *RedisBus) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				slog.Warn("event decode failed", "channel", msg.Channel, "error", err)
				continue
			}
			b.local.Publish(e)
		}
	}
}
