package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

const redisEventPrefix = "restaurant:events:"

// RedisBus publishes events through Redis so that subscribers on every
// instance see every mutation. Run relays the shared channel into the
// local hub; Subscribe is served by that hub.
type RedisBus struct {
	client *redis.Client
	local  *Hub
}

// NewRedisBus wraps client and local into an EventBus.
func NewRedisBus(client *redis.Client, local *Hub) *RedisBus {
	return &RedisBus{client: client, local: local}
}

// Publish sends event to restaurant:events:<type> and restaurant:events:all.
// When Redis is unreachable the event is still delivered locally.
func (b *RedisBus) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	if err := b.client.Publish(ctx, redisEventPrefix+string(event.Type), payload).Err(); err != nil {
		slog.Warn("Failed to publish event", "channel", redisEventPrefix+string(event.Type), "error", err)
	}
	if err := b.client.Publish(ctx, redisEventPrefix+"all", payload).Err(); err != nil {
		slog.Warn("Failed to publish to all channel, delivering locally", "error", err)
		b.local.Broadcast(event)
	}
}

// Subscribe registers a local subscription fed by Run.
func (b *RedisBus) Subscribe(topics ...Topic) *Subscription {
	return b.local.Subscribe(topics...)
}

// Run relays restaurant:events:all into the local hub until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, redisEventPrefix+"all")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to event channel: %w", err)
	}
	slog.Info("Relaying change feed from redis", "channel", redisEventPrefix+"all")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("Ignoring malformed event", "error", err)
				continue
			}
			b.local.Broadcast(event)
		}
	}
}
