package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// InventoryEvent tells other services that an inventory changed. Like the
// container notification it carries no diff; consumers re-read the state.
type InventoryEvent struct {
	InventoryID string `json:"inventory_id"`
	Owner       string `json:"owner"`
	Timestamp   int64  `json:"timestamp"`
}

// Notifier fans inventory change events out of the process.
type Notifier interface {
	Publish(ctx context.Context, event InventoryEvent) error
}

// RedisNotifier publishes events on a per-inventory Redis channel.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

// NewRedisNotifier creates a notifier publishing to <prefix><inventory id>.
func NewRedisNotifier(client *redis.Client, prefix string) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: prefix}
}

// Channel returns the channel name used for an inventory.
func (n *RedisNotifier) Channel(inventoryID string) string {
	return n.prefix + inventoryID
}

// Publish sends the event as JSON.
func (n *RedisNotifier) Publish(ctx context.Context, event InventoryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory event: %w", err)
	}
	if err := n.client.Publish(ctx, n.Channel(event.InventoryID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish inventory event: %w", err)
	}
	return nil
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Publish does nothing.
func (NopNotifier) Publish(context.Context, InventoryEvent) error { return nil }
