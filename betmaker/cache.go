package betmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"betline/models"
)

const activeEventsKey = "betline:active_events"

// EventCache keeps the most recent active-events listing in Redis so the
// public listing endpoint can shed load from the line provider.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis dials the Redis instance and verifies it answers a ping.
func ConnectRedis(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewEventCache creates a cache around an established Redis client.
func NewEventCache(client *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{client: client, ttl: ttl}
}

// GetActiveEvents returns the cached listing. The bool reports a hit; an
// expired or missing key is a miss, not an error.
func (c *EventCache) GetActiveEvents(ctx context.Context) ([]*models.Event, bool, error) {
	raw, err := c.client.Get(ctx, activeEventsKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read event cache: %w", err)
	}

	var events []*models.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, false, fmt.Errorf("failed to decode event cache: %w", err)
	}
	return events, true, nil
}

// SetActiveEvents stores the listing under the configured TTL.
func (c *EventCache) SetActiveEvents(ctx context.Context, events []*models.Event) error {
	b, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode event cache: %w", err)
	}
	if err := c.client.Set(ctx, activeEventsKey, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write event cache: %w", err)
	}
	return nil
}
