package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers processed event ids so provider redeliveries do not
// trigger duplicate emails.
type Deduper interface {
	// Seen marks the event id as processed and reports whether it had
	// already been marked before this call.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Forget releases the mark so a redelivery is processed again. Called
	// when the pipeline fails after Seen but before the event's effect
	// (the confirmation email) happened.
	Forget(ctx context.Context, eventID string) error
}

// RedisDeduper implements Deduper with a SETNX-per-event-id scheme. The TTL
// bounds memory: providers stop redelivering long before it expires.
type RedisDeduper struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisDeduper(rdb redis.UniversalClient, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	fresh, err := d.rdb.SetNX(ctx, dedupeKey(eventID), 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

func (d *RedisDeduper) Forget(ctx context.Context, eventID string) error {
	return d.rdb.Del(ctx, dedupeKey(eventID)).Err()
}

func dedupeKey(eventID string) string {
	return "webhook:event:" + eventID
}
