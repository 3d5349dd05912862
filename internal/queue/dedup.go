package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "engagement:seen:"

// Deduper remembers handled event ids so a redelivered message is handled once.
// Ids are recorded only after handling succeeds: a crash in between leads to
// a second delivery being handled again, never to a lost one.
type Deduper interface {
	// Seen reports whether id was already handled.
	Seen(ctx context.Context, id string) (bool, error)
	// MarkSeen records id as handled.
	MarkSeen(ctx context.Context, id string) error
}

// RedisDeduper implements Deduper with one expiring key per event id.
type RedisDeduper struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewDeduper(client redis.UniversalClient, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Seen(ctx context.Context, id string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", id, err)
	}
	return n > 0, nil
}

func (d *RedisDeduper) MarkSeen(ctx context.Context, id string) error {
	if err := d.client.Set(ctx, dedupKeyPrefix+id, 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", id, err)
	}
	return nil
}
