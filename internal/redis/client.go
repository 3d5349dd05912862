package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"snaps_engagement/internal/logger"
)

const pingTimeout = 5 * time.Second

// Client wraps the Redis client shared by the publisher and the workers.
type Client struct {
	*redis.Client
}

// Connect parses the URL, opens the pool and pings the server so startup
// fails fast when Redis is unreachable.
// URL format: redis://[:password@]host:port[/db]
func Connect(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Client.Ping(pingCtx).Err(); err != nil {
		_ = c.Client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log := logger.L()
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")
	return c, nil
}
