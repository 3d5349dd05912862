package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"snaps_engagement/internal/logger"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event EngagementEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client redis.UniversalClient
	maxLen int64
}

// NewPublisher creates a new Publisher backed by Redis Streams.
// maxLen caps the stream approximately; zero leaves it unbounded.
func NewPublisher(client redis.UniversalClient, maxLen int64) Publisher {
	return &RedisPublisher{client: client, maxLen: maxLen}
}

// Publish adds an event to the stream using XADD with an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event EngagementEvent) (string, error) {
	startTime := time.Now()
	log := logger.Ctx(ctx).With().
		Str(logger.FieldStream, stream).
		Str(logger.FieldEventType, event.Type).
		Str(logger.FieldEventID, event.ID).
		Logger()

	values, err := event.ToMap()
	if err != nil {
		log.Error().Err(err).Msg("serialize event failed")
		return "", fmt.Errorf("serialize event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	messageID, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		log.Error().Err(err).Msg("xadd failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Debug().
		Str(logger.FieldMessageID, messageID).
		Int64(logger.FieldActorID, event.ActorID).
		Int64("recipient_id", event.RecipientID).
		Dur("duration", time.Since(startTime)).
		Msg("event published")
	return messageID, nil
}
