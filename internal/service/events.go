package service

import (
	"context"
	"time"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/queue"
)

const publishTimeout = 3 * time.Second

// publishAfterCommit hands an event to the publisher once the write has been
// committed. Failures, including panics in the publisher, are logged and
// never reach the caller: the engagement write has already succeeded.
func publishAfterCommit(ctx context.Context, publisher queue.Publisher, event queue.EngagementEvent) {
	if publisher == nil {
		return
	}

	log := logger.Ctx(ctx).With().
		Str(logger.FieldEventType, event.Type).
		Str(logger.FieldEventID, event.ID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("publisher panicked")
		}
	}()

	// The request may be finishing; the publish gets its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := publisher.Publish(pubCtx, queue.StreamEngagement, event); err != nil {
		log.Warn().Err(err).Msg("failed to publish engagement event")
	}
}
