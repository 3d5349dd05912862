package worker

import (
	"context"
	"fmt"
	"time"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/queue"
)

// NotificationCreator stores a notification and pushes it to the recipient.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error
}

// Handler turns engagement events into notifications.
type Handler struct {
	notifCreator NotificationCreator
	deduper      queue.Deduper // nil disables redelivery suppression
}

func NewHandler(notifCreator NotificationCreator, deduper queue.Deduper) *Handler {
	return &Handler{
		notifCreator: notifCreator,
		deduper:      deduper,
	}
}

// HandleEvent routes an event to the notification it produces.
func (h *Handler) HandleEvent(ctx context.Context, event queue.EngagementEvent) error {
	startTime := time.Now()
	log := logger.Ctx(ctx).With().
		Str(logger.FieldEventType, event.Type).
		Str(logger.FieldEventID, event.ID).
		Logger()

	notifType, postID, err := notificationFor(event)
	if err != nil {
		return err
	}

	// Self-engagement never notifies.
	if event.ActorID == event.RecipientID {
		return nil
	}

	dedup := h.deduper != nil && event.ID != ""
	if dedup {
		seen, err := h.deduper.Seen(ctx, event.ID)
		if err != nil {
			// Prefer a possible duplicate over a lost notification.
			log.Warn().Err(err).Msg("dedup check failed")
		} else if seen {
			log.Debug().Msg("duplicate event skipped")
			return nil
		}
	}

	if err := h.notifCreator.CreateNotification(ctx, event.RecipientID, event.ActorID, notifType, postID, event.CommentID); err != nil {
		return fmt.Errorf("create %s notification: %w", notifType, err)
	}

	if dedup {
		if err := h.deduper.MarkSeen(ctx, event.ID); err != nil {
			log.Warn().Err(err).Msg("failed to record handled event")
		}
	}

	log.Debug().
		Int64(logger.FieldActorID, event.ActorID).
		Int64("recipient_id", event.RecipientID).
		Dur("duration", time.Since(startTime)).
		Msg("notification created")
	return nil
}

func notificationFor(event queue.EngagementEvent) (notifType string, postID *int64, err error) {
	if event.PostID != 0 {
		id := event.PostID
		postID = &id
	}

	switch event.Type {
	case queue.EventUserFollowed:
		return model.NotificationTypeFollow, nil, nil
	case queue.EventPostLiked:
		return model.NotificationTypeLike, postID, nil
	case queue.EventCommentLiked:
		return model.NotificationTypeCommentLike, postID, nil
	case queue.EventPostCommented:
		return model.NotificationTypeComment, postID, nil
	}
	return "", nil, fmt.Errorf("unknown event type: %s", event.Type)
}
