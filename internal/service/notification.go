package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

const (
	defaultNotificationPageSize = 20
	maxNotificationPageSize     = 50
)

// NotificationService stores in-app notifications and pushes them to the
// recipient's devices. It runs on the worker side of the engagement stream.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	tokenRepo repository.DeviceTokenRepository
	userRepo  repository.UserRepository
	db        *sqlx.DB
	pusher    Pusher // nil when push is not configured
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	tokenRepo repository.DeviceTokenRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	pusher Pusher,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		db:        db,
		pusher:    pusher,
	}
}

// GetNotifications returns the newest notifications and the unread badge count.
func (s *NotificationService) GetNotifications(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = defaultNotificationPageSize
	}
	if limit > maxNotificationPageSize {
		limit = maxNotificationPageSize
	}

	notifications, err := s.notifRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

// MarkAsRead marks specific notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	return s.notifRepo.MarkAsRead(ctx, userID, notificationIDs)
}

// MarkAllAsRead marks all notifications for a user as read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

// RegisterDeviceToken stores a device's FCM token. A token registered by a
// different user moves to this one (the device changed hands).
func (s *NotificationService) RegisterDeviceToken(ctx context.Context, userID int64, req model.RegisterTokenRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return model.ErrDeviceTokenRequired
	}
	platform := req.Platform
	switch platform {
	case model.PlatformIOS, model.PlatformAndroid:
	case "":
		platform = model.PlatformAndroid
	default:
		return model.ErrUnknownPlatform
	}
	return s.tokenRepo.Upsert(ctx, userID, token, platform)
}

// RemoveDeviceToken forgets a device token (e.g., on logout).
func (s *NotificationService) RemoveDeviceToken(ctx context.Context, token string) error {
	return s.tokenRepo.Delete(ctx, token)
}

// CreateNotification stores a notification for userID and pushes it to their
// devices. Push failures are logged; only the insert can fail the call.
func (s *NotificationService) CreateNotification(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error {
	if userID == actorID {
		return nil
	}

	n := &model.Notification{
		UserID:    userID,
		ActorID:   actorID,
		Type:      notifType,
		PostID:    postID,
		CommentID: commentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return err
	}

	if s.pusher != nil {
		s.push(ctx, n)
	}
	return nil
}

func (s *NotificationService) push(ctx context.Context, n *model.Notification) {
	log := logger.Ctx(ctx).With().Int64("recipient_id", n.UserID).Str("type", n.Type).Logger()

	tokens, err := s.tokenRepo.GetByUserID(ctx, n.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load device tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	actor, err := s.userRepo.GetByID(ctx, s.db, n.ActorID)
	if err != nil {
		log.Warn().Err(err).Int64(logger.FieldActorID, n.ActorID).Msg("failed to load actor")
		return
	}

	title, body := buildPushMessage(actor.Username, n.Type)
	data := map[string]string{
		"type":            n.Type,
		"actor_id":        strconv.FormatInt(n.ActorID, 10),
		"notification_id": strconv.FormatInt(n.ID, 10),
	}
	if n.PostID != nil {
		data["post_id"] = strconv.FormatInt(*n.PostID, 10)
	}
	if n.CommentID != nil {
		data["comment_id"] = strconv.FormatInt(*n.CommentID, 10)
	}

	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}

	unregistered, err := s.pusher.SendToTokens(ctx, values, title, body, data)
	if err != nil {
		log.Warn().Err(err).Msg("push failed")
	}
	for _, token := range unregistered {
		if err := s.tokenRepo.Delete(ctx, token); err != nil {
			log.Warn().Err(err).Msg("failed to drop unregistered token")
		}
	}
}

func buildPushMessage(actorUsername, notifType string) (title, body string) {
	switch notifType {
	case model.NotificationTypeFollow:
		return "New Follower", actorUsername + " started following you"
	case model.NotificationTypeLike:
		return "New Like", actorUsername + " liked your post"
	case model.NotificationTypeCommentLike:
		return "New Like", actorUsername + " liked your comment"
	case model.NotificationTypeComment:
		return "New Comment", actorUsername + " commented on your post"
	}
	return "Snaps", "You have a new notification"
}
