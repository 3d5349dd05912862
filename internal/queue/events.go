package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published after an engagement write commits.
const (
	EventUserFollowed  = "user_followed"
	EventPostLiked     = "post_liked"
	EventCommentLiked  = "comment_liked"
	EventPostCommented = "post_commented"
)

// Stream names
const (
	StreamEngagement = "stream:engagement"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// EngagementEvent represents an event published to the engagement stream.
// Only activations are published; deactivations never notify anyone.
type EngagementEvent struct {
	ID        string `json:"id"`        // uuid, lets consumers drop redeliveries
	Type      string `json:"type"`      // EventUserFollowed, EventPostLiked, ...
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	ActorID     int64 `json:"actor_id"`
	RecipientID int64 `json:"recipient_id"`

	PostID    int64  `json:"post_id,omitempty"`
	CommentID *int64 `json:"comment_id,omitempty"`
}

func newEvent(eventType string, actorID, recipientID int64) EngagementEvent {
	return EngagementEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   time.Now().Unix(),
		ActorID:     actorID,
		RecipientID: recipientID,
	}
}

// NewUserFollowedEvent creates an event for when a user follows another.
func NewUserFollowedEvent(followerID, followeeID int64) EngagementEvent {
	return newEvent(EventUserFollowed, followerID, followeeID)
}

// NewPostLikedEvent creates an event addressed to the post owner.
func NewPostLikedEvent(actorID, ownerID, postID int64) EngagementEvent {
	e := newEvent(EventPostLiked, actorID, ownerID)
	e.PostID = postID
	return e
}

// NewCommentLikedEvent creates an event addressed to the comment author.
func NewCommentLikedEvent(actorID, authorID, postID, commentID int64) EngagementEvent {
	e := newEvent(EventCommentLiked, actorID, authorID)
	e.PostID = postID
	e.CommentID = &commentID
	return e
}

// NewPostCommentedEvent creates an event addressed to the post owner.
func NewPostCommentedEvent(actorID, ownerID, postID, commentID int64) EngagementEvent {
	e := newEvent(EventPostCommented, actorID, ownerID)
	e.PostID = postID
	e.CommentID = &commentID
	return e
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e EngagementEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEngagementEvent parses an EngagementEvent from Redis stream message values.
func ParseEngagementEvent(values map[string]interface{}) (EngagementEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return EngagementEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event EngagementEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return EngagementEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type == "" {
		return EngagementEvent{}, fmt.Errorf("event has no type")
	}
	return event, nil
}
