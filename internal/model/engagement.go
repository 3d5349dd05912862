package model

import (
	"fmt"
	"time"
)

// TargetKind names what a toggle acts on.
type TargetKind string

const (
	TargetUser    TargetKind = "user"
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// EdgeKind names a relationship table.
type EdgeKind string

const (
	EdgeFollow           EdgeKind = "follow"
	EdgePostLike         EdgeKind = "post_like"
	EdgeCommentLike      EdgeKind = "comment_like"
	EdgeCollectionPost   EdgeKind = "collection_post"
	EdgeCollectionMember EdgeKind = "collection_member"
)

// EntityKind names a row type that owns counters or can be soft-deleted.
type EntityKind string

const (
	EntityUser       EntityKind = "user"
	EntityPost       EntityKind = "post"
	EntityComment    EntityKind = "comment"
	EntityCollection EntityKind = "collection"
)

var (
	ErrCannotFollowSelf  = fmt.Errorf("cannot follow yourself: %w", ErrSelfReference)
	ErrUnknownTargetKind = fmt.Errorf("unknown target kind: %w", ErrInvalidInput)
	ErrUnknownEntityKind = fmt.Errorf("unknown entity kind: %w", ErrInvalidInput)
)

// NotFoundError returns the not-found error for an entity kind.
func NotFoundError(kind EntityKind) error {
	switch kind {
	case EntityUser:
		return ErrUserNotFound
	case EntityPost:
		return ErrPostNotFound
	case EntityComment:
		return ErrCommentNotFound
	case EntityCollection:
		return ErrCollectionNotFound
	}
	return ErrNotFound
}

// ParseTargetKind validates a target kind coming from a caller.
func ParseTargetKind(s string) (TargetKind, error) {
	switch k := TargetKind(s); k {
	case TargetUser, TargetPost, TargetComment:
		return k, nil
	}
	return "", ErrUnknownTargetKind
}

// EdgeKind returns the relationship a toggle on k creates or removes.
func (k TargetKind) EdgeKind() (EdgeKind, error) {
	switch k {
	case TargetUser:
		return EdgeFollow, nil
	case TargetPost:
		return EdgePostLike, nil
	case TargetComment:
		return EdgeCommentLike, nil
	}
	return "", ErrUnknownTargetKind
}

// ParseEntityKind validates an entity kind for soft delete.
func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(s); k {
	case EntityPost, EntityComment, EntityCollection:
		return k, nil
	}
	return "", ErrUnknownEntityKind
}

// Edge is one stored actor→target relationship. For collection edges the
// collection is the actor and the post or member user is the target.
type Edge struct {
	ID        int64     `db:"id" json:"id"`
	Kind      EdgeKind  `db:"-" json:"kind"`
	ActorID   int64     `db:"actor_id" json:"actor_id"`
	TargetID  int64     `db:"target_id" json:"target_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Counter identifies one denormalized counter column.
type Counter struct {
	Entity EntityKind
	Field  string
}

func (c Counter) String() string {
	return string(c.Entity) + "." + c.Field
}

var (
	CounterFollowers    = Counter{Entity: EntityUser, Field: "followers_count"}
	CounterFollowing    = Counter{Entity: EntityUser, Field: "following_count"}
	CounterPosts        = Counter{Entity: EntityUser, Field: "posts_count"}
	CounterPostLikes    = Counter{Entity: EntityPost, Field: "likes_count"}
	CounterPostComments = Counter{Entity: EntityPost, Field: "comments_count"}
	CounterCommentLikes = Counter{Entity: EntityComment, Field: "likes_count"}
)

// ToggleResult is the outcome of a toggle: whether the edge is now present,
// and the post-mutation value of every counter the toggle touched, keyed by field.
type ToggleResult struct {
	Kind     TargetKind       `json:"kind"`
	TargetID int64            `json:"target_id"`
	IsActive bool             `json:"is_active"`
	Counts   map[string]int64 `json:"counts"`
}

// CounterDrift records a stored counter that disagreed with its live edges.
type CounterDrift struct {
	Entity EntityKind `json:"entity"`
	ID     int64      `json:"id"`
	Field  string     `json:"field"`
	Stored int64      `json:"stored"`
	Actual int64      `json:"actual"`
}

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Entity    EntityKind       `json:"entity"`
	ID        int64            `json:"id"`
	Counts    map[string]int64 `json:"counts"`
	Drifts    []CounterDrift   `json:"drifts"`
	CheckedAt time.Time        `json:"checked_at"`
}

// HasDrift reports whether any counter was corrected.
func (r *ReconcileReport) HasDrift() bool {
	return len(r.Drifts) > 0
}
