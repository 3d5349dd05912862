package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/model"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so reads can run either
// standalone or inside the caller's unit of work. Mutations always take a *sqlx.Tx.
type Querier interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// EdgeRepository persists unique actor→target relationships. Uniqueness is
// enforced by the table's unique constraint, never by check-then-insert.
type EdgeRepository interface {
	// Create inserts the edge, or returns the existing one with created=false.
	Create(ctx context.Context, tx *sqlx.Tx, kind model.EdgeKind, actorID, targetID int64) (edge *model.Edge, created bool, err error)
	// Delete removes the edge and reports how many rows went away (0 or 1).
	Delete(ctx context.Context, tx *sqlx.Tx, kind model.EdgeKind, actorID, targetID int64) (int64, error)
	Exists(ctx context.Context, q Querier, kind model.EdgeKind, actorID, targetID int64) (bool, error)
	CountByTarget(ctx context.Context, q Querier, kind model.EdgeKind, targetID int64) (int64, error)
	CountByActor(ctx context.Context, q Querier, kind model.EdgeKind, actorID int64) (int64, error)
	// CheckTargets reports which of targetIDs the actor has an edge to.
	CheckTargets(ctx context.Context, q Querier, kind model.EdgeKind, actorID int64, targetIDs []int64) (map[int64]bool, error)
}

// CounterRepository applies in-SQL arithmetic to denormalized counter columns.
type CounterRepository interface {
	// Increment adds one and returns the stored value after the update.
	Increment(ctx context.Context, tx *sqlx.Tx, c model.Counter, id int64) (int64, error)
	// Decrement subtracts one unless the counter is already zero, and returns the stored value.
	Decrement(ctx context.Context, tx *sqlx.Tx, c model.Counter, id int64) (int64, error)
	Get(ctx context.Context, q Querier, c model.Counter, id int64) (int64, error)
	Set(ctx context.Context, tx *sqlx.Tx, c model.Counter, id, value int64) error
	// Lock takes the row lock on the entity owning the counters for the rest of tx.
	Lock(ctx context.Context, tx *sqlx.Tx, entity model.EntityKind, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	GetByID(ctx context.Context, q Querier, id int64) (*model.User, error)
	// ListIDs pages through live user ids in ascending order.
	ListIDs(ctx context.Context, q Querier, afterID int64, limit int) ([]int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	// GetByID returns the post whether or not it is soft-deleted.
	GetByID(ctx context.Context, q Querier, id int64) (*model.Post, error)
	ListByUser(ctx context.Context, q Querier, userID int64, limit int) ([]model.Post, error)
	CountLiveByUser(ctx context.Context, q Querier, userID int64) (int64, error)
	// MarkDeleted flips is_deleted false→true and reports whether this call did it.
	MarkDeleted(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error
	GetByID(ctx context.Context, q Querier, id int64) (*model.Comment, error)
	UpdateContent(ctx context.Context, tx *sqlx.Tx, id int64, content string, at time.Time) error
	ListByPost(ctx context.Context, q Querier, postID int64, limit int) ([]model.Comment, error)
	CountLiveByPost(ctx context.Context, q Querier, postID int64) (int64, error)
	MarkDeleted(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time) (bool, error)
}

type CollectionRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, collection *model.Collection) error
	GetByID(ctx context.Context, q Querier, id int64) (*model.Collection, error)
	// GetDefault returns the owner's live default collection.
	GetDefault(ctx context.Context, q Querier, ownerID int64) (*model.Collection, error)
	ListByOwner(ctx context.Context, q Querier, ownerID int64) ([]model.Collection, error)
	// ListPosts returns the live posts in a collection, newest bookmark first.
	ListPosts(ctx context.Context, q Querier, collectionID int64, limit int) ([]model.Post, error)
	MarkDeleted(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}

type DeviceTokenRepository interface {
	// Upsert creates or reassigns a device token to userID.
	Upsert(ctx context.Context, userID int64, token, platform string) error
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	Delete(ctx context.Context, token string) error
}
