package model

import (
	"fmt"
	"time"
)

// DefaultCollectionName is the name of the collection every actor owns from creation.
const DefaultCollectionName = "default"

// Collection is a named set of bookmarked posts plus a set of member users.
type Collection struct {
	ID        int64      `db:"id" json:"id"`
	UID       string     `db:"uid" json:"uid"`
	OwnerID   int64      `db:"owner_id" json:"owner_id"`
	Name      string     `db:"name" json:"name"`
	IsDeleted bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDefault reports whether c is its owner's bootstrap collection.
func (c *Collection) IsDefault() bool {
	return c.Name == DefaultCollectionName
}

// CreateCollectionRequest is the request body for creating a collection.
type CreateCollectionRequest struct {
	Name string `json:"name"`
}

// BookmarkResult is returned by the default collection toggle.
type BookmarkResult struct {
	PostID      int64 `json:"post_id"`
	IsCollected bool  `json:"is_collected"`
}

const MaxCollectionNameLength = 100

// Collection errors
var (
	ErrCollectionNotFound       = notFound("collection")
	ErrCollectionDeleted        = forbidden("collection is deleted")
	ErrNotCollectionOwner       = forbidden("not the owner of this collection")
	ErrDefaultCollectionLocked  = forbidden("default collection cannot be deleted")
	ErrDefaultCollectionMissing = fmt.Errorf("default collection missing: %w", ErrDataIntegrity)
	ErrPostAlreadyCollected     = fmt.Errorf("post already in collection: %w", ErrAlreadyExists)
	ErrPostNotCollected         = fmt.Errorf("post not in collection: %w", ErrNotFound)
	ErrAlreadyMember            = fmt.Errorf("user already a member: %w", ErrAlreadyExists)
	ErrNotMember                = fmt.Errorf("user not a member: %w", ErrNotFound)
	ErrInvalidCollectionName    = fmt.Errorf("collection name must be 1-%d characters: %w", MaxCollectionNameLength, ErrInvalidInput)
)
