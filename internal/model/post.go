package model

import (
	"fmt"
	"time"
)

// Post is a user's post with its denormalized engagement counters.
type Post struct {
	ID            int64      `db:"id" json:"id"`
	UID           string     `db:"uid" json:"uid"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Caption       string     `db:"caption" json:"caption"`
	LikesCount    int64      `db:"likes_count" json:"likes_count"`
	CommentsCount int64      `db:"comments_count" json:"comments_count"`
	IsDeleted     bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// PostView is a post as seen by a viewer.
type PostView struct {
	Post
	IsLiked     bool `json:"is_liked"`
	IsCollected bool `json:"is_collected"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Caption string `json:"caption"`
}

const MaxPostCaptionLength = 2200

// Post errors
var (
	ErrPostNotFound   = notFound("post")
	ErrPostDeleted    = forbidden("post is deleted")
	ErrNotPostOwner   = forbidden("not the owner of this post")
	ErrCaptionTooLong = fmt.Errorf("caption too long: %w", ErrInvalidInput)
)
