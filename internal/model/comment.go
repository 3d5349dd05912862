package model

import (
	"fmt"
	"time"
)

// Comment represents a comment on a post. ParentID points at the comment it replies to.
type Comment struct {
	ID         int64      `db:"id" json:"id"`
	UID        string     `db:"uid" json:"uid"`
	PostID     int64      `db:"post_id" json:"post_id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	ParentID   *int64     `db:"parent_id" json:"parent_id,omitempty"`
	Content    string     `db:"content" json:"content"`
	LikesCount int64      `db:"likes_count" json:"likes_count"`
	IsDeleted  bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// CommentView is a comment as seen by a viewer.
type CommentView struct {
	Comment
	IsLiked bool `json:"is_liked"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

const MaxCommentLength = 255

// Comment errors
var (
	ErrCommentNotFound = notFound("comment")
	ErrCommentDeleted  = forbidden("comment is deleted")
	ErrNotCommentOwner = forbidden("not the owner of this comment")
	ErrContentRequired = fmt.Errorf("comment content is required: %w", ErrInvalidInput)
	ErrContentTooLong  = fmt.Errorf("comment content too long: %w", ErrInvalidInput)
	ErrInvalidParent   = fmt.Errorf("parent comment belongs to another post: %w", ErrInvalidInput)
)
