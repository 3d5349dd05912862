package model

import (
	"fmt"
	"time"
)

// User is the actor of every engagement operation. Identity fields are owned
// by the identity subsystem; this package only maintains the counters.
type User struct {
	ID             int64      `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	FollowersCount int64      `db:"followers_count" json:"followers_count"`
	FollowingCount int64      `db:"following_count" json:"following_count"`
	PostsCount     int64      `db:"posts_count" json:"posts_count"`
	IsDeleted      bool       `db:"is_deleted" json:"-"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// UserProfile is a user as seen by a viewer.
type UserProfile struct {
	User
	IsFollowing bool `json:"is_following"`
}

// CreateUserRequest represents the data needed to bootstrap an actor.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// Username constraints
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = notFound("user")

	// ErrUserDeleted is returned when a mutation targets a deactivated user
	ErrUserDeleted = forbidden("user is deleted")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = fmt.Errorf("username %w", ErrAlreadyExists)

	// ErrInvalidUsername is returned when the username fails validation
	ErrInvalidUsername = fmt.Errorf("username must be %d-%d characters: %w", MinUsernameLength, MaxUsernameLength, ErrInvalidInput)
)
