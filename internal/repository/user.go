package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/database"
	"snaps_engagement/internal/model"
)

const userColumns = `id, username, followers_count, following_count, posts_count, is_deleted, deleted_at, created_at, updated_at`

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query := tx.Rebind(`
		INSERT INTO users (username, created_at, updated_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)
	err := tx.GetContext(ctx, &user.ID, query, user.Username, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, q Querier, id int64) (*model.User, error) {
	query := q.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	var user model.User
	if err := sqlx.GetContext(ctx, q, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ListIDs(ctx context.Context, q Querier, afterID int64, limit int) ([]int64, error) {
	query := q.Rebind(`
		SELECT id FROM users
		WHERE id > ? AND is_deleted = FALSE
		ORDER BY id
		LIMIT ?
	`)
	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}
