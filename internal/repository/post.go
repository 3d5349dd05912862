package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/model"
)

const postColumns = `id, uid, user_id, caption, likes_count, comments_count, is_deleted, deleted_at, created_at, updated_at`

type postRepository struct{}

func NewPostRepository() PostRepository {
	return &postRepository{}
}

func (r *postRepository) Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error {
	query := tx.Rebind(`
		INSERT INTO posts (uid, user_id, caption, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := tx.GetContext(ctx, &post.ID, query, post.UID, post.UserID, post.Caption, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, q Querier, id int64) (*model.Post, error) {
	query := q.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ?`)
	var post model.Post
	if err := sqlx.GetContext(ctx, q, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) ListByUser(ctx context.Context, q Querier, userID int64, limit int) ([]model.Post, error) {
	query := q.Rebind(`
		SELECT ` + postColumns + ` FROM posts
		WHERE user_id = ? AND is_deleted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)
	posts := []model.Post{}
	if err := sqlx.SelectContext(ctx, q, &posts, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) CountLiveByUser(ctx context.Context, q Querier, userID int64) (int64, error) {
	query := q.Rebind(`SELECT COUNT(*) FROM posts WHERE user_id = ? AND is_deleted = FALSE`)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, userID); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (r *postRepository) MarkDeleted(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time) (bool, error) {
	return markDeleted(ctx, tx, "posts", id, at)
}

// markDeleted writes only the soft-delete fields, and only on the live→deleted
// transition, so a concurrent edit of other columns is never overwritten.
func markDeleted(ctx context.Context, tx *sqlx.Tx, table string, id int64, at time.Time) (bool, error) {
	query := tx.Rebind(fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = TRUE, deleted_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = FALSE
	`, table))
	result, err := tx.ExecContext(ctx, query, at, at, id)
	if err != nil {
		return false, fmt.Errorf("soft delete %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
