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

const commentColumns = `id, uid, post_id, user_id, parent_id, content, likes_count, is_deleted, deleted_at, created_at, updated_at`

type commentRepository struct{}

func NewCommentRepository() CommentRepository {
	return &commentRepository{}
}

func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error {
	query := tx.Rebind(`
		INSERT INTO comments (uid, post_id, user_id, parent_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := tx.GetContext(ctx, &comment.ID, query,
		comment.UID, comment.PostID, comment.UserID, comment.ParentID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, q Querier, id int64) (*model.Comment, error) {
	query := q.Rebind(`SELECT ` + commentColumns + ` FROM comments WHERE id = ?`)
	var comment model.Comment
	if err := sqlx.GetContext(ctx, q, &comment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, tx *sqlx.Tx, id int64, content string, at time.Time) error {
	query := tx.Rebind(`UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND is_deleted = FALSE`)
	result, err := tx.ExecContext(ctx, query, content, at, id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return requireOneRow(result, model.ErrCommentNotFound)
}

func (r *commentRepository) ListByPost(ctx context.Context, q Querier, postID int64, limit int) ([]model.Comment, error) {
	query := q.Rebind(`
		SELECT ` + commentColumns + ` FROM comments
		WHERE post_id = ? AND is_deleted = FALSE
		ORDER BY created_at, id
		LIMIT ?
	`)
	comments := []model.Comment{}
	if err := sqlx.SelectContext(ctx, q, &comments, query, postID, limit); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) CountLiveByPost(ctx context.Context, q Querier, postID int64) (int64, error) {
	query := q.Rebind(`SELECT COUNT(*) FROM comments WHERE post_id = ? AND is_deleted = FALSE`)
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, postID); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

func (r *commentRepository) MarkDeleted(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time) (bool, error) {
	return markDeleted(ctx, tx, "comments", id, at)
}
