package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/database"
	"snaps_engagement/internal/model"
)

const collectionColumns = `id, uid, owner_id, name, is_deleted, deleted_at, created_at, updated_at`

type collectionRepository struct{}

func NewCollectionRepository() CollectionRepository {
	return &collectionRepository{}
}

func (r *collectionRepository) Create(ctx context.Context, tx *sqlx.Tx, c *model.Collection) error {
	query := tx.Rebind(`
		INSERT INTO collections (uid, owner_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := tx.GetContext(ctx, &c.ID, query, c.UID, c.OwnerID, c.Name, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		// Only the partial index on default collections can reject a new row.
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("owner %d already has a default collection: %w", c.OwnerID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, q Querier, id int64) (*model.Collection, error) {
	query := q.Rebind(`SELECT ` + collectionColumns + ` FROM collections WHERE id = ?`)
	return r.getOne(ctx, q, query, id)
}

func (r *collectionRepository) GetDefault(ctx context.Context, q Querier, ownerID int64) (*model.Collection, error) {
	query := q.Rebind(`
		SELECT ` + collectionColumns + ` FROM collections
		WHERE owner_id = ? AND name = ? AND is_deleted = FALSE
	`)
	return r.getOne(ctx, q, query, ownerID, model.DefaultCollectionName)
}

func (r *collectionRepository) getOne(ctx context.Context, q Querier, query string, args ...interface{}) (*model.Collection, error) {
	var c model.Collection
	if err := sqlx.GetContext(ctx, q, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &c, nil
}

func (r *collectionRepository) ListByOwner(ctx context.Context, q Querier, ownerID int64) ([]model.Collection, error) {
	query := q.Rebind(`
		SELECT ` + collectionColumns + ` FROM collections
		WHERE owner_id = ? AND is_deleted = FALSE
		ORDER BY created_at, id
	`)
	collections := []model.Collection{}
	if err := sqlx.SelectContext(ctx, q, &collections, query, ownerID); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

func (r *collectionRepository) ListPosts(ctx context.Context, q Querier, collectionID int64, limit int) ([]model.Post, error) {
	query := q.Rebind(`
		SELECT p.id, p.uid, p.user_id, p.caption, p.likes_count, p.comments_count,
		       p.is_deleted, p.deleted_at, p.created_at, p.updated_at
		FROM collection_posts cp
		JOIN posts p ON p.id = cp.post_id
		WHERE cp.collection_id = ? AND p.is_deleted = FALSE
		ORDER BY cp.created_at DESC, cp.id DESC
		LIMIT ?
	`)
	posts := []model.Post{}
	if err := sqlx.SelectContext(ctx, q, &posts, query, collectionID, limit); err != nil {
		return nil, fmt.Errorf("list collection posts: %w", err)
	}
	return posts, nil
}

func (r *collectionRepository) MarkDeleted(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time) (bool, error) {
	return markDeleted(ctx, tx, "collections", id, at)
}
