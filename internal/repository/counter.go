package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
)

var entityTables = map[model.EntityKind]string{
	model.EntityUser:       "users",
	model.EntityPost:       "posts",
	model.EntityComment:    "comments",
	model.EntityCollection: "collections",
}

// counterColumns is the whitelist of columns this repository may touch.
var counterColumns = map[model.Counter]bool{
	model.CounterFollowers:    true,
	model.CounterFollowing:    true,
	model.CounterPosts:        true,
	model.CounterPostLikes:    true,
	model.CounterPostComments: true,
	model.CounterCommentLikes: true,
}

func counterTarget(c model.Counter) (table, column string, err error) {
	if !counterColumns[c] {
		return "", "", fmt.Errorf("counter %s: %w", c, model.ErrInvalidInput)
	}
	return entityTables[c.Entity], c.Field, nil
}

type counterRepository struct{}

func NewCounterRepository() CounterRepository {
	return &counterRepository{}
}

func (r *counterRepository) Increment(ctx context.Context, tx *sqlx.Tx, c model.Counter, id int64) (int64, error) {
	table, col, err := counterTarget(c)
	if err != nil {
		return 0, err
	}

	query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE id = ? RETURNING %s`, table, col, col, col))
	var v int64
	if err := tx.GetContext(ctx, &v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.NotFoundError(c.Entity)
		}
		return 0, fmt.Errorf("increment %s: %w", c, err)
	}
	return v, nil
}

func (r *counterRepository) Decrement(ctx context.Context, tx *sqlx.Tx, c model.Counter, id int64) (int64, error) {
	table, col, err := counterTarget(c)
	if err != nil {
		return 0, err
	}

	query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET %s = %s - 1 WHERE id = ? AND %s > 0 RETURNING %s`, table, col, col, col, col))
	var v int64
	err = tx.GetContext(ctx, &v, query, id)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement %s: %w", c, err)
	}

	// No row matched: either the entity is gone or the counter is already zero.
	v, err = r.Get(ctx, tx, c, id)
	if err != nil {
		return 0, err
	}
	log := logger.Ctx(ctx)
	log.Warn().
		Str(logger.FieldCounter, c.String()).
		Int64(logger.FieldEntityID, id).
		Msg("counter already at zero, decrement skipped")
	return v, nil
}

func (r *counterRepository) Get(ctx context.Context, q Querier, c model.Counter, id int64) (int64, error) {
	table, col, err := counterTarget(c)
	if err != nil {
		return 0, err
	}

	query := q.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, col, table))
	var v int64
	if err := sqlx.GetContext(ctx, q, &v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.NotFoundError(c.Entity)
		}
		return 0, fmt.Errorf("read %s: %w", c, err)
	}
	return v, nil
}

func (r *counterRepository) Set(ctx context.Context, tx *sqlx.Tx, c model.Counter, id, value int64) error {
	table, col, err := counterTarget(c)
	if err != nil {
		return err
	}
	if value < 0 {
		return fmt.Errorf("set %s to %d: %w", c, value, model.ErrInvalidInput)
	}

	query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`, table, col))
	result, err := tx.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("set %s: %w", c, err)
	}
	return requireOneRow(result, model.NotFoundError(c.Entity))
}

func (r *counterRepository) Lock(ctx context.Context, tx *sqlx.Tx, entity model.EntityKind, id int64) error {
	table, ok := entityTables[entity]
	if !ok {
		return model.ErrUnknownEntityKind
	}

	// A no-op write takes the row lock on every engine we support.
	query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET updated_at = updated_at WHERE id = ?`, table))
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("lock %s: %w", entity, err)
	}
	return requireOneRow(result, model.NotFoundError(entity))
}

func requireOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
