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

// maxInsertAttempts bounds the insert/fetch loop when the conflicting row is
// deleted by another transaction between our insert and our read.
const maxInsertAttempts = 3

type edgeTable struct {
	table     string
	actorCol  string
	targetCol string
}

var edgeTables = map[model.EdgeKind]edgeTable{
	model.EdgeFollow:           {table: "follows", actorCol: "follower_id", targetCol: "following_id"},
	model.EdgePostLike:         {table: "post_likes", actorCol: "user_id", targetCol: "post_id"},
	model.EdgeCommentLike:      {table: "comment_likes", actorCol: "user_id", targetCol: "comment_id"},
	model.EdgeCollectionPost:   {table: "collection_posts", actorCol: "collection_id", targetCol: "post_id"},
	model.EdgeCollectionMember: {table: "collection_members", actorCol: "collection_id", targetCol: "user_id"},
}

func tableFor(kind model.EdgeKind) (edgeTable, error) {
	t, ok := edgeTables[kind]
	if !ok {
		return edgeTable{}, fmt.Errorf("edge kind %q: %w", kind, model.ErrInvalidInput)
	}
	return t, nil
}

func (t edgeTable) selectQuery() string {
	return fmt.Sprintf(
		`SELECT id, %s AS actor_id, %s AS target_id, created_at FROM %s WHERE %s = ? AND %s = ?`,
		t.actorCol, t.targetCol, t.table, t.actorCol, t.targetCol)
}

type edgeRepository struct{}

func NewEdgeRepository() EdgeRepository {
	return &edgeRepository{}
}

func (r *edgeRepository) Create(ctx context.Context, tx *sqlx.Tx, kind model.EdgeKind, actorID, targetID int64) (*model.Edge, bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, false, err
	}
	if kind == model.EdgeFollow && actorID == targetID {
		return nil, false, model.ErrCannotFollowSelf
	}

	insert := tx.Rebind(fmt.Sprintf(`
		INSERT INTO %s (%s, %s, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (%s, %s) DO NOTHING
		RETURNING id`,
		t.table, t.actorCol, t.targetCol, t.actorCol, t.targetCol))

	return insertOrFetch(kind, maxInsertAttempts,
		func() (*model.Edge, error) {
			now := time.Now().UTC()
			var id int64
			if err := tx.GetContext(ctx, &id, insert, actorID, targetID, now); err != nil {
				return nil, err
			}
			return &model.Edge{ID: id, Kind: kind, ActorID: actorID, TargetID: targetID, CreatedAt: now}, nil
		},
		func() (*model.Edge, error) {
			return r.get(ctx, tx, t, kind, actorID, targetID)
		})
}

// insertOrFetch runs insert until it wins, or reads back the row that beat
// it. Both callbacks report "no row" as sql.ErrNoRows: for insert that means
// ON CONFLICT skipped the row, for fetch that the conflicting row is gone
// again and the insert is worth another try.
func insertOrFetch(kind model.EdgeKind, attempts int, insert, fetch func() (*model.Edge, error)) (*model.Edge, bool, error) {
	for attempt := 1; attempt <= attempts; attempt++ {
		edge, err := insert()
		if err == nil {
			return edge, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("insert %s: %w", kind, err)
		}

		existing, err := fetch()
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("fetch existing %s: %w", kind, err)
		}
	}

	return nil, false, fmt.Errorf("insert %s: conflicting edge vanished %d times", kind, attempts)
}

func (r *edgeRepository) get(ctx context.Context, q Querier, t edgeTable, kind model.EdgeKind, actorID, targetID int64) (*model.Edge, error) {
	var edge model.Edge
	if err := sqlx.GetContext(ctx, q, &edge, q.Rebind(t.selectQuery()), actorID, targetID); err != nil {
		return nil, err
	}
	edge.Kind = kind
	return &edge, nil
}

func (r *edgeRepository) Delete(ctx context.Context, tx *sqlx.Tx, kind model.EdgeKind, actorID, targetID int64) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query := tx.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, t.table, t.actorCol, t.targetCol))
	result, err := tx.ExecContext(ctx, query, actorID, targetID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", kind, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *edgeRepository) Exists(ctx context.Context, q Querier, kind model.EdgeKind, actorID, targetID int64) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	query := q.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ? AND %s = ?`, t.table, t.actorCol, t.targetCol))
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, actorID, targetID); err != nil {
		return false, fmt.Errorf("check %s existence: %w", kind, err)
	}
	return n > 0, nil
}

func (r *edgeRepository) CountByTarget(ctx context.Context, q Querier, kind model.EdgeKind, targetID int64) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, q, kind, t.table, t.targetCol, targetID)
}

func (r *edgeRepository) CountByActor(ctx context.Context, q Querier, kind model.EdgeKind, actorID int64) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, q, kind, t.table, t.actorCol, actorID)
}

func (r *edgeRepository) count(ctx context.Context, q Querier, kind model.EdgeKind, table, col string, id int64) (int64, error) {
	query := q.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, table, col))
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, id); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func (r *edgeRepository) CheckTargets(ctx context.Context, q Querier, kind model.EdgeKind, actorID int64, targetIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return result, nil
	}

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s IN (?)`, t.targetCol, t.table, t.actorCol, t.targetCol),
		actorID, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("build %s check: %w", kind, err)
	}

	var present []int64
	if err := sqlx.SelectContext(ctx, q, &present, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("check %s targets: %w", kind, err)
	}

	for _, id := range targetIDs {
		result[id] = false
	}
	for _, id := range present {
		result[id] = true
	}
	return result, nil
}
