// Package dbtest opens throwaway SQLite databases carrying the production schema.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/database"
	"snaps_engagement/internal/model"
)

var seq atomic.Int64

// New returns a migrated in-memory database that is closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:snaps_test_%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	db, err := database.OpenSQLite(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// SeedUser inserts a user together with its default collection and returns the user id.
func SeedUser(t testing.TB, db *sqlx.DB, username string) int64 {
	t.Helper()

	id := insertID(t, db,
		`INSERT INTO users (username, created_at, updated_at) VALUES (?, ?, ?) RETURNING id`,
		username, now(), now())
	insertID(t, db,
		`INSERT INTO collections (uid, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		uuid.NewString(), id, model.DefaultCollectionName, now(), now())
	return id
}

// SeedUserWithoutDefault inserts a user that is missing its bootstrap collection.
func SeedUserWithoutDefault(t testing.TB, db *sqlx.DB, username string) int64 {
	t.Helper()
	return insertID(t, db,
		`INSERT INTO users (username, created_at, updated_at) VALUES (?, ?, ?) RETURNING id`,
		username, now(), now())
}

// SeedPost inserts a live post with zeroed counters.
func SeedPost(t testing.TB, db *sqlx.DB, userID int64) int64 {
	t.Helper()
	return insertID(t, db,
		`INSERT INTO posts (uid, user_id, caption, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		uuid.NewString(), userID, "caption", now(), now())
}

// SeedComment inserts a live comment without touching the post's counters.
func SeedComment(t testing.TB, db *sqlx.DB, userID, postID int64) int64 {
	t.Helper()
	return insertID(t, db,
		`INSERT INTO comments (uid, post_id, user_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		uuid.NewString(), postID, userID, "nice", now(), now())
}

// SeedCollection inserts a named collection.
func SeedCollection(t testing.TB, db *sqlx.DB, ownerID int64, name string) int64 {
	t.Helper()
	return insertID(t, db,
		`INSERT INTO collections (uid, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		uuid.NewString(), ownerID, name, now(), now())
}

// MarkDeleted flips the soft-delete flag of any row directly, bypassing the services.
func MarkDeleted(t testing.TB, db *sqlx.DB, table string, id int64) {
	t.Helper()
	_, err := db.Exec(`UPDATE `+table+` SET is_deleted = TRUE, deleted_at = ? WHERE id = ?`, now(), id)
	require.NoError(t, err)
}

// SetCounter overwrites a counter column directly, to simulate drift.
func SetCounter(t testing.TB, db *sqlx.DB, table, column string, id, value int64) {
	t.Helper()
	_, err := db.Exec(`UPDATE `+table+` SET `+column+` = ? WHERE id = ?`, value, id)
	require.NoError(t, err)
}

// Counter reads a counter column directly.
func Counter(t testing.TB, db *sqlx.DB, table, column string, id int64) int64 {
	t.Helper()
	var v int64
	require.NoError(t, db.Get(&v, `SELECT `+column+` FROM `+table+` WHERE id = ?`, id))
	return v
}

// CountRows counts rows in table matching where.
func CountRows(t testing.TB, db *sqlx.DB, table, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table+` WHERE `+where, args...))
	return n
}

func insertID(t testing.TB, db *sqlx.DB, query string, args ...interface{}) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, query, args...))
	return id
}

func now() time.Time {
	return time.Now().UTC()
}
