package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/database/dbtest"
	"snaps_engagement/internal/model"
)

func TestReconcileUser_FixesDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedUser(t, f.db, "alice")
	b := dbtest.SeedUser(t, f.db, "bob")

	_, err := f.toggles.Toggle(ctx, a, model.TargetUser, b)
	require.NoError(t, err)
	dbtest.SetCounter(t, f.db, "users", "followers_count", b, 42)

	report, err := f.reconcile.ReconcileUser(ctx, b)
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, model.CounterDrift{
		Entity: model.EntityUser,
		ID:     b,
		Field:  "followers_count",
		Stored: 42,
		Actual: 1,
	}, report.Drifts[0])
	assert.Equal(t, int64(1), f.counter(t, "users", "followers_count", b))

	require.Len(t, f.sink.reports, 1)
	assert.Equal(t, b, f.sink.reports[0].ID)

	// A second pass finds nothing to fix and archives nothing.
	report, err = f.reconcile.ReconcileUser(ctx, b)
	require.NoError(t, err)
	assert.False(t, report.HasDrift())
	assert.Len(t, f.sink.reports, 1)
}

func TestReconcilePost_CountsLiveCommentsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	post := dbtest.SeedPost(t, f.db, owner)
	dbtest.SeedComment(t, f.db, owner, post)
	hidden := dbtest.SeedComment(t, f.db, owner, post)
	dbtest.MarkDeleted(t, f.db, "comments", hidden)

	report, err := f.reconcile.ReconcilePost(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Counts["comments_count"])
	assert.Equal(t, int64(0), report.Counts["likes_count"])
	assert.Equal(t, int64(1), f.counter(t, "posts", "comments_count", post))
}

func TestReconcileComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	post := dbtest.SeedPost(t, f.db, owner)
	comment := dbtest.SeedComment(t, f.db, owner, post)
	dbtest.SetCounter(t, f.db, "comments", "likes_count", comment, 3)

	report, err := f.reconcile.ReconcileComment(ctx, comment)
	require.NoError(t, err)
	assert.True(t, report.HasDrift())
	assert.Equal(t, int64(0), f.counter(t, "comments", "likes_count", comment))
}

func TestReconcile_SinkFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.sink.saveFn = func(context.Context, *model.ReconcileReport) error {
		return errors.New("bucket unavailable")
	}
	owner := dbtest.SeedUser(t, f.db, "owner")
	dbtest.SetCounter(t, f.db, "users", "posts_count", owner, 5)

	report, err := f.reconcile.ReconcileUser(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, report.HasDrift())
	assert.Equal(t, int64(0), f.counter(t, "users", "posts_count", owner))
}

func TestReconcileAllUsers(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedUser(t, f.db, "alice")
	dbtest.SeedUser(t, f.db, "bob")
	c := dbtest.SeedUser(t, f.db, "carol")
	dbtest.SetCounter(t, f.db, "users", "following_count", a, 2)
	dbtest.SetCounter(t, f.db, "users", "followers_count", c, 7)

	checked, drifted, err := f.reconcile.ReconcileAllUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, checked)
	require.Len(t, drifted, 2)
	assert.Equal(t, a, drifted[0].ID)
	assert.Equal(t, c, drifted[1].ID)
}

func TestReconcile_MissingEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reconcile.ReconcileUser(ctx, 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.reconcile.ReconcilePost(ctx, 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
