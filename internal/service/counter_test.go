package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/database/dbtest"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

func TestCounterMaintainer_Adjust(t *testing.T) {
	db := dbtest.New(t)
	owner := dbtest.SeedUser(t, db, "owner")
	post := dbtest.SeedPost(t, db, owner)
	dbtest.SetCounter(t, db, "posts", "likes_count", post, 3)

	m := NewCounterMaintainer(repository.NewCounterRepository())
	ctx := context.Background()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	v, err := m.Adjust(ctx, tx, model.CounterPostLikes, post, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)

	v, err = m.Adjust(ctx, tx, model.CounterPostLikes, post, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = m.Adjust(ctx, tx, model.CounterPostLikes, post, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(3), dbtest.Counter(t, db, "posts", "likes_count", post))
}

func TestCountersFor_FollowLocksInIDOrder(t *testing.T) {
	refs := countersFor(model.EdgeFollow, 9, 4)
	require.Len(t, refs, 2)
	assert.Equal(t, int64(4), refs[0].id)
	assert.Equal(t, model.CounterFollowers, refs[0].counter)
	assert.Equal(t, int64(9), refs[1].id)
	assert.Equal(t, model.CounterFollowing, refs[1].counter)

	assert.Empty(t, countersFor(model.EdgeCollectionPost, 1, 2))
}
