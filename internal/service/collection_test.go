package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/database/dbtest"
	"snaps_engagement/internal/model"
)

// =============================================================================
// DEFAULT COLLECTION TOGGLE
// =============================================================================

func TestToggleInDefaultCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	reader := dbtest.SeedUser(t, f.db, "reader")
	post := dbtest.SeedPost(t, f.db, owner)

	res, err := f.collections.ToggleInDefaultCollection(ctx, reader, post)
	require.NoError(t, err)
	assert.True(t, res.IsCollected)

	view, err := f.posts.GetByID(ctx, reader, post)
	require.NoError(t, err)
	assert.True(t, view.IsCollected)

	res, err = f.collections.ToggleInDefaultCollection(ctx, reader, post)
	require.NoError(t, err)
	assert.False(t, res.IsCollected)
	assert.Equal(t, int64(0), dbtest.CountRows(t, f.db, "collection_posts", "post_id = ?", post))
}

func TestToggleInDefaultCollection_MissingDefault(t *testing.T) {
	f := newFixture(t)
	owner := dbtest.SeedUser(t, f.db, "owner")
	orphan := dbtest.SeedUserWithoutDefault(t, f.db, "orphan")
	post := dbtest.SeedPost(t, f.db, owner)

	_, err := f.collections.ToggleInDefaultCollection(context.Background(), orphan, post)
	require.ErrorIs(t, err, model.ErrDataIntegrity)

	// The missing collection is reported, never created on demand.
	assert.Equal(t, int64(0), dbtest.CountRows(t, f.db, "collections", "owner_id = ?", orphan))
}

func TestToggleInDefaultCollection_Preconditions(t *testing.T) {
	f := newFixture(t)
	owner := dbtest.SeedUser(t, f.db, "owner")
	post := dbtest.SeedPost(t, f.db, owner)
	dbtest.MarkDeleted(t, f.db, "posts", post)

	_, err := f.collections.ToggleInDefaultCollection(context.Background(), owner, post)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, int64(0), dbtest.CountRows(t, f.db, "collection_posts", "post_id = ?", post))

	_, err = f.collections.ToggleInDefaultCollection(context.Background(), owner, 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.collections.ToggleInDefaultCollection(context.Background(), 9999, post)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestToggleInDefaultCollection_RemovesBookmarkOfDeletedPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	reader := dbtest.SeedUser(t, f.db, "reader")
	post := dbtest.SeedPost(t, f.db, owner)

	res, err := f.collections.ToggleInDefaultCollection(ctx, reader, post)
	require.NoError(t, err)
	require.True(t, res.IsCollected)

	_, err = f.lifecycle.SoftDelete(ctx, model.EntityPost, post)
	require.NoError(t, err)

	res, err = f.collections.ToggleInDefaultCollection(ctx, reader, post)
	require.NoError(t, err)
	assert.False(t, res.IsCollected)
	assert.Equal(t, int64(0), dbtest.CountRows(t, f.db, "collection_posts", "post_id = ?", post))

	// Bookmarking it again is a new edge to a deleted post.
	_, err = f.collections.ToggleInDefaultCollection(ctx, reader, post)
	assert.ErrorIs(t, err, model.ErrPostDeleted)
	assert.Equal(t, int64(0), dbtest.CountRows(t, f.db, "collection_posts", "post_id = ?", post))
}

// =============================================================================
// EXPLICIT ADD / REMOVE
// =============================================================================

func TestCollectionAddRemovePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	other := dbtest.SeedUser(t, f.db, "other")
	post := dbtest.SeedPost(t, f.db, owner)

	trips, err := f.collections.Create(ctx, owner, model.CreateCollectionRequest{Name: " trips "})
	require.NoError(t, err)
	assert.Equal(t, "trips", trips.Name)

	require.NoError(t, f.collections.AddPost(ctx, owner, trips.ID, post))
	assert.ErrorIs(t, f.collections.AddPost(ctx, owner, trips.ID, post), model.ErrAlreadyExists)
	assert.ErrorIs(t, f.collections.AddPost(ctx, other, trips.ID, post), model.ErrForbidden)

	posts, err := f.collections.ListPosts(ctx, owner, trips.ID, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post, posts[0].ID)

	require.NoError(t, f.collections.RemovePost(ctx, owner, trips.ID, post))
	assert.ErrorIs(t, f.collections.RemovePost(ctx, owner, trips.ID, post), model.ErrNotFound)

	_, err = f.lifecycle.SoftDelete(ctx, model.EntityCollection, trips.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.collections.AddPost(ctx, owner, trips.ID, post), model.ErrCollectionDeleted)

	_, err = f.collections.ListPosts(ctx, owner, trips.ID, 0)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCollectionMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	friend := dbtest.SeedUser(t, f.db, "friend")
	stranger := dbtest.SeedUser(t, f.db, "stranger")
	trips := dbtest.SeedCollection(t, f.db, owner, "trips")

	_, err := f.collections.ListPosts(ctx, friend, trips, 0)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, f.collections.AddMember(ctx, owner, trips, friend))
	assert.ErrorIs(t, f.collections.AddMember(ctx, owner, trips, friend), model.ErrAlreadyMember)

	_, err = f.collections.ListPosts(ctx, friend, trips, 0)
	assert.NoError(t, err)
	_, err = f.collections.ListPosts(ctx, stranger, trips, 0)
	assert.ErrorIs(t, err, model.ErrForbidden)

	// Members can read but not mutate.
	assert.ErrorIs(t, f.collections.AddMember(ctx, friend, trips, stranger), model.ErrNotCollectionOwner)

	require.NoError(t, f.collections.RemoveMember(ctx, owner, trips, friend))
	assert.ErrorIs(t, f.collections.RemoveMember(ctx, owner, trips, friend), model.ErrNotMember)
}

func TestCollectionCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")

	_, err := f.collections.Create(ctx, owner, model.CreateCollectionRequest{Name: "  "})
	assert.ErrorIs(t, err, model.ErrInvalidCollectionName)

	// A second default would break the one-default rule.
	_, err = f.collections.Create(ctx, owner, model.CreateCollectionRequest{Name: model.DefaultCollectionName})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	_, err = f.collections.Create(ctx, owner, model.CreateCollectionRequest{Name: "food"})
	require.NoError(t, err)

	list, err := f.collections.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsDefault())
}
