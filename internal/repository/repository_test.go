package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/database/dbtest"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

// inTx runs fn inside a committed transaction. fn must only use tx: the test
// database has a single connection.
func inTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx)) {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	fn(tx)
	require.NoError(t, tx.Commit())
}

// =============================================================================
// EDGES
// =============================================================================

func TestEdgeRepository_CreateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	repo := repository.NewEdgeRepository()
	ctx := context.Background()

	inTx(t, db, func(tx *sqlx.Tx) {
		first, created, err := repo.Create(ctx, tx, model.EdgeFollow, alice, bob)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.EdgeFollow, first.Kind)
		assert.Equal(t, alice, first.ActorID)
		assert.Equal(t, bob, first.TargetID)

		second, created, err := repo.Create(ctx, tx, model.EdgeFollow, alice, bob)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	assert.Equal(t, int64(1), dbtest.CountRows(t, db, "follows", "follower_id = ? AND following_id = ?", alice, bob))
}

func TestEdgeRepository_CreateRejectsSelfFollow(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	repo := repository.NewEdgeRepository()

	inTx(t, db, func(tx *sqlx.Tx) {
		_, _, err := repo.Create(context.Background(), tx, model.EdgeFollow, alice, alice)
		assert.ErrorIs(t, err, model.ErrSelfReference)
	})
	assert.Equal(t, int64(0), dbtest.CountRows(t, db, "follows", "1 = 1"))
}

func TestEdgeRepository_SelfLikeIsAllowed(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	post := dbtest.SeedPost(t, db, alice)
	repo := repository.NewEdgeRepository()

	inTx(t, db, func(tx *sqlx.Tx) {
		_, created, err := repo.Create(context.Background(), tx, model.EdgePostLike, alice, post)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestEdgeRepository_DeleteIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	post := dbtest.SeedPost(t, db, alice)
	repo := repository.NewEdgeRepository()
	ctx := context.Background()

	inTx(t, db, func(tx *sqlx.Tx) {
		_, _, err := repo.Create(ctx, tx, model.EdgePostLike, alice, post)
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, tx, model.EdgePostLike, alice, post)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		removed, err = repo.Delete(ctx, tx, model.EdgePostLike, alice, post)
		require.NoError(t, err)
		assert.Equal(t, int64(0), removed)
	})
}

func TestEdgeRepository_CountsAndChecks(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	carol := dbtest.SeedUser(t, db, "carol")
	p1 := dbtest.SeedPost(t, db, carol)
	p2 := dbtest.SeedPost(t, db, carol)
	p3 := dbtest.SeedPost(t, db, carol)
	repo := repository.NewEdgeRepository()
	ctx := context.Background()

	inTx(t, db, func(tx *sqlx.Tx) {
		for _, actor := range []int64{alice, bob} {
			_, _, err := repo.Create(ctx, tx, model.EdgeFollow, actor, carol)
			require.NoError(t, err)
		}
		_, _, err := repo.Create(ctx, tx, model.EdgePostLike, alice, p1)
		require.NoError(t, err)
		_, _, err = repo.Create(ctx, tx, model.EdgePostLike, alice, p3)
		require.NoError(t, err)
	})

	followers, err := repo.CountByTarget(ctx, db, model.EdgeFollow, carol)
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers)

	following, err := repo.CountByActor(ctx, db, model.EdgeFollow, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	exists, err := repo.Exists(ctx, db, model.EdgeFollow, carol, alice)
	require.NoError(t, err)
	assert.False(t, exists)

	liked, err := repo.CheckTargets(ctx, db, model.EdgePostLike, alice, []int64{p1, p2, p3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{p1: true, p2: false, p3: true}, liked)

	empty, err := repo.CheckTargets(ctx, db, model.EdgePostLike, alice, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEdgeRepository_UnknownKind(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewEdgeRepository()

	_, err := repo.Exists(context.Background(), db, model.EdgeKind("block"), 1, 2)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

// =============================================================================
// COUNTERS
// =============================================================================

func TestCounterRepository_IncrementDecrement(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	repo := repository.NewCounterRepository()
	ctx := context.Background()

	inTx(t, db, func(tx *sqlx.Tx) {
		v, err := repo.Increment(ctx, tx, model.CounterFollowers, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = repo.Increment(ctx, tx, model.CounterFollowers, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		v, err = repo.Decrement(ctx, tx, model.CounterFollowers, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	assert.Equal(t, int64(1), dbtest.Counter(t, db, "users", "followers_count", alice))
	assert.Equal(t, int64(0), dbtest.Counter(t, db, "users", "following_count", alice))
}

func TestCounterRepository_DecrementClampsAtZero(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	post := dbtest.SeedPost(t, db, alice)
	repo := repository.NewCounterRepository()

	inTx(t, db, func(tx *sqlx.Tx) {
		for i := 0; i < 3; i++ {
			v, err := repo.Decrement(context.Background(), tx, model.CounterPostLikes, post)
			require.NoError(t, err)
			assert.Equal(t, int64(0), v)
		}
	})
	assert.Equal(t, int64(0), dbtest.Counter(t, db, "posts", "likes_count", post))
}

func TestCounterRepository_MissingRow(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewCounterRepository()
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(tx *sqlx.Tx) error
		want error
	}{
		{"increment", func(tx *sqlx.Tx) error {
			_, err := repo.Increment(ctx, tx, model.CounterPostLikes, 404)
			return err
		}, model.ErrPostNotFound},
		{"decrement", func(tx *sqlx.Tx) error {
			_, err := repo.Decrement(ctx, tx, model.CounterCommentLikes, 404)
			return err
		}, model.ErrCommentNotFound},
		{"set", func(tx *sqlx.Tx) error {
			return repo.Set(ctx, tx, model.CounterFollowers, 404, 3)
		}, model.ErrUserNotFound},
		{"lock", func(tx *sqlx.Tx) error {
			return repo.Lock(ctx, tx, model.EntityPost, 404)
		}, model.ErrPostNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTx(t, db, func(tx *sqlx.Tx) {
				err := tt.run(tx)
				assert.ErrorIs(t, err, tt.want)
				assert.ErrorIs(t, err, model.ErrNotFound)
			})
		})
	}
}

func TestCounterRepository_RejectsUnknownColumn(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewCounterRepository()

	inTx(t, db, func(tx *sqlx.Tx) {
		_, err := repo.Increment(context.Background(), tx, model.Counter{Entity: model.EntityUser, Field: "username"}, 1)
		assert.ErrorIs(t, err, model.ErrInvalidInput)

		err = repo.Set(context.Background(), tx, model.CounterPosts, 1, -1)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

// =============================================================================
// SOFT DELETE + LISTING SCOPES
// =============================================================================

func TestPostRepository_MarkDeletedOnlyOnce(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	post := dbtest.SeedPost(t, db, alice)
	repo := repository.NewPostRepository()
	ctx := context.Background()
	at := time.Now().UTC()

	inTx(t, db, func(tx *sqlx.Tx) {
		changed, err := repo.MarkDeleted(ctx, tx, post, at)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.MarkDeleted(ctx, tx, post, at.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	got, err := repo.GetByID(ctx, db, post)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)
	assert.WithinDuration(t, at, *got.DeletedAt, time.Second)
	assert.Equal(t, "caption", got.Caption)
}

func TestPostRepository_ListingExcludesDeleted(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	live := dbtest.SeedPost(t, db, alice)
	gone := dbtest.SeedPost(t, db, alice)
	dbtest.MarkDeleted(t, db, "posts", gone)
	repo := repository.NewPostRepository()
	ctx := context.Background()

	posts, err := repo.ListByUser(ctx, db, alice, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, live, posts[0].ID)

	n, err := repo.CountLiveByUser(ctx, db, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCommentRepository_UpdateContentKeepsCounters(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	post := dbtest.SeedPost(t, db, alice)
	comment := dbtest.SeedComment(t, db, alice, post)
	dbtest.SetCounter(t, db, "comments", "likes_count", comment, 4)
	repo := repository.NewCommentRepository()
	ctx := context.Background()

	inTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, repo.UpdateContent(ctx, tx, comment, "edited", time.Now().UTC()))
	})

	got, err := repo.GetByID(ctx, db, comment)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, int64(4), got.LikesCount)
	assert.False(t, got.IsDeleted)
}

func TestCollectionRepository_DefaultAndPosts(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	p1 := dbtest.SeedPost(t, db, alice)
	p2 := dbtest.SeedPost(t, db, alice)
	dbtest.MarkDeleted(t, db, "posts", p2)
	collections := repository.NewCollectionRepository()
	edges := repository.NewEdgeRepository()
	ctx := context.Background()

	def, err := collections.GetDefault(ctx, db, alice)
	require.NoError(t, err)
	assert.True(t, def.IsDefault())

	inTx(t, db, func(tx *sqlx.Tx) {
		for _, p := range []int64{p1, p2} {
			_, _, err := edges.Create(ctx, tx, model.EdgeCollectionPost, def.ID, p)
			require.NoError(t, err)
		}
	})

	posts, err := collections.ListPosts(ctx, db, def.ID, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, p1, posts[0].ID)

	_, err = collections.GetDefault(ctx, db, dbtest.SeedUserWithoutDefault(t, db, "bob"))
	assert.ErrorIs(t, err, model.ErrCollectionNotFound)
}

func TestCollectionRepository_SecondDefaultRejected(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	repo := repository.NewCollectionRepository()
	now := time.Now().UTC()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.Create(context.Background(), tx, &model.Collection{
		UID: "22222222-2222-2222-2222-222222222222", OwnerID: alice, Name: model.DefaultCollectionName,
		CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		n := &model.Notification{UserID: alice, ActorID: bob, Type: model.NotificationTypeFollow, CreatedAt: time.Now().UTC()}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}

	unread, err := repo.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	require.NoError(t, repo.MarkAsRead(ctx, alice, ids[:2]))
	unread, err = repo.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// Another user's ids are ignored.
	require.NoError(t, repo.MarkAsRead(ctx, bob, ids))
	unread, err = repo.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, repo.MarkAllAsRead(ctx, alice))
	list, err := repo.ListByUser(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}
}

func TestDeviceTokenRepository_UpsertMovesToken(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	repo := repository.NewDeviceTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, alice, "tok-1", model.PlatformIOS))
	require.NoError(t, repo.Upsert(ctx, bob, "tok-1", model.PlatformAndroid))

	aliceTokens, err := repo.GetByUserID(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, aliceTokens)

	bobTokens, err := repo.GetByUserID(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobTokens, 1)
	assert.Equal(t, model.PlatformAndroid, bobTokens[0].Platform)

	require.NoError(t, repo.Delete(ctx, "tok-1"))
	bobTokens, err = repo.GetByUserID(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobTokens)
}
