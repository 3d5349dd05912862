package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/database/dbtest"
	"snaps_engagement/internal/model"
)

func TestCreateNotification_StoresAndPushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.db, "owner")
	fan := dbtest.SeedUser(t, f.db, "fan")
	post := dbtest.SeedPost(t, f.db, owner)

	require.NoError(t, f.notifications.RegisterDeviceToken(ctx, owner, model.RegisterTokenRequest{Token: "tok-live", Platform: model.PlatformIOS}))
	require.NoError(t, f.notifications.RegisterDeviceToken(ctx, owner, model.RegisterTokenRequest{Token: "tok-stale"}))
	f.pusher.sendFn = func([]string) ([]string, error) {
		return []string{"tok-stale"}, nil
	}

	err := f.notifications.CreateNotification(ctx, owner, fan, model.NotificationTypeLike, &post, nil)
	require.NoError(t, err)

	list, err := f.notifications.GetNotifications(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, 1, list.UnreadCount)
	assert.Equal(t, fan, list.Notifications[0].ActorID)

	require.Len(t, f.pusher.calls, 1)
	call := f.pusher.calls[0]
	assert.ElementsMatch(t, []string{"tok-live", "tok-stale"}, call.tokens)
	assert.Equal(t, "fan liked your post", call.body)
	assert.Equal(t, "like", call.data["type"])

	// Tokens the push provider rejected are forgotten.
	assert.Equal(t, int64(1), dbtest.CountRows(t, f.db, "device_tokens", "user_id = ?", owner))

	require.NoError(t, f.notifications.MarkAllAsRead(ctx, owner))
	list, err = f.notifications.GetNotifications(ctx, owner, 0)
	require.NoError(t, err)
	assert.Zero(t, list.UnreadCount)
}

func TestCreateNotification_SkipsSelf(t *testing.T) {
	f := newFixture(t)
	owner := dbtest.SeedUser(t, f.db, "owner")

	require.NoError(t, f.notifications.CreateNotification(context.Background(), owner, owner, model.NotificationTypeFollow, nil, nil))
	assert.Equal(t, int64(0), dbtest.CountRows(t, f.db, "notifications", "1 = 1"))
	assert.Empty(t, f.pusher.calls)
}

func TestRegisterDeviceToken_Validation(t *testing.T) {
	f := newFixture(t)
	owner := dbtest.SeedUser(t, f.db, "owner")

	err := f.notifications.RegisterDeviceToken(context.Background(), owner, model.RegisterTokenRequest{Token: "  "})
	assert.ErrorIs(t, err, model.ErrDeviceTokenRequired)

	err = f.notifications.RegisterDeviceToken(context.Background(), owner, model.RegisterTokenRequest{Token: "t", Platform: "web"})
	assert.ErrorIs(t, err, model.ErrUnknownPlatform)
}

func TestBuildPushMessage(t *testing.T) {
	tests := []struct {
		notifType string
		wantTitle string
		wantBody  string
	}{
		{model.NotificationTypeFollow, "New Follower", "ana started following you"},
		{model.NotificationTypeLike, "New Like", "ana liked your post"},
		{model.NotificationTypeCommentLike, "New Like", "ana liked your comment"},
		{model.NotificationTypeComment, "New Comment", "ana commented on your post"},
		{"other", "Snaps", "You have a new notification"},
	}

	for _, tt := range tests {
		t.Run(tt.notifType, func(t *testing.T) {
			title, body := buildPushMessage("ana", tt.notifType)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
