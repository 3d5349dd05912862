package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaps_engagement/internal/model"
	"snaps_engagement/internal/queue"
	"snaps_engagement/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type notification struct {
	userID, actorID int64
	notifType       string
	postID          *int64
	commentID       *int64
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notification
	err   error
}

func (m *mockNotifier) CreateNotification(_ context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, notification{userID, actorID, notifType, postID, commentID})
	return nil
}

func (m *mockNotifier) snapshot() []notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification(nil), m.calls...)
}

type mockDeduper struct {
	seen map[string]bool
	err  error
}

func (d *mockDeduper) Seen(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.seen[id], nil
}

func (d *mockDeduper) MarkSeen(_ context.Context, id string) error {
	if d.err != nil {
		return d.err
	}
	d.seen[id] = true
	return nil
}

// mockConsumer serves pending messages once, then new messages in order.
type mockConsumer struct {
	mu      sync.Mutex
	pending []queue.Message
	fresh   []queue.Message
	acked   []string
}

func (c *mockConsumer) EnsureGroup(context.Context, string, string) error { return nil }

func (c *mockConsumer) Read(ctx context.Context, _, _, _ string, count int64, block time.Duration) ([]queue.Message, error) {
	c.mu.Lock()
	if len(c.fresh) > 0 {
		n := min(int(count), len(c.fresh))
		batch := c.fresh[:n]
		c.fresh = c.fresh[n:]
		c.mu.Unlock()
		return batch, nil
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (c *mockConsumer) ReadPending(_ context.Context, _, _, _ string, _ int64) ([]queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.pending
	c.pending = nil
	return batch, nil
}

func (c *mockConsumer) Ack(_ context.Context, _, _ string, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, ids...)
	return nil
}

func (c *mockConsumer) Pending(context.Context, string, string) (int64, error) { return 0, nil }

func (c *mockConsumer) ackedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.acked...)
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandleEvent_RoutesToNotificationType(t *testing.T) {
	tests := []struct {
		name      string
		event     queue.EngagementEvent
		wantType  string
		wantPost  bool
		wantReply bool
	}{
		{"follow", queue.NewUserFollowedEvent(1, 2), model.NotificationTypeFollow, false, false},
		{"post like", queue.NewPostLikedEvent(1, 2, 10), model.NotificationTypeLike, true, false},
		{"comment like", queue.NewCommentLikedEvent(1, 2, 10, 20), model.NotificationTypeCommentLike, true, true},
		{"comment", queue.NewPostCommentedEvent(1, 2, 10, 20), model.NotificationTypeComment, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockNotifier{}
			h := worker.NewHandler(notifier, nil)

			require.NoError(t, h.HandleEvent(context.Background(), tt.event))

			calls := notifier.snapshot()
			require.Len(t, calls, 1)
			assert.Equal(t, int64(2), calls[0].userID)
			assert.Equal(t, int64(1), calls[0].actorID)
			assert.Equal(t, tt.wantType, calls[0].notifType)
			assert.Equal(t, tt.wantPost, calls[0].postID != nil)
			assert.Equal(t, tt.wantReply, calls[0].commentID != nil)
		})
	}
}

func TestHandleEvent_SelfEngagementIsSilent(t *testing.T) {
	notifier := &mockNotifier{}
	h := worker.NewHandler(notifier, nil)

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewPostLikedEvent(7, 7, 10)))
	assert.Empty(t, notifier.snapshot())
}

func TestHandleEvent_UnknownType(t *testing.T) {
	h := worker.NewHandler(&mockNotifier{}, nil)
	err := h.HandleEvent(context.Background(), queue.EngagementEvent{Type: "post_shared", ActorID: 1, RecipientID: 2})
	assert.Error(t, err)
}

func TestHandleEvent_SkipsRedelivery(t *testing.T) {
	notifier := &mockNotifier{}
	h := worker.NewHandler(notifier, &mockDeduper{seen: map[string]bool{}})
	event := queue.NewUserFollowedEvent(1, 2)

	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Len(t, notifier.snapshot(), 1)
}

func TestHandleEvent_FailedEventIsNotMarkedSeen(t *testing.T) {
	notifier := &mockNotifier{err: errors.New("db down")}
	deduper := &mockDeduper{seen: map[string]bool{}}
	h := worker.NewHandler(notifier, deduper)
	event := queue.NewPostLikedEvent(1, 2, 10)

	require.Error(t, h.HandleEvent(context.Background(), event))
	assert.False(t, deduper.seen[event.ID])

	// The redelivered message is handled once the store recovers.
	notifier.err = nil
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Len(t, notifier.snapshot(), 1)
	assert.True(t, deduper.seen[event.ID])
}

func TestHandleEvent_DedupFailureStillNotifies(t *testing.T) {
	notifier := &mockNotifier{}
	h := worker.NewHandler(notifier, &mockDeduper{err: errors.New("redis down")})

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewUserFollowedEvent(1, 2)))
	assert.Len(t, notifier.snapshot(), 1)
}

func TestHandleEvent_NotifierErrorPropagates(t *testing.T) {
	h := worker.NewHandler(&mockNotifier{err: errors.New("db down")}, nil)
	err := h.HandleEvent(context.Background(), queue.NewUserFollowedEvent(1, 2))
	assert.Error(t, err)
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestManager_ProcessesPendingThenNewAndAcksAll(t *testing.T) {
	consumer := &mockConsumer{
		pending: []queue.Message{{ID: "1-0", Event: queue.NewUserFollowedEvent(1, 2)}},
		fresh: []queue.Message{
			{ID: "2-0", Event: queue.NewPostLikedEvent(3, 2, 10)},
			{ID: "3-0", Event: queue.EngagementEvent{Type: "bogus", ActorID: 1, RecipientID: 2}},
		},
	}
	notifier := &mockNotifier{}
	m := worker.NewManager(consumer, worker.NewHandler(notifier, nil), worker.ManagerConfig{
		WorkerCount:  1,
		BatchSize:    10,
		BlockTimeout: 10 * time.Millisecond,
	})

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return len(consumer.ackedIDs()) == 3 }, 2*time.Second, 10*time.Millisecond)
	m.Stop()

	// The bogus event fails in the handler but is still acked.
	assert.Equal(t, []string{"1-0", "2-0", "3-0"}, consumer.ackedIDs())
	assert.Len(t, notifier.snapshot(), 2)
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := worker.NewManager(&mockConsumer{}, worker.NewHandler(&mockNotifier{}, nil), worker.DefaultManagerConfig())
	m.Stop()
}
