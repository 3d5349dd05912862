package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/database/dbtest"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/queue"
	"snaps_engagement/internal/repository"
)

// =============================================================================
// MOCK COLLABORATORS
// =============================================================================

type mockPublisher struct {
	mu        sync.Mutex
	events    []queue.EngagementEvent
	publishFn func(ctx context.Context, stream string, event queue.EngagementEvent) (string, error)
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.EngagementEvent) (string, error) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}

func (m *mockPublisher) published() []queue.EngagementEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queue.EngagementEvent(nil), m.events...)
}

type mockSink struct {
	reports []*model.ReconcileReport
	saveFn  func(ctx context.Context, report *model.ReconcileReport) error
}

func (m *mockSink) Save(ctx context.Context, report *model.ReconcileReport) error {
	m.reports = append(m.reports, report)
	if m.saveFn != nil {
		return m.saveFn(ctx, report)
	}
	return nil
}

type pushCall struct {
	tokens      []string
	title, body string
	data        map[string]string
}

type mockPusher struct {
	calls  []pushCall
	sendFn func(tokens []string) ([]string, error)
}

func (m *mockPusher) SendToTokens(_ context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	m.calls = append(m.calls, pushCall{tokens: tokens, title: title, body: body, data: data})
	if m.sendFn != nil {
		return m.sendFn(tokens)
	}
	return nil, nil
}

// mockEdgeRepository scripts Create and Delete; the read methods are unused
// by the code under test and report nothing.
type mockEdgeRepository struct {
	repository.EdgeRepository

	createCalls, deleteCalls int
	createFn                 func(call int) (bool, error)
	deleteFn                 func(call int) (int64, error)
}

func (m *mockEdgeRepository) Create(_ context.Context, _ *sqlx.Tx, kind model.EdgeKind, actorID, targetID int64) (*model.Edge, bool, error) {
	m.createCalls++
	created, err := m.createFn(m.createCalls)
	if err != nil {
		return nil, false, err
	}
	return &model.Edge{Kind: kind, ActorID: actorID, TargetID: targetID}, created, nil
}

func (m *mockEdgeRepository) Delete(_ context.Context, _ *sqlx.Tx, _ model.EdgeKind, _, _ int64) (int64, error) {
	m.deleteCalls++
	return m.deleteFn(m.deleteCalls)
}

// failingCounters delegates to the real repository except for Increment.
type failingCounters struct {
	repository.CounterRepository
	incrementErr error
}

func (f failingCounters) Increment(context.Context, *sqlx.Tx, model.Counter, int64) (int64, error) {
	return 0, f.incrementErr
}

// recordingCounters delegates to the real repository and records row locks.
type recordingCounters struct {
	repository.CounterRepository
	locks []string
}

func (r *recordingCounters) Lock(ctx context.Context, tx *sqlx.Tx, entity model.EntityKind, id int64) error {
	r.locks = append(r.locks, fmt.Sprintf("%s:%d", entity, id))
	return r.CounterRepository.Lock(ctx, tx, entity, id)
}

// =============================================================================
// FIXTURE
// =============================================================================

// fixture wires every service against one in-memory database.
type fixture struct {
	db        *sqlx.DB
	publisher *mockPublisher
	sink      *mockSink
	pusher    *mockPusher

	toggles       *ToggleService
	lifecycle     *LifecycleService
	comments      *CommentService
	posts         *PostService
	users         *UserService
	collections   *CollectionService
	reconcile     *ReconcileService
	notifications *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	pub := &mockPublisher{}
	sink := &mockSink{}
	pusher := &mockPusher{}
	svc := NewServices(db, pub, pusher, sink)

	return &fixture{
		db:            db,
		publisher:     pub,
		sink:          sink,
		pusher:        pusher,
		toggles:       svc.Toggles,
		lifecycle:     svc.Lifecycle,
		comments:      svc.Comments,
		posts:         svc.Posts,
		users:         svc.Users,
		collections:   svc.Collections,
		reconcile:     svc.Reconcile,
		notifications: svc.Notifications,
	}
}

func (f *fixture) counter(t *testing.T, table, column string, id int64) int64 {
	t.Helper()
	return dbtest.Counter(t, f.db, table, column, id)
}
