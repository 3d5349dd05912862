package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

const reconcileBatchSize = 500

// ReportSink archives reconciliation reports that found drift.
type ReportSink interface {
	Save(ctx context.Context, report *model.ReconcileReport) error
}

// ReconcileService recomputes stored counters from live edges and corrects
// any drift. It is the only path that repairs a counter.
type ReconcileService struct {
	db          *sqlx.DB
	edgeRepo    repository.EdgeRepository
	counterRepo repository.CounterRepository
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	sink        ReportSink
}

func NewReconcileService(
	db *sqlx.DB,
	edgeRepo repository.EdgeRepository,
	counterRepo repository.CounterRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	sink ReportSink, // optional
) *ReconcileService {
	return &ReconcileService{
		db:          db,
		edgeRepo:    edgeRepo,
		counterRepo: counterRepo,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		sink:        sink,
	}
}

// liveCount computes the true value of one counter from the edge tables.
type liveCount struct {
	counter model.Counter
	count   func(ctx context.Context, q repository.Querier) (int64, error)
}

// ReconcileUser recomputes followers_count, following_count and posts_count.
func (s *ReconcileService) ReconcileUser(ctx context.Context, userID int64) (*model.ReconcileReport, error) {
	return s.reconcile(ctx, model.EntityUser, userID, []liveCount{
		{model.CounterFollowers, func(ctx context.Context, q repository.Querier) (int64, error) {
			return s.edgeRepo.CountByTarget(ctx, q, model.EdgeFollow, userID)
		}},
		{model.CounterFollowing, func(ctx context.Context, q repository.Querier) (int64, error) {
			return s.edgeRepo.CountByActor(ctx, q, model.EdgeFollow, userID)
		}},
		{model.CounterPosts, func(ctx context.Context, q repository.Querier) (int64, error) {
			return s.postRepo.CountLiveByUser(ctx, q, userID)
		}},
	})
}

// ReconcilePost recomputes likes_count and comments_count (live comments only).
func (s *ReconcileService) ReconcilePost(ctx context.Context, postID int64) (*model.ReconcileReport, error) {
	return s.reconcile(ctx, model.EntityPost, postID, []liveCount{
		{model.CounterPostLikes, func(ctx context.Context, q repository.Querier) (int64, error) {
			return s.edgeRepo.CountByTarget(ctx, q, model.EdgePostLike, postID)
		}},
		{model.CounterPostComments, func(ctx context.Context, q repository.Querier) (int64, error) {
			return s.commentRepo.CountLiveByPost(ctx, q, postID)
		}},
	})
}

// ReconcileComment recomputes likes_count.
func (s *ReconcileService) ReconcileComment(ctx context.Context, commentID int64) (*model.ReconcileReport, error) {
	return s.reconcile(ctx, model.EntityComment, commentID, []liveCount{
		{model.CounterCommentLikes, func(ctx context.Context, q repository.Querier) (int64, error) {
			return s.edgeRepo.CountByTarget(ctx, q, model.EdgeCommentLike, commentID)
		}},
	})
}

// ReconcileAllUsers walks every live user in id order and returns the
// reports that found drift together with the number of users checked.
func (s *ReconcileService) ReconcileAllUsers(ctx context.Context) (checked int, drifted []*model.ReconcileReport, err error) {
	var afterID int64
	for {
		ids, err := s.userRepo.ListIDs(ctx, s.db, afterID, reconcileBatchSize)
		if err != nil {
			return checked, drifted, err
		}
		if len(ids) == 0 {
			return checked, drifted, nil
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return checked, drifted, err
			}
			report, err := s.ReconcileUser(ctx, id)
			if err != nil {
				return checked, drifted, fmt.Errorf("reconcile user %d: %w", id, err)
			}
			checked++
			if report.HasDrift() {
				drifted = append(drifted, report)
			}
		}
		afterID = ids[len(ids)-1]
	}
}

// reconcile locks the entity row first so no concurrent toggle can change a
// counter between the count and the write, then corrects every drifted counter.
func (s *ReconcileService) reconcile(ctx context.Context, entity model.EntityKind, id int64, counts []liveCount) (*model.ReconcileReport, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.counterRepo.Lock(ctx, tx, entity, id); err != nil {
		return nil, err
	}

	report := &model.ReconcileReport{
		Entity:    entity,
		ID:        id,
		Counts:    make(map[string]int64, len(counts)),
		CheckedAt: time.Now().UTC(),
	}

	for _, lc := range counts {
		actual, err := lc.count(ctx, tx)
		if err != nil {
			return nil, err
		}
		stored, err := s.counterRepo.Get(ctx, tx, lc.counter, id)
		if err != nil {
			return nil, err
		}

		report.Counts[lc.counter.Field] = actual
		if stored == actual {
			continue
		}
		if err := s.counterRepo.Set(ctx, tx, lc.counter, id, actual); err != nil {
			return nil, err
		}
		report.Drifts = append(report.Drifts, model.CounterDrift{
			Entity: entity,
			ID:     id,
			Field:  lc.counter.Field,
			Stored: stored,
			Actual: actual,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if report.HasDrift() {
		s.archive(ctx, report)
	}
	return report, nil
}

func (s *ReconcileService) archive(ctx context.Context, report *model.ReconcileReport) {
	log := logger.Ctx(ctx)
	for _, d := range report.Drifts {
		log.Warn().
			Str(logger.FieldEntity, string(d.Entity)).
			Int64(logger.FieldEntityID, d.ID).
			Str(logger.FieldCounter, d.Field).
			Int64("stored", d.Stored).
			Int64("actual", d.Actual).
			Msg("counter drift corrected")
	}

	if s.sink == nil {
		return
	}
	if err := s.sink.Save(ctx, report); err != nil {
		log.Warn().Err(err).
			Str(logger.FieldEntity, string(report.Entity)).
			Int64(logger.FieldEntityID, report.ID).
			Msg("failed to archive reconcile report")
	}
}
