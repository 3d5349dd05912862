package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/queue"
	"snaps_engagement/internal/repository"
)

// maxToggleAttempts bounds how often a toggle retries after a concurrent
// caller removed the edge between our failed insert and our delete.
const maxToggleAttempts = 5

type ToggleService struct {
	db        *sqlx.DB
	edgeRepo  repository.EdgeRepository
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	comments  repository.CommentRepository
	counters  *CounterMaintainer
	publisher queue.Publisher
}

func NewToggleService(
	db *sqlx.DB,
	edgeRepo repository.EdgeRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	comments repository.CommentRepository,
	counters *CounterMaintainer,
	publisher queue.Publisher,
) *ToggleService {
	return &ToggleService{
		db:        db,
		edgeRepo:  edgeRepo,
		userRepo:  userRepo,
		postRepo:  postRepo,
		comments:  comments,
		counters:  counters,
		publisher: publisher,
	}
}

// toggleTarget carries what the post-commit notification needs to know.
type toggleTarget struct {
	ownerID int64
	postID  int64
}

// Toggle flips the actor's edge to the target: follow/unfollow a user,
// like/unlike a post or a comment. Every call performs exactly one
// transition and returns the counters the transition touched.
func (s *ToggleService) Toggle(ctx context.Context, actorID int64, kind model.TargetKind, targetID int64) (*model.ToggleResult, error) {
	edgeKind, err := kind.EdgeKind()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	target, err := s.checkTarget(ctx, tx, actorID, kind, targetID)
	if err != nil {
		return nil, err
	}

	active, err := toggleEdge(ctx, tx, s.edgeRepo, edgeKind, actorID, targetID)
	if err != nil {
		return nil, err
	}

	delta := -1
	if active {
		delta = 1
	}
	counts, err := s.counters.Apply(ctx, tx, edgeKind, actorID, targetID, delta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log := logger.Ctx(ctx)
	log.Info().
		Int64(logger.FieldActorID, actorID).
		Str(logger.FieldTargetKind, string(kind)).
		Int64(logger.FieldTargetID, targetID).
		Bool(logger.FieldIsActive, active).
		Msg("toggled")

	if active {
		s.notify(ctx, actorID, kind, targetID, target)
	}

	return &model.ToggleResult{
		Kind:     kind,
		TargetID: targetID,
		IsActive: active,
		Counts:   counts,
	}, nil
}

// checkTarget validates the toggle inside the transaction, before any
// mutation: existence first, then self reference, then soft deletion.
// Posts and comments are locked before they are read so a concurrent soft
// delete either lands first and is seen, or waits for this transaction.
func (s *ToggleService) checkTarget(ctx context.Context, tx *sqlx.Tx, actorID int64, kind model.TargetKind, targetID int64) (*toggleTarget, error) {
	actor, err := s.userRepo.GetByID(ctx, tx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsDeleted {
		return nil, model.ErrUserDeleted
	}

	switch kind {
	case model.TargetUser:
		user, err := s.userRepo.GetByID(ctx, tx, targetID)
		if err != nil {
			return nil, err
		}
		if actorID == targetID {
			return nil, model.ErrCannotFollowSelf
		}
		if user.IsDeleted {
			return nil, model.ErrUserDeleted
		}
		return &toggleTarget{ownerID: user.ID}, nil

	case model.TargetPost:
		if err := s.counters.Lock(ctx, tx, model.EntityPost, targetID); err != nil {
			return nil, err
		}
		post, err := s.postRepo.GetByID(ctx, tx, targetID)
		if err != nil {
			return nil, err
		}
		if post.IsDeleted {
			return nil, model.ErrPostDeleted
		}
		return &toggleTarget{ownerID: post.UserID, postID: post.ID}, nil

	case model.TargetComment:
		if err := s.counters.Lock(ctx, tx, model.EntityComment, targetID); err != nil {
			return nil, err
		}
		comment, err := s.comments.GetByID(ctx, tx, targetID)
		if err != nil {
			return nil, err
		}
		if comment.IsDeleted {
			return nil, model.ErrCommentDeleted
		}
		return &toggleTarget{ownerID: comment.UserID, postID: comment.PostID}, nil
	}
	return nil, model.ErrUnknownTargetKind
}

func (s *ToggleService) notify(ctx context.Context, actorID int64, kind model.TargetKind, targetID int64, target *toggleTarget) {
	if target.ownerID == actorID {
		return
	}

	var event queue.EngagementEvent
	switch kind {
	case model.TargetUser:
		event = queue.NewUserFollowedEvent(actorID, targetID)
	case model.TargetPost:
		event = queue.NewPostLikedEvent(actorID, target.ownerID, targetID)
	case model.TargetComment:
		event = queue.NewCommentLikedEvent(actorID, target.ownerID, target.postID, targetID)
	default:
		return
	}
	publishAfterCommit(ctx, s.publisher, event)
}

// toggleEdge performs one create-or-remove transition on the edge and
// reports whether the edge is present afterwards. The unique constraint
// decides races: a losing insert means the edge exists, so we remove it.
// A delete that removes nothing means another caller removed it first, and
// the whole transition is retried.
func toggleEdge(ctx context.Context, tx *sqlx.Tx, edges repository.EdgeRepository, kind model.EdgeKind, actorID, targetID int64) (bool, error) {
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		_, created, err := edges.Create(ctx, tx, kind, actorID, targetID)
		if err != nil {
			return false, err
		}
		if created {
			return true, nil
		}

		removed, err := edges.Delete(ctx, tx, kind, actorID, targetID)
		if err != nil {
			return false, err
		}
		if removed > 0 {
			return false, nil
		}
	}
	return false, fmt.Errorf("toggle %s %d->%d: edge kept changing after %d attempts", kind, actorID, targetID, maxToggleAttempts)
}
