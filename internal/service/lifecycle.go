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

// LifecycleService performs the one-way soft delete of posts, comments and
// collections. Counter side effects run only on the live→deleted transition.
type LifecycleService struct {
	db             *sqlx.DB
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	collectionRepo repository.CollectionRepository
	counters       *CounterMaintainer
}

func NewLifecycleService(
	db *sqlx.DB,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	collectionRepo repository.CollectionRepository,
	counters *CounterMaintainer,
) *LifecycleService {
	return &LifecycleService{
		db:             db,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		collectionRepo: collectionRepo,
		counters:       counters,
	}
}

// ownerCheck runs against the owner of the entity before anything is written.
type ownerCheck func(ownerID int64) error

// SoftDelete marks the entity deleted regardless of who owns it. It reports
// whether this call performed the transition; deleting twice is a no-op.
func (s *LifecycleService) SoftDelete(ctx context.Context, kind model.EntityKind, id int64) (bool, error) {
	return s.softDelete(ctx, kind, id, func(int64) error { return nil })
}

// SoftDeleteAs is SoftDelete restricted to the entity's owner.
func (s *LifecycleService) SoftDeleteAs(ctx context.Context, actorID int64, kind model.EntityKind, id int64) (bool, error) {
	return s.softDelete(ctx, kind, id, func(ownerID int64) error {
		if ownerID == actorID {
			return nil
		}
		switch kind {
		case model.EntityPost:
			return model.ErrNotPostOwner
		case model.EntityComment:
			return model.ErrNotCommentOwner
		default:
			return model.ErrNotCollectionOwner
		}
	})
}

func (s *LifecycleService) softDelete(ctx context.Context, kind model.EntityKind, id int64, check ownerCheck) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var changed bool
	switch kind {
	case model.EntityPost:
		changed, err = s.deletePost(ctx, tx, id, now, check)
	case model.EntityComment:
		changed, err = s.deleteComment(ctx, tx, id, now, check)
	case model.EntityCollection:
		changed, err = s.deleteCollection(ctx, tx, id, now, check)
	default:
		return false, model.ErrUnknownEntityKind
	}
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	log := logger.Ctx(ctx)
	log.Info().
		Str(logger.FieldEntity, string(kind)).
		Int64(logger.FieldEntityID, id).
		Bool("changed", changed).
		Msg("soft delete")
	return changed, nil
}

// deletePost hides the post and takes it out of its owner's posts_count.
func (s *LifecycleService) deletePost(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time, check ownerCheck) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := check(post.UserID); err != nil {
		return false, err
	}

	changed, err := s.postRepo.MarkDeleted(ctx, tx, id, at)
	if err != nil || !changed {
		return false, err
	}
	if _, err := s.counters.Adjust(ctx, tx, model.CounterPosts, post.UserID, -1); err != nil {
		return false, err
	}
	return true, nil
}

// deleteComment hides the comment and takes it out of the post's comments_count.
func (s *LifecycleService) deleteComment(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time, check ownerCheck) (bool, error) {
	comment, err := s.commentRepo.GetByID(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := check(comment.UserID); err != nil {
		return false, err
	}

	changed, err := s.commentRepo.MarkDeleted(ctx, tx, id, at)
	if err != nil || !changed {
		return false, err
	}
	if _, err := s.counters.Adjust(ctx, tx, model.CounterPostComments, comment.PostID, -1); err != nil {
		return false, err
	}
	return true, nil
}

func (s *LifecycleService) deleteCollection(ctx context.Context, tx *sqlx.Tx, id int64, at time.Time, check ownerCheck) (bool, error) {
	collection, err := s.collectionRepo.GetByID(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := check(collection.OwnerID); err != nil {
		return false, err
	}
	if collection.IsDefault() {
		return false, model.ErrDefaultCollectionLocked
	}

	return s.collectionRepo.MarkDeleted(ctx, tx, id, at)
}
