package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

const defaultCollectionPageSize = 50

type CollectionService struct {
	collectionRepo repository.CollectionRepository
	postRepo       repository.PostRepository
	userRepo       repository.UserRepository
	edgeRepo       repository.EdgeRepository
	counters       *CounterMaintainer
	db             *sqlx.DB
}

func NewCollectionService(
	collectionRepo repository.CollectionRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	edgeRepo repository.EdgeRepository,
	counters *CounterMaintainer,
	db *sqlx.DB,
) *CollectionService {
	return &CollectionService{
		collectionRepo: collectionRepo,
		postRepo:       postRepo,
		userRepo:       userRepo,
		edgeRepo:       edgeRepo,
		counters:       counters,
		db:             db,
	}
}

// ToggleInDefaultCollection bookmarks or un-bookmarks a post in the actor's
// default collection. Removing works on soft-deleted posts; adding needs a
// live one. A missing default collection is a broken bootstrap invariant,
// never repaired here.
func (s *CollectionService) ToggleInDefaultCollection(ctx context.Context, actorID, postID int64) (*model.BookmarkResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.userRepo.GetByID(ctx, tx, actorID); err != nil {
		return nil, err
	}

	def, err := s.collectionRepo.GetDefault(ctx, tx, actorID)
	if errors.Is(err, model.ErrCollectionNotFound) {
		log := logger.Ctx(ctx)
		log.Error().Int64(logger.FieldActorID, actorID).Msg("actor has no default collection")
		return nil, model.ErrDefaultCollectionMissing
	}
	if err != nil {
		return nil, err
	}

	removed, err := s.edgeRepo.Delete(ctx, tx, model.EdgeCollectionPost, def.ID, postID)
	if err != nil {
		return nil, err
	}

	collected := false
	if removed == 0 {
		if err := s.lockLivePost(ctx, tx, postID); err != nil {
			return nil, err
		}
		collected, err = toggleEdge(ctx, tx, s.edgeRepo, model.EdgeCollectionPost, def.ID, postID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.BookmarkResult{PostID: postID, IsCollected: collected}, nil
}

// Create adds a named collection. The default collection is created only
// together with its owner.
func (s *CollectionService) Create(ctx context.Context, ownerID int64, req model.CreateCollectionRequest) (*model.Collection, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > model.MaxCollectionNameLength {
		return nil, model.ErrInvalidCollectionName
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	owner, err := s.userRepo.GetByID(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.IsDeleted {
		return nil, model.ErrUserDeleted
	}

	now := time.Now().UTC()
	collection := &model.Collection{
		UID:       uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collectionRepo.Create(ctx, tx, collection); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return collection, nil
}

// ListByOwner returns the owner's live collections, default first.
func (s *CollectionService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Collection, error) {
	if _, err := s.userRepo.GetByID(ctx, s.db, ownerID); err != nil {
		return nil, err
	}
	return s.collectionRepo.ListByOwner(ctx, s.db, ownerID)
}

// ListPosts returns the live posts of a collection the viewer owns or belongs to.
func (s *CollectionService) ListPosts(ctx context.Context, viewerID, collectionID int64, limit int) ([]model.Post, error) {
	if limit <= 0 || limit > defaultCollectionPageSize {
		limit = defaultCollectionPageSize
	}

	collection, err := s.collectionRepo.GetByID(ctx, s.db, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.IsDeleted {
		return nil, model.ErrCollectionNotFound
	}
	if collection.OwnerID != viewerID {
		member, err := s.edgeRepo.Exists(ctx, s.db, model.EdgeCollectionMember, collectionID, viewerID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, model.ErrNotCollectionOwner
		}
	}

	return s.collectionRepo.ListPosts(ctx, s.db, collectionID, limit)
}

// AddPost explicitly adds a live post. Adding it twice is ErrAlreadyExists.
func (s *CollectionService) AddPost(ctx context.Context, actorID, collectionID, postID int64) error {
	return s.mutate(ctx, actorID, collectionID, func(tx *sqlx.Tx) error {
		if err := s.lockLivePost(ctx, tx, postID); err != nil {
			return err
		}

		_, created, err := s.edgeRepo.Create(ctx, tx, model.EdgeCollectionPost, collectionID, postID)
		if err != nil {
			return err
		}
		if !created {
			return model.ErrPostAlreadyCollected
		}
		return nil
	})
}

// RemovePost explicitly removes a post. Removing an absent post is ErrNotFound.
func (s *CollectionService) RemovePost(ctx context.Context, actorID, collectionID, postID int64) error {
	return s.mutate(ctx, actorID, collectionID, func(tx *sqlx.Tx) error {
		removed, err := s.edgeRepo.Delete(ctx, tx, model.EdgeCollectionPost, collectionID, postID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return model.ErrPostNotCollected
		}
		return nil
	})
}

// AddMember grants a live user access to the collection.
func (s *CollectionService) AddMember(ctx context.Context, actorID, collectionID, userID int64) error {
	return s.mutate(ctx, actorID, collectionID, func(tx *sqlx.Tx) error {
		user, err := s.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.IsDeleted {
			return model.ErrUserDeleted
		}

		_, created, err := s.edgeRepo.Create(ctx, tx, model.EdgeCollectionMember, collectionID, userID)
		if err != nil {
			return err
		}
		if !created {
			return model.ErrAlreadyMember
		}
		return nil
	})
}

func (s *CollectionService) RemoveMember(ctx context.Context, actorID, collectionID, userID int64) error {
	return s.mutate(ctx, actorID, collectionID, func(tx *sqlx.Tx) error {
		removed, err := s.edgeRepo.Delete(ctx, tx, model.EdgeCollectionMember, collectionID, userID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return model.ErrNotMember
		}
		return nil
	})
}

// lockLivePost locks the post row and fails unless the post is live. It must
// run before any new edge to the post is written.
func (s *CollectionService) lockLivePost(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	if err := s.counters.Lock(ctx, tx, model.EntityPost, postID); err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, tx, postID)
	if err != nil {
		return err
	}
	if post.IsDeleted {
		return model.ErrPostDeleted
	}
	return nil
}

// mutate runs fn in a transaction after checking that the collection is
// live and owned by the actor.
func (s *CollectionService) mutate(ctx context.Context, actorID, collectionID int64, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	collection, err := s.collectionRepo.GetByID(ctx, tx, collectionID)
	if err != nil {
		return err
	}
	if collection.OwnerID != actorID {
		return model.ErrNotCollectionOwner
	}
	if collection.IsDeleted {
		return model.ErrCollectionDeleted
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
