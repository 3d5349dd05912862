package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

const (
	defaultPostPageSize = 20
	maxPostPageSize     = 100
)

type PostService struct {
	postRepo       repository.PostRepository
	userRepo       repository.UserRepository
	edgeRepo       repository.EdgeRepository
	collectionRepo repository.CollectionRepository
	counters       *CounterMaintainer
	db             *sqlx.DB
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	edgeRepo repository.EdgeRepository,
	collectionRepo repository.CollectionRepository,
	counters *CounterMaintainer,
	db *sqlx.DB,
) *PostService {
	return &PostService{
		postRepo:       postRepo,
		userRepo:       userRepo,
		edgeRepo:       edgeRepo,
		collectionRepo: collectionRepo,
		counters:       counters,
		db:             db,
	}
}

// Create stores a post and bumps the owner's posts_count in the same transaction.
func (s *PostService) Create(ctx context.Context, actorID int64, req model.CreatePostRequest) (*model.Post, error) {
	if utf8.RuneCountInString(req.Caption) > model.MaxPostCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	actor, err := s.userRepo.GetByID(ctx, tx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsDeleted {
		return nil, model.ErrUserDeleted
	}

	now := time.Now().UTC()
	post := &model.Post{
		UID:       uuid.NewString(),
		UserID:    actorID,
		Caption:   req.Caption,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, tx, post); err != nil {
		return nil, err
	}

	if _, err := s.counters.Adjust(ctx, tx, model.CounterPosts, actorID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log := logger.Ctx(ctx)
	log.Info().Int64(logger.FieldActorID, actorID).Int64("post_id", post.ID).Msg("post created")
	return post, nil
}

// GetByID returns a live post with the viewer's like and bookmark state.
func (s *PostService) GetByID(ctx context.Context, viewerID, postID int64) (*model.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, s.db, postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, model.ErrPostNotFound
	}

	view := &model.PostView{Post: *post}
	if viewerID == 0 {
		return view, nil
	}

	view.IsLiked, err = s.edgeRepo.Exists(ctx, s.db, model.EdgePostLike, viewerID, postID)
	if err != nil {
		return nil, err
	}

	def, err := s.collectionRepo.GetDefault(ctx, s.db, viewerID)
	switch {
	case errors.Is(err, model.ErrCollectionNotFound):
		log := logger.Ctx(ctx)
		log.Error().Int64(logger.FieldActorID, viewerID).Msg("viewer has no default collection")
	case err != nil:
		return nil, err
	default:
		view.IsCollected, err = s.edgeRepo.Exists(ctx, s.db, model.EdgeCollectionPost, def.ID, postID)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// ListByUser returns a user's live posts, newest first, with the viewer's likes marked.
func (s *PostService) ListByUser(ctx context.Context, viewerID, userID int64, limit int) ([]model.PostView, error) {
	if limit <= 0 {
		limit = defaultPostPageSize
	}
	if limit > maxPostPageSize {
		limit = maxPostPageSize
	}

	if _, err := s.userRepo.GetByID(ctx, s.db, userID); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListByUser(ctx, s.db, userID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.edgeRepo.CheckTargets(ctx, s.db, model.EdgePostLike, viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.PostView, len(posts))
	for i, p := range posts {
		views[i] = model.PostView{Post: p, IsLiked: liked[p.ID]}
	}
	return views, nil
}
