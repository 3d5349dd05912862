package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/model"
	"snaps_engagement/internal/queue"
	"snaps_engagement/internal/repository"
)

const (
	defaultCommentPageSize = 20
	maxCommentPageSize     = 100
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	edgeRepo    repository.EdgeRepository
	counters    *CounterMaintainer
	db          *sqlx.DB
	publisher   queue.Publisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	edgeRepo repository.EdgeRepository,
	counters *CounterMaintainer,
	db *sqlx.DB,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		edgeRepo:    edgeRepo,
		counters:    counters,
		db:          db,
		publisher:   publisher,
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return "", model.ErrContentTooLong
	}
	return content, nil
}

// Create adds a comment to a post. The insert and the comments_count
// increment share one transaction.
func (s *CommentService) Create(ctx context.Context, actorID, postID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
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

	if err := s.counters.Lock(ctx, tx, model.EntityPost, postID); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, tx, postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, model.ErrPostDeleted
	}

	parentID, content, err := s.resolveParent(ctx, tx, postID, req.ParentID, content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &model.Comment{
		UID:       uuid.NewString(),
		PostID:    postID,
		UserID:    actorID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.commentRepo.Create(ctx, tx, comment); err != nil {
		return nil, err
	}

	if _, err := s.counters.Adjust(ctx, tx, model.CounterPostComments, postID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log := logger.Ctx(ctx)
	log.Info().
		Int64(logger.FieldActorID, actorID).
		Int64("post_id", postID).
		Int64("comment_id", comment.ID).
		Msg("comment created")

	if post.UserID != actorID {
		publishAfterCommit(ctx, s.publisher, queue.NewPostCommentedEvent(actorID, post.UserID, postID, comment.ID))
	}

	return comment, nil
}

// resolveParent validates the reply target. Replies are one level deep: a
// reply to a reply attaches to the top-level comment and mentions the
// author it answered.
func (s *CommentService) resolveParent(ctx context.Context, tx *sqlx.Tx, postID int64, parentID *int64, content string) (*int64, string, error) {
	if parentID == nil {
		return nil, content, nil
	}

	parent, err := s.commentRepo.GetByID(ctx, tx, *parentID)
	if err != nil {
		return nil, "", err
	}
	if parent.PostID != postID {
		return nil, "", model.ErrInvalidParent
	}
	if parent.IsDeleted {
		return nil, "", model.ErrCommentDeleted
	}
	if parent.ParentID == nil {
		return parentID, content, nil
	}

	author, err := s.userRepo.GetByID(ctx, tx, parent.UserID)
	if err != nil {
		return nil, "", err
	}
	content, err = validateContent("@" + author.Username + " " + content)
	if err != nil {
		return nil, "", err
	}
	return parent.ParentID, content, nil
}

// UpdateContent edits a comment's text. Counters are never touched.
func (s *CommentService) UpdateContent(ctx context.Context, actorID, commentID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.GetByID(ctx, tx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, model.ErrNotCommentOwner
	}
	if comment.IsDeleted {
		return nil, model.ErrCommentDeleted
	}

	now := time.Now().UTC()
	if err := s.commentRepo.UpdateContent(ctx, tx, commentID, content, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	comment.Content = content
	comment.UpdatedAt = now
	return comment, nil
}

// ListByPost returns the live comments of a live post, marking the ones the
// viewer has liked.
func (s *CommentService) ListByPost(ctx context.Context, viewerID, postID int64, limit int) ([]model.CommentView, error) {
	if limit <= 0 {
		limit = defaultCommentPageSize
	}
	if limit > maxCommentPageSize {
		limit = maxCommentPageSize
	}

	post, err := s.postRepo.GetByID(ctx, s.db, postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.commentRepo.ListByPost(ctx, s.db, postID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	liked, err := s.edgeRepo.CheckTargets(ctx, s.db, model.EdgeCommentLike, viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.CommentView, len(comments))
	for i, c := range comments {
		views[i] = model.CommentView{Comment: c, IsLiked: liked[c.ID]}
	}
	return views, nil
}
