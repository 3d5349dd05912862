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
	"snaps_engagement/internal/repository"
)

// UserService bootstraps actors. Every actor owns exactly one live default
// collection from the moment it exists.
type UserService struct {
	repo           repository.UserRepository
	collectionRepo repository.CollectionRepository
	edgeRepo       repository.EdgeRepository
	db             *sqlx.DB
}

func NewUserService(
	repo repository.UserRepository,
	collectionRepo repository.CollectionRepository,
	edgeRepo repository.EdgeRepository,
	db *sqlx.DB,
) *UserService {
	return &UserService{
		repo:           repo,
		collectionRepo: collectionRepo,
		edgeRepo:       edgeRepo,
		db:             db,
	}
}

// Create inserts the user and its default collection in one transaction.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < model.MinUsernameLength || n > model.MaxUsernameLength {
		return nil, model.ErrInvalidUsername
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	user := &model.User{
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, tx, user); err != nil {
		return nil, err
	}

	collection := &model.Collection{
		UID:       uuid.NewString(),
		OwnerID:   user.ID,
		Name:      model.DefaultCollectionName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collectionRepo.Create(ctx, tx, collection); err != nil {
		return nil, fmt.Errorf("create default collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log := logger.Ctx(ctx)
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user created")
	return user, nil
}

// GetProfile returns the user with whether the viewer follows them.
func (s *UserService) GetProfile(ctx context.Context, viewerID, userID int64) (*model.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted {
		return nil, model.ErrUserNotFound
	}

	profile := &model.UserProfile{User: *user}
	if viewerID != 0 && viewerID != userID {
		profile.IsFollowing, err = s.edgeRepo.Exists(ctx, s.db, model.EdgeFollow, viewerID, userID)
		if err != nil {
			return nil, err
		}
	}
	return profile, nil
}
