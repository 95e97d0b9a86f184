package user

import (
	"context"
	"fmt"

	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
	"github.com/nkiryanov/sup/internal/repository"
	"github.com/nkiryanov/sup/internal/service/auth"
)

type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo

	// Identifier allocator, objectid.New by default
	newID func() objectid.ID
}

type Option func(*UserService)

func WithIDAllocator(fn func() objectid.ID) Option {
	return func(s *UserService) {
		s.newID = fn
	}
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo, opts ...Option) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	s := &UserService{
		hasher:   hasher,
		userRepo: userRepo,
		newID:    objectid.New,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListUsers(ctx)
}

// Has to return apperrors.ErrUserNotFound if user not found
func (s *UserService) GetUser(ctx context.Context, id objectid.ID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, id)
}

// Create user with client supplied id or allocate a new one
// Has to return apperrors.ErrUserAlreadyExists if the id is taken
func (s *UserService) CreateUser(ctx context.Context, fields models.UserFields) (models.User, error) {
	user := models.User{Username: fields.Username}

	if fields.ID != nil {
		user.ID = *fields.ID
	} else {
		user.ID = s.newID()
	}

	if fields.Password != nil {
		hash, err := s.hasher.Hash(*fields.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
		}
		user.HashedPassword = hash
	}

	created, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return created, nil
}

// Replace user fields or create user with the id if it doesn't exist
// Password is kept if not set in fields
func (s *UserService) ReplaceUser(ctx context.Context, id objectid.ID, fields models.UserFields) (models.User, models.ReplaceStatus, error) {
	user := models.User{ID: id, Username: fields.Username}

	if fields.Password != nil && *fields.Password != "" {
		hash, err := s.hasher.Hash(*fields.Password)
		if err != nil {
			return models.User{}, models.Updated, fmt.Errorf("can't use this as password, Err: %w", err)
		}
		user.HashedPassword = hash
	}

	replaced, status, err := s.userRepo.ReplaceUser(ctx, user)
	if err != nil {
		return models.User{}, status, fmt.Errorf("can't replace user. Err: %w", err)
	}

	return replaced, status, nil
}

// Has to return apperrors.ErrUserNotFound if user not found
func (s *UserService) DeleteUser(ctx context.Context, id objectid.ID) (models.User, error) {
	return s.userRepo.DeleteUser(ctx, id)
}
