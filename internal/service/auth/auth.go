package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/sup/internal/apperrors"
	"github.com/nkiryanov/sup/internal/models"
)

type userRepo interface {
	// Has to return apperrors.ErrUserNotFound if user not found
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type Config struct {
	// Hasher to compare user passwords
	// BcryptHasher used if not set
	Hasher PasswordHasher
}

// Auth service checks Basic credentials against stored users
// No sessions: every request carries credentials
type AuthService struct {
	hasher   PasswordHasher
	userRepo userRepo

	// Hash compared when user not found, so response time does not reveal usernames
	dummyHash string
}

func NewService(cfg Config, userRepo userRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if userRepo == nil {
		return nil, errors.New("user repo must not be nil")
	}

	dummyHash, err := hasher.Hash("dummy-password")
	if err != nil {
		return nil, fmt.Errorf("hasher is not working. Err: %w", err)
	}

	return &AuthService{
		hasher:    hasher,
		userRepo:  userRepo,
		dummyHash: dummyHash,
	}, nil
}

// Authenticate user by username and password
// Has to return apperrors.ErrUnauthorized if credentials are wrong
// Username is not unique: the first inserted user is checked
func (s *AuthService) Authenticate(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)

	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, apperrors.ErrUnauthorized
	case err != nil:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	// Users created without password can't log in
	if user.HashedPassword == "" {
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, apperrors.ErrUnauthorized
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUnauthorized
	}

	return user, nil
}

// Auth authenticates request with Basic credentials
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return models.User{}, apperrors.ErrUnauthorized
	}

	return s.Authenticate(ctx, username, password)
}
