package repository

import (
	"context"

	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
)

// User repository interface
// Every method is atomic for the single user it touches
type UserRepo interface {
	// Create user with the given id
	// If user with the id exists already has to return apperrors.ErrUserAlreadyExists
	// Username is not unique
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	// Username may be taken by several users: the first inserted one is returned
	GetUserByID(ctx context.Context, id objectid.ID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// All users in insertion order. Never returns nil slice
	ListUsers(ctx context.Context) ([]models.User, error)

	// Replace user with user.ID or create it if not exists
	// Empty HashedPassword keeps the stored one when user exists
	ReplaceUser(ctx context.Context, user models.User) (models.User, models.ReplaceStatus, error)

	// Delete user and return it
	// If user not found must return apperrors.ErrUserNotFound
	DeleteUser(ctx context.Context, id objectid.ID) (models.User, error)
}
