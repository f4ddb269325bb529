package repository

import (
	"context"
	"errors"

	"account-api/internal/domain"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user whose username is taken.
	ErrUserExists = errors.New("user already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// FindByToken returns the single user holding token.
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	// Save upserts the user keyed by username.
	Save(ctx context.Context, user *domain.User) error
	// Create inserts a new user and fails with ErrUserExists on a duplicate username.
	Create(ctx context.Context, user *domain.User) error
	// Update loads the user, applies fn and writes the result in one transaction.
	// Nothing is written when fn returns an error. fn must not call back into the
	// repository.
	Update(ctx context.Context, username string, fn func(*domain.User) error) (*domain.User, error)
}
