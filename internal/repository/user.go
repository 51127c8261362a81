package repository

import (
	"context"
	"errors"

	"payflow/internal/domain"
)

var (
	// ErrDuplicateEmail is returned when an insert would violate the unique
	// constraint on the login email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// UserUpdate carries a partial field replacement for a user. Nil fields are
// left untouched.
type UserUpdate struct {
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// CreateWithAccount inserts the user and its linked account as a single
	// transaction so a failed account write never leaves an orphan user.
	CreateWithAccount(ctx context.Context, user *domain.User, initialBalance int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateByID(ctx context.Context, id string, update UserUpdate) error
	// SearchByName matches filter case-insensitively against first or last
	// name; an empty filter yields all users.
	SearchByName(ctx context.Context, filter string) ([]domain.User, error)
}
