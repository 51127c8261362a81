package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"payflow/internal/auth"
	"payflow/internal/domain"
	"payflow/internal/repository"
)

var (
	// ErrEmailTaken is returned when signing up with an already registered email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidCredentials indicates that the provided password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountNotFound is returned when a user has no balance account.
	ErrAccountNotFound = errors.New("account not found")
)

// ProfileUpdate carries a partial self-service profile change. Nil fields are
// left untouched; an all-nil update is a no-op.
type ProfileUpdate struct {
	Password  *string
	FirstName *string
	LastName  *string
}

// UserService describes user lifecycle operations: provisioning, sign-in,
// self-service updates and lookups.
type UserService interface {
	Signup(ctx context.Context, email, password, firstName, lastName string) (*domain.User, string, error)
	Signin(ctx context.Context, email, password string) (string, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Search(ctx context.Context, filter string) ([]domain.User, error)
	Balance(ctx context.Context, userID string) (*domain.Account, error)
}

type userService struct {
	users       repository.UserRepository
	accounts    repository.AccountRepository
	tokens      *auth.TokenManager
	seedBalance func() int64
}

// NewUserService wires the orchestrator. New accounts start with a
// pseudo-random seed balance in [0, maxInitialBalance); the value carries no
// business meaning.
func NewUserService(users repository.UserRepository, accounts repository.AccountRepository, tokens *auth.TokenManager, maxInitialBalance int64) UserService {
	if maxInitialBalance <= 0 {
		maxInitialBalance = 1
	}
	return &userService{
		users:    users,
		accounts: accounts,
		tokens:   tokens,
		seedBalance: func() int64 {
			return rand.Int64N(maxInitialBalance)
		},
	}
}

// Signup provisions a new identity: hash the password, create the user and
// its linked account in one transaction, then issue a bearer token.
func (s *userService) Signup(ctx context.Context, email, password, firstName, lastName string) (*domain.User, string, error) {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hash,
	}

	if _, err := s.users.CreateWithAccount(ctx, user, s.seedBalance()); err != nil {
		// a concurrent signup may win the race after our lookup
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	return sanitizeUser(user), token, nil
}

func (s *userService) Signin(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error {
	var fields repository.UserUpdate
	if update.Password != nil {
		hash, err := auth.HashPassword(*update.Password)
		if err != nil {
			return err
		}
		fields.PasswordHash = &hash
	}
	if update.FirstName != nil {
		name := strings.TrimSpace(*update.FirstName)
		fields.FirstName = &name
	}
	if update.LastName != nil {
		name := strings.TrimSpace(*update.LastName)
		fields.LastName = &name
	}

	if fields == (repository.UserUpdate{}) {
		return nil
	}

	if err := s.users.UpdateByID(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) Search(ctx context.Context, filter string) ([]domain.User, error) {
	users, err := s.users.SearchByName(ctx, strings.TrimSpace(filter))
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) Balance(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
