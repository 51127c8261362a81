package repository

import (
	"context"

	"payflow/internal/domain"
)

// AccountRepository defines persistence operations for Account entities.
// Accounts are only ever created alongside their user, so there is no
// standalone create here.
type AccountRepository interface {
	Init(ctx context.Context) error
	GetByUserID(ctx context.Context, userID string) (*domain.Account, error)
}
