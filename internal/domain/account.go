package domain

import "time"

// Account is the balance ledger record provisioned 1:1 with a User at signup.
// Balance transfers themselves live outside this service; it only guarantees
// the record exists exactly once per user.
type Account struct {
	ID        int64
	UserID    string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
