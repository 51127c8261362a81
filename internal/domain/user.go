package domain

import "time"

// User is an identity record. Email doubles as the login identifier and is
// unique across all users; PasswordHash always holds a bcrypt hash, never the
// plaintext.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
