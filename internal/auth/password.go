package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost fixes the work factor for all stored credentials.
const bcryptCost = 10

// HashPassword derives a salted bcrypt hash from a plaintext password. Two
// calls with the same plaintext yield different hashes that both verify.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored bcrypt hash.
// A malformed stored hash fails verification rather than erroring out.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
