// Package password hashes and verifies account passwords with bcrypt.
// Plaintext passwords are never stored.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything after the 72nd byte.
const maxLength = 72

// ErrTooLong is returned when a password exceeds what bcrypt can hash.
var ErrTooLong = errors.New("password is too long")

// Hash returns a salted bcrypt hash of the password using the given cost.
func Hash(password string, cost int) (string, error) {
	if len(password) > maxLength {
		return "", ErrTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Check reports whether password matches the stored hash.
func Check(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
