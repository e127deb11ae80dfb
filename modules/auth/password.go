package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades hashing time against brute-force resistance. Cost 12
// keeps registration and login under a few hundred milliseconds.
const bcryptCost = 12

// maxPasswordBytes is bcrypt's input limit; longer passwords would be
// silently truncated by the algorithm, so they are rejected instead.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned when a password exceeds bcrypt's
// 72-byte input limit.
var ErrPasswordTooLong = errors.New("password must be at most 72 characters")

// PasswordHasher hashes and verifies account passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the standard cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcryptCost}
}

// Hash returns the bcrypt hash of the password. Inputs beyond the
// 72-byte limit are rejected up front rather than truncated.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
