package auth

import (
	"errors"
	"fmt"

	"github.com/dom/noteshare/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit; longer input would be silently
// truncated by older bcrypt versions and is rejected by newer ones.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies credentials with bcrypt. It holds no
// mutable state and is safe for concurrent use.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash. Every call uses a fresh salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", domain.NewValidationError("password", "password is required")
	}
	if len(password) > maxPasswordBytes {
		return "", domain.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password", "password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches credential. Mismatches and corrupt
// credentials both yield false.
func (h *PasswordHasher) Verify(password, credential string) bool {
	return bcrypt.CompareHashAndPassword([]byte(credential), []byte(password)) == nil
}
