package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dom/noteshare/internal/domain"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
	maxTitleLen    = 200
	maxContentLen  = 100000
	maxAvatarRef   = 2048
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func validateUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return "", domain.NewValidationError("username", "must be between 3 and 32 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", domain.NewValidationError("username", "may only contain letters, digits, '_', '.' and '-'")
	}
	return username, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validateEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.NewValidationError("email", "must be a valid email address")
	}
	return email, nil
}

func validatePassword(field, password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return domain.NewValidationError(field, "must be at least 6 characters")
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.NewValidationError("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return domain.NewValidationError("title", "must be at most 200 characters")
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.NewValidationError("content", "is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return domain.NewValidationError("content", "must be at most 100000 characters")
	}
	return nil
}

func validateAvatarRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if len(ref) > maxAvatarRef {
		return "", domain.NewValidationError("avatar", "is too long")
	}
	return ref, nil
}
