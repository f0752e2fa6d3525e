package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("already exists")
	ErrAuthentication = errors.New("authentication required")
	// ErrNotFound is returned both for missing resources and for resources the
	// caller may not see or change, so the two cases cannot be told apart.
	ErrNotFound        = errors.New("not found")
	ErrUpstreamStorage = errors.New("storage unavailable")
)

// Token errors
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenNotYetValid      = errors.New("token is not valid yet")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError names the unique field that collided.
type ConflictError struct {
	Field string
}

func NewConflictError(field string) *ConflictError {
	return &ConflictError{Field: field}
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case "username":
		return "username is already taken"
	case "email":
		return "email is already taken"
	case "":
		return "user with this email or username already exists"
	}
	return fmt.Sprintf("%s changed concurrently", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsTokenError reports whether err came from token verification.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSignatureInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenNotYetValid)
}
