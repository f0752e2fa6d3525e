// Package storage holds uploaded avatar images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
)

// ErrAvatarTooLarge is returned for blobs above the configured cap. It is a
// validation failure but handlers report it with its own status.
var ErrAvatarTooLarge = fmt.Errorf("avatar too large: %w", domain.ErrValidation)

// AvatarStore persists a blob and returns the reference stored on the user.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ValidateAvatar checks the size cap and that both the declared and the
// sniffed content types are images. It returns the sniffed type.
func ValidateAvatar(data []byte, declaredType string, maxBytes int64) (string, error) {
	if int64(len(data)) > maxBytes {
		return "", ErrAvatarTooLarge
	}
	if len(data) == 0 {
		return "", domain.NewValidationError("avatar", "file is empty")
	}
	if !isImage(declaredType) {
		return "", domain.NewValidationError("avatar", "only image files are allowed")
	}

	sniffed := http.DetectContentType(data)
	if !isImage(sniffed) {
		return "", domain.NewValidationError("avatar", "only image files are allowed")
	}
	return sniffed, nil
}

func isImage(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.HasPrefix(strings.TrimSpace(strings.ToLower(mediaType)), "image/")
}

// AvatarKey returns a fresh object key for a user's avatar.
func AvatarKey(userID uuid.UUID, contentType string) string {
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), extension(contentType))
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ""
}

// IsTooLarge reports whether err is the size-cap rejection.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrAvatarTooLarge)
}
