package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/noteshare/internal/auth"
	"github.com/dom/noteshare/internal/config"
	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/policy"
	"github.com/dom/noteshare/internal/repository"
	"github.com/dom/noteshare/internal/storage"
	"github.com/google/uuid"
)

type ProfileService struct {
	users          repository.UserRepository
	hasher         *auth.PasswordHasher
	avatars        storage.AvatarStore
	metrics        *metrics.Metrics
	maxAvatarBytes int64
	storageTimeout time.Duration
}

func NewProfileService(users repository.UserRepository, hasher *auth.PasswordHasher, avatars storage.AvatarStore, m *metrics.Metrics, cfg *config.Config) *ProfileService {
	return &ProfileService{
		users:          users,
		hasher:         hasher,
		avatars:        avatars,
		metrics:        m,
		maxAvatarBytes: cfg.MaxAvatarBytes,
		storageTimeout: cfg.StorageTimeout,
	}
}

// UpdateProfileInput holds the requested changes. Nil fields are left as
// they are. A password change needs both CurrentPassword and NewPassword.
type UpdateProfileInput struct {
	Username        *string
	Email           *string
	CurrentPassword *string
	NewPassword     *string
	Avatar          *string
}

func (s *ProfileService) GetOwnProfile(ctx context.Context, claims *domain.Claims) (*domain.User, error) {
	if claims == nil {
		return nil, domain.ErrAuthentication
	}
	return retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByID(ctx, claims.SubjectID)
	})
}

func (s *ProfileService) GetPublicProfile(ctx context.Context, id uuid.UUID) (*domain.PublicProfile, error) {
	if err := authorize(s.metrics, policy.ActionReadProfile, policy.ProfileResource(id), nil); err != nil {
		return nil, err
	}
	user, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	profile := user.PublicProfile()
	return &profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, claims *domain.Claims, id uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	if err := authorize(s.metrics, policy.ActionUpdateProfile, policy.ProfileResource(id), claims); err != nil {
		return nil, err
	}

	var changes domain.ProfileChanges

	if input.Username != nil {
		username, err := validateUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		changes.Username = &username
	}
	if input.Email != nil {
		email, err := validateEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		changes.Email = &email
	}
	if input.Avatar != nil {
		avatar, err := validateAvatarRef(*input.Avatar)
		if err != nil {
			return nil, err
		}
		changes.Avatar = &avatar
	}

	if input.CurrentPassword != nil || input.NewPassword != nil {
		if err := authorize(s.metrics, policy.ActionChangePassword, policy.ProfileResource(id), claims); err != nil {
			return nil, err
		}
		if err := s.preparePasswordChange(ctx, id, input, &changes); err != nil {
			return nil, err
		}
	}

	if changes.Empty() {
		return s.GetOwnProfile(ctx, claims)
	}

	user, err := s.users.UpdateProfile(ctx, id, changes)
	if err != nil {
		return nil, upstream(err)
	}
	return user, nil
}

// preparePasswordChange verifies the current password and hashes the new one
// before any write is attempted. The stored credential it verified against is
// recorded so the write can detect a concurrent change.
func (s *ProfileService) preparePasswordChange(ctx context.Context, id uuid.UUID, input UpdateProfileInput, changes *domain.ProfileChanges) error {
	if input.CurrentPassword == nil || input.NewPassword == nil {
		return domain.NewValidationError("newPassword", "current and new password are both required")
	}
	if err := validatePassword("newPassword", *input.NewPassword); err != nil {
		return err
	}

	user, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByID(ctx, id)
	})
	if err != nil {
		return err
	}
	if !s.hasher.Verify(*input.CurrentPassword, user.PasswordHash) {
		return domain.NewValidationError("currentPassword", "current password is incorrect")
	}

	credential, err := s.hasher.Hash(*input.NewPassword)
	if err != nil {
		return err
	}
	changes.PasswordHash = &credential
	changes.ExpectedPasswordHash = user.PasswordHash
	return nil
}

// UploadAvatar validates and stores an image, then records its reference on
// the caller's profile. The profile write happens only after the blob is
// stored.
func (s *ProfileService) UploadAvatar(ctx context.Context, claims *domain.Claims, data []byte, declaredType string) (*domain.User, error) {
	var id uuid.UUID
	if claims != nil {
		id = claims.SubjectID
	}
	if err := authorize(s.metrics, policy.ActionUploadAvatar, policy.ProfileResource(id), claims); err != nil {
		return nil, err
	}

	contentType, err := storage.ValidateAvatar(data, declaredType, s.maxAvatarBytes)
	if err != nil {
		return nil, err
	}

	putCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	key := storage.AvatarKey(id, contentType)
	ref, err := s.avatars.Put(putCtx, key, contentType, data)
	if err != nil {
		if errors.Is(putCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: avatar upload timed out after %s", domain.ErrUpstreamStorage, s.storageTimeout)
		}
		return nil, upstream(err)
	}

	user, err := s.users.UpdateProfile(ctx, id, domain.ProfileChanges{Avatar: &ref})
	if err != nil {
		slog.Warn("avatar stored but profile not updated, blob is orphaned",
			"op", "profile.UploadAvatar", "user_id", id, "key", key, "error", err)
		return nil, upstream(err)
	}
	return user, nil
}
