package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

// CreateUnique serializes registrations that share a username or an email
// with transaction-scoped advisory locks, then checks and inserts. Unrelated
// registrations take different locks and run in parallel. The unique
// indexes remain the final guard.
func (r *userRepository) CreateUnique(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keys := []string{"username:" + user.Username, "email:" + user.Email}
		sort.Strings(keys)
		for _, key := range keys {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
				return err
			}
		}

		var existing domain.User
		err := tx.Select("id", "username", "email").
			Where("username = ? OR email = ?", user.Username, user.Email).
			Take(&existing).Error
		switch {
		case err == nil:
			if existing.Username == user.Username {
				return domain.NewConflictError("username")
			}
			return domain.NewConflictError("email")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Create(user).Error
	})
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// UpdateProfile locks the user row, re-validates uniqueness excluding the
// user itself and the expected credential, then writes every change in one
// statement. Any failure rolls the whole transaction back.
func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}

		if changes.Username != nil && *changes.Username != user.Username {
			taken, err := r.taken(tx, "username", *changes.Username, id)
			if err != nil {
				return err
			}
			if taken {
				return domain.NewConflictError("username")
			}
			updates["username"] = *changes.Username
		}

		if changes.Email != nil && *changes.Email != user.Email {
			taken, err := r.taken(tx, "email", *changes.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return domain.NewConflictError("email")
			}
			updates["email"] = *changes.Email
		}

		if changes.PasswordHash != nil {
			if user.PasswordHash != changes.ExpectedPasswordHash {
				return domain.NewConflictError("password")
			}
			updates["password_hash"] = *changes.PasswordHash
		}

		if changes.Avatar != nil {
			updates["avatar"] = *changes.Avatar
		}

		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()

		if err := tx.Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) taken(tx *gorm.DB, column, value string, self uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&domain.User{}).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Where("id <> ?", self).
		Count(&count).Error
	return count > 0, err
}
