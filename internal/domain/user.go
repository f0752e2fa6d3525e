package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Avatar       string    `json:"avatar" gorm:"not null;default:''"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicProfile is the only view of a user shown to other users.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// ProfileChanges is an atomic set of updates to a user record. Nil fields are
// left untouched.
type ProfileChanges struct {
	Username *string
	Email    *string
	Avatar   *string

	// PasswordHash replaces the stored credential. ExpectedPasswordHash must
	// then hold the credential the caller verified against; the update fails
	// with a conflict if it changed in between.
	PasswordHash         *string
	ExpectedPasswordHash string
}

func (c ProfileChanges) Empty() bool {
	return c.Username == nil && c.Email == nil && c.Avatar == nil && c.PasswordHash == nil
}
