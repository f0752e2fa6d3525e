package domain

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the verified identity carried by a session token. It is never
// persisted.
type Claims struct {
	SubjectID   uuid.UUID
	SubjectName string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// ValidAt reports whether t falls inside [IssuedAt, ExpiresAt).
func (c *Claims) ValidAt(t time.Time) bool {
	return !t.Before(c.IssuedAt) && t.Before(c.ExpiresAt)
}
