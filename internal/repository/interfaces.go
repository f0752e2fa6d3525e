package repository

import (
	"context"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
)

// Implementations return domain.ErrNotFound for missing rows and a
// *domain.ConflictError when a username or email is already taken. Any other
// error is an upstream storage failure.

type UserRepository interface {
	// CreateUnique checks that neither the username nor the email is taken
	// and inserts the user, as one atomic step.
	CreateUnique(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateProfile applies all changes or none.
	UpdateProfile(ctx context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error)
}

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	// Update writes title, content and visibility only if the note still
	// belongs to note.AuthorID.
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id, authorID uuid.UUID) error
	ListPublic(ctx context.Context, limit, offset int) ([]*domain.NoteView, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, publicOnly bool) ([]*domain.NoteView, error)
}

type Repositories struct {
	User UserRepository
	Note NoteRepository
}
