// Package memory implements the repositories on in-process maps. It backs
// the development server when no database is configured and the service
// tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/repository"
	"github.com/google/uuid"
)

// Store holds users and notes behind one RWMutex. Reads run concurrently;
// writes, including the uniqueness check of registration, are serialized.
type Store struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*domain.User
	byName  map[string]uuid.UUID
	byEmail map[string]uuid.UUID
	notes   map[uuid.UUID]*domain.Note
	now     func() time.Time
	last    time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*domain.User),
		byName:  make(map[string]uuid.UUID),
		byEmail: make(map[string]uuid.UUID),
		notes:   make(map[uuid.UUID]*domain.Note),
		now:     time.Now,
	}
}

func NewRepositories(store *Store) *repository.Repositories {
	return &repository.Repositories{
		User: &userRepository{store: store},
		Note: &noteRepository{store: store},
	}
}

// tick returns a timestamp strictly after the previous one so that
// newest-first ordering is stable. Callers hold the write lock.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

type userRepository struct {
	store *Store
}

func (r *userRepository) CreateUnique(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[user.Username]; ok {
		return domain.NewConflictError("username")
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return domain.NewConflictError("email")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.tick()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.byName[user.Username] = user.ID
	s.byEmail[user.Email] = user.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	// Validate everything before touching the record.
	if changes.Username != nil {
		if owner, taken := s.byName[*changes.Username]; taken && owner != id {
			return nil, domain.NewConflictError("username")
		}
	}
	if changes.Email != nil {
		if owner, taken := s.byEmail[*changes.Email]; taken && owner != id {
			return nil, domain.NewConflictError("email")
		}
	}
	if changes.PasswordHash != nil && u.PasswordHash != changes.ExpectedPasswordHash {
		return nil, domain.NewConflictError("password")
	}

	if changes.Username != nil && *changes.Username != u.Username {
		delete(s.byName, u.Username)
		u.Username = *changes.Username
		s.byName[u.Username] = id
	}
	if changes.Email != nil && *changes.Email != u.Email {
		delete(s.byEmail, u.Email)
		u.Email = *changes.Email
		s.byEmail[u.Email] = id
	}
	if changes.Avatar != nil {
		u.Avatar = *changes.Avatar
	}
	if changes.PasswordHash != nil {
		u.PasswordHash = *changes.PasswordHash
	}
	u.UpdatedAt = s.tick()

	out := *u
	return &out, nil
}

type noteRepository struct {
	store *Store
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirrors the foreign key on notes.author_id.
	if _, ok := s.users[note.AuthorID]; !ok {
		return domain.ErrNotFound
	}

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	now := s.tick()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	stored := *note
	stored.Author = nil
	s.notes[note.ID] = &stored
	return nil
}

func (r *noteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *n
	return &out, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.notes[note.ID]
	if !ok || stored.AuthorID != note.AuthorID {
		return domain.ErrNotFound
	}

	stored.Title = note.Title
	stored.Content = note.Content
	stored.Visibility = note.Visibility
	stored.UpdatedAt = s.tick()
	note.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.notes[id]
	if !ok || stored.AuthorID != authorID {
		return domain.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (r *noteRepository) ListPublic(ctx context.Context, limit, offset int) ([]*domain.NoteView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := s.collect(func(n *domain.Note) bool { return n.IsPublic() })
	if offset >= len(views) {
		return []*domain.NoteView{}, nil
	}
	views = views[offset:]
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views, nil
}

func (r *noteRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, publicOnly bool) ([]*domain.NoteView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(n *domain.Note) bool {
		return n.AuthorID == authorID && (!publicOnly || n.IsPublic())
	}), nil
}

// collect returns matching notes newest first, hydrated with their authors.
// Callers hold at least the read lock.
func (s *Store) collect(match func(*domain.Note) bool) []*domain.NoteView {
	views := make([]*domain.NoteView, 0)
	for _, n := range s.notes {
		if match(n) {
			views = append(views, domain.NewNoteView(n, s.users[n.AuthorID]))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID.String() > views[j].ID.String()
		}
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}
