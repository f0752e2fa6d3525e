package service

import (
	"context"
	"errors"

	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/policy"
	"github.com/dom/noteshare/internal/repository"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// NotePublisher receives changes to public notes. Implementations must not
// block.
type NotePublisher interface {
	NotePublished(note *domain.NoteView)
	NoteUpdated(note *domain.NoteView)
	NoteRemoved(id uuid.UUID)
}

type nopPublisher struct{}

func (nopPublisher) NotePublished(*domain.NoteView) {}
func (nopPublisher) NoteUpdated(*domain.NoteView)   {}
func (nopPublisher) NoteRemoved(uuid.UUID)          {}

type NoteService struct {
	notes     repository.NoteRepository
	users     repository.UserRepository
	publisher NotePublisher
	metrics   *metrics.Metrics
}

func NewNoteService(notes repository.NoteRepository, users repository.UserRepository, publisher NotePublisher, m *metrics.Metrics) *NoteService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &NoteService{
		notes:     notes,
		users:     users,
		publisher: publisher,
		metrics:   m,
	}
}

type CreateNoteInput struct {
	Title   string
	Content string
	// IsPublic defaults to true when nil.
	IsPublic *bool
}

type UpdateNoteInput struct {
	Title    *string
	Content  *string
	IsPublic *bool
}

func (s *NoteService) Create(ctx context.Context, claims *domain.Claims, input CreateNoteInput) (*domain.NoteView, error) {
	if err := authorize(s.metrics, policy.ActionCreateNote, policy.Resource{}, claims); err != nil {
		return nil, err
	}
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateContent(input.Content); err != nil {
		return nil, err
	}

	author, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByID(ctx, claims.SubjectID)
	})
	if err != nil {
		// A valid token whose subject no longer exists cannot author notes.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthentication
		}
		return nil, err
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	note := &domain.Note{
		ID:         uuid.New(),
		Title:      input.Title,
		Content:    input.Content,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Visibility: domain.VisibilityFromPublic(isPublic),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthentication
		}
		return nil, upstream(err)
	}

	view := domain.NewNoteView(note, author)
	if note.IsPublic() {
		s.publisher.NotePublished(view)
	}
	return view, nil
}

// Get returns a note the caller may read. Private notes are reported as
// missing to everyone but their author.
func (s *NoteService) Get(ctx context.Context, claims *domain.Claims, id uuid.UUID) (*domain.NoteView, error) {
	note, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(s.metrics, policy.ActionReadNote, policy.NoteResource(note), claims); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, note)
}

func (s *NoteService) Update(ctx context.Context, claims *domain.Claims, id uuid.UUID, input UpdateNoteInput) (*domain.NoteView, error) {
	if claims == nil {
		return nil, authorize(s.metrics, policy.ActionUpdateNote, policy.Resource{}, nil)
	}

	note, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(s.metrics, policy.ActionUpdateNote, policy.NoteResource(note), claims); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := validateTitle(*input.Title); err != nil {
			return nil, err
		}
		note.Title = *input.Title
	}
	if input.Content != nil {
		if err := validateContent(*input.Content); err != nil {
			return nil, err
		}
		note.Content = *input.Content
	}

	wasPublic := note.IsPublic()
	if input.IsPublic != nil {
		note.Visibility = domain.VisibilityFromPublic(*input.IsPublic)
	}

	// The author is resolved before the write so that nothing can fail
	// once the update has committed.
	author, err := s.author(ctx, note.AuthorID)
	if err != nil {
		return nil, err
	}

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, upstream(err)
	}

	view := domain.NewNoteView(note, author)

	switch {
	case note.IsPublic() && wasPublic:
		s.publisher.NoteUpdated(view)
	case note.IsPublic():
		s.publisher.NotePublished(view)
	case wasPublic:
		s.publisher.NoteRemoved(note.ID)
	}
	return view, nil
}

func (s *NoteService) Delete(ctx context.Context, claims *domain.Claims, id uuid.UUID) error {
	if claims == nil {
		return authorize(s.metrics, policy.ActionDeleteNote, policy.Resource{}, nil)
	}

	note, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(s.metrics, policy.ActionDeleteNote, policy.NoteResource(note), claims); err != nil {
		return err
	}

	if err := s.notes.Delete(ctx, note.ID, claims.SubjectID); err != nil {
		return upstream(err)
	}

	if note.IsPublic() {
		s.publisher.NoteRemoved(note.ID)
	}
	return nil
}

// ListPublic returns public notes newest first. Private notes are never
// included, whoever asks.
func (s *NoteService) ListPublic(ctx context.Context, limit, offset int) ([]*domain.NoteView, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	views, err := retryRead(ctx, func() ([]*domain.NoteView, error) {
		return s.notes.ListPublic(ctx, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return readable(views, nil), nil
}

// ListMine returns all of the caller's notes, private ones included.
func (s *NoteService) ListMine(ctx context.Context, claims *domain.Claims) ([]*domain.NoteView, error) {
	if claims == nil {
		return nil, domain.ErrAuthentication
	}
	views, err := retryRead(ctx, func() ([]*domain.NoteView, error) {
		return s.notes.ListByAuthor(ctx, claims.SubjectID, false)
	})
	if err != nil {
		return nil, err
	}
	return readable(views, claims), nil
}

func (s *NoteService) ListPublicByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.NoteView, error) {
	if _, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByID(ctx, authorID)
	}); err != nil {
		return nil, err
	}

	views, err := retryRead(ctx, func() ([]*domain.NoteView, error) {
		return s.notes.ListByAuthor(ctx, authorID, true)
	})
	if err != nil {
		return nil, err
	}
	return readable(views, nil), nil
}

func (s *NoteService) fetch(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	return retryRead(ctx, func() (*domain.Note, error) {
		return s.notes.GetByID(ctx, id)
	})
}

// hydrate attaches the author's live profile. A missing author leaves the
// view without one rather than failing the read.
func (s *NoteService) hydrate(ctx context.Context, note *domain.Note) (*domain.NoteView, error) {
	author, err := s.author(ctx, note.AuthorID)
	if err != nil {
		return nil, err
	}
	return domain.NewNoteView(note, author), nil
}

// author returns the live author record, or nil when it no longer exists.
func (s *NoteService) author(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	author, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByID(ctx, id)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return author, err
}

// readable drops anything the policy would not let claims read.
func readable(views []*domain.NoteView, claims *domain.Claims) []*domain.NoteView {
	out := make([]*domain.NoteView, 0, len(views))
	for _, v := range views {
		if policy.Decide(policy.ActionReadNote, policy.NoteResource(&v.Note), claims).Allowed {
			out = append(out, v)
		}
	}
	return out
}
