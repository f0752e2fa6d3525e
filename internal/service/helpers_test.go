package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dom/noteshare/internal/config"
	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/repository"
	"github.com/dom/noteshare/internal/repository/memory"
	"github.com/dom/noteshare/internal/service"
	"github.com/dom/noteshare/internal/storage"
	"github.com/dom/noteshare/internal/testutil"
	"github.com/google/uuid"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []*domain.NoteView
	updated   []*domain.NoteView
	removed   []uuid.UUID
}

func (p *recordingPublisher) NotePublished(n *domain.NoteView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n)
}

func (p *recordingPublisher) NoteUpdated(n *domain.NoteView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, n)
}

func (p *recordingPublisher) NoteRemoved(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, id)
}

func (p *recordingPublisher) counts() (published, updated, removed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published), len(p.updated), len(p.removed)
}

type testEnv struct {
	cfg       *config.Config
	repos     *repository.Repositories
	services  *service.Services
	publisher *recordingPublisher
	avatars   *storage.MemoryStore
	metrics   *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, memory.NewRepositories(memory.NewStore()), nil)
}

func newTestEnvWith(t *testing.T, repos *repository.Repositories, avatars storage.AvatarStore) *testEnv {
	t.Helper()

	cfg := testutil.TestConfig()
	pub := &recordingPublisher{}
	m := metrics.New()
	mem := storage.NewMemoryStore()
	if avatars == nil {
		avatars = mem
	}

	return &testEnv{
		cfg:   cfg,
		repos: repos,
		services: service.NewServices(repos, cfg, service.Dependencies{
			Avatars:   avatars,
			Publisher: pub,
			Metrics:   m,
		}),
		publisher: pub,
		avatars:   mem,
		metrics:   m,
	}
}

// register creates a user through the service and returns the result.
func (e *testEnv) register(t *testing.T, username string) *service.AuthResult {
	t.Helper()

	result, err := e.services.Auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return result
}

var errFlaky = errors.New("connection reset by peer")

// flakyUsers fails the first `failures` calls of every read and write with a
// non-domain error.
type flakyUsers struct {
	repository.UserRepository
	failures int32
	calls    atomic.Int32
	writes   atomic.Int32
}

func (f *flakyUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, errFlaky
	}
	return f.UserRepository.GetByID(ctx, id)
}

func (f *flakyUsers) UpdateProfile(ctx context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error) {
	f.writes.Add(1)
	return nil, errFlaky
}

// outageUsers fails every GetByID once down is set.
type outageUsers struct {
	repository.UserRepository
	down atomic.Bool
}

func (u *outageUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if u.down.Load() {
		return nil, errFlaky
	}
	return u.UserRepository.GetByID(ctx, id)
}

// outageAfterNoteUpdate takes users down as soon as a note update commits.
type outageAfterNoteUpdate struct {
	repository.NoteRepository
	users *outageUsers
}

func (n *outageAfterNoteUpdate) Update(ctx context.Context, note *domain.Note) error {
	err := n.NoteRepository.Update(ctx, note)
	n.users.down.Store(true)
	return err
}

// blockingAvatars never completes a Put before its context ends.
type blockingAvatars struct{}

func (blockingAvatars) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// errField returns the field named by a validation or conflict error.
func errField(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// tamper changes one signature character that carries no padding bits.
func tamper(token string) string {
	b := []byte(token)
	i := len(b) - 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
