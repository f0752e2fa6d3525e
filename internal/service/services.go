package service

import (
	"github.com/dom/noteshare/internal/auth"
	"github.com/dom/noteshare/internal/config"
	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/policy"
	"github.com/dom/noteshare/internal/repository"
	"github.com/dom/noteshare/internal/storage"
)

type Services struct {
	Auth    *AuthService
	Profile *ProfileService
	Note    *NoteService
}

// Dependencies are the collaborators that are not repositories. Nil fields
// are filled from cfg or replaced with no-op implementations.
type Dependencies struct {
	Hasher    *auth.PasswordHasher
	Tokens    *auth.TokenCodec
	Avatars   storage.AvatarStore
	Publisher NotePublisher
	Metrics   *metrics.Metrics
}

func NewServices(repos *repository.Repositories, cfg *config.Config, deps Dependencies) *Services {
	if deps.Hasher == nil {
		deps.Hasher = auth.NewPasswordHasher(cfg.PasswordCost)
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)
	}
	if deps.Avatars == nil {
		deps.Avatars = storage.NewMemoryStore()
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}

	return &Services{
		Auth:    NewAuthService(repos.User, deps.Hasher, deps.Tokens, deps.Metrics),
		Profile: NewProfileService(repos.User, deps.Hasher, deps.Avatars, deps.Metrics, cfg),
		Note:    NewNoteService(repos.Note, repos.User, deps.Publisher, deps.Metrics),
	}
}

// authorize runs the access policy and counts the decision.
func authorize(m *metrics.Metrics, action policy.Action, res policy.Resource, claims *domain.Claims) error {
	d := policy.Decide(action, res, claims)
	m.RecordDecision(string(action), d.Reason)
	return d.Err()
}
