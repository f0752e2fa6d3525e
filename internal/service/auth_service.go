package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dom/noteshare/internal/auth"
	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/repository"
	"github.com/google/uuid"
)

type AuthService struct {
	users   repository.UserRepository
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenCodec
	metrics *metrics.Metrics

	// dummyHash is verified against when the email is unknown. It is built
	// at construction with the same cost as real credentials.
	dummyHash string
}

func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenCodec, m *metrics.Metrics) *AuthService {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		slog.Error("failed to build dummy credential", "op", "auth.NewAuthService", "error", err)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   m,
		dummyHash: dummy,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token  string
	Claims *domain.Claims
	User   *domain.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username, err := validateUsername(input.Username)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword("password", input.Password); err != nil {
		return nil, err
	}

	// Hashing is the slow part and must not run inside the uniqueness lock.
	credential, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: credential,
	}
	if err := s.users.CreateUnique(ctx, user); err != nil {
		return nil, upstream(err)
	}

	return s.issue(user)
}

// Login fails with domain.ErrAuthentication for an unknown email and for a
// wrong password alike. Unknown emails still pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	user, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetByEmail(ctx, email)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.hasher.Verify(input.Password, s.dummyHash)
		s.metrics.RecordAuthFailure(domain.ErrAuthentication)
		return nil, domain.ErrAuthentication
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.metrics.RecordAuthFailure(domain.ErrAuthentication)
		return nil, domain.ErrAuthentication
	}

	return s.issue(user)
}

// VerifyToken checks a bearer token and counts rejections by reason.
func (s *AuthService) VerifyToken(token string) (*domain.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.RecordAuthFailure(err)
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Claims: claims, User: user}, nil
}
