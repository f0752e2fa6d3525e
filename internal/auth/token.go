package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens. The key, TTL and clock
// are fixed at construction.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return NewTokenCodecWithClock(secret, ttl, time.Now)
}

func NewTokenCodecWithClock(secret []byte, ttl time.Duration, now func() time.Time) *TokenCodec {
	key := make([]byte, len(secret))
	copy(key, secret)

	return &TokenCodec{
		secret: key,
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
	}
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the subject valid for [now, now+TTL). now is
// truncated to whole seconds, the precision of JWT timestamps.
func (c *TokenCodec) Issue(subjectID uuid.UUID, subjectName string) (string, *domain.Claims, error) {
	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := sessionClaims{
		Name: subjectName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &domain.Claims{
		SubjectID:   subjectID,
		SubjectName: subjectName,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify checks the token's algorithm, signature and validity window.
func (c *TokenCodec) Verify(tokenString string) (*domain.Claims, error) {
	var claims sessionClaims
	_, err := c.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrTokenMalformed)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", domain.ErrTokenMalformed)
	}

	return &domain.Claims{
		SubjectID:   subjectID,
		SubjectName: claims.Name,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return domain.ErrTokenNotYetValid
	}
	return domain.ErrTokenMalformed
}
