package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
)

// TokenVerifier turns a bearer token into verified claims.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token. Every failure
// gets the same response so callers learn nothing about why.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				slog.Debug("missing or malformed authorization header", "op", "middleware.RequireAuth")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				slog.Debug("token rejected", "op", "middleware.RequireAuth", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid bearer token is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				slog.Debug("token rejected, continuing anonymously", "op", "middleware.OptionalAuth", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func WithClaims(ctx context.Context, claims *domain.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims returns the verified claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *domain.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*domain.Claims)
	return claims
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	claims := GetClaims(ctx)
	if claims == nil {
		return uuid.Nil, false
	}
	return claims.SubjectID, true
}
