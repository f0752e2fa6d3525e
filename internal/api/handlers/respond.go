package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "op", "handlers.writeJSON", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP. Authentication and
// authorization failures get fixed messages; validation and conflict
// messages are passed through.
func writeError(w http.ResponseWriter, op string, err error) {
	var validationErr *domain.ValidationError
	var conflictErr *domain.ConflictError

	switch {
	case storage.IsTooLarge(err):
		http.Error(w, "Avatar exceeds the 5MB limit", http.StatusRequestEntityTooLarge)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &conflictErr):
		http.Error(w, conflictErr.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrAuthentication), domain.IsTokenError(err):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrUpstreamStorage):
		slog.Error("upstream storage failure", "op", op, "error", err)
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled):
		slog.Debug("request cancelled", "op", op)
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
	default:
		slog.Error("unexpected error", "op", op, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a single JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("decode request body: trailing data")
	}
	return nil
}

// pathID parses a uuid path parameter. A malformed id names nothing, so it
// is reported as not found.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

type messageResponse struct {
	Message string `json:"message"`
}
