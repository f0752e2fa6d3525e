package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with unique default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user through the repository and returns the user with
// the raw password
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
	}

	if err := repo.CreateUnique(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

// BuildAndAuthenticate registers the user via the API and returns the user
// and its token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"username": b.username,
		"email":    b.email,
		"password": b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:       userID,
		Username: authResp.User.Username,
		Email:    authResp.User.Email,
	}

	return user, authResp.Token
}

// NoteBuilder creates test notes with a builder pattern
type NoteBuilder struct {
	author     *domain.User
	title      string
	content    string
	visibility domain.Visibility
}

// NewNoteBuilder creates a new NoteBuilder for a public note
func NewNoteBuilder() *NoteBuilder {
	return &NoteBuilder{
		title:      "Test note",
		content:    "Test content",
		visibility: domain.VisibilityPublic,
	}
}

// WithAuthor sets the note author
func (b *NoteBuilder) WithAuthor(user *domain.User) *NoteBuilder {
	b.author = user
	return b
}

// WithTitle sets the title
func (b *NoteBuilder) WithTitle(title string) *NoteBuilder {
	b.title = title
	return b
}

// WithContent sets the content
func (b *NoteBuilder) WithContent(content string) *NoteBuilder {
	b.content = content
	return b
}

// Private makes the note private
func (b *NoteBuilder) Private() *NoteBuilder {
	b.visibility = domain.VisibilityPrivate
	return b
}

// Build creates the note through the repository
func (b *NoteBuilder) Build(t *testing.T, repo repository.NoteRepository) *domain.Note {
	t.Helper()

	if b.author == nil {
		t.Fatal("note builder requires an author")
	}

	note := &domain.Note{
		ID:         uuid.New(),
		Title:      b.title,
		Content:    b.content,
		AuthorID:   b.author.ID,
		AuthorName: b.author.Username,
		Visibility: b.visibility,
	}

	if err := repo.Create(context.Background(), note); err != nil {
		t.Fatalf("failed to create note: %v", err)
	}

	return note
}

// CreateAuthenticatedRequest builds a JSON request with an optional bearer token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends the request with the default client
func Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
