package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Note struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Visibility string `json:"visibility"`
}

type noteList struct {
	Notes []Note `json:"notes"`
}

// StatusError is returned for any unexpected response status
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// RegisterUser creates a new account with a unique suffix on the name
func (c *APIClient) RegisterUser(baseName string) (*User, string, error) {
	username := fmt.Sprintf("%s_%d", baseName, time.Now().UnixNano()%100000)

	body := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "testpassword123",
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return &result.User, result.Token, nil
}

func (c *APIClient) CreateNote(token, title, content string, isPublic bool) (*Note, error) {
	body := map[string]interface{}{
		"title":    title,
		"content":  content,
		"isPublic": isPublic,
	}

	var note Note
	if err := c.do(http.MethodPost, "/notes", body, token, http.StatusCreated, &note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return &note, nil
}

// GetNote returns the note or a *StatusError carrying the refusal
func (c *APIClient) GetNote(token, id string) (*Note, error) {
	var note Note
	if err := c.do(http.MethodGet, "/notes/"+id, nil, token, http.StatusOK, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *APIClient) ListPublicNotes(token string) ([]Note, error) {
	var list noteList
	if err := c.do(http.MethodGet, "/notes", nil, token, http.StatusOK, &list); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return list.Notes, nil
}

func (c *APIClient) DeleteNote(token, id string) error {
	return c.do(http.MethodDelete, "/notes/"+id, nil, token, http.StatusOK, nil)
}

func (c *APIClient) do(method, path string, body interface{}, token string, expected int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(bodyBytes))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
