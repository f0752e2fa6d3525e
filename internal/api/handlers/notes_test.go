package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteList struct {
	Notes []*domain.NoteView `json:"notes"`
}

func createNote(t *testing.T, ts *testutil.TestServer, token, title string, isPublic bool) *domain.NoteView {
	t.Helper()

	req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/notes"), map[string]interface{}{
		"title":    title,
		"content":  "content of " + title,
		"isPublic": isPublic,
	}, token)
	resp := testutil.Do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var note domain.NoteView
	testutil.AssertJSONResponse(t, resp, &note)
	return &note
}

func TestNoteHandler_PrivateNoteScenario(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/notes"), map[string]interface{}{
		"title":    "T1",
		"content":  "C1",
		"isPublic": false,
	}, aliceToken)
	resp := testutil.Do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.NoteView
	testutil.AssertJSONResponse(t, resp, &created)
	assert.Equal(t, alice.ID, created.AuthorID)
	assert.Equal(t, "alice", created.AuthorName)
	assert.Equal(t, domain.VisibilityPrivate, created.Visibility)

	url := ts.APIURL("/notes/" + created.ID.String())

	t.Run("other user gets not found", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, bobToken))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		testutil.AssertNoNoteLeak(t, resp, &created.Note)
	})

	t.Run("anonymous gets unauthorized", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, ""))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		testutil.AssertNoNoteLeak(t, resp, &created.Note)
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, "invalid.token.here"))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("owner reads it", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, aliceToken))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got domain.NoteView
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Equal(t, "T1", got.Title)
		assert.Equal(t, "C1", got.Content)
	})
}

func TestNoteHandler_Mutations(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	note := createNote(t, ts, aliceToken, "original", true)
	url := ts.APIURL("/notes/" + note.ID.String())
	update := map[string]interface{}{"title": "changed"}

	tests := []struct {
		name           string
		method         string
		url            string
		body           interface{}
		token          string
		expectedStatus int
	}{
		{name: "other user update", method: http.MethodPut, url: url, body: update, token: bobToken, expectedStatus: http.StatusNotFound},
		{name: "other user delete", method: http.MethodDelete, url: url, token: bobToken, expectedStatus: http.StatusNotFound},
		{name: "anonymous update", method: http.MethodPut, url: url, body: update, expectedStatus: http.StatusUnauthorized},
		{name: "anonymous delete", method: http.MethodDelete, url: url, expectedStatus: http.StatusUnauthorized},
		{name: "malformed id", method: http.MethodPut, url: ts.APIURL("/notes/not-a-uuid"), body: update, token: aliceToken, expectedStatus: http.StatusNotFound},
		{name: "invalid title", method: http.MethodPut, url: url, body: map[string]interface{}{"title": ""}, token: aliceToken, expectedStatus: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPut, url: url, body: map[string]interface{}{"authorId": "x"}, token: aliceToken, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, tt.method, tt.url, tt.body, tt.token))
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
		})
	}

	stored, err := ts.Repos.Note.GetByID(t.Context(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Title, "rejected mutations leave the note unchanged")

	resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPut, url, update, aliceToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.NoteView
	testutil.AssertJSONResponse(t, resp, &updated)
	assert.Equal(t, "changed", updated.Title)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodDelete, url, nil, aliceToken))
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, aliceToken))
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestNoteHandler_Listings(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	createNote(t, ts, aliceToken, "alice public", true)
	createNote(t, ts, aliceToken, "alice private", false)
	createNote(t, ts, bobToken, "bob private", false)

	for _, token := range []string{"", aliceToken, bobToken} {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/notes"), nil, token))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list noteList
		testutil.AssertJSONResponse(t, resp, &list)
		require.Len(t, list.Notes, 1)
		testutil.AssertNoPrivateNotes(t, list.Notes)
		require.NotNil(t, list.Notes[0].Author)
		assert.Equal(t, "alice", list.Notes[0].Author.Username)
	}

	resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/me/notes"), nil, aliceToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine noteList
	testutil.AssertJSONResponse(t, resp, &mine)
	assert.Len(t, mine.Notes, 2)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/me/notes"), nil, ""))
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/"+alice.ID.String()+"/notes"), nil, bobToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var byAlice noteList
	testutil.AssertJSONResponse(t, resp, &byAlice)
	require.Len(t, byAlice.Notes, 1)
	assert.Equal(t, "alice public", byAlice.Notes[0].Title)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/"+alice.ID.String()), nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile map[string]interface{}
	testutil.AssertJSONResponse(t, resp, &profile)
	assert.Equal(t, "alice", profile["username"])
	assert.NotContains(t, profile, "email")
}
