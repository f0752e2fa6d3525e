package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/repository/postgres"
	"github.com/dom/noteshare/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteRepository_CRUD(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	users := postgres.NewUserRepository(testDB.DB)
	repo := postgres.NewNoteRepository(testDB.DB)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithUsername("alice").Build(t, users)
	bob, _ := testutil.NewUserBuilder().WithUsername("bob").Build(t, users)

	note := testutil.NewNoteBuilder().WithAuthor(alice).WithTitle("T1").WithContent("C1").Private().Build(t, repo)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "T1", got.Title)
		assert.Equal(t, alice.ID, got.AuthorID)
		assert.Equal(t, domain.VisibilityPrivate, got.Visibility)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("create with unknown author", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Note{
			ID:         uuid.New(),
			Title:      "orphan",
			Content:    "orphan",
			AuthorID:   uuid.New(),
			AuthorName: "ghost",
			Visibility: domain.VisibilityPublic,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update by other author", func(t *testing.T) {
		err := repo.Update(ctx, &domain.Note{ID: note.ID, AuthorID: bob.ID, Title: "hijack", Content: "hijack", Visibility: domain.VisibilityPublic})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := repo.GetByID(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "T1", got.Title)
	})

	t.Run("update by owner", func(t *testing.T) {
		updated := &domain.Note{ID: note.ID, AuthorID: alice.ID, Title: "T2", Content: "C2", Visibility: domain.VisibilityPublic}
		require.NoError(t, repo.Update(ctx, updated))

		got, err := repo.GetByID(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "T2", got.Title)
		assert.Equal(t, "C2", got.Content)
		assert.True(t, got.IsPublic())
		assert.Equal(t, note.CreatedAt.Unix(), got.CreatedAt.Unix())
	})

	t.Run("delete by other author", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, note.ID, bob.ID), domain.ErrNotFound)
	})

	t.Run("delete by owner", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, note.ID, alice.ID))
		_, err := repo.GetByID(ctx, note.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, note.ID, alice.ID), domain.ErrNotFound)
	})
}

func TestNoteRepository_Listings(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	users := postgres.NewUserRepository(testDB.DB)
	repo := postgres.NewNoteRepository(testDB.DB)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithUsername("alice").Build(t, users)
	bob, _ := testutil.NewUserBuilder().WithUsername("bob").Build(t, users)

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	seed := []struct {
		author *domain.User
		title  string
		public bool
	}{
		{alice, "a1", true},
		{alice, "a2", false},
		{bob, "b1", true},
		{alice, "a3", true},
		{bob, "b2", false},
	}
	for i, s := range seed {
		require.NoError(t, repo.Create(ctx, &domain.Note{
			ID:         uuid.New(),
			Title:      s.title,
			Content:    "content",
			AuthorID:   s.author.ID,
			AuthorName: s.author.Username,
			Visibility: domain.VisibilityFromPublic(s.public),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	titles := func(views []*domain.NoteView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Title)
		}
		return out
	}

	t.Run("public newest first", func(t *testing.T) {
		views, err := repo.ListPublic(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a3", "b1", "a1"}, titles(views))
		testutil.AssertNoPrivateNotes(t, views)
		require.NotNil(t, views[0].Author)
		assert.Equal(t, "alice", views[0].Author.Username)
	})

	t.Run("public paging", func(t *testing.T) {
		views, err := repo.ListPublic(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b1"}, titles(views))

		views, err = repo.ListPublic(ctx, 10, 5)
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("by author", func(t *testing.T) {
		views, err := repo.ListByAuthor(ctx, alice.ID, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a3", "a2", "a1"}, titles(views))

		views, err = repo.ListByAuthor(ctx, alice.ID, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"a3", "a1"}, titles(views))
	})

	t.Run("author summary is live", func(t *testing.T) {
		_, err := users.UpdateProfile(ctx, bob.ID, domain.ProfileChanges{Username: strPtr("robert")})
		require.NoError(t, err)

		views, err := repo.ListByAuthor(ctx, bob.ID, true)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "bob", views[0].AuthorName)
		assert.Equal(t, "robert", views[0].Author.Username)
	})
}
