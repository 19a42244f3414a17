package repository

import (
	"context"
	"sync"
	"testing"

	"poll-be/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_CreateKeepsBookmarks(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", FullName: "First", UserName: "first"}))
	bookmarked, ids, err := repo.ToggleBookmark(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, bookmarked)
	assert.Equal(t, []string{"p1"}, ids)

	before, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, before.CreatedAt.IsZero())

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", FullName: "Renamed", UserName: "renamed"}))
	after, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", after.FullName)
	assert.Equal(t, []string{"p1"}, after.BookmarkedPolls)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	_, err = repo.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestMemoryUserRepository_ToggleBookmark(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1"}))

	steps := []struct {
		pollID         string
		wantBookmarked bool
		wantIDs        []string
	}{
		{"p1", true, []string{"p1"}},
		{"p2", true, []string{"p1", "p2"}},
		{"p1", false, []string{"p2"}},
		{"p2", false, []string{}},
	}
	for _, step := range steps {
		bookmarked, ids, err := repo.ToggleBookmark(ctx, "u1", step.pollID)
		require.NoError(t, err)
		assert.Equal(t, step.wantBookmarked, bookmarked)
		assert.Equal(t, step.wantIDs, ids)
	}

	_, _, err := repo.ToggleBookmark(ctx, "nobody", "p1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestMemoryUserRepository_ConcurrentToggleIsSerialized(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1"}))

	// an even number of toggles always ends unbookmarked
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = repo.ToggleBookmark(ctx, "u1", "p1")
		}()
	}
	wg.Wait()

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, u.BookmarkedPolls)
}

func TestMemoryUserRepository_RemoveBookmarkEverywhere(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	for _, id := range []string{"u1", "u2"} {
		require.NoError(t, repo.Create(ctx, &domain.User{ID: id}))
		_, _, err := repo.ToggleBookmark(ctx, id, "p1")
		require.NoError(t, err)
		_, _, err = repo.ToggleBookmark(ctx, id, "p2")
		require.NoError(t, err)
	}

	require.NoError(t, repo.RemoveBookmarkEverywhere(ctx, "p1"))

	for _, id := range []string{"u1", "u2"} {
		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"p2"}, u.BookmarkedPolls)
	}
}

func TestMemoryUserRepository_GetSummaries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", FullName: "One", UserName: "one", Email: "one@example.com"}))

	summaries, err := repo.GetSummaries(ctx, []string{"u1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, domain.UserSummary{ID: "u1", FullName: "One", UserName: "one"}, summaries["u1"])
}
