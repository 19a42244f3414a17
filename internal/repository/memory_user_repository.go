package repository

import (
	"context"
	"sync"
	"time"

	"poll-be/internal/domain"
)

// MemoryUserRepository keeps users in process memory
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.BookmarkedPolls = append(make([]string, 0, len(u.BookmarkedPolls)), u.BookmarkedPolls...)
	return &c
}

// Create stores user. An existing user keeps its bookmarks and creation time.
func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneUser(user)
	if existing, ok := r.users[user.ID]; ok {
		stored.BookmarkedPolls = existing.BookmarkedPolls
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.users[user.ID] = stored
	user.CreatedAt = stored.CreatedAt
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetSummaries(ctx context.Context, ids []string) (map[string]domain.UserSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) ToggleBookmark(ctx context.Context, userID, pollID string) (bool, []string, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil, domain.ErrUserNotFound
	}

	bookmarked := !u.HasBookmarked(pollID)
	kept := make([]string, 0, len(u.BookmarkedPolls)+1)
	for _, id := range u.BookmarkedPolls {
		if id != pollID {
			kept = append(kept, id)
		}
	}
	if bookmarked {
		kept = append(kept, pollID)
	}
	u.BookmarkedPolls = kept
	return bookmarked, append([]string{}, kept...), nil
}

func (r *MemoryUserRepository) RemoveBookmarkEverywhere(ctx context.Context, pollID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		kept := u.BookmarkedPolls[:0]
		for _, id := range u.BookmarkedPolls {
			if id != pollID {
				kept = append(kept, id)
			}
		}
		u.BookmarkedPolls = kept
	}
	return nil
}
