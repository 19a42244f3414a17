package repository

import (
	"context"

	"poll-be/internal/domain"
)

// PollRepository defines the interface for poll storage.
//
// Implementations must make CastVote, Close and Delete atomic per poll:
// two concurrent CastVote calls by the same voter must leave exactly one
// ballot recorded and return domain.ErrDuplicateVote for the other.
type PollRepository interface {
	// Create stores a new poll
	Create(ctx context.Context, poll *domain.Poll) error

	// FindByID retrieves a poll, domain.ErrPollNotFound when absent
	FindByID(ctx context.Context, id string) (*domain.Poll, error)

	// List returns one page of polls matching filter, newest first, and the total match count
	List(ctx context.Context, filter domain.PollFilter, page domain.PageRequest) ([]*domain.Poll, int, error)

	// Count returns the number of polls matching filter
	Count(ctx context.Context, filter domain.PollFilter) (int, error)

	// CountByType groups the polls matching filter by type
	CountByType(ctx context.Context, filter domain.PollFilter) (map[domain.PollType]int, error)

	// CastVote records a ballot if the poll is open and the voter has not voted yet
	CastVote(ctx context.Context, pollID string, ballot domain.Ballot) (*domain.Poll, error)

	// Close marks a poll closed; only its creator may do so
	Close(ctx context.Context, pollID, requesterID string) (*domain.Poll, error)

	// Delete removes a poll; only its creator may do so
	Delete(ctx context.Context, pollID, requesterID string) error
}

// UserRepository defines the interface for the user data the poll subsystem needs
type UserRepository interface {
	// Create stores a user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user, domain.ErrUserNotFound when absent
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetSummaries returns display metadata for the users that exist among ids
	GetSummaries(ctx context.Context, ids []string) (map[string]domain.UserSummary, error)

	// ToggleBookmark adds pollID to the user's bookmarks if absent, removes it otherwise
	ToggleBookmark(ctx context.Context, userID, pollID string) (bool, []string, error)

	// RemoveBookmarkEverywhere drops pollID from every bookmark set
	RemoveBookmarkEverywhere(ctx context.Context, pollID string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Poll PollRepository
	User UserRepository
}
