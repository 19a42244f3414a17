package service

import (
	"context"
	"sort"

	"poll-be/internal/domain"
	"poll-be/internal/repository"

	"go.uber.org/zap"
)

// Aggregator derives read-side figures from polls: vote flags, tallies,
// per-type stats, bookmark state and per-user counters.
type Aggregator struct {
	polls  repository.PollRepository
	users  repository.UserRepository
	cache  *CacheService
	logger *zap.Logger
}

func NewAggregator(polls repository.PollRepository, users repository.UserRepository, cache *CacheService, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		polls:  polls,
		users:  users,
		cache:  cache,
		logger: logger,
	}
}

// HasVoted reports whether userID is among the poll's voters
func (a *Aggregator) HasVoted(poll *domain.Poll, userID string) bool {
	return poll.HasVoted(userID)
}

// Tally summarizes a poll's results
func (a *Aggregator) Tally(poll *domain.Poll) domain.Tally {
	poll.Normalize()
	t := domain.Tally{
		PollID:     poll.ID,
		Question:   poll.Question,
		Type:       poll.Type,
		Options:    append([]domain.PollOption{}, poll.Options...),
		Responses:  append([]domain.PollResponse{}, poll.Responses...),
		TotalVotes: poll.TotalVotes(),
		Closed:     poll.Closed,
	}
	return t
}

// GlobalTypeStats counts the polls matching filter per type
func (a *Aggregator) GlobalTypeStats(ctx context.Context, filter domain.PollFilter) ([]domain.TypeStat, error) {
	return a.cache.GetTypeStatsWithCache(ctx, filter, func(ctx context.Context) ([]domain.TypeStat, error) {
		counts, err := a.polls.CountByType(ctx, filter)
		if err != nil {
			return nil, err
		}
		return BuildTypeStats(counts), nil
	})
}

// BuildTypeStats returns one entry per known type, sorted by count
// descending, ties broken by declaration order.
func BuildTypeStats(counts map[domain.PollType]int) []domain.TypeStat {
	types := domain.PollTypes()
	stats := make([]domain.TypeStat, 0, len(types))
	for _, t := range types {
		stats = append(stats, domain.TypeStat{
			Type:  t,
			Label: t.Label(),
			Count: counts[t],
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Type.Order() < stats[j].Type.Order()
	})
	return stats
}

// InvalidateStats drops cached stats after the poll set changed
func (a *Aggregator) InvalidateStats(ctx context.Context) {
	if err := a.cache.InvalidateTypeStats(ctx); err != nil {
		a.logger.Warn("Failed to invalidate type stats cache", zap.Error(err))
	}
}

// BookmarkToggle adds pollID to the user's bookmarks, or removes it when present
func (a *Aggregator) BookmarkToggle(ctx context.Context, userID, pollID string) (domain.BookmarkResult, error) {
	if _, err := a.polls.FindByID(ctx, pollID); err != nil {
		return domain.BookmarkResult{}, err
	}
	bookmarked, set, err := a.users.ToggleBookmark(ctx, userID, pollID)
	if err != nil {
		return domain.BookmarkResult{}, err
	}
	a.logger.Debug("Bookmark toggled",
		zap.String("user_id", userID),
		zap.String("poll_id", pollID),
		zap.Bool("bookmarked", bookmarked))
	return domain.BookmarkResult{Bookmarked: bookmarked, BookmarkedPolls: set}, nil
}

// UserStats computes the counters of a user. The bookmark count is derived
// from the bookmark set.
func (a *Aggregator) UserStats(ctx context.Context, user *domain.User) (domain.UserStats, error) {
	created, err := a.polls.Count(ctx, domain.PollFilter{CreatorID: user.ID})
	if err != nil {
		return domain.UserStats{}, err
	}
	voted, err := a.polls.Count(ctx, domain.PollFilter{VoterID: user.ID})
	if err != nil {
		return domain.UserStats{}, err
	}
	return domain.UserStats{
		TotalPollsCreated:    created,
		TotalPollVotes:       voted,
		TotalPollsBookmarked: len(user.BookmarkedPolls),
	}, nil
}
