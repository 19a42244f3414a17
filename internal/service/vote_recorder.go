package service

import (
	"context"
	"strings"

	"poll-be/internal/domain"
	"poll-be/internal/repository"

	"go.uber.org/zap"
)

// VoteRecorder validates a ballot against the current poll and hands it to
// the store's atomic conditional update. The pre-checks keep malformed
// ballots away from persistence; the store re-checks closed and duplicate
// under its own lock.
type VoteRecorder struct {
	polls  repository.PollRepository
	cache  *CacheService
	logger *zap.Logger
}

func NewVoteRecorder(polls repository.PollRepository, cache *CacheService, logger *zap.Logger) *VoteRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteRecorder{polls: polls, cache: cache, logger: logger}
}

// CastVote records ballot on pollID and returns the updated poll
func (v *VoteRecorder) CastVote(ctx context.Context, pollID string, ballot domain.Ballot) (*domain.Poll, error) {
	if strings.TrimSpace(ballot.VoterID) == "" {
		return nil, domain.NewValidationError("voterId", "voterId is required")
	}

	poll, err := v.polls.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := poll.CheckVote(ballot); err != nil {
		return nil, err
	}

	acquired, err := v.cache.AcquireVoteLock(ctx, pollID, ballot.VoterID)
	if err != nil {
		v.logger.Warn("Vote lock unavailable, relying on store",
			zap.String("poll_id", pollID),
			zap.Error(err))
		acquired = true
	} else if !acquired {
		return nil, domain.ErrDuplicateVote
	}

	updated, err := v.polls.CastVote(ctx, pollID, ballot)
	if err != nil {
		if acquired {
			if relErr := v.cache.ReleaseVoteLock(ctx, pollID, ballot.VoterID); relErr != nil {
				v.logger.Warn("Failed to release vote lock",
					zap.String("poll_id", pollID),
					zap.Error(relErr))
			}
		}
		return nil, err
	}

	v.logger.Info("Vote recorded",
		zap.String("poll_id", pollID),
		zap.String("poll_type", string(updated.Type)),
		zap.String("voter_id", ballot.VoterID))
	return updated, nil
}
