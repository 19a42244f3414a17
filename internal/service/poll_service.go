package service

import (
	"context"
	"strings"
	"time"

	"poll-be/internal/domain"
	"poll-be/internal/repository"
	apperrors "poll-be/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PollService implements the poll operations exposed over HTTP. Every
// returned error is an *apperrors.AppError.
type PollService struct {
	polls      repository.PollRepository
	users      repository.UserRepository
	recorder   *VoteRecorder
	aggregator *Aggregator
	logger     *zap.Logger
	newID      func() string
	now        func() time.Time
}

func NewPollService(repos *repository.Repositories, recorder *VoteRecorder, aggregator *Aggregator, logger *zap.Logger) *PollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollService{
		polls:      repos.Poll,
		users:      repos.User,
		recorder:   recorder,
		aggregator: aggregator,
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Create validates and stores a new poll owned by callerID
func (s *PollService) Create(ctx context.Context, callerID string, req domain.CreatePollRequest) (*domain.PollView, error) {
	creatorID := strings.TrimSpace(req.CreatorID)
	if creatorID == "" {
		creatorID = callerID
	} else if callerID != "" && creatorID != callerID {
		return nil, apperrors.NewAuthorizationError("creatorId must match the authenticated user")
	}

	pollType, err := domain.ParsePollType(req.Type)
	if err != nil {
		return nil, toAppError(err, "")
	}

	poll, err := domain.NewPoll(s.newID(), req.Question, pollType, req.Options, creatorID, s.now())
	if err != nil {
		return nil, toAppError(err, "")
	}

	if err := s.polls.Create(ctx, poll); err != nil {
		return nil, toAppError(err, "")
	}
	s.aggregator.InvalidateStats(ctx)

	s.logger.Info("Poll created",
		zap.String("poll_id", poll.ID),
		zap.String("poll_type", string(poll.Type)),
		zap.String("creator_id", creatorID))

	return s.view(ctx, poll, callerID), nil
}

// Get returns a single poll as seen by viewerID
func (s *PollService) Get(ctx context.Context, viewerID, pollID string) (*domain.PollView, error) {
	poll, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		return nil, toAppError(err, "")
	}
	return s.view(ctx, poll, viewerID), nil
}

// List returns one page of polls with global type stats
func (s *PollService) List(ctx context.Context, viewerID string, filter domain.PollFilter, page domain.PageRequest) (*domain.PollPage, error) {
	polls, total, err := s.polls.List(ctx, filter, page)
	if err != nil {
		return nil, toAppError(err, "")
	}
	views := s.views(ctx, polls, viewerID)
	stats, err := s.aggregator.GlobalTypeStats(ctx, domain.PollFilter{})
	if err != nil {
		return nil, toAppError(err, "")
	}
	return &domain.PollPage{
		Polls:       views,
		CurrentPage: page.Page,
		TotalPages:  page.TotalPages(total),
		TotalPolls:  total,
		Stats:       stats,
	}, nil
}

// ListVoted returns one page of polls userID voted on
func (s *PollService) ListVoted(ctx context.Context, userID string, page domain.PageRequest) (*domain.VotedPollPage, error) {
	polls, total, err := s.polls.List(ctx, domain.PollFilter{VoterID: userID}, page)
	if err != nil {
		return nil, toAppError(err, "")
	}
	return &domain.VotedPollPage{
		Polls:           s.views(ctx, polls, userID),
		CurrentPage:     page.Page,
		TotalPages:      page.TotalPages(total),
		TotalVotedPolls: total,
	}, nil
}

// ListBookmarked returns the polls userID bookmarked, in bookmark order
func (s *PollService) ListBookmarked(ctx context.Context, userID string) ([]domain.PollView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, toAppError(err, "")
	}
	if len(user.BookmarkedPolls) == 0 {
		return []domain.PollView{}, nil
	}

	page := domain.PageRequest{Page: 1, Limit: len(user.BookmarkedPolls)}
	polls, _, err := s.polls.List(ctx, domain.PollFilter{IDs: user.BookmarkedPolls}, page)
	if err != nil {
		return nil, toAppError(err, "")
	}

	byID := make(map[string]*domain.Poll, len(polls))
	for _, p := range polls {
		byID[p.ID] = p
	}
	ordered := make([]*domain.Poll, 0, len(polls))
	for _, id := range user.BookmarkedPolls {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return s.views(ctx, ordered, userID), nil
}

// Results returns the tally of a poll
func (s *PollService) Results(ctx context.Context, pollID string) (*domain.Tally, error) {
	poll, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		return nil, toAppError(err, "")
	}
	tally := s.aggregator.Tally(poll)
	return &tally, nil
}

// Vote casts a ballot for callerID. A voterId in the request must name the
// caller; it is never taken from anywhere else.
func (s *PollService) Vote(ctx context.Context, callerID, pollID string, req domain.VoteRequest) (*domain.PollView, error) {
	voterID := strings.TrimSpace(req.VoterID)
	if voterID == "" {
		voterID = callerID
	} else if callerID != "" && voterID != callerID {
		return nil, apperrors.NewAuthorizationError("voterId must match the authenticated user")
	}

	poll, err := s.recorder.CastVote(ctx, pollID, req.Ballot(voterID))
	if err != nil {
		return nil, toAppError(err, "")
	}
	return s.view(ctx, poll, voterID), nil
}

// Close stops a poll from accepting votes. Only the creator may close it.
func (s *PollService) Close(ctx context.Context, callerID, pollID string) (*domain.CloseResult, error) {
	poll, err := s.polls.Close(ctx, pollID, callerID)
	if err != nil {
		return nil, toAppError(err, "You are not authorized to close this poll")
	}
	s.logger.Info("Poll closed", zap.String("poll_id", pollID))

	return &domain.CloseResult{
		Message: "Poll closed successfully",
		Poll:    *s.view(ctx, poll, callerID),
	}, nil
}

// Delete removes a poll and every bookmark pointing at it. Only the creator may delete it.
func (s *PollService) Delete(ctx context.Context, callerID, pollID string) error {
	if err := s.polls.Delete(ctx, pollID, callerID); err != nil {
		return toAppError(err, "You are not authorized to delete this poll")
	}
	if err := s.users.RemoveBookmarkEverywhere(ctx, pollID); err != nil {
		s.logger.Warn("Failed to remove bookmarks of deleted poll",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}
	s.aggregator.InvalidateStats(ctx)

	s.logger.Info("Poll deleted", zap.String("poll_id", pollID))
	return nil
}

// ToggleBookmark flips pollID in callerID's bookmarks
func (s *PollService) ToggleBookmark(ctx context.Context, callerID, pollID string) (*domain.BookmarkResult, error) {
	res, err := s.aggregator.BookmarkToggle(ctx, callerID, pollID)
	if err != nil {
		return nil, toAppError(err, "")
	}
	return &res, nil
}

// UserInfo returns the caller's account with its counters
func (s *PollService) UserInfo(ctx context.Context, callerID string) (*domain.UserInfo, error) {
	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, toAppError(err, "")
	}
	stats, err := s.aggregator.UserStats(ctx, user)
	if err != nil {
		return nil, toAppError(err, "")
	}
	return &domain.UserInfo{User: *user, UserStats: stats}, nil
}

// RegisterUser stores the caller's display fields, keeping existing bookmarks
func (s *PollService) RegisterUser(ctx context.Context, user *domain.User) error {
	if strings.TrimSpace(user.ID) == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return toAppError(err, "")
	}
	return nil
}

// HealthCheck checks the optional cache
func (s *PollService) HealthCheck(ctx context.Context) error {
	return s.aggregator.cache.HealthCheck(ctx)
}

func (s *PollService) view(ctx context.Context, poll *domain.Poll, viewerID string) *domain.PollView {
	views := s.views(ctx, []*domain.Poll{poll}, viewerID)
	return &views[0]
}

// views decorates polls with user display metadata. Lookup failures degrade
// to empty display fields.
func (s *PollService) views(ctx context.Context, polls []*domain.Poll, viewerID string) []domain.PollView {
	users, err := s.users.GetSummaries(ctx, domain.ReferencedUsers(polls...))
	if err != nil {
		s.logger.Warn("Failed to load user display fields", zap.Error(err))
		users = map[string]domain.UserSummary{}
	}
	views := make([]domain.PollView, 0, len(polls))
	for _, p := range polls {
		views = append(views, domain.NewPollView(p, s.aggregator.HasVoted(p, viewerID), users))
	}
	return views
}
