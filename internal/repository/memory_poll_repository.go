package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"poll-be/internal/domain"
)

// memoryPoll pairs a poll with the lock that serializes its mutations
type memoryPoll struct {
	mu   sync.Mutex
	poll *domain.Poll
}

// MemoryPollRepository keeps polls in process memory. Every poll has its own
// mutex; the map lock is held only to look entries up.
type MemoryPollRepository struct {
	mu    sync.RWMutex
	polls map[string]*memoryPoll
	now   func() time.Time
}

func NewMemoryPollRepository() *MemoryPollRepository {
	return &MemoryPollRepository{
		polls: make(map[string]*memoryPoll),
		now:   time.Now,
	}
}

func (r *MemoryPollRepository) entry(id string) (*memoryPoll, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.polls[id]
	return e, ok
}

// snapshot copies every poll under its own lock
func (r *MemoryPollRepository) snapshot() []*domain.Poll {
	r.mu.RLock()
	entries := make([]*memoryPoll, 0, len(r.polls))
	for _, e := range r.polls {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	polls := make([]*domain.Poll, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		polls = append(polls, e.poll.Clone())
		e.mu.Unlock()
	}
	return polls
}

func (r *MemoryPollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls[poll.ID] = &memoryPoll{poll: poll.Clone()}
	return nil
}

func (r *MemoryPollRepository) FindByID(ctx context.Context, id string) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.entry(id)
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poll.Clone(), nil
}

func (r *MemoryPollRepository) matching(filter domain.PollFilter) []*domain.Poll {
	all := r.snapshot()
	out := all[:0]
	for _, p := range all {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryPollRepository) List(ctx context.Context, filter domain.PollFilter, page domain.PageRequest) ([]*domain.Poll, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	polls := r.matching(filter)
	total := len(polls)

	start := page.Offset()
	if start < 0 || start >= total {
		return []*domain.Poll{}, total, nil
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return polls[start:end], total, nil
}

func (r *MemoryPollRepository) Count(ctx context.Context, filter domain.PollFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(r.matching(filter)), nil
}

func (r *MemoryPollRepository) CountByType(ctx context.Context, filter domain.PollFilter) (map[domain.PollType]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[domain.PollType]int)
	for _, p := range r.matching(filter) {
		counts[p.Type]++
	}
	return counts, nil
}

func (r *MemoryPollRepository) CastVote(ctx context.Context, pollID string, ballot domain.Ballot) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.entry(pollID)
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.poll.ApplyVote(ballot, r.now()); err != nil {
		return nil, err
	}
	return e.poll.Clone(), nil
}

func (r *MemoryPollRepository) Close(ctx context.Context, pollID, requesterID string) (*domain.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.entry(pollID)
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.poll.Close(requesterID); err != nil {
		return nil, err
	}
	return e.poll.Clone(), nil
}

func (r *MemoryPollRepository) Delete(ctx context.Context, pollID, requesterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	e.mu.Lock()
	creator := e.poll.CreatorID
	e.mu.Unlock()
	if creator != requesterID {
		return domain.ErrNotCreator
	}
	delete(r.polls, pollID)
	return nil
}
