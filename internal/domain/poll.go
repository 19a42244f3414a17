package domain

import (
	"strings"
	"time"
)

// PollOption is one selectable answer with its running vote count
type PollOption struct {
	Text  string `json:"optionText" bson:"optionText"`
	Votes int    `json:"votes" bson:"votes"`
}

// PollResponse is a free-text answer to an open-ended poll
type PollResponse struct {
	VoterID   string    `json:"voterId" bson:"voterId"`
	Text      string    `json:"responseText" bson:"responseText"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Poll is the unit of consistency for voting. It is mutated only by casting
// votes and closing; options, type, question and creator never change.
type Poll struct {
	ID        string         `json:"id" bson:"_id"`
	Question  string         `json:"question" bson:"question"`
	Type      PollType       `json:"type" bson:"type"`
	Options   []PollOption   `json:"options" bson:"options"`
	Responses []PollResponse `json:"responses" bson:"responses"`
	CreatorID string         `json:"creatorId" bson:"creatorId"`
	Voters    []string       `json:"voters" bson:"voters"`
	Closed    bool           `json:"closed" bson:"closed"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
	Version   int64          `json:"-" bson:"version"`
}

// Ballot is a single vote submission. OptionIndex is used by every type
// except open-ended, which uses ResponseText instead.
type Ballot struct {
	VoterID      string
	OptionIndex  *int
	ResponseText string
}

// NewPoll validates the creation input and builds a fresh, open poll
func NewPoll(id, question string, pollType PollType, rawOptions []string, creatorID string, now time.Time) (*Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, NewValidationError("question", "question is required")
	}
	if strings.TrimSpace(creatorID) == "" {
		return nil, NewValidationError("creatorId", "creatorId is required")
	}
	if !pollType.Valid() {
		return nil, NewValidationError("type", "Invalid poll type")
	}

	options, err := pollType.BuildOptions(rawOptions)
	if err != nil {
		return nil, err
	}

	return &Poll{
		ID:        id,
		Question:  question,
		Type:      pollType,
		Options:   options,
		Responses: []PollResponse{},
		CreatorID: creatorID,
		Voters:    []string{},
		CreatedAt: now.UTC(),
		Version:   1,
	}, nil
}

// HasVoted reports whether userID is in the voter set
func (p *Poll) HasVoted(userID string) bool {
	if userID == "" {
		return false
	}
	for _, v := range p.Voters {
		if v == userID {
			return true
		}
	}
	return false
}

// TotalVotes is the number of accepted ballots
func (p *Poll) TotalVotes() int {
	return len(p.Voters)
}

// CheckVote runs every rule a ballot must pass, in order: closed, duplicate,
// then the per-type payload rules. It never mutates the poll.
func (p *Poll) CheckVote(b Ballot) error {
	if strings.TrimSpace(b.VoterID) == "" {
		return NewValidationError("voterId", "voterId is required")
	}
	if p.Closed {
		return ErrPollClosed
	}
	if p.HasVoted(b.VoterID) {
		return ErrDuplicateVote
	}
	return p.checkPayload(b)
}

func (p *Poll) checkPayload(b Ballot) error {
	if p.Type.AcceptsResponses() {
		if strings.TrimSpace(b.ResponseText) == "" {
			return NewValidationError("responseText", "Response text is required for open-ended polls.")
		}
		return nil
	}
	if b.OptionIndex == nil {
		return NewValidationError("optionIndex", "optionIndex is required")
	}
	if *b.OptionIndex < 0 || *b.OptionIndex >= len(p.Options) {
		return NewValidationError("optionIndex", "Invalid option index.")
	}
	return nil
}

// ApplyVote checks the ballot and records it in place. Callers must hold
// whatever lock protects p.
func (p *Poll) ApplyVote(b Ballot, now time.Time) error {
	if err := p.CheckVote(b); err != nil {
		return err
	}
	if p.Type.AcceptsResponses() {
		p.Responses = append(p.Responses, PollResponse{
			VoterID:   b.VoterID,
			Text:      strings.TrimSpace(b.ResponseText),
			CreatedAt: now.UTC(),
		})
	} else {
		p.Options[*b.OptionIndex].Votes++
	}
	p.Voters = append(p.Voters, b.VoterID)
	p.Version++
	return nil
}

// Close marks the poll closed. Only the creator may close it.
func (p *Poll) Close(requesterID string) error {
	if p.CreatorID != requesterID {
		return ErrNotCreator
	}
	if !p.Closed {
		p.Closed = true
		p.Version++
	}
	return nil
}

// Clone returns a deep copy
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = append(make([]PollOption, 0, len(p.Options)), p.Options...)
	c.Responses = append(make([]PollResponse, 0, len(p.Responses)), p.Responses...)
	c.Voters = append(make([]string, 0, len(p.Voters)), p.Voters...)
	return &c
}

// Normalize replaces nil collections with empty ones so the JSON shape is stable
func (p *Poll) Normalize() {
	if p.Options == nil {
		p.Options = []PollOption{}
	}
	if p.Responses == nil {
		p.Responses = []PollResponse{}
	}
	if p.Voters == nil {
		p.Voters = []string{}
	}
}
