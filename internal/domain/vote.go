package domain

// CreatePollRequest is the body of a poll creation
type CreatePollRequest struct {
	Question  string   `json:"question" validate:"required,notblank,max=500"`
	Type      string   `json:"type" validate:"required"`
	Options   []string `json:"options" validate:"omitempty,max=50,dive,max=2048"`
	CreatorID string   `json:"creatorId"`
}

// VoteRequest is the body of a vote submission
type VoteRequest struct {
	OptionIndex  *int   `json:"optionIndex"`
	VoterID      string `json:"voterId"`
	ResponseText string `json:"responseText" validate:"max=2000"`
}

// Ballot converts the request for voterID
func (r VoteRequest) Ballot(voterID string) Ballot {
	return Ballot{
		VoterID:      voterID,
		OptionIndex:  r.OptionIndex,
		ResponseText: r.ResponseText,
	}
}

// CloseResult is returned after a poll is closed
type CloseResult struct {
	Message string   `json:"message"`
	Poll    PollView `json:"poll"`
}
