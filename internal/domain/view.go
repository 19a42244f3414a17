package domain

// ResponseView is a response with the voter's display metadata
type ResponseView struct {
	PollResponse
	Voter UserSummary `json:"voter"`
}

// PollView is the read model returned to callers: the poll, its creator's
// display fields and whether the requesting user has voted.
type PollView struct {
	*Poll
	Responses    []ResponseView `json:"responses"`
	Creator      UserSummary    `json:"creator"`
	UserHasVoted bool           `json:"userHasVoted"`
}

// NewPollView builds a view of p. users maps ids to display metadata; a
// missing entry yields empty display fields.
func NewPollView(p *Poll, hasVoted bool, users map[string]UserSummary) PollView {
	p.Normalize()
	responses := make([]ResponseView, 0, len(p.Responses))
	for _, r := range p.Responses {
		voter, ok := users[r.VoterID]
		if !ok {
			voter = UserSummary{ID: r.VoterID}
		}
		responses = append(responses, ResponseView{PollResponse: r, Voter: voter})
	}
	creator, ok := users[p.CreatorID]
	if !ok {
		creator = UserSummary{ID: p.CreatorID}
	}
	return PollView{
		Poll:         p,
		Responses:    responses,
		Creator:      creator,
		UserHasVoted: hasVoted,
	}
}

// ReferencedUsers lists the creator and every responder of the polls, without duplicates
func ReferencedUsers(polls ...*Poll) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(polls))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range polls {
		add(p.CreatorID)
		for _, r := range p.Responses {
			add(r.VoterID)
		}
	}
	return ids
}

// TypeStat is the number of polls of one type
type TypeStat struct {
	Type  PollType `json:"type"`
	Label string   `json:"label"`
	Count int      `json:"count"`
}

// Tally is the result summary of a single poll
type Tally struct {
	PollID     string         `json:"pollId"`
	Question   string         `json:"question"`
	Type       PollType       `json:"type"`
	Options    []PollOption   `json:"options"`
	Responses  []PollResponse `json:"responses"`
	TotalVotes int            `json:"totalVotes"`
	Closed     bool           `json:"closed"`
}

// PollPage is a page of polls together with global type stats
type PollPage struct {
	Polls       []PollView `json:"polls"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	TotalPolls  int        `json:"totalPolls"`
	Stats       []TypeStat `json:"stats"`
}

// VotedPollPage is a page of polls the requesting user voted on
type VotedPollPage struct {
	Polls           []PollView `json:"polls"`
	CurrentPage     int        `json:"currentPage"`
	TotalPages      int        `json:"totalPages"`
	TotalVotedPolls int        `json:"totalVotedPolls"`
}

// BookmarkResult is the outcome of a bookmark toggle
type BookmarkResult struct {
	Bookmarked      bool     `json:"bookmarked"`
	BookmarkedPolls []string `json:"bookmarkedPolls"`
}
