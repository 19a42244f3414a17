package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		want      PageRequest
		wantField string
		wantMsg   string
	}{
		{"defaults", "", "", PageRequest{Page: DefaultPage, Limit: DefaultLimit}, "", ""},
		{"explicit", "3", "25", PageRequest{Page: 3, Limit: 25}, "", ""},
		{"limit capped", "1", "1000", PageRequest{Page: 1, Limit: MaxLimit}, "", ""},
		{"zero page", "0", "", PageRequest{}, "page", "page must be a positive integer"},
		{"negative limit", "", "-5", PageRequest{}, "limit", "limit must be a positive integer"},
		{"not a number", "abc", "", PageRequest{}, "page", "page must be a positive integer"},
		{"page beyond int", "9223372036854775808", "", PageRequest{}, "page", "page must be a positive integer"},
		{"max int page", "9223372036854775807", "", PageRequest{}, "page", "page is out of range"},
		{"offset overflows", "100000000000000000", "100", PageRequest{}, "page", "page is out of range"},
		{"largest page with default limit", "922337203685477581", "", PageRequest{Page: 922337203685477581, Limit: DefaultLimit}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRequest(tt.page, tt.limit)
			if tt.wantField != "" {
				var vErr *ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tt.wantField, vErr.Field)
				assert.Equal(t, tt.wantMsg, vErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageRequest_Math(t *testing.T) {
	p := PageRequest{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
	assert.Equal(t, 0, PageRequest{Page: 1}.TotalPages(5))

	last, err := ParsePageRequest("922337203685477581", "10")
	require.NoError(t, err)
	assert.Greater(t, last.Offset(), 0)
}

func TestPollFilter_Matches(t *testing.T) {
	p, err := NewPoll("p1", "Q?", PollTypeYesNo, nil, "creator", testNow)
	require.NoError(t, err)
	require.NoError(t, p.ApplyVote(Ballot{VoterID: "voter", OptionIndex: intPtr(0)}, testNow))

	tests := []struct {
		name   string
		filter PollFilter
		want   bool
	}{
		{"empty filter", PollFilter{}, true},
		{"type match", PollFilter{Type: PollTypeYesNo}, true},
		{"type mismatch", PollFilter{Type: PollTypeRating}, false},
		{"creator match", PollFilter{CreatorID: "creator"}, true},
		{"creator mismatch", PollFilter{CreatorID: "other"}, false},
		{"voter match", PollFilter{VoterID: "voter"}, true},
		{"voter mismatch", PollFilter{VoterID: "other"}, false},
		{"ids match", PollFilter{IDs: []string{"x", "p1"}}, true},
		{"empty ids match nothing", PollFilter{IDs: []string{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(p))
		})
	}
}

func TestPollFilter_Hash(t *testing.T) {
	a := PollFilter{IDs: []string{"b", "a"}}
	b := PollFilter{IDs: []string{"a", "b"}}
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 16)

	assert.NotEqual(t, PollFilter{}.Hash(), PollFilter{IDs: []string{}}.Hash())
	assert.NotEqual(t, PollFilter{}.Hash(), PollFilter{Type: PollTypeRating}.Hash())
}

func TestNewPollView(t *testing.T) {
	p, err := NewPoll("p1", "Ideas?", PollTypeOpenEnded, nil, "creator", testNow)
	require.NoError(t, err)
	require.NoError(t, p.ApplyVote(Ballot{VoterID: "alice", ResponseText: "tea"}, testNow))
	require.NoError(t, p.ApplyVote(Ballot{VoterID: "ghost", ResponseText: "coffee"}, testNow))

	users := map[string]UserSummary{
		"creator": {ID: "creator", FullName: "Casey Creator", UserName: "casey"},
		"alice":   {ID: "alice", FullName: "Alice", UserName: "alice"},
	}

	view := NewPollView(p, p.HasVoted("alice"), users)
	assert.True(t, view.UserHasVoted)
	assert.Equal(t, "Casey Creator", view.Creator.FullName)
	require.Len(t, view.Responses, 2)
	assert.Equal(t, "alice", view.Responses[0].Voter.UserName)
	assert.Equal(t, UserSummary{ID: "ghost"}, view.Responses[1].Voter)

	assert.False(t, NewPollView(p, p.HasVoted("stranger"), users).UserHasVoted)
	assert.Equal(t, []string{"creator", "alice", "ghost"}, ReferencedUsers(p))

	body, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "p1", decoded["id"])
	assert.Equal(t, true, decoded["userHasVoted"])
	assert.NotContains(t, decoded, "Version")
	responses, ok := decoded["responses"].([]interface{})
	require.True(t, ok)
	first := responses[0].(map[string]interface{})
	assert.Equal(t, "tea", first["responseText"])
	assert.Contains(t, first, "voter")
}
