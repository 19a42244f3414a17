package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Paging defaults
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PollFilter narrows a poll query. Zero fields do not filter. A non-nil,
// empty IDs slice matches nothing.
type PollFilter struct {
	Type      PollType
	CreatorID string
	VoterID   string
	IDs       []string
}

// Matches reports whether p passes the filter
func (f PollFilter) Matches(p *Poll) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.CreatorID != "" && p.CreatorID != f.CreatorID {
		return false
	}
	if f.VoterID != "" && !p.HasVoted(f.VoterID) {
		return false
	}
	if f.IDs != nil {
		found := false
		for _, id := range f.IDs {
			if id == p.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Hash is a stable digest of the filter, used in cache keys
func (f PollFilter) Hash() string {
	ids := "*"
	if f.IDs != nil {
		sorted := append([]string(nil), f.IDs...)
		sort.Strings(sorted)
		ids = strings.Join(sorted, ",")
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		string(f.Type), f.CreatorID, f.VoterID, ids,
	}, "|")))
	return hex.EncodeToString(sum[:8])
}

// PageRequest is a 1-based page of a listing
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest parses query-string paging. Empty values take the
// defaults, limit is capped at MaxLimit and the offset must fit in an int.
func ParsePageRequest(pageRaw, limitRaw string) (PageRequest, error) {
	page, err := parsePositive("page", pageRaw, DefaultPage)
	if err != nil {
		return PageRequest{}, err
	}
	limit, err := parsePositive("limit", limitRaw, DefaultLimit)
	if err != nil {
		return PageRequest{}, err
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		return PageRequest{}, NewValidationError("page", "page is out of range")
	}
	return PageRequest{Page: page, Limit: limit}, nil
}

func parsePositive(field, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, NewValidationError(field, field+" must be a positive integer")
	}
	return n, nil
}

// Offset is the number of items to skip
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total/limit)
func (p PageRequest) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
