package domain

import "time"

// User is the account a poll or vote is attributed to. Only the display
// fields and the bookmark set are used by the poll subsystem.
type User struct {
	ID              string    `json:"id" bson:"_id"`
	FullName        string    `json:"fullName" bson:"fullName"`
	UserName        string    `json:"userName" bson:"userName"`
	Email           string    `json:"email" bson:"email"`
	ProfileImageURL string    `json:"profileImageUrl" bson:"profileImageUrl"`
	BookmarkedPolls []string  `json:"bookmarkedPolls" bson:"bookmarkedPolls"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// UserSummary is the display metadata embedded in poll views
type UserSummary struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	UserName        string `json:"userName"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Summary returns the display fields of u
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:              u.ID,
		FullName:        u.FullName,
		UserName:        u.UserName,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// HasBookmarked reports whether pollID is in the bookmark set
func (u *User) HasBookmarked(pollID string) bool {
	for _, id := range u.BookmarkedPolls {
		if id == pollID {
			return true
		}
	}
	return false
}

// UserStats are the per-user counters shown with the account info
type UserStats struct {
	TotalPollsCreated    int `json:"totalPollsCreated"`
	TotalPollVotes       int `json:"totalPollVotes"`
	TotalPollsBookmarked int `json:"totalPollsBookmarked"`
}

// UserInfo is a user together with its stats
type UserInfo struct {
	User
	UserStats
}

// Identity is the authenticated caller, extracted from the bearer token
type Identity struct {
	UserID string
	Email  string
}

// ProfileRequest is the body of a profile update
type ProfileRequest struct {
	FullName        string `json:"fullName" validate:"required,notblank,max=100"`
	UserName        string `json:"userName" validate:"required,notblank,max=50"`
	Email           string `json:"email" validate:"omitempty,email"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,url"`
}
