package domain

import "errors"

// Store-level outcomes. Repositories return these; the service layer turns
// them into caller-visible application errors.
var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrPollClosed    = errors.New("poll is closed")
	ErrDuplicateVote = errors.New("user has already voted on this poll")
	ErrNotCreator    = errors.New("requester is not the poll creator")
	ErrUserNotFound  = errors.New("user not found")
)

// ValidationError describes malformed input on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
