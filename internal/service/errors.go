package service

import (
	"context"
	"errors"

	"poll-be/internal/domain"
	apperrors "poll-be/pkg/errors"
)

// toAppError maps domain and store failures to caller-visible errors.
// notCreatorMsg is used for domain.ErrNotCreator since its wording depends
// on the attempted action.
func toAppError(err error, notCreatorMsg string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		var details map[string]interface{}
		if vErr.Field != "" {
			details = map[string]interface{}{"field": vErr.Field}
		}
		return apperrors.NewValidationError(vErr.Message, details)
	}

	switch {
	case errors.Is(err, domain.ErrPollNotFound):
		return apperrors.NewNotFoundError("Poll not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NewNotFoundError("User not found")
	case errors.Is(err, domain.ErrPollClosed):
		return apperrors.NewPollClosedError("Poll is closed")
	case errors.Is(err, domain.ErrDuplicateVote):
		return apperrors.NewDuplicateVoteError("User has already voted on this poll")
	case errors.Is(err, domain.ErrNotCreator):
		if notCreatorMsg == "" {
			notCreatorMsg = "Only the poll creator may do this"
		}
		return apperrors.NewAuthorizationError(notCreatorMsg)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewInternalError("Request cancelled", err)
	default:
		return apperrors.NewInternalError("Storage operation failed", err)
	}
}
