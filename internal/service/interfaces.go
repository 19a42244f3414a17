package service

import (
	"context"

	"poll-be/internal/domain"
)

// AuthService defines the interface for bearer token validation
type AuthService interface {
	// ValidateToken verifies a bearer token and returns the caller's identity
	ValidateToken(ctx context.Context, token string) (*domain.Identity, error)
}

// Services aggregates the services the HTTP layer depends on
type Services struct {
	Auth AuthService
	Poll *PollService
}
