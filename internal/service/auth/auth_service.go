package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"poll-be/internal/domain"
	"poll-be/internal/service"
	"poll-be/pkg/errors"
	"poll-be/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service validates HS256 bearer tokens issued by the account service.
// Issuing tokens is not part of this backend.
type Service struct {
	secret []byte
	leeway time.Duration
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(jwtSecret string, logger *logger.Logger) service.AuthService {
	return &Service{
		secret: []byte(jwtSecret),
		leeway: 30 * time.Second,
		logger: logger,
	}
}

// ValidateToken verifies the signature and expiry of token and extracts the
// user id from the "id" claim, falling back to "sub".
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.Identity, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT secret not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}
	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	identity := &domain.Identity{
		UserID: getStringValue(claims, "id"),
		Email:  getStringValue(claims, "email"),
	}
	if identity.UserID == "" {
		identity.UserID = getStringValue(claims, "sub")
	}
	if identity.UserID == "" {
		s.logger.Debug("No user identifier found in JWT token")
		return nil, errors.NewAuthenticationError("Invalid JWT token: no user identifier")
	}

	s.logger.WithField("user_id", identity.UserID).Debug("JWT token validated successfully")
	return identity, nil
}

// isJWTToken reports whether token has the three dot-separated segments of a JWS
func isJWTToken(token string) bool {
	if token == "" {
		return false
	}
	return strings.Count(token, ".") == 2
}

func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
