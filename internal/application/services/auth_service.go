package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims represents the API token claims
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens for the API
type TokenService struct {
	authConfig config.AuthConfig
	logger     *logger.Logger
	now        Clock
}

// NewTokenService creates a new token service
func NewTokenService(authConfig config.AuthConfig, appLogger *logger.Logger, clock Clock) *TokenService {
	if clock == nil {
		clock = SystemClock
	}
	return &TokenService{
		authConfig: authConfig,
		logger:     appLogger,
		now:        clock,
	}
}

// IssueToken mints a token for subject. A zero ttl uses the configured one.
func (s *TokenService) IssueToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if s.authConfig.Secret == "" {
		return "", time.Time{}, fmt.Errorf("auth secret is not configured")
	}
	if ttl <= 0 {
		ttl = s.authConfig.ExpiresIn
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.authConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.authConfig.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Infow("API token issued", "subject", subject, "expires_at", expiresAt)
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a bearer token
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(s.authConfig.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.authConfig.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
