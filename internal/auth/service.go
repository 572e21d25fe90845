package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/user"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenStore is the persistence contract for issued tokens.
type TokenStore interface {
	GetByUserID(ctx context.Context, userID int64) (*Token, error)
	Create(ctx context.Context, t *Token) (*Token, error)
	GetUserByKey(ctx context.Context, key string) (*user.User, error)
}

// Identity verifies login credentials.
type Identity interface {
	VerifyCredentials(ctx context.Context, email, pw string) (*user.User, error)
}

// Service exchanges credentials for opaque bearer tokens and resolves them
// back to users.
type Service struct {
	identity Identity
	tokens   TokenStore
	logger   *logging.Logger
}

func NewService(identity Identity, tokens TokenStore, logger *logging.Logger) *Service {
	return &Service{
		identity: identity,
		tokens:   tokens,
		logger:   logger,
	}
}

// IssueToken verifies the credentials and returns the caller's token key.
// Issuing is get-or-create: a second call returns the same key. The create
// path races safely against concurrent issuers via the unique user_id
// constraint plus one retry.
func (s *Service) IssueToken(ctx context.Context, email, pw string) (string, error) {
	u, err := s.identity.VerifyCredentials(ctx, email, pw)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return "", user.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to verify credentials: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.tokens.GetByUserID(ctx, u.ID)
		if err == nil {
			return existing.Key, nil
		}
		if !errors.Is(err, ErrTokenNotFound) {
			return "", fmt.Errorf("failed to get token: %w", err)
		}

		key, err := generateTokenKey()
		if err != nil {
			return "", fmt.Errorf("failed to generate token key: %w", err)
		}

		created, err := s.tokens.Create(ctx, &Token{Key: key, UserID: u.ID})
		if err == nil {
			s.logger.Info("token issued", "user_id", u.ID)
			return created.Key, nil
		}
		if !errors.Is(err, ErrDuplicateToken) {
			return "", fmt.Errorf("failed to create token: %w", err)
		}
		// Lost the race; loop once more to pick up the winning row.
	}

	return "", fmt.Errorf("failed to issue token for user %d", u.ID)
}

// ResolveToken looks up the user bound to a token key.
func (s *Service) ResolveToken(ctx context.Context, key string) (*user.User, error) {
	u, err := s.tokens.GetUserByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return u, nil
}

// generateTokenKey creates an opaque 40-character hex key.
func generateTokenKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
