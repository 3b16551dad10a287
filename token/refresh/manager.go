package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Config is the refresh token part of the dev server configuration.
type Config interface {
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config Config
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg Config) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token and stores it. A user holds a single
// refresh token; creating one replaces the previous token.
func (m *Manager) Create(userID string) (*string, error) {
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return nil, fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength()) // Configured length (default: 32 bytes = 256 bits)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &tokenStr, nil
}

// Rotate consumes token and issues a new one for the same user. Unknown and
// expired tokens are rejected; an expired token is deleted.
func (m *Manager) Rotate(token string) (userID string, rotated *string, err error) {
	stored, err := m.repo.Get(token)
	if err != nil {
		return "", nil, apperrors.ErrInvalidRefreshToken
	}
	if m.IsExpired(stored) {
		_ = m.repo.Delete(token)
		return "", nil, apperrors.ErrRefreshTokenExpired
	}

	rotated, err = m.Create(stored.UserID)
	if err != nil {
		return "", nil, err
	}
	return stored.UserID, rotated, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token is older than the configured lifetime
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
