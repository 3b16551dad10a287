package token

import (
	"fmt"
	"time"

	"github.com/jrsteele09/livee-admin-console/internal/config"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/token/jwt"
	"github.com/jrsteele09/livee-admin-console/token/keys"
	"github.com/jrsteele09/livee-admin-console/token/refresh"
	"github.com/jrsteele09/livee-admin-console/users"
)

// DefaultIssuer is the iss claim of access tokens minted by the dev server.
const DefaultIssuer = "livee-dev"

// Tokens is a freshly issued access/refresh pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Manager struct {
	creator   *jwt.Creator
	inspector *jwt.Inspector
	refresh   *refresh.Manager
	users     users.UserRepo
	expiry    time.Duration
}

// NewManager wires access token signing and refresh token rotation from the
// dev server configuration.
func NewManager(cfg config.DevServerConfig, refreshRepo refresh.Repo, userRepo users.UserRepo) *Manager {
	signer := keys.NewHMACSigner(cfg.GetTokenSecret())
	return &Manager{
		creator:   jwt.NewCreator(signer, DefaultIssuer, cfg.GetAccessTokenExpiry()),
		inspector: jwt.NewInspector(signer, DefaultIssuer),
		refresh:   refresh.NewManager(refreshRepo, cfg),
		users:     userRepo,
		expiry:    cfg.GetAccessTokenExpiry(),
	}
}

// IssueTokens mints an access token and a new refresh token for user.
func (m *Manager) IssueTokens(user *users.User) (*Tokens, error) {
	accessToken, err := m.creator.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("[Manager.IssueTokens] %w", err)
	}
	refreshToken, err := m.refresh.Create(user.ID)
	if err != nil {
		return nil, fmt.Errorf("[Manager.IssueTokens] %w", err)
	}
	return &Tokens{
		AccessToken:  *accessToken,
		RefreshToken: *refreshToken,
		ExpiresAt:    jwt.NowTimeFunc().Add(m.expiry),
	}, nil
}

// Refresh rotates refreshToken and returns the user with a new token pair.
// The presented token cannot be used again.
func (m *Manager) Refresh(refreshToken string) (*users.User, *Tokens, error) {
	userID, rotated, err := m.refresh.Rotate(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := m.users.GetByID(userID)
	if err != nil {
		_ = m.refresh.Delete(*rotated)
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	}
	if user.Blocked {
		_ = m.refresh.Delete(*rotated)
		return nil, nil, apperrors.ErrInvalidRefreshToken
	}

	accessToken, err := m.creator.CreateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("[Manager.Refresh] %w", err)
	}
	return user, &Tokens{
		AccessToken:  *accessToken,
		RefreshToken: *rotated,
		ExpiresAt:    jwt.NowTimeFunc().Add(m.expiry),
	}, nil
}

// VerifyAccessToken checks the signature and expiry of rawToken.
func (m *Manager) VerifyAccessToken(rawToken string) (*jwt.AccessClaims, error) {
	return m.inspector.Inspect(rawToken)
}

// Revoke drops a refresh token. Unknown tokens are ignored.
func (m *Manager) Revoke(refreshToken string) {
	_ = m.refresh.Delete(refreshToken)
}
