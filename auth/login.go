package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/livee-admin-console/apiclient"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/session"
	"github.com/rs/zerolog"
)

// SessionStore receives the identity after a successful login.
type SessionStore interface {
	Login(user session.User, accessToken, refreshToken string)
	Logout()
}

type Service struct {
	client   *apiclient.Client
	sessions SessionStore
	log      zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = logger.With().Str("component", "auth").Logger()
	}
}

// NewService creates the login flow over a client bound to the auth API.
func NewService(client *apiclient.Client, sessions SessionStore, opts ...ServiceOption) *Service {
	s := &Service{client: client, sessions: sessions, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates against the auth API and stores the returned identity and
// tokens in the session. A user without the admin flag is still logged in; the
// caller decides what to do with the returned IsAdmin.
func (s *Service) Login(ctx context.Context, body LoginBody) (*session.User, error) {
	if err := ValidateCredentials(body); err != nil {
		return nil, apperrors.Wrapf(err, "[auth.Login]")
	}

	resp, err := s.client.Do(ctx, &apiclient.Request{
		Method:    http.MethodPost,
		Path:      RouteLogin,
		Body:      body,
		Anonymous: true,
	})
	if err != nil {
		if apiclient.IsAuthError(err) {
			return nil, fmt.Errorf("[auth.Login] %w: %w", apperrors.ErrInvalidCredentials, err)
		}
		return nil, apperrors.Wrapf(err, "[auth.Login]")
	}

	var result UserWithTokens
	if err := resp.Decode(&result); err != nil {
		return nil, apperrors.Wrapf(err, "[auth.Login]")
	}
	if err := validateLoginResponse(result); err != nil {
		return nil, apperrors.Wrapf(err, "[auth.Login]")
	}

	s.sessions.Login(result.User, result.Tokens.AccessToken, result.Tokens.RefreshToken)
	if !result.User.IsAdmin {
		s.log.Warn().Str("user_id", result.User.ID).Msg("logged in user is not an administrator")
	} else {
		s.log.Info().Str("user_id", result.User.ID).Msg("logged in")
	}

	user := result.User
	return &user, nil
}

// Logout clears the local session. There is no server-side logout endpoint.
func (s *Service) Logout() {
	s.sessions.Logout()
}
