package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/token"
	"github.com/jrsteele09/livee-admin-console/users"
)

const contentTypeJSON = "application/json"

// errorResponse is the error body shared by every endpoint.
type errorResponse struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Timestamp  string              `json:"timestamp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	IsBusinessUser bool       `json:"isBusinessUser"`
	IsAdmin        bool       `json:"isAdmin"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
}

type loginResponse struct {
	User   userResponse `json:"user"`
	Tokens tokenPair    `json:"tokens"`
}

// LoginHandler checks the credentials and issues an access/refresh pair.
// Non-admin users can log in; the admin routes reject their tokens.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Malformed request body", nil)
			return
		}

		fieldErrors := map[string][]string{}
		if strings.TrimSpace(req.Email) == "" {
			fieldErrors["email"] = []string{"email is required"}
		}
		if req.Password == "" {
			fieldErrors["password"] = []string{"password is required"}
		}
		if len(fieldErrors) > 0 {
			s.writeError(w, http.StatusUnprocessableEntity, "Validation failed", fieldErrors)
			return
		}

		user, err := s.repos.Users.GetByEmail(req.Email)
		if err != nil || user.Blocked || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			s.log.Info().Str("email", req.Email).Msg("login rejected")
			s.writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}

		now := s.now()
		if err := s.repos.Users.SetLastLogin(user.Email, now); err != nil {
			s.log.Warn().Err(err).Str("userId", user.ID).Msg("failed to record last login")
		}

		tokens, err := s.tokens.IssueTokens(user)
		if err != nil {
			s.log.Error().Err(err).Str("userId", user.ID).Msg("failed to issue tokens")
			s.writeError(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}

		resp := loginResponse{
			User:   newUserResponse(user),
			Tokens: newTokenPair(tokens),
		}
		resp.User.LastLoginAt = &now
		s.log.Info().Str("userId", user.ID).Bool("admin", user.IsAdmin()).Msg("login")
		s.writeJSON(w, http.StatusOK, resp)
	}
}

// RefreshHandler rotates a refresh token. The presented token is consumed.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Malformed request body", nil)
			return
		}
		if req.RefreshToken == "" {
			s.writeError(w, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{
				"refreshToken": {"refreshToken is required"},
			})
			return
		}

		user, tokens, err := s.tokens.Refresh(req.RefreshToken)
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			s.writeError(w, http.StatusUnauthorized, "Refresh token expired", nil)
			return
		case errors.Is(err, apperrors.ErrInvalidRefreshToken):
			s.writeError(w, http.StatusUnauthorized, "Invalid refresh token", nil)
			return
		case err != nil:
			s.log.Error().Err(err).Msg("refresh failed")
			s.writeError(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}

		s.log.Debug().Str("userId", user.ID).Msg("tokens refreshed")
		s.writeJSON(w, http.StatusOK, newTokenPair(tokens))
	}
}

func newUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		IsBusinessUser: u.IsBusinessUser(),
		IsAdmin:        u.IsAdmin(),
	}
}

func newTokenPair(t *token.Tokens) tokenPair {
	return tokenPair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("failed to write response")
	}
}

// writeError writes the JSON error body
func (s *Server) writeError(w http.ResponseWriter, status int, message string, fieldErrors map[string][]string) {
	s.writeJSON(w, status, errorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     fieldErrors,
		Timestamp:  s.now().Format(time.RFC3339),
	})
}
