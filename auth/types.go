// Package auth binds the console to the auth API: the login flow that fills the
// session and the raw refresh call used by the request gate.
package auth

import "github.com/jrsteele09/livee-admin-console/session"

const (
	RouteLogin   = "/auth/login"
	RouteRefresh = "/auth/refresh"
)

type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserWithTokens is the login response.
type UserWithTokens struct {
	User   session.User      `json:"user"`
	Tokens session.TokenPair `json:"tokens"`
}

type RefreshTokenBody struct {
	RefreshToken string `json:"refreshToken"`
}
