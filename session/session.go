// Package session owns the console's authentication state. The session lives in
// memory only; a restarted process starts logged out.
package session

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenPair is the access/refresh pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is an immutable copy of the current authentication state.
type Session struct {
	User  *User
	Token *oauth2.Token
}

// IsAuthenticated is true only when user, access token and refresh token are all present.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken() != "" && s.RefreshToken() != ""
}

func (s Session) AccessToken() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

func (s Session) RefreshToken() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.RefreshToken
}

// Expiry is the access token's exp claim, zero when unknown.
func (s Session) Expiry() time.Time {
	if s.Token == nil {
		return time.Time{}
	}
	return s.Token.Expiry
}

// newToken builds the oauth2 token for a pair. The expiry is read from the access
// token's exp claim without verifying it; opaque tokens get a zero expiry.
func newToken(accessToken, refreshToken string) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return token
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		token.Expiry = exp.Time
	}
	return token
}
