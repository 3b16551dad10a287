package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/livee-admin-console/token/keys"
	"github.com/jrsteele09/livee-admin-console/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwtlib.RegisteredClaims
}

// Creator handles access token creation
type Creator struct {
	signer keys.Signer
	issuer string
	expiry time.Duration
}

// NewCreator creates a new JWT creator
func NewCreator(signer keys.Signer, issuer string, expiry time.Duration) *Creator {
	return &Creator{
		signer: signer,
		issuer: issuer,
		expiry: expiry,
	}
}

// CreateAccessToken creates a signed access token for user
func (c *Creator) CreateAccessToken(user *users.User) (*string, error) {
	now := NowTimeFunc()
	claims := AccessClaims{
		Email: user.Email,
		Admin: user.IsAdmin(),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    c.issuer,                                 // The issuer of the token
			Subject:   user.ID,                                  // The user the token was issued to
			IssuedAt:  jwtlib.NewNumericDate(now),               // Issued At: the time at which the token was issued
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.expiry)), // Expiry: when the token will expire
			ID:        uuid.New().String(),                      // Unique token ID
		},
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return &signedToken, nil
}
