package jwt

import (
	"errors"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/token/keys"
)

// Inspector validates access tokens
type Inspector struct {
	signer keys.Signer
	issuer string
}

// NewInspector creates a new JWT inspector
func NewInspector(signer keys.Signer, issuer string) *Inspector {
	return &Inspector{
		signer: signer,
		issuer: issuer,
	}
}

// Inspect verifies rawToken and returns its claims. Expired tokens fail with
// ErrTokenExpired, every other problem with ErrInvalidToken.
func (i *Inspector) Inspect(rawToken string) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &AccessClaims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, i.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
