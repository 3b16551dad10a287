package auth

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

// ValidateCredentials checks a login body before it is sent. Failures match
// ErrInvalidRequest.
func ValidateCredentials(body LoginBody) error {
	email := strings.TrimSpace(body.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrInvalidRequest)
	}

	// Basic email format validation
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at:], ".") {
		return fmt.Errorf("%w: invalid email format", apperrors.ErrInvalidRequest)
	}

	if body.Password == "" {
		return fmt.Errorf("%w: password is required", apperrors.ErrInvalidRequest)
	}
	return nil
}

// validateLoginResponse rejects a login response that cannot populate a session.
func validateLoginResponse(result UserWithTokens) error {
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		return fmt.Errorf("%w: response is missing tokens", apperrors.ErrInvalidToken)
	}
	if result.User.ID == "" {
		return fmt.Errorf("%w: response is missing the user", apperrors.ErrInvalidToken)
	}
	return nil
}
