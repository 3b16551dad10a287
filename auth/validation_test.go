package auth_test

import (
	"testing"

	"github.com/jrsteele09/livee-admin-console/auth"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, auth.ValidateCredentials(auth.LoginBody{Email: " admin@livee.test ", Password: "x"}))
	})

	t.Run("missing email", func(t *testing.T) {
		err := auth.ValidateCredentials(auth.LoginBody{Email: "  ", Password: "x"})
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		require.Contains(t, err.Error(), "email is required")
	})

	t.Run("invalid email format", func(t *testing.T) {
		for _, email := range []string{"admin", "@livee.test", "admin@localhost"} {
			err := auth.ValidateCredentials(auth.LoginBody{Email: email, Password: "x"})
			require.ErrorIs(t, err, apperrors.ErrInvalidRequest, email)
			require.Contains(t, err.Error(), "invalid email format")
		}
	})

	t.Run("missing password", func(t *testing.T) {
		err := auth.ValidateCredentials(auth.LoginBody{Email: "admin@livee.test"})
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		require.Contains(t, err.Error(), "password is required")
	})
}
