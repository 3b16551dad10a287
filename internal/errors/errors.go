package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the console core and the dev backend
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("user is not an administrator")
	ErrUserNotFound       = errors.New("user not found")

	// Session and token errors
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Business errors
	ErrBusinessNotFound = errors.New("business not found")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrInvalidStatus    = errors.New("invalid branch status")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
