package errors

import (
	"errors"
	"fmt"
)

// Common error types for the DocHub client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidOldPassword = errors.New("invalid old password")
	ErrNotLoggedIn        = errors.New("not logged in")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrStaleRefresh   = errors.New("refresh result superseded")

	// Request errors, classified from the HTTP status or the response envelope code
	ErrInvalidParams = errors.New("invalid parameters")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate")
	ErrServer        = errors.New("server error")
	ErrNetwork       = errors.New("network error")

	// Navigation errors
	ErrRouteNotFound = errors.New("route not found")
	ErrRedirectLoop  = errors.New("too many redirects")
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
