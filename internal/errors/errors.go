// Package errors defines the error categories shared by every use case. Handlers
// map a category to an HTTP status with Is, so use cases wrap infrastructure
// errors in one of these instead of leaking driver errors upward.
package errors

import (
	"errors"
	"fmt"
)

// Categories.
var (
	// ErrNotFound means the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the write collides with existing data, such as a taken email.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput means the request failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized means the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is authenticated but lacks the permission.
	ErrForbidden = errors.New("forbidden")

	// ErrTooManyRequests means the caller exceeded a rate limit.
	ErrTooManyRequests = errors.New("too many requests")
)

// Credential and authorization errors. All of them are ErrUnauthorized except
// ErrPermissionDenied, which is ErrForbidden.
var (
	// ErrAuthenticationFailed covers wrong credentials, unknown accounts and
	// inactive accounts. Callers must not be able to tell these apart.
	ErrAuthenticationFailed = Wrap(ErrUnauthorized, "authentication failed")

	// ErrTokenInvalid covers a bad signature, a malformed token, the wrong token
	// type, a stale token version and a revoked refresh token.
	ErrTokenInvalid = Wrap(ErrUnauthorized, "token invalid")

	// ErrTokenExpired is a well-formed token past its expiry. Clients refresh on it.
	ErrTokenExpired = Wrap(ErrUnauthorized, "token expired")

	// ErrPermissionDenied is a missing role permission on an authenticated request.
	ErrPermissionDenied = Wrap(ErrForbidden, "permission denied")
)

// New creates an error with message.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message and keeps it in the chain. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
