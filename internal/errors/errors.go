package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the session relay
var (
	// Session errors
	ErrSchemaViolation = errors.New("session schema violation")
	ErrExpired         = errors.New("session expired")
	ErrNoSession       = errors.New("no session")
	ErrForbidden       = errors.New("insufficient role")

	// Relay errors
	ErrMissingCredential = errors.New("missing session credential")
	ErrUpstream          = errors.New("upstream failure")
	ErrTransport         = errors.New("transport failure")

	// Handshake errors
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidNonce        = errors.New("invalid nonce")
	ErrIncompleteHandshake = errors.New("incomplete handshake")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// UpstreamError carries the status code of a non-success backend response so
// callers can forward it instead of flattening it into a generic failure.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream responded %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("upstream responded %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// Unauthorized reports whether the backend rejected the relayed credential.
func (e *UpstreamError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

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

// New is errors.New, re-exported so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}

// Join is errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
