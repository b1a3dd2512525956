package guardkit

import (
	"errors"
	"strings"

	"github.com/guardkit/guardkit/session"
)

var (
	// ErrEmailExists is returned by Signup when the normalized email is
	// already registered.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidCredentials is returned by Login for both an unknown email
	// and a wrong password, so callers cannot enumerate registered emails.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned by store-backed operations when the
	// account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized is returned when a privilege check fails. It is never
	// silently downgraded to a softer outcome.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable wraps credential-store infrastructure failures.
	// It signals a retryable fault, never an authentication decision.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrCacheUnavailable wraps session-cache infrastructure failures.
	// Resolvers fail closed on it.
	ErrCacheUnavailable = session.ErrUnavailable
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError reports malformed signup/login input. Fields holds one
// human-readable message per violated rule.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	return "invalid request: " + strings.Join(e.Fields, "; ")
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
