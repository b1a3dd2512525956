package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Cache.Get when no session is registered for
// the token.
var ErrNotFound = errors.New("session not found")

// ErrExpired is returned by Cache.Get when a session exists but its
// validity window has passed. Callers treat it exactly like ErrNotFound;
// the distinction exists for observability.
var ErrExpired = errors.New("session expired")

// ErrUnavailable wraps infrastructure failures of a remote cache backend.
// It is never an authentication decision: resolvers fail closed on it.
var ErrUnavailable = errors.New("session cache unavailable")

// Session is the proof of a successful authentication. The token is an
// opaque random string; transport (cookies, headers, encryption) is the
// host layer's concern.
type Session struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Cache is the concurrent registry mapping session tokens to their owning
// user. Implementations must linearize operations on the same token and
// must not serialize operations on different tokens behind a single lock.
//
// Get never returns an expired session. Invalidate is idempotent.
// InvalidateAllForUser removes every session owned by userID except the
// listed keep tokens (used by password change to spare the caller's own
// session).
type Cache interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Invalidate(ctx context.Context, token string) error
	InvalidateAllForUser(ctx context.Context, userID string, keep ...string) error
}
