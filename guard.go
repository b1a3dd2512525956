package guardkit

import (
	"context"
	"errors"

	"github.com/guardkit/guardkit/internal"
	"github.com/guardkit/guardkit/session"
)

// GuardState is the authorization tier derived for a request. The ordering
// is meaningful: each state strictly dominates the previous one, so route
// gates can compare with >=.
type GuardState uint8

const (
	// Anonymous is the state of a missing, invalid, or expired token.
	Anonymous GuardState = iota
	// AuthenticatedUnverified is a live session whose account has not
	// verified its email.
	AuthenticatedUnverified
	// AuthenticatedUser is a live session of a verified, non-admin account.
	AuthenticatedUser
	// AuthenticatedAdmin is a live session of a verified admin account.
	AuthenticatedAdmin
)

func (s GuardState) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case AuthenticatedUnverified:
		return "authenticated-unverified"
	case AuthenticatedUser:
		return "authenticated-user"
	case AuthenticatedAdmin:
		return "authenticated-admin"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of Resolve. User is nil exactly when State is
// Anonymous.
type Resolution struct {
	State GuardState
	User  *User
}

// Resolve derives the caller's guard state from an opaque session token.
// It is the single entry point for per-route authorization and is cheap
// enough to call on every request.
//
// A missing, unknown, or expired token resolves to Anonymous. A session
// whose owner no longer exists resolves to Anonymous and the dangling
// session is invalidated; that is the only side effect this function has,
// it never creates or extends sessions. Infrastructure failures of the cache
// or store are returned as errors (ErrCacheUnavailable,
// ErrStoreUnavailable): "cannot verify" is a retryable fault, never an
// authentication decision.
func (e *Engine) Resolve(ctx context.Context, token string) (Resolution, error) {
	if e == nil || e.store == nil || e.cache == nil {
		return Resolution{}, ErrEngineNotReady
	}
	if token == "" {
		e.metricInc(MetricResolveAnonymous)
		return Resolution{State: Anonymous}, nil
	}
	if err := internal.ParseSessionToken(token); err != nil {
		// Tokens this engine never minted skip the cache round-trip.
		e.metricInc(MetricResolveAnonymous)
		return Resolution{State: Anonymous}, nil
	}

	userID, err := e.cache.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			e.metricInc(MetricResolveAnonymous)
			return Resolution{State: Anonymous}, nil
		}
		return Resolution{}, err
	}

	user, err := e.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Owner deleted after issuance: clean up the dangling session.
			if cerr := e.cache.Invalidate(ctx, token); cerr != nil {
				e.logger.WithField("user_id", userID).WithError(cerr).
					Warn("dangling session cleanup failed")
			} else {
				e.metricInc(MetricDanglingSessionCleaned)
				e.emitAudit(ctx, auditEventDanglingSession, true, userID, "", nil, nil)
			}
			e.metricInc(MetricResolveAnonymous)
			return Resolution{State: Anonymous}, nil
		}
		return Resolution{}, err
	}

	e.metricInc(MetricResolveAuthenticated)
	switch {
	case !user.Verified:
		return Resolution{State: AuthenticatedUnverified, User: user}, nil
	case user.Admin:
		return Resolution{State: AuthenticatedAdmin, User: user}, nil
	default:
		return Resolution{State: AuthenticatedUser, User: user}, nil
	}
}
