package guardkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/guardkit/guardkit/internal"
	internalaudit "github.com/guardkit/guardkit/internal/audit"
	internalmetrics "github.com/guardkit/guardkit/internal/metrics"
	"github.com/guardkit/guardkit/password"
	"github.com/guardkit/guardkit/session"
)

// Engine orchestrates signup, login, logout, account mutation, and guard
// resolution over a CredentialStore and a session.Cache. Engines are
// created through the Builder and are safe for concurrent use afterwards.
type Engine struct {
	config   Config
	store    CredentialStore
	cache    session.Cache
	hasher   *password.Hasher
	validate *validator.Validate
	audit    *internalaudit.Dispatcher
	metrics  *internalmetrics.Metrics
	logger   logrus.FieldLogger

	// ownedCache is set when the engine built its own in-process cache and
	// therefore owns the janitor lifecycle.
	ownedCache *session.Memory
}

// Close drains the audit dispatcher and stops the in-process cache janitor
// when the engine owns one. Idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.ownedCache != nil {
		e.ownedCache.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// back-pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Signup validates req, hashes the password, and creates the account.
// With Session.AutoLoginOnSignup enabled it immediately issues a session
// (an implicit login); otherwise it returns a nil session and the caller
// stays Anonymous until Login. Returns ErrEmailExists when the normalized
// email is taken and a ValidationError for malformed input.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*session.Session, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.validateSignup(req); err != nil {
		e.metricInc(MetricSignupInvalid)
		return nil, err
	}
	email := normalizeEmail(req.Email)

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("password hashing: %w", err)
	}

	user, err := e.store.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignup, false, "", email, err, nil)
		}
		return nil, err
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, user.ID, email, nil, nil)

	if !e.config.Session.AutoLoginOnSignup {
		return nil, nil
	}
	return e.issueSession(ctx, user.ID)
}

// Login authenticates req and issues a fresh session. An unknown email and
// a wrong password both return ErrInvalidCredentials; the caller cannot
// tell them apart. On any failure no session is registered.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*session.Session, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.validateLogin(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	user, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLogin, false, "", email, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		// A stored hash this engine cannot parse is data corruption, not a
		// wrong password. Deny with a retryable internal error.
		e.logger.WithField("user_id", user.ID).WithError(err).Warn("stored password hash unreadable")
		return nil, fmt.Errorf("password verification: %w", err)
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, user.ID, email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	sess, err := e.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, true, user.ID, email, nil, nil)
	return sess, nil
}

// Logout invalidates the session for token. Unknown and already
// invalidated tokens are not errors; only cache unavailability is.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || e.cache == nil {
		return ErrEngineNotReady
	}
	if token == "" {
		return nil
	}

	if err := e.cache.Invalidate(ctx, token); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogout, true, "", "", nil, nil)
	return nil
}

// issueSession mints an opaque token and registers it. Either the session
// is fully registered and returned, or nothing is.
func (e *Engine) issueSession(ctx context.Context, userID string) (*session.Session, error) {
	token, err := internal.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("token generation: %w", err)
	}

	now := time.Now()
	ttl := e.config.Session.TTL
	if err := e.cache.Put(ctx, token, userID, ttl); err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	return &session.Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
