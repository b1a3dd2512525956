package guardkit

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword re-verifies oldPassword, stores a fresh hash of
// newPassword, and invalidates the user's sessions so other devices must
// log in again. keepToken, when non-empty, names the caller's own session
// to spare; pass "" to force re-login everywhere.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, keepToken string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	user, err := e.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := e.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("password verification: %w", err)
	}
	if !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, user.Email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if fields := policyViolations(e.config.Policy, newPassword); len(fields) > 0 || newPassword == "" {
		if newPassword == "" {
			fields = append(fields, "password is required")
		}
		return &ValidationError{Fields: fields}
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("password hashing: %w", err)
	}
	if _, err := e.store.Update(ctx, userID, UserPatch{PasswordHash: &hash}); err != nil {
		return err
	}

	var keep []string
	if keepToken != "" {
		keep = append(keep, keepToken)
	}
	if err := e.cache.InvalidateAllForUser(ctx, userID, keep...); err != nil {
		// The new hash is committed; the stale sessions just outlived the
		// cache hiccup. Surface the failure so the caller can retry.
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, userID, user.Email, nil, nil)
	return nil
}

// SetVerified flips the account's verification flag. The verification flow
// itself (token mail-out, confirmation) lives outside this engine; this is
// its write-back hook.
func (e *Engine) SetVerified(ctx context.Context, userID string, verified bool) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	user, err := e.store.Update(ctx, userID, UserPatch{Verified: &verified})
	if err != nil {
		return err
	}

	e.metricInc(MetricVerifiedFlagChanged)
	e.emitAudit(ctx, auditEventVerifiedChange, true, userID, user.Email, nil, map[string]string{
		"verified": fmt.Sprintf("%t", verified),
	})
	return nil
}

// SetAdmin grants or revokes admin on the target account. The actor,
// identified by its session token, must resolve to AuthenticatedAdmin;
// anything less is ErrUnauthorized, and infrastructure failures during
// resolution deny the operation rather than guessing.
func (e *Engine) SetAdmin(ctx context.Context, actorToken, targetID string, admin bool) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	res, err := e.Resolve(ctx, actorToken)
	if err != nil {
		return err
	}
	if res.State != AuthenticatedAdmin {
		return ErrUnauthorized
	}

	user, err := e.store.Update(ctx, targetID, UserPatch{Admin: &admin})
	if err != nil {
		return err
	}

	e.metricInc(MetricAdminFlagChanged)
	e.emitAudit(ctx, auditEventAdminChange, true, targetID, user.Email, nil, map[string]string{
		"actor_id": res.User.ID,
		"admin":    fmt.Sprintf("%t", admin),
	})
	return nil
}

// Delete removes the target account and invalidates every session it
// owns. Permitted for the account owner and for admins.
func (e *Engine) Delete(ctx context.Context, actorToken, targetID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	res, err := e.Resolve(ctx, actorToken)
	if err != nil {
		return err
	}
	if res.State == Anonymous {
		return ErrUnauthorized
	}
	if res.User.ID != targetID && res.State != AuthenticatedAdmin {
		return ErrUnauthorized
	}

	if err := e.store.Delete(ctx, targetID); err != nil {
		return err
	}

	if err := e.cache.InvalidateAllForUser(ctx, targetID); err != nil {
		// The account is gone, so dangling tokens already resolve to
		// Anonymous; still report the cleanup failure.
		if !errors.Is(err, ErrCacheUnavailable) {
			return err
		}
		e.logger.WithField("user_id", targetID).WithError(err).
			Warn("session cleanup after account deletion failed")
	}

	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, auditEventAccountDelete, true, targetID, "", nil, map[string]string{
		"actor_id": res.User.ID,
	})
	return nil
}
