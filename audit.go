package guardkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/guardkit/guardkit/internal/audit"
)

// AuditEvent is a structured audit record emitted by the engine. Session
// tokens never appear in events.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an AuditSink that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based AuditSink.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an AuditSink that writes one JSON event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

const (
	auditEventSignup          = "signup"
	auditEventLogin           = "login"
	auditEventLogout          = "logout"
	auditEventPasswordChange  = "password_change"
	auditEventVerifiedChange  = "verified_change"
	auditEventAdminChange     = "admin_change"
	auditEventAccountDelete   = "account_delete"
	auditEventDanglingSession = "dangling_session_cleanup"
)

func (e *Engine) emitAudit(ctx context.Context, kind string, success bool, userID, email string, opErr error, meta map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		UserID:    userID,
		Email:     email,
		Success:   success,
		Metadata:  meta,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}
