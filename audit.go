package authgate

import (
	"context"
	"time"
)

const (
	auditEventRegister             = "register"
	auditEventLogin                = "login"
	auditEventLogout               = "logout"
	auditEventSessionSuperseded    = "session_superseded"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventRateLimit            = "rate_limit"
)

// emitAudit builds and dispatches an audit event. metaFn is evaluated lazily
// so callers pay nothing when auditing is disabled.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identifier, sessionID string,
	failure error,
	metaFn func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:  time.Now(),
		EventType:  eventType,
		Identifier: identifier,
		SessionID:  sessionID,
		IP:         clientIPFromContext(ctx),
		Success:    success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, operation, identifier string) {
	e.emitAudit(ctx, auditEventRateLimit, false, identifier, "", ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"operation": operation}
	})
}
