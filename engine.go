package authgate

import (
	"log/slog"

	"github.com/authgate/authgate/internal/rate"
	"github.com/authgate/authgate/password"
	"github.com/authgate/authgate/session"
)

// Engine coordinates the register, login, logout, forgot-password, and
// reset-password flows across the credential store, the session store, and
// the Notifier. Engines are built once via [Builder.Build] and are immutable
// and safe for concurrent use afterwards.
type Engine struct {
	config       Config
	userStore    UserStore
	sessionStore *session.Store
	notifier     Notifier
	rateLimiter  *rate.Limiter
	secretHash   *password.Argon2
	audit        *auditDispatcher
	metrics      *Metrics
	logger       *slog.Logger
}

// Close flushes and stops the audit dispatcher. It does not close the Redis
// client or the user store; those are owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) log() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.Default()
	}
	return e.logger
}
