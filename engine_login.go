package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authgate/authgate/internal"
	"github.com/authgate/authgate/internal/rate"
	"github.com/authgate/authgate/session"
	"github.com/redis/go-redis/v9"
)

// Login verifies the identifier/secret pair and mints a new session. An
// unknown identifier and a secret mismatch both surface as
// [ErrInvalidCredentials]. Any prior session recorded on the user is
// invalidated best-effort: a failed delete is logged and reported via
// [LoginResult.PriorSession], never escalated, because [Engine.Authenticate]
// fences superseded handles out regardless.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if e == nil || e.userStore == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, identifier, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitRateLimit(ctx, "login", identifier)
				return nil, ErrLoginRateLimited
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	user, err := e.userStore.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, e.failLogin(ctx, identifier, ip)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ok, err := e.secretHash.Verify(secret, user.SecretHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, e.failLogin(ctx, identifier, ip)
	}

	prior := e.invalidatePriorSession(ctx, &user)

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &session.Session{
		SessionID:  sid.String(),
		Identifier: user.Identifier,
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(e.config.Session.TTL).Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, e.config.Session.TTL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	user.SessionID = sess.SessionID
	if err := e.userStore.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, identifier, ip); err != nil {
			e.log().WarnContext(ctx, "login limiter reset failed", "identifier", identifier, "error", err)
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLogin, true, identifier, sess.SessionID, nil, nil)

	return &LoginResult{
		SessionID:    sess.SessionID,
		User:         user,
		PriorSession: prior,
	}, nil
}

func (e *Engine) failLogin(ctx context.Context, identifier, ip string) error {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.IncrementLogin(ctx, identifier, ip); err != nil &&
			!errors.Is(err, rate.ErrRateLimited) {
			e.log().WarnContext(ctx, "login limiter increment failed", "identifier", identifier, "error", err)
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLogin, false, identifier, "", ErrInvalidCredentials, nil)
	return ErrInvalidCredentials
}

// invalidatePriorSession destroys the session recorded on the user, if any.
// Fire-and-forget: the outcome is reported, logged, and counted, but a
// failure never blocks the new login.
func (e *Engine) invalidatePriorSession(ctx context.Context, user *UserRecord) InvalidationOutcome {
	if user.SessionID == "" {
		return InvalidationNotNeeded
	}

	prior := user.SessionID
	if err := e.sessionStore.Delete(ctx, prior); err != nil {
		e.metricInc(MetricSessionInvalidationFailed)
		e.log().WarnContext(ctx, "prior session invalidation failed",
			"identifier", user.Identifier, "session_id", prior, "error", err)
		e.emitAudit(ctx, auditEventSessionSuperseded, false, user.Identifier, prior, err, nil)
		return InvalidationFailedLogged
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventSessionSuperseded, true, user.Identifier, prior, nil, nil)
	return InvalidationSucceeded
}

// Authenticate resolves a session handle to its user. A handle authenticates
// only while it is the user's current one: once a newer login supersedes it,
// the handle is rejected even if its session record still exists.
func (e *Engine) Authenticate(ctx context.Context, sessionID string) (UserRecord, error) {
	if e == nil || e.userStore == nil || e.sessionStore == nil {
		return UserRecord{}, ErrEngineNotReady
	}
	if sessionID == "" {
		return UserRecord{}, ErrSessionNotFound
	}

	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}
	}()

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return UserRecord{}, ErrSessionNotFound
		}
		return UserRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !sess.Authenticated() {
		return UserRecord{}, ErrSessionNotFound
	}

	user, err := e.userStore.FindByIdentifier(ctx, sess.Identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrSessionNotFound
		}
		return UserRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if user.SessionID != sessionID {
		// Superseded handle whose record outlived a failed best-effort delete.
		if err := e.sessionStore.Delete(ctx, sessionID); err != nil {
			e.log().WarnContext(ctx, "stale session cleanup failed", "session_id", sessionID, "error", err)
		}
		return UserRecord{}, ErrSessionNotFound
	}

	return user, nil
}

// Logout destroys the caller's session. It is idempotent and always
// succeeds: an empty or unknown handle is a no-op, and cleanup failures are
// logged rather than surfaced.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessionStore == nil {
		return nil
	}
	if sessionID == "" {
		return nil
	}

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, redis.Nil) {
		e.log().WarnContext(ctx, "logout session lookup failed", "session_id", sessionID, "error", err)
	}

	if err := e.sessionStore.Delete(ctx, sessionID); err != nil {
		e.log().WarnContext(ctx, "logout session delete failed", "session_id", sessionID, "error", err)
	} else {
		e.metricInc(MetricSessionInvalidated)
	}

	identifier := ""
	if sess.Authenticated() {
		identifier = sess.Identifier
		e.clearRecordedSession(ctx, sess.Identifier, sessionID)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, identifier, sessionID, nil, nil)
	return nil
}

// clearRecordedSession removes the handle from the user record when it is
// still the recorded one. Best-effort; logout never fails.
func (e *Engine) clearRecordedSession(ctx context.Context, identifier, sessionID string) {
	user, err := e.userStore.FindByIdentifier(ctx, identifier)
	if err != nil {
		e.log().WarnContext(ctx, "logout user lookup failed", "identifier", identifier, "error", err)
		return
	}
	if user.SessionID != sessionID {
		return
	}

	user.SessionID = ""
	if err := e.userStore.Save(ctx, user); err != nil {
		e.log().WarnContext(ctx, "logout session handle clear failed", "identifier", identifier, "error", err)
	}
}
