package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/authgate/authgate/internal"
	"github.com/authgate/authgate/session"
	"github.com/redis/go-redis/v9"
)

// RequestPasswordReset issues a 6-digit OTP for identifier, binds it to the
// caller's session, and asks the Notifier to deliver it. When sessionID is
// empty or stale, an anonymous session is minted to carry the challenge and
// its handle is returned in the result. Issuing a new challenge overwrites
// any prior one on the same session.
//
// A Notifier failure returns [ErrDeliveryFailed] without rolling the
// challenge back: the next request simply overwrites it.
func (e *Engine) RequestPasswordReset(ctx context.Context, sessionID, identifier string) (*ResetChallenge, error) {
	if e == nil || e.userStore == nil || e.sessionStore == nil || e.notifier == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.userStore.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventPasswordResetRequest, false, identifier, sessionID, ErrUserNotFound, nil)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess, ttl, err := e.challengeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	code, err := internal.NewOTP()
	if err != nil {
		return nil, err
	}

	sess.Challenge = &session.Challenge{
		Code:       code,
		Identifier: user.Identifier,
		IssuedAt:   time.Now().Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, ttl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricResetRequest)

	codeText := strconv.FormatUint(uint64(code), 10)
	body := fmt.Sprintf(e.config.OTP.BodyFormat, codeText)

	// The Notifier is a slow external call; nothing is held across it.
	if err := e.notifier.Send(ctx, user.Identifier, e.config.OTP.Subject, body); err != nil {
		e.metricInc(MetricResetDeliveryFailure)
		e.log().ErrorContext(ctx, "otp delivery failed", "identifier", user.Identifier, "error", err)
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, user.Identifier, sess.SessionID, ErrDeliveryFailed, nil)
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.Identifier, sess.SessionID, nil, nil)

	return &ResetChallenge{
		SessionID: sess.SessionID,
		Code:      codeText,
	}, nil
}

// challengeSession loads the caller's session or mints an anonymous one to
// carry a pending challenge. It returns the session together with the TTL to
// use when re-saving it, preserving the original absolute expiry for
// existing sessions.
func (e *Engine) challengeSession(ctx context.Context, sessionID string) (*session.Session, time.Duration, error) {
	if sessionID != "" {
		sess, err := e.sessionStore.Get(ctx, sessionID)
		if err == nil {
			return sess, time.Until(time.Unix(sess.ExpiresAt, 0)), nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	sess := &session.Session{
		SessionID: sid.String(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Session.TTL).Unix(),
	}

	e.metricInc(MetricSessionCreated)
	return sess, e.config.Session.TTL, nil
}

// ConfirmPasswordReset validates the supplied code against the challenge
// bound to the caller's session and, only then, overwrites the stored
// credential with the new secret. The challenge is consumed on success so a
// replay of the same code fails with [ErrChallengeInvalid]. A mismatched or
// missing challenge leaves the credential untouched.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, sessionID, code, newSecret string) error {
	if e == nil || e.userStore == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return e.failConfirm(ctx, "", sessionID, ErrChallengeInvalid)
	}

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return e.failConfirm(ctx, "", sessionID, ErrChallengeInvalid)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ch := sess.Challenge
	if ch == nil {
		return e.failConfirm(ctx, "", sessionID, ErrChallengeInvalid)
	}

	if e.config.OTP.TTL > 0 {
		expiresAt := time.Unix(ch.IssuedAt, 0).Add(e.config.OTP.TTL)
		if time.Now().After(expiresAt) {
			e.clearChallenge(ctx, sess)
			return e.failConfirm(ctx, ch.Identifier, sessionID, ErrChallengeInvalid)
		}
	}

	// Numeric comparison after parsing, so "0231555" and "231555" are the
	// same code.
	supplied, err := strconv.ParseUint(strings.TrimSpace(code), 10, 32)
	if err != nil || uint32(supplied) != ch.Code {
		return e.failConfirm(ctx, ch.Identifier, sessionID, ErrChallengeInvalid)
	}

	user, err := e.userStore.FindByIdentifier(ctx, ch.Identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return e.failConfirm(ctx, ch.Identifier, sessionID, ErrUserNotFound)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if newSecret == "" {
		return ErrSecretPolicy
	}
	hash, err := e.secretHash.Hash(newSecret)
	if err != nil {
		return err
	}

	// Consume the challenge before touching the credential so the same code
	// can never be replayed, even if the credential write below fails.
	sess.Challenge = nil
	if err := e.sessionStore.Save(ctx, sess, time.Until(time.Unix(sess.ExpiresAt, 0))); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	user.SecretHash = hash
	e.revokeActiveSession(ctx, &user)

	if err := e.userStore.Save(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, user.Identifier, clientIPFromContext(ctx)); err != nil {
			e.log().WarnContext(ctx, "login limiter reset failed", "identifier", user.Identifier, "error", err)
		}
	}

	e.metricInc(MetricResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.Identifier, sessionID, nil, nil)
	return nil
}

func (e *Engine) failConfirm(ctx context.Context, identifier, sessionID string, failure error) error {
	e.metricInc(MetricResetConfirmFailure)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identifier, sessionID, failure, nil)
	return failure
}

// clearChallenge drops an expired challenge from the session. Best-effort:
// the challenge is already unusable either way.
func (e *Engine) clearChallenge(ctx context.Context, sess *session.Session) {
	sess.Challenge = nil
	if err := e.sessionStore.Save(ctx, sess, time.Until(time.Unix(sess.ExpiresAt, 0))); err != nil {
		e.log().WarnContext(ctx, "expired challenge cleanup failed", "session_id", sess.SessionID, "error", err)
	}
}

// revokeActiveSession destroys the session recorded on the user after a
// successful reset, forcing a fresh login with the new secret. Best-effort.
func (e *Engine) revokeActiveSession(ctx context.Context, user *UserRecord) {
	if user.SessionID == "" {
		return
	}

	if err := e.sessionStore.Delete(ctx, user.SessionID); err != nil {
		e.metricInc(MetricSessionInvalidationFailed)
		e.log().WarnContext(ctx, "active session revocation failed",
			"identifier", user.Identifier, "session_id", user.SessionID, "error", err)
	} else {
		e.metricInc(MetricSessionInvalidated)
	}

	user.SessionID = ""
}
