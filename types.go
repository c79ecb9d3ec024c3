package authgate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/authgate/authgate/internal/audit"
)

// UserRecord is the credential record persisted by a [UserStore]. The secret
// is stored only as an argon2id PHC hash; the plain secret never reaches the
// store. SessionID holds the user's single active session handle, or "" when
// the user has no live session.
type UserRecord struct {
	UserID     string
	Identifier string
	SecretHash string
	SessionID  string
	CreatedAt  time.Time
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	Identifier string
	SecretHash string
}

// UserStore is the credential-store contract the engine operates against.
// Implementations must enforce identifier uniqueness in Create and provide
// per-record atomicity for Save; no cross-record transactions are assumed.
//
// Create returns [ErrAccountExists] for a duplicate identifier and
// FindByIdentifier returns [ErrUserNotFound] for an unknown one. Any other
// failure should be wrapped with [ErrStoreUnavailable].
type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
	Save(ctx context.Context, user UserRecord) error
}

// Notifier delivers the password reset code out-of-band. The engine invokes
// Send exactly once per reset request, treats it as a fallible and potentially
// slow external call, and holds no lock across it. Implementations should
// honor ctx cancellation.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// InvalidationOutcome reports what happened to the user's prior session when
// a new login superseded it. Invalidation is fire-and-forget: a failure is
// logged and recorded here but never fails the login.
type InvalidationOutcome uint8

const (
	// InvalidationNotNeeded means the user had no recorded prior session.
	InvalidationNotNeeded InvalidationOutcome = iota
	// InvalidationSucceeded means the prior session was destroyed.
	InvalidationSucceeded
	// InvalidationFailedLogged means destroying the prior session failed; the
	// error was logged and the stale handle is fenced out by the current-handle
	// check in [Engine.Authenticate].
	InvalidationFailedLogged
)

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	SessionID    string
	User         UserRecord
	PriorSession InvalidationOutcome
}

// ResetChallenge is returned by [Engine.RequestPasswordReset]. SessionID is
// the handle the challenge is bound to: the caller's handle when one was
// supplied, or a freshly minted anonymous session otherwise. Code is the
// issued 6-digit OTP; it is exposed so callers can surface it in test/debug
// environments, mirroring delivery via the Notifier.
type ResetChallenge struct {
	SessionID string
	Code      string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
