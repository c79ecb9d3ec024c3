package authgate

import "errors"

var (
	// ErrInvalidCredentials is returned by [Engine.Login] when the identifier
	// is unknown or the supplied secret does not verify. The two cases are
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by lookup-dependent operations
	// (password reset request and confirm) for an unknown identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is returned by [Engine.Register] when the identifier
	// is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrSessionNotFound is returned by [Engine.Authenticate] when the handle
	// does not resolve to a live, current session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrChallengeInvalid is returned by [Engine.ConfirmPasswordReset] when no
	// challenge is bound to the caller's session, the challenge expired, or
	// the supplied code does not match.
	ErrChallengeInvalid = errors.New("password reset challenge invalid")
	// ErrDeliveryFailed is returned by [Engine.RequestPasswordReset] when the
	// Notifier reports a send failure. The issued challenge is not rolled
	// back; a subsequent request overwrites it.
	ErrDeliveryFailed = errors.New("otp delivery failed")
	// ErrLoginRateLimited is returned by [Engine.Login] when the identifier or
	// client IP exceeded the failed-attempt budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrStoreUnavailable wraps unexpected credential-store or session-store
	// failures. Callers surface it as a generic internal error.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrSecretPolicy is returned when a supplied secret is empty. No other
	// policy is imposed; any non-empty secret is accepted.
	ErrSecretPolicy = errors.New("secret policy violation")
	// ErrEngineNotReady is returned when an Engine was constructed without a
	// required collaborator.
	ErrEngineNotReady = errors.New("engine not initialized")
)
