// Package authgate provides a session-based username/password authentication
// engine with single-active-session enforcement, OTP-driven password reset,
// and pluggable email delivery of the reset code.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the [UserStore] and [Notifier] contracts, and value types (LoginResult,
// ResetChallenge, MetricsSnapshot). Session persistence lives in session/,
// credential hashing in password/; rate limiting, audit dispatch, and
// random-draw helpers live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Hold any lock across a Notifier call.
//
// # Authentication model
//
// There are no bearer tokens. Every authenticated request carries an opaque
// server-generated session handle; [Engine.Authenticate] resolves the handle
// against the session store and the user's recorded current handle, so a
// handle superseded by a newer login never authenticates even when its
// session record outlived a failed best-effort invalidation.
package authgate
