// Package session implements the Redis-backed session store for authgate.
//
// A session is an opaque server-generated handle mapped to a small binary
// record. The record optionally embeds a pending password-reset challenge:
// the challenge has no identity of its own and lives and dies with the
// session that carries it.
//
// # Architecture boundaries
//
// This package owns session persistence, encoding, and expiry mechanics.
// Policy — who may create a session, when a prior session is superseded,
// how a challenge is validated — lives in the authgate engine.
//
// # What this package must NOT do
//
//   - Touch user records or credentials.
//   - Import authgate (no import cycles).
package session
