// Package middleware exposes an HTTP middleware adapter for cookie-based
// session enforcement built on top of authgate.Engine.
//
// # Guards
//
//   - [Guard] reads the session cookie, calls Engine.Authenticate, and
//     injects the resolved user into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Mint or destroy sessions (the login/logout handlers own that).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from
//     Engine.Authenticate.
package middleware
