// Package httpapi exposes the engine's flows over a JSON HTTP surface:
// register, login, logout, forgot-password, reset-password, and a
// session-guarded dashboard. The session handle travels in an HttpOnly
// cookie; forgot-password binds the reset challenge to the caller's session
// by setting the same cookie when a fresh session is minted.
//
// # Architecture boundaries
//
// Handlers translate HTTP into Engine calls and map the engine's sentinel
// errors onto status codes. Infrastructure failures surface as a generic 500
// without internal detail.
package httpapi
