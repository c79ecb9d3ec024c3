// Package audit defines the audit event model and sink implementations used
// by the engine's async dispatcher.
//
// # What this package must NOT do
//
//   - Block the request path (blocking policy lives in the root dispatcher).
//   - Import authgate or any sibling package.
package audit
