// Package internal holds cryptographic random-draw helpers shared by the
// authgate engine: opaque session identifiers and uniform OTP generation.
//
// # What this package must NOT do
//
//   - Use math/rand for anything security-relevant.
//   - Be imported outside the authgate module.
package internal
