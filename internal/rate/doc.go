// Package rate provides the Redis-backed fixed-window login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes:
//   - agl:  — login per-identifier
//   - agli: — login per-IP
//
// # What this package must NOT do
//
//   - Decide which operations are throttled (the engine does).
//   - Be imported outside the authgate module.
package rate
