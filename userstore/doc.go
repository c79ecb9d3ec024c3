// Package userstore provides ready-made credential store implementations:
// an in-memory store for tests and demos, a Redis-backed store for small
// deployments that already run Redis for sessions, and a PostgreSQL store
// for everything else. All three satisfy the engine's UserStore contract:
// identifier uniqueness on Create, per-record atomic Save, and the shared
// sentinel errors for duplicates and misses.
package userstore
