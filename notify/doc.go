// Package notify provides Notifier implementations for delivering reset
// codes: SMTP email via go-mail for production and a logger-backed notifier
// for development, where the code lands in the process log instead of a
// mailbox.
package notify
