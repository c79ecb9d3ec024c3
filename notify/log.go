package notify

import (
	"context"
	"log/slog"
)

// Log writes each message to a structured logger instead of delivering it.
// Intended for development and demos where no relay is available; the reset
// code shows up in the process log.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logger-backed notifier. A nil logger uses [slog.Default].
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs the message and reports success.
func (l *Log) Send(ctx context.Context, to, subject, body string) error {
	l.logger.InfoContext(ctx, "outbound notification",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
