package mailer

import (
	"context"
	"log/slog"
)

// LogMailer implements Mailer by logging instead of delivering. Used in
// development environments without an SMTP relay.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("email suppressed (log mailer)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_len", len(body)),
	)
	return nil
}
