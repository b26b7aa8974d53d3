// Package mailer sends transactional email for credential and recruitment
// flows.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// Mailer delivers a single plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer implements Mailer over an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer that delivers through the configured relay.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers the message synchronously. The context deadline bounds the
// whole SMTP conversation.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, to, subject, body)

	// net/smtp has no context support, so run the conversation in a
	// goroutine and abandon it when the context expires.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", to, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
	}

	m.logger.Info("email sent",
		slog.String("to", to),
		slog.String("subject", subject),
	)

	return nil
}

// TimeoutMailer wraps another Mailer and caps each delivery with a fixed
// timeout, independent of the caller's context.
type TimeoutMailer struct {
	inner   Mailer
	timeout time.Duration
}

// NewTimeoutMailer wraps m so every Send is bounded by timeout.
func NewTimeoutMailer(m Mailer, timeout time.Duration) *TimeoutMailer {
	return &TimeoutMailer{inner: m, timeout: timeout}
}

func (t *TimeoutMailer) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Send(ctx, to, subject, body)
}

// buildMessage assembles an RFC 5322 message with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
