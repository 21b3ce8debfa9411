package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"placement-portal/internal/config"
)

// ErrInvalidRecipient is returned for header-injection attempts.
var ErrInvalidRecipient = errors.New("invalid recipient address")

// Mailer delivers a single HTML message synchronously.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// New picks the transport named by cfg.MailDriver.
func New(cfg config.Config, log *slog.Logger, out io.Writer) Mailer {
	if cfg.MailDriver == config.MailDriverSMTP {
		return NewSMTP(cfg)
	}
	return NewLog(log, out)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an authenticated SMTP relay (STARTTLS on 587).
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
}

// NewSMTP builds an SMTPMailer from config.
func NewSMTP(cfg config.Config) *SMTPMailer {
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from: cfg.MailFrom,
		auth: smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost),
		send: smtp.SendMail,
	}
}

// Send blocks until the relay accepts the message or ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return ErrInvalidRecipient
	}

	msg := buildMessage(m.from, to, subject, html, time.Now())

	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, m.from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, html string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogMailer is the development transport: the full message goes to out and
// only the envelope reaches the structured log.
type LogMailer struct {
	mu  sync.Mutex
	log *slog.Logger
	out io.Writer
}

// NewLog builds a LogMailer. A nil out discards message bodies.
func NewLog(log *slog.Logger, out io.Writer) *LogMailer {
	if out == nil {
		out = io.Discard
	}
	return &LogMailer{log: log, out: out}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := fmt.Fprintf(m.out, "--- mail to %s ---\nSubject: %s\n\n%s\n---\n", to, subject, html); err != nil {
		return err
	}
	if m.log != nil {
		m.log.Info("mail written to dev outbox", "to", to, "subject", subject)
	}
	return nil
}
