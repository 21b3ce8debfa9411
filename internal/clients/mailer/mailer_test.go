package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"placement-portal/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func smtpConfig() config.Config {
	return config.Config{
		MailDriver:   config.MailDriverSMTP,
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
		MailFrom:     "portal@example.com",
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	assert.IsType(t, &SMTPMailer{}, New(smtpConfig(), silentLogger, nil))
	assert.IsType(t, &LogMailer{}, New(config.Config{MailDriver: config.MailDriverLog}, silentLogger, nil))
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTP(smtpConfig())

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), "a@nsec.ac.in", SubjectVerification, "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "portal@example.com", gotFrom)
	assert.Equal(t, []string{"a@nsec.ac.in"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: "+SubjectVerification+"\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(gotMsg, "<p>hi</p>\r\n"))
}

func TestSMTPMailer_SendFailureIsWrapped(t *testing.T) {
	m := NewSMTP(smtpConfig())
	boom := errors.New("535 auth failed")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := m.Send(context.Background(), "a@nsec.ac.in", "s", "b")
	assert.ErrorIs(t, err, boom)
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	m := NewSMTP(smtpConfig())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	err := m.Send(context.Background(), "a@nsec.ac.in\r\nBcc: x@evil.com", "s", "b")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestSMTPMailer_HonoursContext(t *testing.T) {
	m := NewSMTP(smtpConfig())
	release := make(chan struct{})
	defer close(release)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Send(ctx, "a@nsec.ac.in", "s", "b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogMailer_WritesOutbox(t *testing.T) {
	var out bytes.Buffer
	m := NewLog(silentLogger, &out)

	require.NoError(t, m.Send(context.Background(), "a@nsec.ac.in", SubjectPasswordReset, "<a>link</a>"))
	assert.Contains(t, out.String(), "mail to a@nsec.ac.in")
	assert.Contains(t, out.String(), SubjectPasswordReset)
	assert.Contains(t, out.String(), "<a>link</a>")
}

func TestLogMailer_CancelledContext(t *testing.T) {
	m := NewLog(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, "a@nsec.ac.in", "s", "b"), context.Canceled)
}

func TestTemplates(t *testing.T) {
	body, err := OTPBody("482913", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "10 minutes")

	link := "http://localhost:5173/reset-password?token=abc&type=student"
	body, err = ResetBody(link, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, body, `href="http://localhost:5173/reset-password?token=abc&amp;type=student"`)
	assert.Contains(t, body, "60 minutes")
}
