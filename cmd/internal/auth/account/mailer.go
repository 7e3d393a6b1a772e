package account

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a single HTML email. Implementations report success or
// failure only; no retry policy lives in this core.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
	Host     string // for AUTH; defaults to the host part of Addr
}

// Send implements Mailer. net/smtp does not take a context; the dial is
// bounded by the relay's own timeouts, and callers treat any error as
// ErrMailSend upstream.
func (m SMTPMailer) Send(_ context.Context, to, subject, html string) error {
	host := m.Host
	if host == "" {
		host = m.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		m.From, to, subject, html)

	return smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(msg))
}

// NoopMailer drops mail on the floor; used in dev and tests.
type NoopMailer struct{}

// Send implements Mailer.
func (NoopMailer) Send(_ context.Context, _, _, _ string) error { return nil }
