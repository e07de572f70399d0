package mailx

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
)

// Mailer sends transactional mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr     string // host:port
	From     string
	Username string
	Password string // empty disables auth, e.g. a local relay

	// ResetURL is the base link mailed to the user; the token is
	// appended as a query parameter.
	ResetURL string
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := m.ResetURL + "?token=" + token

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Reset your password\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Follow the link to choose a new password:\r\n\r\n%s\r\n\r\n", link)
	b.WriteString("If you did not request this, you can ignore this mail.\r\n")

	var auth smtp.Auth
	if m.Password != "" {
		host, _, _ := strings.Cut(m.Addr, ":")
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}
	return smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(b.String()))
}

// LogMailer is a Mailer for development and tests: it records instead
// of sending.
type LogMailer struct {
	mu   sync.Mutex
	sent []SentMail
}

type SentMail struct {
	To    string
	Token string
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMail{To: to, Token: token})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (m *LogMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}
