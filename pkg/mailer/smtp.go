package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(msg Message) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	addr string
	from string
}

// NewSMTP builds a mailer pointed at host:port sending as from.
func NewSMTP(host string, port int, from string) *SMTP {
	return &SMTP{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// Send delivers the message through the relay.
func (m *SMTP) Send(msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Noop discards messages; used when notifications are disabled.
type Noop struct{}

// Send implements Mailer.
func (Noop) Send(Message) error { return nil }
