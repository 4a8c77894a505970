package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/traincore/tnms-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP builds an SMTP-backed mailer from configuration.
func NewSMTP(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message. Each call dials a fresh connection;
// notification volume is low enough that pooling is not worth it.
func (m *SMTPMailer) Send(msg Message) error {
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetAddressHeader("To", msg.To, msg.ToName)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.HTMLBody)

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// NopMailer discards all messages. Used when mail delivery is disabled.
type NopMailer struct{}

// Send implements Mailer.
func (NopMailer) Send(Message) error { return nil }
