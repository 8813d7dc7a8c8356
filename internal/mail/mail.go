// Package mail sends out-of-band notifications to account holders.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Sender delivers a message to a recipient. Callers treat delivery as
// best-effort; a failed send never aborts the operation that triggered it.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP endpoint.
type SMTPSender struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

// Send delivers the message via SMTP.
func (s *SMTPSender) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient address")
	}

	message := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return nil
}

// CodeMailer delivers transaction verification codes by mail. Delivery is
// fire-and-forget: a failure is logged but never aborts the transaction
// that requested the code.
type CodeMailer struct {
	Sender Sender
}

// SendCode mails the verification code to the account holder.
func (m CodeMailer) SendCode(email, code string) {
	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.\n", code)

	err := m.Sender.Send(email, "Confirm your transaction", body)
	if err != nil {
		log.Error().Err(err).Msg("failed to send verification code")
	}
}

// LogSender logs messages instead of delivering them. It is used when no
// SMTP endpoint is configured, e.g. in development.
type LogSender struct{}

// Send logs the message.
func (LogSender) Send(to, subject, _ string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("mail delivery disabled, discarding message")
	return nil
}
