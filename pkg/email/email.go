package email

import (
	"fmt"
	"net/smtp"
)

// Sender sends plain text email over SMTP. The zero value is disabled.
type Sender struct {
	Host     string
	Port     string
	From     string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(host, port, from, password string) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		From:     from,
		Password: password,
		send:     smtp.SendMail,
	}
}

// Enabled reports whether an SMTP host and sender are configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.Host != "" && s.From != ""
}

// SendEmail sends a plain text email using SMTP.
func (s *Sender) SendEmail(to, subject, body string) error {
	if !s.Enabled() {
		return fmt.Errorf("email sender is not configured")
	}

	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	msg := buildMessage(s.From, to, subject, body)
	address := s.Host + ":" + s.Port

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(address, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
}
