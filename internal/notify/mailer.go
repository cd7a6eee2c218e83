package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

// New builds a mailer. It returns nil when SMTP is not configured, and a
// nil Mailer drops sends without error.
func New(host string, port int, username, password, from string, log zerolog.Logger) *Mailer {
	if host == "" || from == "" {
		return nil
	}
	if port == 0 {
		port = 587
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		log:    log,
	}
}

// SendVerified emails a student that their account was verified, including
// their check-in code when one was issued.
func (m *Mailer) SendVerified(to, name, qrCode string) error {
	if m == nil {
		return nil
	}
	body := fmt.Sprintf("Hi %s,\n\nYour account has been verified. You can now check in at events.\n", name)
	if qrCode != "" {
		body += "\nYour check-in code: " + qrCode + "\n"
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your attendance pass is ready")
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}
	m.log.Debug().Str("to", to).Msg("verification email sent")
	return nil
}
