// internal/app/system/mailer/mailer.go
package mailer

import (
	"errors"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Email is a single outgoing message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer sends Email over SMTP. A Mailer with no host logs instead of sending.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, log: log}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	}
	return m
}

// Enabled reports whether SMTP delivery is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.dialer != nil
}

// Send delivers one message.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return errors.New("mailer: empty recipient")
	}
	if !m.Enabled() {
		if m != nil && m.log != nil {
			m.log.Info("mail disabled, dropping message",
				zap.String("to", e.To), zap.String("subject", e.Subject))
		}
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}
	return m.dialer.DialAndSend(msg)
}
