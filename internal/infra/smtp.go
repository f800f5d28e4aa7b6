package infra

import (
	"fmt"
	"net/smtp"

	"swiftaza/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// Mailer sends plain-text mail over SMTP. Every send goes through the
// breaker so a dead relay fails fast instead of tying up workers.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	breaker  *CircuitBreaker
}

func NewMailer(cfg *config.Config, breaker *CircuitBreaker) *Mailer {
	from := cfg.MailSender
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  breaker,
	}
}

// Enabled is false when no SMTP host is configured; Send then only logs.
func (m *Mailer) Enabled() bool { return m.host != "" }

func (m *Mailer) Breaker() *CircuitBreaker { return m.breaker }

// Send delivers one message. html may be empty.
func (m *Mailer) Send(to, subject, text, html string) error {
	if !m.Enabled() {
		log.Warn().Str("to", to).Str("subject", subject).Msg("mailer: SMTP_HOST empty, message dropped")
		return nil
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(text)
	if html != "" {
		e.HTML = []byte(html)
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	send := func() error { return e.Send(m.addr, auth) }
	if m.breaker == nil {
		return send()
	}
	return m.breaker.Execute(send)
}
