package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"regexp"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@([a-zA-Z0-9-]+\.)+[a-zA-Z0-9]{2,}$`)

// Mailer delivers notifications over SMTP. Recipient-facing messages are
// debounced per (recipient, subject); operator alerts to the admin address go
// out immediately.
type Mailer struct {
	host       string
	port       string
	username   string
	password   string
	from       string
	adminEmail string
	logger     *slog.Logger

	debouncer *Debouncer

	// send is swappable for tests; defaults to SMTP delivery.
	send func(to, subject, body string) error
}

// MailerConfig carries SMTP settings for the mailer.
type MailerConfig struct {
	Host       string
	Port       string
	Username   string
	Password   string
	From       string
	AdminEmail string
}

// NewMailer constructs an SMTP-backed mailer.
func NewMailer(cfg MailerConfig, logger *slog.Logger) *Mailer {
	m := &Mailer{
		host:       cfg.Host,
		port:       cfg.Port,
		username:   cfg.Username,
		password:   cfg.Password,
		from:       cfg.From,
		adminEmail: cfg.AdminEmail,
		logger:     logger,
	}
	m.send = m.sendSMTP
	m.debouncer = NewDebouncer(func(destination, subject, body string) {
		wrapped := "Hello,\n\n" + body + "\n\nThank you"
		if err := m.send(destination, subject, wrapped); err != nil {
			m.logger.Error("send email", "to", destination, "error", err)
		}
	})
	return m
}

// Debouncer exposes the flush scheduler, primarily so tests can shorten intervals.
func (m *Mailer) Debouncer() *Debouncer {
	return m.debouncer
}

// Send delivers or schedules one message.
func (m *Mailer) Send(_ context.Context, message Message) error {
	if message.Destination == m.adminEmail && m.adminEmail != "" {
		if err := m.send(message.Destination, message.Subject, message.Body); err != nil {
			m.logger.Error("send admin email", "error", err)
			return err
		}
		return nil
	}

	if !emailPattern.MatchString(message.Destination) {
		m.logger.Debug("dropping email to invalid address", "to", message.Destination)
		return nil
	}

	m.debouncer.Enqueue(message.Destination, message.Subject, message.Body)
	return nil
}

func (m *Mailer) sendSMTP(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
