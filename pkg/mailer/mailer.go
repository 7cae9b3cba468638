package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer delivers out-of-band messages such as password reset links.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer sends mail through an SMTP relay.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
		slog.Info("email sent", "to", to, "subject", subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type logMailer struct{}

// NewLogMailer only logs outgoing mail; used when no SMTP relay is configured.
func NewLogMailer() Mailer {
	return logMailer{}
}

func (logMailer) Send(_ context.Context, to, subject, _ string) error {
	slog.Info("email delivery skipped, no SMTP relay configured", "to", to, "subject", subject)
	return nil
}
