package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"grievance/internal/model"

	"go.uber.org/zap"
)

// Mailer delivers a single HTML email. Implementations offer no retry or
// delivery confirmation; the caller decides whether to await or detach.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("no recipient email provided: %w", model.ErrDelivery)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: \"India Post\" <%s>\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
	}()

	select {
	case err := <-done:
		if err != nil {
			m.log.Error("SMTP send failed", zap.String("to", to), zap.Error(err))
			return fmt.Errorf("smtp send: %v: %w", err, model.ErrDelivery)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %v: %w", ctx.Err(), model.ErrDelivery)
	}
}
