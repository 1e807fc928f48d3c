// Package email sends transactional email to counselors over SMTP.
package email

import (
	"context"
	"fmt"

	"admissions_portal_backend/platform/config"
	"admissions_portal_backend/platform/logger"

	"github.com/wneessen/go-mail"
)

// Sender delivers notification emails.
type Sender interface {
	SendNotification(ctx context.Context, to, name, subject, title, message string) error
}

// SMTPSender implements Sender with wneessen/go-mail.
type SMTPSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

// NewSMTPSender creates an SMTP sender from configuration.
func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

// Compile-time check that SMTPSender implements Sender.
var _ Sender = (*SMTPSender)(nil)

// SendNotification sends one notification email. A new SMTP connection is
// opened per message; volume is low enough that pooling is not worth it.
func (s *SMTPSender) SendNotification(ctx context.Context, to, name, subject, title, message string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("set email sender: %w", err)
	}
	if err := msg.AddToFormat(name, to); err != nil {
		return fmt.Errorf("set email recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, renderBody(name, title, message))

	client, err := mail.NewClient(s.cfg.GetSMTPHost(),
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.GetSMTPUsername()),
		mail.WithPassword(s.cfg.GetSMTPPassword()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer client.Close()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// NopSender drops every email. Used when email delivery is disabled.
type NopSender struct {
	log *logger.Logger
}

// NewNopSender creates a sender that logs instead of delivering.
func NewNopSender(log *logger.Logger) *NopSender {
	return &NopSender{log: log}
}

// Compile-time check that NopSender implements Sender.
var _ Sender = (*NopSender)(nil)

// SendNotification logs the email and drops it.
func (s *NopSender) SendNotification(_ context.Context, to, _, subject, _, _ string) error {
	s.log.Info("email delivery disabled, dropping message", "to", to, "subject", subject)
	return nil
}

func renderBody(name, title, message string) string {
	return fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n\nOpen the portal to act on this.\n", name, title, message)
}
