package identity

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/trackdesk/trackdesk/internal/config"
)

// Mailer delivers identity-related email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to string) error
}

// SMTPMailer sends mail through an SMTP relay. Without a configured
// host it degrades to logging, which keeps local development working.
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPMailer constructs the mailer.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendPasswordReset emails a reset link to the account address.
func (m *SMTPMailer) SendPasswordReset(_ context.Context, to string) error {
	resetURL := fmt.Sprintf("%s?email=%s", m.cfg.ResetBaseURL, to)

	if m.cfg.SMTPHost == "" {
		m.logger.Info("smtp not configured; logging reset email",
			zap.String("to", to),
			zap.String("reset_url", resetURL))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/plain", fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset your password here: %s\n\nIf you did not request this, you can ignore this email.",
		resetURL))

	dialer := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	m.logger.Info("password reset email sent", zap.String("to", to))
	return nil
}
