package di

import (
	"log/slog"

	"contacts_backend/internal/config"
	"contacts_backend/internal/platform/mail"
)

// NewMailSender returns an SMTP sender when MAIL_SERVER is set and a
// logging stand-in otherwise.
func NewMailSender(cfg config.MailConfig) (mail.Sender, error) {
	if !cfg.Enabled() {
		slog.Warn("MAIL_SERVER not set, emails will only be logged")
		return mail.LogSender{}, nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Server,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	})
}
