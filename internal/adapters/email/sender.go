// Package email delivers composed messages through the first configured
// provider: Resend, SendGrid, SMTP, and finally the console for development.
package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Sender delivers one message. It never returns an error: failures are
// reported in the result.
type Sender interface {
	Send(ctx context.Context, msg models.Message) models.SendResult
	GetName() string
}

// Select returns the first configured sender in priority order
func Select(cfg *config.EmailConfig) Sender {
	var s Sender
	switch {
	case cfg.ResendAPIKey != "":
		s = NewResendSender(cfg.ResendAPIKey, cfg.From, "", cfg.Timeout)
	case cfg.SendGridAPIKey != "":
		s = NewSendGridSender(cfg.SendGridAPIKey, cfg.From, "", cfg.Timeout)
	case cfg.SMTPHost != "":
		s = NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		})
	default:
		s = NewConsoleSender()
	}

	logger.Info("email sender selected", zap.String("sender", s.GetName()))
	return s
}
