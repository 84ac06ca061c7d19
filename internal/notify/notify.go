// Package notify renders and delivers renewal reminder emails.
package notify

import (
	"context"
	"log/slog"
)

// DryRunMessageID is returned by the dry-run sender in place of a provider id.
const DryRunMessageID = "dry-run-id"

// Email is a rendered message ready to be handed to a provider.
type Email struct {
	ToAddress string
	ToName    string
	Subject   string
	HTML      string
}

// Sender delivers an email and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

// SenderConfig selects and configures the Sender returned by NewSender.
type SenderConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string
}

// NewSender returns a SendGrid sender, or a dry-run sender when no API key
// is configured.
func NewSender(cfg SenderConfig, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, reminder emails will only be logged")
		return NewDryRunSender(logger)
	}
	return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName, logger)
}

// DryRunSender logs emails instead of sending them.
type DryRunSender struct {
	logger *slog.Logger
}

func NewDryRunSender(logger *slog.Logger) *DryRunSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunSender{logger: logger}
}

func (s *DryRunSender) Send(ctx context.Context, email Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Dry run email",
		"to", email.ToAddress,
		"subject", email.Subject)
	return DryRunMessageID, nil
}
