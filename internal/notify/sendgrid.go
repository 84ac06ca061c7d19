package notify

import (
	"context"
	"fmt"
	"log/slog"

	sendgridgo "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client     *sendgridgo.Client
	sender     string
	senderName string
	logger     *slog.Logger
}

func NewSendGridSender(apiKey, sender, senderName string, logger *slog.Logger) *SendGridSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridSender{
		client:     sendgridgo.NewSendClient(apiKey),
		sender:     sender,
		senderName: senderName,
		logger:     logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, email Email) (string, error) {
	from := mail.NewEmail(s.senderName, s.sender)
	toName := email.ToName
	if toName == "" {
		toName = email.ToAddress
	}
	to := mail.NewEmail(toName, email.ToAddress)

	message := mail.NewSingleEmail(from, email.Subject, to, "", email.HTML)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Send email error", "to", email.ToAddress, "error", err)
		return "", fmt.Errorf("send email: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.ErrorContext(ctx, "Send email rejected",
			"to", email.ToAddress,
			"status_code", resp.StatusCode,
			"response", resp.Body)
		return "", fmt.Errorf("send email: provider returned status %d", resp.StatusCode)
	}

	var messageID string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	s.logger.InfoContext(ctx, "Email sent", "to", email.ToAddress, "message_id", messageID)
	return messageID, nil
}
