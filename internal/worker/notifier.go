package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"substack/internal/amqp"
)

var ErrInvalidMessage = errors.New("invalid reminder email message")

// Deliverer sends one reminder email and records the outcome.
type Deliverer interface {
	Deliver(ctx context.Context, msg *amqp.ReminderEmailMessage) error
}

// NotifierWorker handles reminder email messages consumed from AMQP.
type NotifierWorker struct {
	deliverer Deliverer
}

func NewNotifierWorker(deliverer Deliverer) *NotifierWorker {
	return &NotifierWorker{deliverer: deliverer}
}

// HandleReminderEmail delivers a single reminder email message. Malformed
// messages are logged and acknowledged so they do not loop on the queue.
func (w *NotifierWorker) HandleReminderEmail(ctx context.Context, msg *amqp.ReminderEmailMessage) error {
	slog.InfoContext(ctx, "Processing reminder email message",
		"message_id", msg.MessageID,
		"subscription_id", msg.SubscriptionID,
		"user_id", msg.UserID)

	if err := validate(msg); err != nil {
		slog.ErrorContext(ctx, "Dropping reminder email message",
			"message_id", msg.MessageID,
			"error", err)
		return nil
	}

	if err := w.deliverer.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver reminder email: %w", err)
	}

	slog.InfoContext(ctx, "Reminder email handled",
		"message_id", msg.MessageID,
		"subscription_id", msg.SubscriptionID)
	return nil
}

func validate(msg *amqp.ReminderEmailMessage) error {
	switch {
	case msg.SubscriptionID == 0:
		return fmt.Errorf("%w: missing subscription_id", ErrInvalidMessage)
	case msg.UserID == 0:
		return fmt.Errorf("%w: missing user_id", ErrInvalidMessage)
	case msg.Email == "":
		return fmt.Errorf("%w: missing email", ErrInvalidMessage)
	case msg.ScheduledFor.IsZero():
		return fmt.Errorf("%w: missing scheduled_for", ErrInvalidMessage)
	}
	return nil
}
