package services

import (
	"context"
	"fmt"
	"log/slog"

	"substack/internal/amqp"
	"substack/internal/core"
	"substack/internal/metrics"
	"substack/internal/notify"
	"substack/internal/storage"
)

// ReminderMailer renders and sends one reminder email and records the
// outcome as an email reminder log. It serves both the in-process path of
// the reminder job and the notifier worker consuming the AMQP queue.
type ReminderMailer struct {
	store   storage.ReminderStore
	sender  notify.Sender
	metrics *metrics.Metrics
	clock   Clock
}

func NewReminderMailer(store storage.ReminderStore, sender notify.Sender, m *metrics.Metrics, clock Clock) *ReminderMailer {
	if clock == nil {
		clock = SystemClock
	}
	return &ReminderMailer{store: store, sender: sender, metrics: m, clock: clock}
}

// Deliver sends the email described by msg. A provider failure is recorded
// as a failed log and does not return an error; only failing to write the
// log does.
func (m *ReminderMailer) Deliver(ctx context.Context, msg *amqp.ReminderEmailMessage) error {
	entry := core.ReminderLog{
		UserID:         msg.UserID,
		SubscriptionID: msg.SubscriptionID,
		ReminderType:   core.ReminderTypeEmail,
		ScheduledFor:   msg.ScheduledFor,
		Status:         core.ReminderStatusSent,
	}

	email, err := notify.RenderReminder(msg.Email, notify.Reminder{
		SubscriptionName: msg.SubscriptionName,
		Cost:             msg.Cost,
		Currency:         msg.Currency,
		NextBillingDate:  msg.NextBillingDate,
		DaysUntilRenewal: msg.DaysUntilRenewal,
	})
	if err == nil {
		var id string
		id, err = m.sender.Send(ctx, email)
		if err == nil && id != "" {
			entry.EmailID = &id
		}
	}
	if err != nil {
		reason := err.Error()
		entry.Status = core.ReminderStatusFailed
		entry.ErrorMessage = &reason
		slog.WarnContext(ctx, "Reminder email failed",
			"subscription_id", msg.SubscriptionID,
			"user_id", msg.UserID,
			"error", err)
	}

	entry.SentAt = m.clock()
	if err := m.store.CreateReminderLog(ctx, &entry); err != nil {
		return fmt.Errorf("record email reminder: %w", err)
	}
	m.metrics.ReminderProcessed(core.ReminderTypeEmail, entry.Status)
	return nil
}
