package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"substack/internal/amqp"
	"substack/internal/core"
	"substack/internal/metrics"
	"substack/internal/storage"
)

const emailDisabledReason = "User has email notifications disabled"

// ReminderPublisher hands reminder emails to the notifier worker.
type ReminderPublisher interface {
	PublishReminderEmail(ctx context.Context, msg *amqp.ReminderEmailMessage) error
}

// ReminderRunStats summarizes one reminder run.
type ReminderRunStats struct {
	Checked  int
	Reminded int
	Skipped  int
	Failed   int
}

// ReminderProcessor creates renewal reminders for subscriptions whose next
// billing date is exactly their reminder lead time away.
type ReminderProcessor struct {
	store     storage.Store
	publisher ReminderPublisher
	mailer    *ReminderMailer
	metrics   *metrics.Metrics
}

// NewReminderProcessor creates a processor. With a publisher, emails are queued
// for the notifier worker; without one they go through mailer directly.
func NewReminderProcessor(store storage.Store, publisher ReminderPublisher, mailer *ReminderMailer, m *metrics.Metrics) *ReminderProcessor {
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
		mailer:    mailer,
		metrics:   m,
	}
}

// ProcessDueReminders runs one pass at now. A failure on one subscription is
// logged and counted without stopping the run.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, now time.Time) (ReminderRunStats, error) {
	var stats ReminderRunStats
	if p.store == nil || (p.publisher == nil && p.mailer == nil) {
		return stats, fmt.Errorf("processor not properly initialized")
	}

	subs, err := p.store.ActiveSubscriptions(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get active subscriptions: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing renewal reminders",
		"total_active", len(subs),
		"processing_date", today.String())

	users := make(map[int64]*core.User)
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Checked++

		if today.DaysUntil(sub.NextBillingDate) != sub.ReminderDaysBefore {
			continue
		}

		user, err := p.owner(ctx, users, sub.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			stats.Failed++
			slog.ErrorContext(ctx, "Failed to load subscription owner",
				"subscription_id", sub.ID,
				"user_id", sub.UserID,
				"error", err)
			continue
		}

		sent, err := p.remind(ctx, sub, user, today, now)
		if err != nil {
			stats.Failed++
			slog.ErrorContext(ctx, "Failed to process reminder",
				"subscription_id", sub.ID,
				"error", err)
			continue
		}
		if sent {
			stats.Reminded++
		} else {
			stats.Skipped++
		}
	}

	slog.InfoContext(ctx, "Renewal reminder processing complete",
		"checked", stats.Checked,
		"reminded", stats.Reminded,
		"already_reminded", stats.Skipped,
		"failed", stats.Failed)

	return stats, nil
}

func (p *ReminderProcessor) owner(ctx context.Context, cache map[int64]*core.User, userID int64) (*core.User, error) {
	if u, ok := cache[userID]; ok {
		return u, nil
	}
	u, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache[userID] = &u
	return &u, nil
}

// remind writes the reminder logs for one due subscription. It returns false
// when a reminder for this billing date already exists.
func (p *ReminderProcessor) remind(ctx context.Context, sub core.Subscription, user *core.User, today core.Date, now time.Time) (bool, error) {
	scheduledFor := sub.NextBillingDate.Time

	exists, err := p.store.ReminderExists(ctx, sub.ID, scheduledFor)
	if err != nil {
		return false, fmt.Errorf("check existing reminder: %w", err)
	}
	if exists {
		slog.DebugContext(ctx, "Reminder already exists",
			"subscription_id", sub.ID,
			"scheduled_for", scheduledFor)
		return false, nil
	}

	inApp := core.ReminderLog{
		UserID:         user.ID,
		SubscriptionID: sub.ID,
		ReminderType:   core.ReminderTypeInApp,
		ScheduledFor:   scheduledFor,
		SentAt:         now,
		Status:         core.ReminderStatusSent,
	}
	if err := p.store.CreateReminderLog(ctx, &inApp); err != nil {
		return false, fmt.Errorf("record in-app reminder: %w", err)
	}
	p.metrics.ReminderProcessed(core.ReminderTypeInApp, core.ReminderStatusSent)

	if !user.EmailNotificationsEnabled {
		reason := emailDisabledReason
		skipped := core.ReminderLog{
			UserID:         user.ID,
			SubscriptionID: sub.ID,
			ReminderType:   core.ReminderTypeEmail,
			ScheduledFor:   scheduledFor,
			SentAt:         now,
			Status:         core.ReminderStatusSkipped,
			ErrorMessage:   &reason,
		}
		if err := p.store.CreateReminderLog(ctx, &skipped); err != nil {
			return false, fmt.Errorf("record skipped email reminder: %w", err)
		}
		p.metrics.ReminderProcessed(core.ReminderTypeEmail, core.ReminderStatusSkipped)
		return true, nil
	}

	msg := amqp.NewReminderEmailMessage(amqp.ReminderEmailMessage{
		UserID:           user.ID,
		SubscriptionID:   sub.ID,
		Email:            user.Email,
		SubscriptionName: sub.Name,
		Cost:             sub.Cost,
		Currency:         sub.Currency,
		DaysUntilRenewal: today.DaysUntil(sub.NextBillingDate),
		NextBillingDate:  sub.NextBillingDate.String(),
		ScheduledFor:     scheduledFor,
	})

	if p.publisher != nil {
		if err := p.publisher.PublishReminderEmail(ctx, msg); err == nil {
			return true, nil
		} else if p.mailer == nil {
			return true, fmt.Errorf("publish reminder email: %w", err)
		} else {
			slog.WarnContext(ctx, "Failed to publish reminder email, sending directly",
				"subscription_id", sub.ID,
				"error", err)
		}
	}

	if err := p.mailer.Deliver(ctx, msg); err != nil {
		return true, err
	}
	return true, nil
}
