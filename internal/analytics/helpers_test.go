package analytics

import (
	"time"

	"substack/internal/core"
)

// now is the fixed reference instant shared by the analytics tests.
var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type option func(*core.Subscription)

func newSub(id int64, name string, cost float64, currency string, opts ...option) core.Subscription {
	s := core.Subscription{
		ID:                 id,
		UserID:             1,
		Name:               name,
		Cost:               cost,
		Currency:           currency,
		BillingCycle:       core.Monthly,
		NextBillingDate:    core.NewDate(2025, 7, 1),
		ReminderDaysBefore: core.DefaultReminderDaysBefore,
		CreatedAt:          time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt:          time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		Status:             core.StatusActive,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func cycle(c core.BillingCycle) option {
	return func(s *core.Subscription) { s.BillingCycle = c }
}

func category(name string) option {
	return func(s *core.Subscription) { s.Category = &name }
}

func freeTrial() option {
	return func(s *core.Subscription) { s.WasFreeTrial = true }
}

func createdAt(t time.Time) option {
	return func(s *core.Subscription) { s.CreatedAt = t }
}

func cancelledAt(t time.Time) option {
	return func(s *core.Subscription) {
		s.Status = core.StatusCancelled
		s.CancelledAt = &t
	}
}

func deletedAt(t time.Time) option {
	return func(s *core.Subscription) { s.DeletedAt = &t }
}

func usedAt(t time.Time) option {
	return func(s *core.Subscription) { s.LastUsedAt = &t }
}

func usedRecently() option {
	return usedAt(now.AddDate(0, 0, -1))
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}
