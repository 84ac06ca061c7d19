package storage

import (
	"context"
	"errors"
	"time"

	"substack/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Ports implemented by every backend.
type (
	SubscriptionStore interface {
		CreateSubscription(ctx context.Context, s *core.Subscription) error
		// GetSubscription returns the subscription even when soft-deleted.
		GetSubscription(ctx context.Context, userID, id int64) (core.Subscription, error)
		UpdateSubscription(ctx context.Context, s core.Subscription) error
		// ListSubscriptions returns every row matching f, sorted, without pagination.
		ListSubscriptions(ctx context.Context, userID int64, f SubscriptionFilter) ([]core.Subscription, error)
		// AllSubscriptions returns the user's full history, deleted and cancelled included.
		AllSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error)
		// ActiveSubscriptions returns active, non-deleted subscriptions of every user.
		ActiveSubscriptions(ctx context.Context) ([]core.Subscription, error)
		ReassignCategory(ctx context.Context, userID, fromID, toID int64, at time.Time) (int, error)
		CountByCategory(ctx context.Context, userID int64) (map[int64]int, error)
	}

	CategoryStore interface {
		// SeedSystemCategories inserts the missing system categories by name.
		SeedSystemCategories(ctx context.Context, cats []core.Category) error
		// ListCategories returns system categories plus the user's live custom ones,
		// ordered by display order then name.
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
		SystemCategory(ctx context.Context, name string) (core.Category, error)
		CreateCategory(ctx context.Context, c *core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
	}

	ReminderStore interface {
		CreateReminderLog(ctx context.Context, l *core.ReminderLog) error
		// ReminderExists reports whether a log for the subscription and scheduled
		// instant exists, restricted to statuses when any are given.
		ReminderExists(ctx context.Context, subscriptionID int64, scheduledFor time.Time, statuses ...string) (bool, error)
		// ListReminderLogs returns the user's logs, newest first.
		ListReminderLogs(ctx context.Context, userID int64, limit, offset int) ([]core.ReminderLog, error)
		CountReminderLogs(ctx context.Context, userID int64) (int, error)
	}

	UserStore interface {
		// CreateUser fails with ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u *core.User) error
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) error
	}

	Store interface {
		SubscriptionStore
		CategoryStore
		ReminderStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)
