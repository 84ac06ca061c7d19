package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/core"
	"substack/internal/storage"
)

func newSubscriptionService(t *testing.T) (*SubscriptionService, *testClock, core.User) {
	t.Helper()
	st := newTestStore(t)
	u := newTestUser(t, st, "ada@example.com", true)
	clk := &testClock{now: testNow}
	return NewSubscriptionService(st, clk.Now, quietLogger()), clk, u
}

func TestSubscriptionService_Create(t *testing.T) {
	svc, _, u := newSubscriptionService(t)
	ctx := context.Background()

	t.Run("applies defaults", func(t *testing.T) {
		sub, err := svc.Create(ctx, u.ID, CreateSubscriptionInput{
			Name:            "  Netflix ",
			Cost:            15.99,
			BillingCycle:    core.Monthly,
			NextBillingDate: core.NewDate(2026, 3, 10),
		})
		require.NoError(t, err)

		assert.NotZero(t, sub.ID)
		assert.Equal(t, "Netflix", sub.Name)
		assert.Equal(t, "USD", sub.Currency)
		assert.Equal(t, core.DefaultReminderDaysBefore, sub.ReminderDaysBefore)
		assert.Equal(t, core.StatusActive, sub.Status)
		assert.Equal(t, testNow, sub.CreatedAt)
	})

	tests := []struct {
		name string
		in   CreateSubscriptionInput
		want error
	}{
		{"past billing date", monthlyInput("Old", 5, core.NewDate(2026, 3, 9)), core.ErrBillingDateInPast},
		{"zero cost", monthlyInput("Free", 0, core.NewDate(2026, 4, 1)), core.ErrInvalidCost},
		{"empty name", monthlyInput(" ", 5, core.NewDate(2026, 4, 1)), core.ErrEmptyName},
		{"missing date", monthlyInput("NoDate", 5, core.Date{}), core.ErrInvalidDate},
		{"bad reminder", func() CreateSubscriptionInput {
			in := monthlyInput("Late", 5, core.NewDate(2026, 4, 1))
			in.ReminderDaysBefore = ptr(31)
			return in
		}(), core.ErrInvalidReminderDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, u.ID, tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsValidationError(err))
		})
	}
}

func TestSubscriptionService_GetExcludesDeletedAndForeign(t *testing.T) {
	svc, _, u := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, u.ID, monthlyInput("Spotify", 9.99, core.NewDate(2026, 4, 1)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, u.ID+100, sub.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, u.ID, sub.ID))
	_, err = svc.Get(ctx, u.ID, sub.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, u.ID, sub.ID), storage.ErrNotFound)
}

func TestSubscriptionService_Update(t *testing.T) {
	svc, clk, u := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, u.ID, monthlyInput("Spotify", 9.99, core.NewDate(2026, 4, 1)))
	require.NoError(t, err)
	created := sub.UpdatedAt

	clk.Advance(time.Minute)
	updated, err := svc.Update(ctx, u.ID, sub.ID, UpdateSubscriptionInput{
		Cost:              ptr(11.99),
		IfUnmodifiedSince: &created,
	})
	require.NoError(t, err)
	assert.Equal(t, 11.99, updated.Cost)
	assert.Equal(t, "Spotify", updated.Name)
	assert.Equal(t, clk.Now(), updated.UpdatedAt)

	t.Run("stale version conflicts", func(t *testing.T) {
		_, err := svc.Update(ctx, u.ID, sub.ID, UpdateSubscriptionInput{
			Name:              ptr("Spotify Duo"),
			IfUnmodifiedSince: &created,
		})
		require.ErrorIs(t, err, storage.ErrConflict)

		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "Subscription was modified by another session", conflict.Msg)
		require.NotNil(t, conflict.CurrentUpdatedAt)
		assert.Equal(t, updated.UpdatedAt, *conflict.CurrentUpdatedAt)
	})

	t.Run("rejects past billing date", func(t *testing.T) {
		_, err := svc.Update(ctx, u.ID, sub.ID, UpdateSubscriptionInput{NextBillingDate: ptr(core.NewDate(2026, 1, 1))})
		assert.ErrorIs(t, err, core.ErrBillingDateInPast)
	})

	t.Run("rejects invalid currency", func(t *testing.T) {
		_, err := svc.Update(ctx, u.ID, sub.ID, UpdateSubscriptionInput{Currency: ptr("XYZ")})
		assert.ErrorIs(t, err, core.ErrUnsupportedCurrency)
	})
}

func TestSubscriptionService_DeleteRestore(t *testing.T) {
	svc, _, u := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, u.ID, monthlyInput("Hulu", 7.99, core.NewDate(2026, 4, 1)))
	require.NoError(t, err)

	_, err = svc.Restore(ctx, u.ID, sub.ID)
	assert.ErrorIs(t, err, ErrNotDeleted)
	assert.True(t, IsStateError(err))

	require.NoError(t, svc.Delete(ctx, u.ID, sub.ID))
	restored, err := svc.Restore(ctx, u.ID, sub.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
}

func TestSubscriptionService_CancelAndReactivate(t *testing.T) {
	svc, clk, u := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, u.ID, monthlyInput("Disney+", 12, core.NewDate(2026, 3, 31)))
	require.NoError(t, err)

	_, err = svc.Reactivate(ctx, u.ID, sub.ID, ReactivateInput{})
	assert.ErrorIs(t, err, ErrNotCancelled)

	res, err := svc.Cancel(ctx, u.ID, sub.ID, CancelInput{Reason: ptr("too expensive")})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, res.Subscription.Status)
	require.NotNil(t, res.Subscription.CancellationEffectiveDate)
	assert.Equal(t, core.NewDate(2026, 3, 31), *res.Subscription.CancellationEffectiveDate)
	assert.Equal(t, 12.0, res.EstimatedSavings.MonthlyAmount)
	assert.Zero(t, res.EstimatedSavings.MonthsSinceCancellation)

	_, err = svc.Cancel(ctx, u.ID, sub.ID, CancelInput{})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	t.Run("rolls a passed billing date forward", func(t *testing.T) {
		clk.now = time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)

		got, err := svc.Reactivate(ctx, u.ID, sub.ID, ReactivateInput{})
		require.NoError(t, err)
		assert.Equal(t, core.StatusActive, got.Status)
		assert.Nil(t, got.CancelledAt)
		assert.Nil(t, got.CancellationReason)
		assert.Nil(t, got.CancellationEffectiveDate)
		assert.Equal(t, core.NewDate(2026, 6, 30), got.NextBillingDate)
	})

	t.Run("explicit date must not be in the past", func(t *testing.T) {
		_, err := svc.Cancel(ctx, u.ID, sub.ID, CancelInput{})
		require.NoError(t, err)

		_, err = svc.Reactivate(ctx, u.ID, sub.ID, ReactivateInput{NextBillingDate: ptr(core.NewDate(2026, 6, 1))})
		assert.ErrorIs(t, err, core.ErrBillingDateInPast)

		got, err := svc.Reactivate(ctx, u.ID, sub.ID, ReactivateInput{NextBillingDate: ptr(core.NewDate(2026, 7, 15))})
		require.NoError(t, err)
		assert.Equal(t, core.NewDate(2026, 7, 15), got.NextBillingDate)
	})
}

func TestSubscriptionService_CancelRejectsLongReason(t *testing.T) {
	svc, _, u := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, u.ID, monthlyInput("Max", 10, core.NewDate(2026, 4, 1)))
	require.NoError(t, err)

	long := make([]rune, core.MaxCancellationReasonLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Cancel(ctx, u.ID, sub.ID, CancelInput{Reason: ptr(string(long))})
	assert.ErrorIs(t, err, core.ErrReasonTooLong)
}

func TestSubscriptionService_MarkUsed(t *testing.T) {
	svc, _, u := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, u.ID, monthlyInput("Gym", 30, core.NewDate(2026, 4, 1)))
	require.NoError(t, err)

	got, err := svc.MarkUsed(ctx, u.ID, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.Equal(t, testNow, *got.LastUsedAt)
}

func TestSubscriptionService_List(t *testing.T) {
	svc, _, u := newSubscriptionService(t)
	ctx := context.Background()

	for i, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := svc.Create(ctx, u.ID, monthlyInput(name, float64(10*(i+1)), core.NewDate(2026, 4, 1+i)))
		require.NoError(t, err)
	}
	eur := monthlyInput("Delta", 5, core.NewDate(2026, 4, 20))
	eur.Currency = "EUR"
	_, err := svc.Create(ctx, u.ID, eur)
	require.NoError(t, err)

	page, err := svc.List(ctx, u.ID, ListSubscriptionsInput{Limit: 2, Offset: 1})
	require.NoError(t, err)

	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bravo", page.Items[0].Name)
	assert.Equal(t, "Charlie", page.Items[1].Name)

	require.Len(t, page.TotalsByCurrency, 2)
	assert.Equal(t, "EUR", page.TotalsByCurrency[0].Currency)
	assert.Equal(t, 60.0, page.TotalsByCurrency[1].Total)

	t.Run("defaults page size", func(t *testing.T) {
		page, err := svc.List(ctx, u.ID, ListSubscriptionsInput{})
		require.NoError(t, err)
		assert.Equal(t, DefaultPageLimit, page.Limit)
		assert.Len(t, page.Items, 4)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.List(ctx, u.ID, ListSubscriptionsInput{Filter: storage.SubscriptionFilter{Status: "paused"}})
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestSubscriptionService_Upcoming(t *testing.T) {
	st := newTestStore(t)
	u := newTestUser(t, st, "ada@example.com", true)
	svc := NewSubscriptionService(st, (&testClock{now: testNow}).Now, quietLogger())
	ctx := context.Background()

	today, err := svc.Create(ctx, u.ID, monthlyInput("Today", 1, core.NewDate(2026, 3, 10)))
	require.NoError(t, err)
	soon, err := svc.Create(ctx, u.ID, monthlyInput("Soon", 2, core.NewDate(2026, 3, 13)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, u.ID, monthlyInput("Later", 3, core.NewDate(2026, 3, 18)))
	require.NoError(t, err)

	require.NoError(t, st.CreateReminderLog(ctx, &core.ReminderLog{
		UserID:         u.ID,
		SubscriptionID: soon.ID,
		ReminderType:   core.ReminderTypeEmail,
		ScheduledFor:   soon.NextBillingDate.Time,
		SentAt:         testNow,
		Status:         core.ReminderStatusSent,
	}))

	list, err := svc.Upcoming(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 2, list.TotalCount)
	assert.Equal(t, today.ID, list.Items[0].ID)
	assert.Equal(t, 0, list.Items[0].DaysUntilRenewal)
	assert.False(t, list.Items[0].ReminderSent)
	assert.Equal(t, 3, list.Items[1].DaysUntilRenewal)
	assert.True(t, list.Items[1].ReminderSent)

	list, err = svc.Upcoming(ctx, u.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalCount)

	_, err = svc.Upcoming(ctx, u.ID, 91)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSubscriptionService_SavingsSummary(t *testing.T) {
	svc, clk, u := newSubscriptionService(t)
	ctx := context.Background()

	paid, err := svc.Create(ctx, u.ID, monthlyInput("Paid", 10, core.NewDate(2026, 4, 1)))
	require.NoError(t, err)
	trial := monthlyInput("Trial", 20, core.NewDate(2026, 4, 1))
	trial.WasFreeTrial = true
	tr, err := svc.Create(ctx, u.ID, trial)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, u.ID, paid.ID, CancelInput{})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, u.ID, tr.ID, CancelInput{})
	require.NoError(t, err)

	clk.Advance(61 * 24 * time.Hour)
	summary, err := svc.SavingsSummary(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CancelledCount)
	require.Len(t, summary.SavingsByCurrency, 1)
	assert.Equal(t, 20.0, summary.SavingsByCurrency[0].TotalSaved)
	assert.Equal(t, 2.0, summary.SavingsByCurrency[0].MonthsSinceCancellation)
}

func TestNewSubscriptionService_NilLogger(t *testing.T) {
	st := newTestStore(t)
	u := newTestUser(t, st, "grace@example.com", false)
	clk := &testClock{now: testNow}
	svc := NewSubscriptionService(st, clk.Now, nil)

	sub, err := svc.Create(context.Background(), u.ID, CreateSubscriptionInput{
		Name:            "Spotify",
		Cost:            9.99,
		BillingCycle:    core.Monthly,
		NextBillingDate: core.NewDate(2026, 4, 1),
	})
	require.NoError(t, err)
	assert.NotZero(t, sub.ID)
}
