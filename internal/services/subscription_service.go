package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"substack/internal/analytics"
	"substack/internal/core"
	applog "substack/internal/log"
	"substack/internal/storage"
)

const (
	DefaultUpcomingDays = 7
	MinUpcomingDays     = 1
	MaxUpcomingDays     = 90
)

// SubscriptionService implements the subscription lifecycle on top of a store.
type SubscriptionService struct {
	store      storage.Store
	clock      Clock
	events     *applog.StructuredLogger
	categories categoryInvalidator
}

// categoryInvalidator drops cached per-user category listings, whose
// subscription counts go stale on subscription writes.
type categoryInvalidator interface {
	Invalidate(userID int64)
}

func NewSubscriptionService(store storage.Store, clock Clock, logger *applog.Logger) *SubscriptionService {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SubscriptionService{
		store:  store,
		clock:  clock,
		events: applog.NewStructuredLogger(logger.WithComponent(applog.ComponentSubscription)),
	}
}

type (
	CreateSubscriptionInput struct {
		Name               string            `json:"name"`
		Cost               float64           `json:"cost"`
		Currency           string            `json:"currency"`
		BillingCycle       core.BillingCycle `json:"billing_cycle"`
		NextBillingDate    core.Date         `json:"next_billing_date"`
		Category           *string           `json:"category"`
		CategoryID         *int64            `json:"category_id"`
		ReminderDaysBefore *int              `json:"reminder_days_before"`
		WasFreeTrial       bool              `json:"was_free_trial"`
	}

	// UpdateSubscriptionInput is a partial update; nil fields are left alone.
	UpdateSubscriptionInput struct {
		Name               *string            `json:"name"`
		Cost               *float64           `json:"cost"`
		Currency           *string            `json:"currency"`
		BillingCycle       *core.BillingCycle `json:"billing_cycle"`
		NextBillingDate    *core.Date         `json:"next_billing_date"`
		Category           *string            `json:"category"`
		CategoryID         *int64             `json:"category_id"`
		ReminderDaysBefore *int               `json:"reminder_days_before"`
		// IfUnmodifiedSince enables optimistic locking when set.
		IfUnmodifiedSince *time.Time `json:"-"`
	}

	CancelInput struct {
		Reason        *string    `json:"reason"`
		EffectiveDate *core.Date `json:"effective_date"`
	}

	ReactivateInput struct {
		NextBillingDate *core.Date `json:"next_billing_date"`
	}

	CancellationResult struct {
		Subscription     core.Subscription          `json:"subscription"`
		EstimatedSavings analytics.EstimatedSavings `json:"estimated_savings"`
	}

	ListSubscriptionsInput struct {
		Filter storage.SubscriptionFilter
		Limit  int
		Offset int
	}

	SubscriptionPage struct {
		Items            []core.Subscription       `json:"items"`
		TotalCount       int                       `json:"total_count"`
		Offset           int                       `json:"offset"`
		Limit            int                       `json:"limit"`
		TotalsByCurrency []analytics.CurrencyTotal `json:"totals_by_currency"`
	}

	UpcomingSubscription struct {
		ID               int64     `json:"id"`
		Name             string    `json:"name"`
		Cost             float64   `json:"cost"`
		Currency         string    `json:"currency"`
		NextBillingDate  core.Date `json:"next_billing_date"`
		DaysUntilRenewal int       `json:"days_until_renewal"`
		ReminderSent     bool      `json:"reminder_sent"`
	}

	UpcomingList struct {
		Items      []UpcomingSubscription `json:"items"`
		TotalCount int                    `json:"total_count"`
	}
)

// SetCategoryCache registers the category listing cache to invalidate on writes.
func (s *SubscriptionService) SetCategoryCache(c categoryInvalidator) {
	s.categories = c
}

func (s *SubscriptionService) today() core.Date {
	return core.DateOf(s.clock())
}

func (s *SubscriptionService) notInPast(d core.Date) error {
	if d.Before(s.today().Time) {
		return core.ErrBillingDateInPast
	}
	return nil
}

// Create validates and stores a new active subscription for userID.
func (s *SubscriptionService) Create(ctx context.Context, userID int64, in CreateSubscriptionInput) (core.Subscription, error) {
	now := s.clock()

	if in.Currency == "" {
		in.Currency = "USD"
	}
	reminder := core.DefaultReminderDaysBefore
	if in.ReminderDaysBefore != nil {
		reminder = *in.ReminderDaysBefore
	}
	if in.NextBillingDate.IsZero() {
		return core.Subscription{}, fmt.Errorf("%w: next_billing_date is required", core.ErrInvalidDate)
	}
	if err := s.notInPast(in.NextBillingDate); err != nil {
		return core.Subscription{}, err
	}

	sub := core.Subscription{
		UserID:             userID,
		Name:               strings.TrimSpace(in.Name),
		Cost:               in.Cost,
		Currency:           in.Currency,
		BillingCycle:       in.BillingCycle,
		NextBillingDate:    in.NextBillingDate,
		Category:           in.Category,
		CategoryID:         in.CategoryID,
		ReminderDaysBefore: reminder,
		CreatedAt:          now,
		UpdatedAt:          now,
		Status:             core.StatusActive,
		WasFreeTrial:       in.WasFreeTrial,
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.CreateSubscription(ctx, &sub); err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	s.logEvent(ctx, applog.OpCreate, sub)
	return sub, nil
}

// Get returns a live (not soft-deleted) subscription.
func (s *SubscriptionService) Get(ctx context.Context, userID, id int64) (core.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	if sub.IsDeleted() {
		return core.Subscription{}, fmt.Errorf("subscription %d was deleted: %w", id, storage.ErrNotFound)
	}
	return sub, nil
}

// Update applies a partial update. When IfUnmodifiedSince is set and the stored
// version is newer, it fails with a *ConflictError carrying the current timestamp.
func (s *SubscriptionService) Update(ctx context.Context, userID, id int64, in UpdateSubscriptionInput) (core.Subscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, err
	}

	if in.IfUnmodifiedSince != nil && sub.UpdatedAt.Truncate(time.Microsecond).After(*in.IfUnmodifiedSince) {
		current := sub.UpdatedAt
		return core.Subscription{}, &ConflictError{
			Msg:              "Subscription was modified by another session",
			CurrentUpdatedAt: &current,
		}
	}

	if in.Name != nil {
		sub.Name = strings.TrimSpace(*in.Name)
	}
	if in.Cost != nil {
		sub.Cost = *in.Cost
	}
	if in.Currency != nil {
		sub.Currency = *in.Currency
	}
	if in.BillingCycle != nil {
		sub.BillingCycle = *in.BillingCycle
	}
	if in.NextBillingDate != nil {
		if err := s.notInPast(*in.NextBillingDate); err != nil {
			return core.Subscription{}, err
		}
		sub.NextBillingDate = *in.NextBillingDate
	}
	if in.Category != nil {
		sub.Category = in.Category
	}
	if in.CategoryID != nil {
		sub.CategoryID = in.CategoryID
	}
	if in.ReminderDaysBefore != nil {
		sub.ReminderDaysBefore = *in.ReminderDaysBefore
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	return s.save(ctx, sub, applog.OpUpdate)
}

// Delete soft-deletes a live subscription.
func (s *SubscriptionService) Delete(ctx context.Context, userID, id int64) error {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	now := s.clock()
	sub.DeletedAt = &now
	_, err = s.save(ctx, sub, applog.OpDelete)
	return err
}

// Restore clears the soft-delete marker.
func (s *SubscriptionService) Restore(ctx context.Context, userID, id int64) (core.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	if !sub.IsDeleted() {
		return core.Subscription{}, ErrNotDeleted
	}
	sub.DeletedAt = nil
	return s.save(ctx, sub, applog.OpRestore)
}

// Cancel marks an active subscription cancelled. The effective date defaults
// to the next billing date.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, id int64, in CancelInput) (CancellationResult, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return CancellationResult{}, err
	}
	if sub.Status == core.StatusCancelled {
		return CancellationResult{}, ErrAlreadyCancelled
	}
	if in.Reason != nil && len([]rune(*in.Reason)) > core.MaxCancellationReasonLength {
		return CancellationResult{}, core.ErrReasonTooLong
	}

	now := s.clock()
	effective := sub.NextBillingDate
	if in.EffectiveDate != nil {
		effective = *in.EffectiveDate
	}
	sub.Status = core.StatusCancelled
	sub.CancelledAt = &now
	sub.CancellationReason = in.Reason
	sub.CancellationEffectiveDate = &effective

	sub, err = s.save(ctx, sub, applog.OpCancel)
	if err != nil {
		return CancellationResult{}, err
	}
	return CancellationResult{
		Subscription:     sub,
		EstimatedSavings: analytics.EstimateSavings(sub, now),
	}, nil
}

// Reactivate returns a cancelled subscription to active. Without a new billing
// date, a date that has already passed is rolled forward by whole cycles.
func (s *SubscriptionService) Reactivate(ctx context.Context, userID, id int64, in ReactivateInput) (core.Subscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, err
	}
	if sub.Status != core.StatusCancelled {
		return core.Subscription{}, ErrNotCancelled
	}

	if in.NextBillingDate != nil {
		if err := s.notInPast(*in.NextBillingDate); err != nil {
			return core.Subscription{}, err
		}
		sub.NextBillingDate = *in.NextBillingDate
	} else {
		next, err := RollForward(sub.NextBillingDate, sub.BillingCycle, s.today())
		if err != nil {
			return core.Subscription{}, err
		}
		sub.NextBillingDate = next
	}

	sub.Status = core.StatusActive
	sub.CancelledAt = nil
	sub.CancellationReason = nil
	sub.CancellationEffectiveDate = nil
	return s.save(ctx, sub, applog.OpReactivate)
}

// MarkUsed records that the user used the subscription now.
func (s *SubscriptionService) MarkUsed(ctx context.Context, userID, id int64) (core.Subscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, err
	}
	now := s.clock()
	sub.LastUsedAt = &now
	return s.save(ctx, sub, applog.OpUpdate)
}

// List returns one page of the filtered subscriptions. Totals cover every
// filtered row, not only the page.
func (s *SubscriptionService) List(ctx context.Context, userID int64, in ListSubscriptionsInput) (SubscriptionPage, error) {
	filter, err := in.Filter.Normalize()
	if err != nil {
		return SubscriptionPage{}, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	filter.IncludeDeleted = false

	subs, err := s.store.ListSubscriptions(ctx, userID, filter)
	if err != nil {
		return SubscriptionPage{}, fmt.Errorf("list subscriptions: %w", err)
	}

	limit, offset := pageBounds(in.Limit, in.Offset)
	return SubscriptionPage{
		Items:            paginate(subs, limit, offset),
		TotalCount:       len(subs),
		Offset:           offset,
		Limit:            limit,
		TotalsByCurrency: analytics.TotalsByCurrency(subs),
	}, nil
}

// Upcoming lists active subscriptions renewing within days from today,
// soonest first.
func (s *SubscriptionService) Upcoming(ctx context.Context, userID int64, days int) (UpcomingList, error) {
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < MinUpcomingDays || days > MaxUpcomingDays {
		return UpcomingList{}, fmt.Errorf("%w: days must be between %d and %d", ErrInvalidParameter, MinUpcomingDays, MaxUpcomingDays)
	}

	subs, err := s.store.ListSubscriptions(ctx, userID, storage.SubscriptionFilter{
		Status: storage.StatusFilterActive,
		Sort:   storage.SortNextBillingDate,
		Order:  storage.OrderAsc,
	})
	if err != nil {
		return UpcomingList{}, fmt.Errorf("list upcoming subscriptions: %w", err)
	}

	today := s.today()
	horizon := today.AddDays(days)
	out := UpcomingList{Items: []UpcomingSubscription{}}
	for _, sub := range subs {
		if sub.NextBillingDate.Before(today.Time) || sub.NextBillingDate.After(horizon.Time) {
			continue
		}
		sent, err := s.store.ReminderExists(ctx, sub.ID, sub.NextBillingDate.Time, core.ReminderStatusSent)
		if err != nil {
			return UpcomingList{}, fmt.Errorf("check reminder for subscription %d: %w", sub.ID, err)
		}
		out.Items = append(out.Items, UpcomingSubscription{
			ID:               sub.ID,
			Name:             sub.Name,
			Cost:             sub.Cost,
			Currency:         sub.Currency,
			NextBillingDate:  sub.NextBillingDate,
			DaysUntilRenewal: today.DaysUntil(sub.NextBillingDate),
			ReminderSent:     sent,
		})
	}
	out.TotalCount = len(out.Items)
	return out, nil
}

// SavingsSummary reports what cancelled subscriptions have saved so far.
func (s *SubscriptionService) SavingsSummary(ctx context.Context, userID int64) (analytics.SavingsSummary, error) {
	subs, err := s.store.AllSubscriptions(ctx, userID)
	if err != nil {
		return analytics.SavingsSummary{}, fmt.Errorf("load subscriptions: %w", err)
	}
	return analytics.SummarizeSavings(subs, s.clock()), nil
}

func (s *SubscriptionService) save(ctx context.Context, sub core.Subscription, op string) (core.Subscription, error) {
	sub.UpdatedAt = s.clock()
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Subscription{}, err
		}
		s.events.LogError(ctx, "Failed to save subscription", err, applog.ComponentSubscription, op,
			applog.NewFields().WithUser(sub.UserID))
		return core.Subscription{}, fmt.Errorf("%s subscription: %w", op, err)
	}
	s.logEvent(ctx, op, sub)
	return sub, nil
}

func (s *SubscriptionService) logEvent(ctx context.Context, op string, sub core.Subscription) {
	if s.categories != nil {
		s.categories.Invalidate(sub.UserID)
	}
	s.events.LogSubscriptionEvent(ctx, op, sub.UserID, sub.ID, sub.Name, sub.Currency, string(sub.BillingCycle))
}
