package services

import (
	"context"
	"fmt"

	"substack/internal/analytics"
	"substack/internal/core"
	"substack/internal/metrics"
	"substack/internal/storage"
)

// AnalyticsService loads a user's subscription snapshot and runs the
// analytics engine against it with a single reference instant.
type AnalyticsService struct {
	store   storage.SubscriptionStore
	clock   Clock
	metrics *metrics.Metrics
}

func NewAnalyticsService(store storage.SubscriptionStore, clock Clock, m *metrics.Metrics) *AnalyticsService {
	if clock == nil {
		clock = SystemClock
	}
	return &AnalyticsService{store: store, clock: clock, metrics: m}
}

func (s *AnalyticsService) snapshot(ctx context.Context, userID int64) ([]core.Subscription, error) {
	subs, err := s.store.AllSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return subs, nil
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidParameter, name, lo, hi)
	}
	return nil
}

// MonthlyCosts reports the given month, or the current one when month is nil.
func (s *AnalyticsService) MonthlyCosts(ctx context.Context, userID int64, month *analytics.MonthWindow, includeFreeTrials bool) (analytics.MonthlyCostReport, error) {
	defer s.metrics.TimeReport("monthly_costs")()

	subs, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.MonthlyCostReport{}, err
	}
	now := s.clock()
	window := analytics.MonthWindowOf(now)
	if month != nil {
		window = *month
	}
	return analytics.MonthlyReport(subs, window, includeFreeTrials, now), nil
}

func (s *AnalyticsService) Trends(ctx context.Context, userID int64, months int) ([]analytics.SpendingTrend, error) {
	if err := checkRange("months", months, analytics.MinTrendMonths, analytics.MaxTrendMonths); err != nil {
		return nil, err
	}
	defer s.metrics.TimeReport("trends")()

	subs, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.SpendingTrends(subs, months, s.clock()), nil
}

func (s *AnalyticsService) Top(ctx context.Context, userID int64, limit int) ([]analytics.TopSubscriptions, error) {
	if err := checkRange("limit", limit, analytics.MinTopLimit, analytics.MaxTopLimit); err != nil {
		return nil, err
	}
	defer s.metrics.TimeReport("top")()

	subs, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.RankTopSubscriptions(subs, limit), nil
}

func (s *AnalyticsService) Forgotten(ctx context.Context, userID int64, thresholdDays int) (analytics.ForgottenSubscriptions, error) {
	if err := checkRange("threshold_days", thresholdDays, analytics.MinForgottenThresholdDays, analytics.MaxForgottenThresholdDays); err != nil {
		return analytics.ForgottenSubscriptions{}, err
	}
	defer s.metrics.TimeReport("forgotten")()

	subs, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.ForgottenSubscriptions{}, err
	}
	return analytics.FindForgotten(subs, thresholdDays, s.clock()), nil
}

func (s *AnalyticsService) SavingsSuggestions(ctx context.Context, userID int64) (analytics.SavingsSuggestions, error) {
	defer s.metrics.TimeReport("savings_suggestions")()

	subs, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.SavingsSuggestions{}, err
	}
	return analytics.SuggestSavings(subs, analytics.DefaultForgottenThresholdDays, s.clock()), nil
}

// Combined runs every report against the same snapshot.
func (s *AnalyticsService) Combined(ctx context.Context, userID int64) (analytics.SpendingAnalytics, error) {
	defer s.metrics.TimeReport("combined")()

	subs, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.SpendingAnalytics{}, err
	}
	return analytics.Analyze(subs, s.clock()), nil
}
