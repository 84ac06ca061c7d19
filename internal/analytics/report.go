package analytics

import (
	"time"

	"substack/internal/core"
)

type SpendingAnalytics struct {
	TrendsByCurrency           []SpendingTrend        `json:"trends_by_currency"`
	TopSubscriptionsByCurrency []TopSubscriptions     `json:"top_subscriptions_by_currency"`
	ForgottenSubscriptions     ForgottenSubscriptions `json:"forgotten_subscriptions"`
	SavingsSuggestions         SavingsSuggestions     `json:"savings_suggestions"`
	GeneratedAt                time.Time              `json:"generated_at"`
}

// Analyze runs every spending report with default parameters against one
// snapshot and one reference instant.
func Analyze(subs []core.Subscription, now time.Time) SpendingAnalytics {
	return SpendingAnalytics{
		TrendsByCurrency:           SpendingTrends(subs, DefaultTrendMonths, now),
		TopSubscriptionsByCurrency: RankTopSubscriptions(subs, DefaultTopLimit),
		ForgottenSubscriptions:     FindForgotten(subs, DefaultForgottenThresholdDays, now),
		SavingsSuggestions:         SuggestSavings(subs, DefaultForgottenThresholdDays, now),
		GeneratedAt:                now,
	}
}
