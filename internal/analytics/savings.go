package analytics

import (
	"time"

	"substack/internal/core"
)

// daysPerSavingsMonth approximates a month when counting time since cancellation.
const daysPerSavingsMonth = 30

type CurrencyTotal struct {
	Currency          string  `json:"currency"`
	Total             float64 `json:"total"`
	MonthlyEquivalent float64 `json:"monthly_equivalent"`
}

type EstimatedSavings struct {
	Currency                string  `json:"currency"`
	MonthlyAmount           float64 `json:"monthly_amount"`
	TotalSaved              float64 `json:"total_saved"`
	MonthsSinceCancellation int     `json:"months_since_cancellation"`
}

type CurrencySavings struct {
	Currency                string  `json:"currency"`
	MonthlyAmount           float64 `json:"monthly_amount"`
	TotalSaved              float64 `json:"total_saved"`
	MonthsSinceCancellation float64 `json:"months_since_cancellation"`
}

type SavingsSummary struct {
	SavingsByCurrency []CurrencySavings `json:"savings_by_currency"`
	CancelledCount    int               `json:"cancelled_count"`
}

// TotalsByCurrency sums raw per-period cost and monthly equivalent per currency.
func TotalsByCurrency(subs []core.Subscription) []CurrencyTotal {
	type acc struct{ total, monthly float64 }
	byCurrency := make(map[string]*acc)
	for _, s := range subs {
		a, ok := byCurrency[s.Currency]
		if !ok {
			a = &acc{}
			byCurrency[s.Currency] = a
		}
		a.total += s.Cost
		a.monthly += monthlyCost(s)
	}

	out := make([]CurrencyTotal, 0, len(byCurrency))
	for _, currency := range sortedKeys(byCurrency) {
		a := byCurrency[currency]
		out = append(out, CurrencyTotal{
			Currency:          currency,
			Total:             round2(a.total),
			MonthlyEquivalent: round2(a.monthly),
		})
	}
	return out
}

// MonthsSinceCancellation counts whole 30-day periods since the subscription
// was cancelled, never negative.
func MonthsSinceCancellation(s core.Subscription, now time.Time) int {
	if s.CancelledAt == nil {
		return 0
	}
	months := daysSince(*s.CancelledAt, now) / daysPerSavingsMonth
	if months < 0 {
		return 0
	}
	return months
}

// EstimateSavings reports what a cancelled subscription has saved so far.
func EstimateSavings(s core.Subscription, now time.Time) EstimatedSavings {
	monthly := monthlyCost(s)
	months := MonthsSinceCancellation(s, now)
	return EstimatedSavings{
		Currency:                s.Currency,
		MonthlyAmount:           round2(monthly),
		TotalSaved:              round2(monthly * float64(months)),
		MonthsSinceCancellation: months,
	}
}

// SummarizeSavings aggregates savings over cancelled, paid, non-deleted
// subscriptions. MonthsSinceCancellation is the per-currency average.
func SummarizeSavings(subs []core.Subscription, now time.Time) SavingsSummary {
	cancelled := Filter(subs, func(s core.Subscription) bool {
		return s.Status == core.StatusCancelled && !s.WasFreeTrial && s.DeletedAt == nil
	})

	type acc struct {
		monthly, saved, months float64
		count                  int
	}
	byCurrency := make(map[string]*acc)
	for _, s := range cancelled {
		a, ok := byCurrency[s.Currency]
		if !ok {
			a = &acc{}
			byCurrency[s.Currency] = a
		}
		monthly := monthlyCost(s)
		months := MonthsSinceCancellation(s, now)
		a.monthly += monthly
		a.saved += monthly * float64(months)
		a.months += float64(months)
		a.count++
	}

	out := SavingsSummary{
		SavingsByCurrency: make([]CurrencySavings, 0, len(byCurrency)),
		CancelledCount:    len(cancelled),
	}
	for _, currency := range sortedKeys(byCurrency) {
		a := byCurrency[currency]
		out.SavingsByCurrency = append(out.SavingsByCurrency, CurrencySavings{
			Currency:                currency,
			MonthlyAmount:           round2(a.monthly),
			TotalSaved:              round2(a.saved),
			MonthsSinceCancellation: a.months / float64(a.count),
		})
	}
	return out
}
