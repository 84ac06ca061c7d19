package analytics

import (
	"time"

	"substack/internal/core"
)

// CategoryCost is one category's share of a currency's monthly spend.
type CategoryCost struct {
	Category          string  `json:"category"`
	MonthlyCost       float64 `json:"monthly_cost"`
	SubscriptionCount int     `json:"subscription_count"`
	FreeTrialCount    int     `json:"free_trial_count"`
}

// CurrencyMonthlyCost is the monthly spend of one currency, broken down by category.
type CurrencyMonthlyCost struct {
	Currency            string         `json:"currency"`
	TotalMonthlyCost    float64        `json:"total_monthly_cost"`
	ProjectedYearlyCost float64        `json:"projected_yearly_cost"`
	SubscriptionCount   int            `json:"subscription_count"`
	FreeTrialCount      int            `json:"free_trial_count"`
	Categories          []CategoryCost `json:"categories"`
}

// MonthComparison compares one currency's spend against the preceding month.
// PercentageChange is nil when the previous month had no spend.
type MonthComparison struct {
	Currency          string   `json:"currency"`
	CurrentMonthCost  float64  `json:"current_month_cost"`
	PreviousMonthCost float64  `json:"previous_month_cost"`
	Difference        float64  `json:"difference"`
	PercentageChange  *float64 `json:"percentage_change"`
}

// FreeTrialSubscription lists a free-trial subscription counted in the report.
type FreeTrialSubscription struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Cost         float64           `json:"cost"`
	Currency     string            `json:"currency"`
	Category     *string           `json:"category"`
	BillingCycle core.BillingCycle `json:"billing_cycle"`
}

// MonthlyCostReport is the cost breakdown of one calendar month.
type MonthlyCostReport struct {
	Month                  string                  `json:"month"`
	CalculationDate        time.Time               `json:"calculation_date"`
	CostsByCurrency        []CurrencyMonthlyCost   `json:"costs_by_currency"`
	Comparison             []MonthComparison       `json:"comparison"`
	FreeTrials             []FreeTrialSubscription `json:"free_trials"`
	FreeTrialTotalCount    int                     `json:"free_trial_total_count"`
	TotalSubscriptionCount int                     `json:"total_subscription_count"`
	ActiveCount            int                     `json:"active_count"`
}

// MonthlyReport builds the cost breakdown for month and its comparison with
// the month before.
//
// Only currently active records feed the target month. The previous month
// keeps records cancelled since then, so it reflects what was actually spent.
func MonthlyReport(subs []core.Subscription, month MonthWindow, includeFreeTrials bool, now time.Time) MonthlyCostReport {
	current := Filter(subs, All(ActiveIn(month), CurrentlyActive))
	previous := Filter(subs, All(ActiveIn(month.Previous()), NotDeleted))

	currentAgg := Aggregate(current)
	previousAgg := Aggregate(previous)

	report := MonthlyCostReport{
		Month:                  month.Label(),
		CalculationDate:        now,
		CostsByCurrency:        make([]CurrencyMonthlyCost, 0, len(currentAgg)),
		Comparison:             compareMonths(currentAgg, previousAgg),
		FreeTrials:             []FreeTrialSubscription{},
		TotalSubscriptionCount: len(current),
	}

	for _, agg := range currentAgg {
		report.CostsByCurrency = append(report.CostsByCurrency, currencyMonthlyCost(agg))
	}

	for _, s := range current {
		if !s.WasFreeTrial {
			report.ActiveCount++
			continue
		}
		if includeFreeTrials {
			report.FreeTrialTotalCount++
			report.FreeTrials = append(report.FreeTrials, FreeTrialSubscription{
				ID:           s.ID,
				Name:         s.Name,
				Cost:         s.Cost,
				Currency:     s.Currency,
				Category:     s.Category,
				BillingCycle: s.BillingCycle,
			})
		}
	}

	return report
}

func currencyMonthlyCost(agg CurrencyAggregate) CurrencyMonthlyCost {
	out := CurrencyMonthlyCost{
		Currency:            agg.Currency,
		TotalMonthlyCost:    round2(agg.MonthlyCost),
		ProjectedYearlyCost: round2(agg.MonthlyCost * monthsPerYear),
		SubscriptionCount:   agg.SubscriptionCount,
		FreeTrialCount:      agg.FreeTrialCount,
		Categories:          make([]CategoryCost, 0, len(agg.Categories)),
	}
	for _, cat := range agg.Categories {
		out.Categories = append(out.Categories, CategoryCost{
			Category:          cat.Category,
			MonthlyCost:       round2(cat.MonthlyCost),
			SubscriptionCount: cat.SubscriptionCount,
			FreeTrialCount:    cat.FreeTrialCount,
		})
	}
	return out
}

func compareMonths(current, previous CurrencyAggregates) []MonthComparison {
	currencies := make(map[string]struct{}, len(current)+len(previous))
	for _, agg := range current {
		currencies[agg.Currency] = struct{}{}
	}
	for _, agg := range previous {
		currencies[agg.Currency] = struct{}{}
	}

	out := make([]MonthComparison, 0, len(currencies))
	for _, currency := range sortedKeys(currencies) {
		cur := current.Total(currency)
		prev := previous.Total(currency)
		diff := cur - prev

		cmp := MonthComparison{
			Currency:          currency,
			CurrentMonthCost:  round2(cur),
			PreviousMonthCost: round2(prev),
			Difference:        round2(diff),
		}
		if prev > 0 {
			pct := round2(diff / prev * 100)
			cmp.PercentageChange = &pct
		}
		out = append(out, cmp)
	}
	return out
}
