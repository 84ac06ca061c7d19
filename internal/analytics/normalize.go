// Package analytics computes spend reports over an in-memory snapshot of
// subscriptions. Every function is pure: callers fetch the records and pass
// the reference instant explicitly.
package analytics

import (
	"log/slog"

	"substack/internal/core"
)

const (
	weeksPerYear  = 52
	monthsPerYear = 12
)

// MonthlyEquivalent converts a per-period cost to its monthly equivalent.
// Unknown cycles are treated as monthly.
func MonthlyEquivalent(cost float64, cycle core.BillingCycle) float64 {
	switch cycle {
	case core.Weekly:
		return cost * weeksPerYear / monthsPerYear
	case core.Monthly:
		return cost
	case core.Quarterly:
		return cost / 3
	case core.Yearly:
		return cost / monthsPerYear
	default:
		slog.Warn("Unrecognized billing cycle, treating as monthly", "billing_cycle", string(cycle))
		return cost
	}
}

func monthlyCost(s core.Subscription) float64 {
	return MonthlyEquivalent(s.Cost, s.BillingCycle)
}

func round2(v float64) float64 {
	return core.Round2(v)
}
