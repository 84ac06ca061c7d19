package analytics

import (
	"math"
	"time"

	"substack/internal/core"
)

const (
	DefaultForgottenThresholdDays = 30
	MinForgottenThresholdDays     = 1
	MaxForgottenThresholdDays     = 365
)

type ForgottenSubscription struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	MonthlyCost   float64    `json:"monthly_cost"`
	Currency      string     `json:"currency"`
	LastUsedAt    *time.Time `json:"last_used_at"`
	DaysSinceUsed *int       `json:"days_since_used"`
}

type ForgottenSubscriptions struct {
	Subscriptions     []ForgottenSubscription `json:"subscriptions"`
	TotalCount        int                     `json:"total_count"`
	TotalMonthlyWaste map[string]float64      `json:"total_monthly_waste"`
}

// daysSince returns whole days elapsed between t and now, floored.
func daysSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

// usage reports whether s counts as unused at now, along with the days since
// its last recorded use (nil when it was never used).
func usage(s core.Subscription, thresholdDays int, now time.Time) (unused bool, days *int) {
	if s.LastUsedAt == nil {
		return true, nil
	}
	d := daysSince(*s.LastUsedAt, now)
	return d >= thresholdDays, &d
}

// FindForgotten lists currently active subscriptions never used or not used
// for at least thresholdDays.
func FindForgotten(subs []core.Subscription, thresholdDays int, now time.Time) ForgottenSubscriptions {
	out := ForgottenSubscriptions{
		Subscriptions:     []ForgottenSubscription{},
		TotalMonthlyWaste: map[string]float64{},
	}
	waste := make(map[string]float64)

	for _, s := range Filter(subs, CurrentlyActive) {
		unused, days := usage(s, thresholdDays, now)
		if !unused {
			continue
		}
		cost := monthlyCost(s)
		out.Subscriptions = append(out.Subscriptions, ForgottenSubscription{
			ID:            s.ID,
			Name:          s.Name,
			MonthlyCost:   round2(cost),
			Currency:      s.Currency,
			LastUsedAt:    s.LastUsedAt,
			DaysSinceUsed: days,
		})
		waste[s.Currency] += cost
	}

	for currency, total := range waste {
		out.TotalMonthlyWaste[currency] = round2(total)
	}
	out.TotalCount = len(out.Subscriptions)
	return out
}
