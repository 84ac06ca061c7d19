package analytics

import (
	"sort"

	"substack/internal/core"
)

const (
	DefaultTopLimit = 5
	MinTopLimit     = 1
	MaxTopLimit     = 20
)

type RankedSubscription struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	MonthlyCost       float64 `json:"monthly_cost"`
	Currency          string  `json:"currency"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

// TopSubscriptions lists the most expensive subscriptions of one currency.
// TotalMonthlyCost covers every active subscription in the currency, not only the listed ones.
type TopSubscriptions struct {
	Currency         string               `json:"currency"`
	Subscriptions    []RankedSubscription `json:"subscriptions"`
	TotalMonthlyCost float64              `json:"total_monthly_cost"`
}

type costed struct {
	sub  core.Subscription
	cost float64
}

func groupByCurrency(subs []core.Subscription) (map[string][]costed, map[string]float64) {
	groups := make(map[string][]costed)
	totals := make(map[string]float64)
	for _, s := range subs {
		c := monthlyCost(s)
		groups[s.Currency] = append(groups[s.Currency], costed{sub: s, cost: c})
		totals[s.Currency] += c
	}
	return groups, totals
}

// RankTopSubscriptions returns, per currency, the limit most expensive currently
// active subscriptions. Ties keep input order.
func RankTopSubscriptions(subs []core.Subscription, limit int) []TopSubscriptions {
	groups, totals := groupByCurrency(Filter(subs, CurrentlyActive))

	out := make([]TopSubscriptions, 0, len(groups))
	for _, currency := range sortedKeys(groups) {
		items := groups[currency]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].cost > items[j].cost
		})
		if limit >= 0 && len(items) > limit {
			items = items[:limit]
		}

		total := totals[currency]
		ranked := make([]RankedSubscription, 0, len(items))
		for _, it := range items {
			var pct float64
			if total > 0 {
				pct = round2(it.cost / total * 100)
			}
			ranked = append(ranked, RankedSubscription{
				ID:                it.sub.ID,
				Name:              it.sub.Name,
				MonthlyCost:       round2(it.cost),
				Currency:          currency,
				PercentageOfTotal: pct,
			})
		}
		out = append(out, TopSubscriptions{
			Currency:         currency,
			Subscriptions:    ranked,
			TotalMonthlyCost: round2(total),
		})
	}
	return out
}
