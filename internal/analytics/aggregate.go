package analytics

import (
	"sort"

	"substack/internal/core"
)

// CategoryAggregate holds unrounded figures for one category within a currency.
type CategoryAggregate struct {
	Category          string
	MonthlyCost       float64 // paid subscriptions only
	SubscriptionCount int     // includes free trials
	FreeTrialCount    int
}

// CurrencyAggregate holds unrounded figures for one currency.
type CurrencyAggregate struct {
	Currency          string
	MonthlyCost       float64
	SubscriptionCount int
	FreeTrialCount    int
	Categories        []CategoryAggregate // sorted by category
}

// CurrencyAggregates is ordered by currency code.
type CurrencyAggregates []CurrencyAggregate

// Find returns the aggregate for currency, if present.
func (a CurrencyAggregates) Find(currency string) (CurrencyAggregate, bool) {
	for _, agg := range a {
		if agg.Currency == currency {
			return agg, true
		}
	}
	return CurrencyAggregate{}, false
}

// Total returns the monthly cost for currency, or 0 when absent.
func (a CurrencyAggregates) Total(currency string) float64 {
	agg, _ := a.Find(currency)
	return agg.MonthlyCost
}

// Aggregate partitions an already-filtered slice by currency and legacy category.
// Free trials are counted but contribute no cost.
func Aggregate(subs []core.Subscription) CurrencyAggregates {
	type bucket struct {
		agg        CurrencyAggregate
		categories map[string]*CategoryAggregate
	}
	buckets := make(map[string]*bucket)

	for _, s := range subs {
		b, ok := buckets[s.Currency]
		if !ok {
			b = &bucket{
				agg:        CurrencyAggregate{Currency: s.Currency},
				categories: make(map[string]*CategoryAggregate),
			}
			buckets[s.Currency] = b
		}
		label := s.CategoryLabel()
		cat, ok := b.categories[label]
		if !ok {
			cat = &CategoryAggregate{Category: label}
			b.categories[label] = cat
		}

		b.agg.SubscriptionCount++
		cat.SubscriptionCount++
		if s.WasFreeTrial {
			b.agg.FreeTrialCount++
			cat.FreeTrialCount++
			continue
		}
		cost := monthlyCost(s)
		b.agg.MonthlyCost += cost
		cat.MonthlyCost += cost
	}

	out := make(CurrencyAggregates, 0, len(buckets))
	for _, currency := range sortedKeys(buckets) {
		b := buckets[currency]
		for _, label := range sortedKeys(b.categories) {
			b.agg.Categories = append(b.agg.Categories, *b.categories[label])
		}
		out = append(out, b.agg)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
