package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"substack/internal/core"
)

type SuggestionType string

const (
	SuggestionUnused            SuggestionType = "unused"
	SuggestionDuplicateCategory SuggestionType = "duplicate_category"
	SuggestionHighCost          SuggestionType = "high_cost"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// highCostShare is the fraction of a currency's spend above which a single
// subscription is flagged.
const highCostShare = 0.25

type SavingsSuggestion struct {
	SubscriptionID          int64          `json:"subscription_id"`
	SubscriptionName        string         `json:"subscription_name"`
	MonthlyCost             float64        `json:"monthly_cost"`
	Currency                string         `json:"currency"`
	SuggestionType          SuggestionType `json:"suggestion_type"`
	Reason                  string         `json:"reason"`
	PotentialMonthlySavings float64        `json:"potential_monthly_savings"`
	Confidence              Confidence     `json:"confidence"`
}

type SavingsSuggestions struct {
	Suggestions           []SavingsSuggestion `json:"suggestions"`
	TotalPotentialSavings map[string]float64  `json:"total_potential_savings"`
}

// SuggestSavings evaluates currently active subscriptions against three rules:
// unused (high confidence), high cost concentration (medium, skipped for unused
// ones) and duplicate legacy category within a currency (medium, one per pair).
// Only unused and duplicate savings are summed into the per-currency totals.
func SuggestSavings(subs []core.Subscription, thresholdDays int, now time.Time) SavingsSuggestions {
	active := Filter(subs, CurrentlyActive)
	_, totals := groupByCurrency(active)

	out := SavingsSuggestions{
		Suggestions:           []SavingsSuggestion{},
		TotalPotentialSavings: map[string]float64{},
	}
	savings := make(map[string]float64)

	// currency -> category -> members, in input order
	byCategory := make(map[string]map[string][]costed)

	for _, s := range active {
		cost := monthlyCost(s)

		unused, _ := usage(s, thresholdDays, now)
		if unused {
			out.Suggestions = append(out.Suggestions, suggestion(s, cost, SuggestionUnused, ConfidenceHigh,
				fmt.Sprintf("This subscription hasn't been used in over %d days or was never marked as used.", thresholdDays)))
			savings[s.Currency] += cost
		}

		if s.Category != nil && *s.Category != "" {
			cats, ok := byCategory[s.Currency]
			if !ok {
				cats = make(map[string][]costed)
				byCategory[s.Currency] = cats
			}
			cats[*s.Category] = append(cats[*s.Category], costed{sub: s, cost: cost})
		}

		total := totals[s.Currency]
		if !unused && total > 0 && cost/total > highCostShare {
			share := strconv.FormatFloat(core.Round1(cost/total*100), 'f', 1, 64)
			out.Suggestions = append(out.Suggestions, suggestion(s, cost, SuggestionHighCost, ConfidenceMedium,
				fmt.Sprintf("This subscription represents %s%% of your total %s spending.", share, s.Currency)))
		}
	}

	for _, currency := range sortedKeys(byCategory) {
		cats := byCategory[currency]
		for _, category := range sortedKeys(cats) {
			members := cats[category]
			if len(members) < 2 {
				continue
			}
			sort.SliceStable(members, func(i, j int) bool {
				return members[i].cost < members[j].cost
			})
			cheapest := members[0]
			out.Suggestions = append(out.Suggestions, suggestion(cheapest.sub, cheapest.cost, SuggestionDuplicateCategory, ConfidenceMedium,
				fmt.Sprintf("You have %d subscriptions in the '%s' category. Consider consolidating.", len(members), category)))
			savings[currency] += cheapest.cost
		}
	}

	for currency, total := range savings {
		out.TotalPotentialSavings[currency] = round2(total)
	}
	return out
}

func suggestion(s core.Subscription, cost float64, kind SuggestionType, confidence Confidence, reason string) SavingsSuggestion {
	return SavingsSuggestion{
		SubscriptionID:          s.ID,
		SubscriptionName:        s.Name,
		MonthlyCost:             round2(cost),
		Currency:                s.Currency,
		SuggestionType:          kind,
		Reason:                  reason,
		PotentialMonthlySavings: round2(cost),
		Confidence:              confidence,
	}
}
