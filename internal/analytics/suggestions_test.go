package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/core"
)

func ofType(list []SavingsSuggestion, kind SuggestionType) []SavingsSuggestion {
	var out []SavingsSuggestion
	for _, s := range list {
		if s.SuggestionType == kind {
			out = append(out, s)
		}
	}
	return out
}

func TestSuggestSavings_UnusedSuppressesHighCost(t *testing.T) {
	subs := []core.Subscription{newSub(1, "Gym", 15.99, "USD")}

	got := SuggestSavings(subs, DefaultForgottenThresholdDays, now)

	require.Len(t, got.Suggestions, 1)
	s := got.Suggestions[0]
	assert.Equal(t, SuggestionUnused, s.SuggestionType)
	assert.Equal(t, ConfidenceHigh, s.Confidence)
	assert.Equal(t, 15.99, s.PotentialMonthlySavings)
	assert.Equal(t, "This subscription hasn't been used in over 30 days or was never marked as used.", s.Reason)
	assert.Equal(t, map[string]float64{"USD": 15.99}, got.TotalPotentialSavings)
}

func TestSuggestSavings_HighCostIsNotSummed(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Big", 100, "USD", usedRecently()),
		newSub(2, "Small", 5, "USD", usedRecently()),
		newSub(3, "Tiny", 5, "USD", usedRecently()),
	}

	got := SuggestSavings(subs, DefaultForgottenThresholdDays, now)

	require.Len(t, got.Suggestions, 1)
	s := got.Suggestions[0]
	assert.Equal(t, SuggestionHighCost, s.SuggestionType)
	assert.Equal(t, ConfidenceMedium, s.Confidence)
	assert.Equal(t, int64(1), s.SubscriptionID)
	assert.Equal(t, "This subscription represents 90.9% of your total USD spending.", s.Reason)
	assert.Empty(t, got.TotalPotentialSavings)
	assert.NotNil(t, got.TotalPotentialSavings)
}

func TestSuggestSavings_DuplicateCategoryPerCurrency(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Netflix", 10, "USD", category("streaming"), usedRecently()),
		newSub(2, "Hulu", 8, "USD", category("streaming"), usedRecently()),
		newSub(3, "Max", 12, "USD", category("streaming"), usedRecently()),
		newSub(4, "Canal+", 6, "EUR", category("streaming"), usedRecently()),
		newSub(5, "Arte", 5, "EUR", category("streaming"), usedRecently()),
		newSub(6, "Misc", 4, "USD", usedRecently()),
		newSub(7, "Other", 4, "USD", usedRecently()),
	}

	got := SuggestSavings(subs, DefaultForgottenThresholdDays, now)

	dups := ofType(got.Suggestions, SuggestionDuplicateCategory)
	require.Len(t, dups, 2)
	assert.Equal(t, "EUR", dups[0].Currency)
	assert.Equal(t, int64(5), dups[0].SubscriptionID)
	assert.Equal(t, "You have 2 subscriptions in the 'streaming' category. Consider consolidating.", dups[0].Reason)
	assert.Equal(t, "USD", dups[1].Currency)
	assert.Equal(t, int64(2), dups[1].SubscriptionID)
	assert.Equal(t, 8.0, dups[1].PotentialMonthlySavings)
	assert.Equal(t, "You have 3 subscriptions in the 'streaming' category. Consider consolidating.", dups[1].Reason)

	assert.Equal(t, map[string]float64{"USD": 8, "EUR": 5}, got.TotalPotentialSavings)
}

func TestSuggestSavings_DuplicateTieGoesToFirst(t *testing.T) {
	subs := []core.Subscription{
		newSub(9, "A", 10, "USD", category("news"), usedRecently()),
		newSub(4, "B", 10, "USD", category("news"), usedRecently()),
	}

	dups := ofType(SuggestSavings(subs, DefaultForgottenThresholdDays, now).Suggestions, SuggestionDuplicateCategory)

	require.Len(t, dups, 1)
	assert.Equal(t, int64(9), dups[0].SubscriptionID)
}

func TestSuggestSavings_UncategorizedNeverDuplicates(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "a", 10, "USD", usedRecently()),
		newSub(2, "b", 10, "USD", usedRecently()),
		newSub(3, "c", 10, "USD", usedRecently()),
		newSub(4, "d", 10, "USD", usedRecently()),
		newSub(5, "e", 10, "USD", usedRecently()),
	}

	got := SuggestSavings(subs, DefaultForgottenThresholdDays, now)

	assert.Empty(t, got.Suggestions)
}

func TestSuggestSavings_Ordering(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "A", 20, "USD", category("gaming")),
		newSub(2, "B", 30, "USD", category("gaming"), usedRecently()),
	}

	got := SuggestSavings(subs, DefaultForgottenThresholdDays, now)

	require.Len(t, got.Suggestions, 3)
	assert.Equal(t, SuggestionUnused, got.Suggestions[0].SuggestionType)
	assert.Equal(t, int64(1), got.Suggestions[0].SubscriptionID)
	assert.Equal(t, SuggestionHighCost, got.Suggestions[1].SuggestionType)
	assert.Equal(t, int64(2), got.Suggestions[1].SubscriptionID)
	assert.Equal(t, "This subscription represents 60.0% of your total USD spending.", got.Suggestions[1].Reason)
	assert.Equal(t, SuggestionDuplicateCategory, got.Suggestions[2].SuggestionType)
	assert.Equal(t, int64(1), got.Suggestions[2].SubscriptionID)

	assert.Equal(t, map[string]float64{"USD": 40}, got.TotalPotentialSavings)
}

func TestSuggestSavings_IgnoresInactive(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Cancelled", 50, "USD", cancelledAt(day(2025, 5, 1))),
		newSub(2, "Deleted", 50, "USD", deletedAt(day(2025, 5, 1))),
	}

	got := SuggestSavings(subs, DefaultForgottenThresholdDays, now)

	assert.Empty(t, got.Suggestions)
	assert.Empty(t, got.TotalPotentialSavings)
}
