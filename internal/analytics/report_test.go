package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/core"
)

func TestAnalyze(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Netflix", 15.99, "USD", category("streaming")),
		newSub(2, "Spotify", 9.99, "USD", category("music"), usedRecently()),
		newSub(3, "Deezer", 11.99, "EUR", cancelledAt(day(2025, 4, 2))),
	}

	got := Analyze(subs, now)

	assert.Equal(t, now, got.GeneratedAt)

	require.Len(t, got.TrendsByCurrency, 2)
	assert.Len(t, got.TrendsByCurrency[0].DataPoints, DefaultTrendMonths)

	require.Len(t, got.TopSubscriptionsByCurrency, 1)
	assert.Equal(t, "Netflix", got.TopSubscriptionsByCurrency[0].Subscriptions[0].Name)
	assert.Equal(t, 25.98, got.TopSubscriptionsByCurrency[0].TotalMonthlyCost)

	require.Equal(t, 1, got.ForgottenSubscriptions.TotalCount)
	assert.Equal(t, int64(1), got.ForgottenSubscriptions.Subscriptions[0].ID)

	unused := ofType(got.SavingsSuggestions.Suggestions, SuggestionUnused)
	require.Len(t, unused, 1)
	assert.Equal(t, int64(1), unused[0].SubscriptionID)
	assert.Len(t, ofType(got.SavingsSuggestions.Suggestions, SuggestionHighCost), 1)
}

func TestAnalyze_Empty(t *testing.T) {
	got := Analyze(nil, now)

	assert.Empty(t, got.TrendsByCurrency)
	assert.Empty(t, got.TopSubscriptionsByCurrency)
	assert.Equal(t, 0, got.ForgottenSubscriptions.TotalCount)
	assert.NotNil(t, got.ForgottenSubscriptions.Subscriptions)
	assert.NotNil(t, got.SavingsSuggestions.Suggestions)
}
