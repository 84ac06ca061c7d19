package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/core"
)

var june2025 = NewMonthWindow(2025, time.June)

func TestMonthlyReport_LongRunningSubscriptionIsFlat(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Spotify", 10, "USD", createdAt(now.AddDate(0, 0, -45))),
	}

	report := MonthlyReport(subs, june2025, true, now)

	assert.Equal(t, "2025-06", report.Month)
	assert.Equal(t, now, report.CalculationDate)
	require.Len(t, report.CostsByCurrency, 1)
	assert.Equal(t, 10.0, report.CostsByCurrency[0].TotalMonthlyCost)
	assert.Equal(t, 120.0, report.CostsByCurrency[0].ProjectedYearlyCost)

	require.Len(t, report.Comparison, 1)
	cmp := report.Comparison[0]
	assert.Equal(t, 10.0, cmp.CurrentMonthCost)
	assert.Equal(t, 10.0, cmp.PreviousMonthCost)
	assert.Equal(t, 0.0, cmp.Difference)
	require.NotNil(t, cmp.PercentageChange)
	assert.Equal(t, 0.0, *cmp.PercentageChange)
}

func TestMonthlyReport_FreeTrialCountsButCostsNothing(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Disney+", 15.99, "USD", category("streaming"), freeTrial()),
		newSub(2, "Hulu", 9.99, "USD", category("streaming")),
	}

	report := MonthlyReport(subs, june2025, true, now)

	require.Len(t, report.CostsByCurrency, 1)
	usd := report.CostsByCurrency[0]
	assert.Equal(t, 9.99, usd.TotalMonthlyCost)
	assert.Equal(t, 119.88, usd.ProjectedYearlyCost)
	assert.Equal(t, 2, usd.SubscriptionCount)
	assert.Equal(t, 1, usd.FreeTrialCount)

	require.Len(t, usd.Categories, 1)
	assert.Equal(t, CategoryCost{Category: "streaming", MonthlyCost: 9.99, SubscriptionCount: 2, FreeTrialCount: 1}, usd.Categories[0])

	assert.Equal(t, 2, report.TotalSubscriptionCount)
	assert.Equal(t, 1, report.ActiveCount)
	assert.Equal(t, 1, report.FreeTrialTotalCount)
	require.Len(t, report.FreeTrials, 1)
	assert.Equal(t, int64(1), report.FreeTrials[0].ID)
	assert.Equal(t, 15.99, report.FreeTrials[0].Cost)
	assert.Equal(t, core.Monthly, report.FreeTrials[0].BillingCycle)
}

func TestMonthlyReport_ExcludeFreeTrialsOnlyHidesTheList(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Disney+", 15.99, "USD", category("streaming"), freeTrial()),
		newSub(2, "Hulu", 9.99, "USD", category("streaming")),
	}

	report := MonthlyReport(subs, june2025, false, now)

	assert.Empty(t, report.FreeTrials)
	assert.NotNil(t, report.FreeTrials)
	assert.Equal(t, 0, report.FreeTrialTotalCount)
	assert.Equal(t, 2, report.TotalSubscriptionCount)
	assert.Equal(t, 1, report.ActiveCount)
	assert.Equal(t, 1, report.CostsByCurrency[0].FreeTrialCount)
}

func TestMonthlyReport_CancelledSinceLastMonthCountsOnlyForPrevious(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Gym", 20, "EUR", cancelledAt(day(2025, 6, 2))),
	}

	report := MonthlyReport(subs, june2025, true, now)

	assert.Empty(t, report.CostsByCurrency)
	require.Len(t, report.Comparison, 1)
	cmp := report.Comparison[0]
	assert.Equal(t, "EUR", cmp.Currency)
	assert.Equal(t, 0.0, cmp.CurrentMonthCost)
	assert.Equal(t, 20.0, cmp.PreviousMonthCost)
	assert.Equal(t, -20.0, cmp.Difference)
	require.NotNil(t, cmp.PercentageChange)
	assert.Equal(t, -100.0, *cmp.PercentageChange)
}

func TestMonthlyReport_NewCurrencyHasNoPercentage(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Netflix", 12, "USD"),
		newSub(2, "Canal+", 25, "EUR", createdAt(day(2025, 6, 5))),
	}

	report := MonthlyReport(subs, june2025, true, now)

	require.Len(t, report.Comparison, 2)
	eur, usd := report.Comparison[0], report.Comparison[1]
	assert.Equal(t, "EUR", eur.Currency)
	assert.Equal(t, 25.0, eur.Difference)
	assert.Nil(t, eur.PercentageChange)
	assert.Equal(t, "USD", usd.Currency)
	require.NotNil(t, usd.PercentageChange)

	require.Len(t, report.CostsByCurrency, 2)
	assert.Equal(t, "EUR", report.CostsByCurrency[0].Currency)
	assert.Equal(t, "USD", report.CostsByCurrency[1].Currency)
}

func TestMonthlyReport_DeletedIsExcludedEverywhere(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Old", 30, "USD", deletedAt(day(2025, 6, 10))),
		newSub(2, "Kept", 10, "USD"),
	}

	report := MonthlyReport(subs, june2025, true, now)

	require.Len(t, report.Comparison, 1)
	assert.Equal(t, 10.0, report.Comparison[0].CurrentMonthCost)
	assert.Equal(t, 10.0, report.Comparison[0].PreviousMonthCost)
	assert.Equal(t, 1, report.TotalSubscriptionCount)
}

func TestMonthlyReport_CategoriesAreSorted(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Dropbox", 120, "USD", cycle(core.Yearly), category("utilities")),
		newSub(2, "Misc", 3, "USD"),
		newSub(3, "Figma", 12, "USD", category("software")),
		newSub(4, "Notion", 8, "USD", category("software")),
	}

	report := MonthlyReport(subs, june2025, true, now)

	require.Len(t, report.CostsByCurrency, 1)
	usd := report.CostsByCurrency[0]
	assert.Equal(t, 33.0, usd.TotalMonthlyCost)

	labels := make([]string, 0, len(usd.Categories))
	for _, c := range usd.Categories {
		labels = append(labels, c.Category)
	}
	assert.Equal(t, []string{"software", "uncategorized", "utilities"}, labels)
	assert.Equal(t, 20.0, usd.Categories[0].MonthlyCost)
	assert.Equal(t, 2, usd.Categories[0].SubscriptionCount)
	assert.Equal(t, 10.0, usd.Categories[2].MonthlyCost)
}

func TestMonthlyReport_JanuaryComparesWithPreviousDecember(t *testing.T) {
	jan := NewMonthWindow(2025, time.January)
	subs := []core.Subscription{
		newSub(1, "Paper", 6, "GBP", createdAt(day(2024, 11, 1)), cancelledAt(day(2024, 12, 10))),
	}

	report := MonthlyReport(subs, jan, true, day(2025, 1, 20))

	assert.Equal(t, "2025-01", report.Month)
	assert.Empty(t, report.CostsByCurrency)
	require.Len(t, report.Comparison, 1)
	assert.Equal(t, 6.0, report.Comparison[0].PreviousMonthCost)
}

func TestAggregate(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "a", 10, "USD", category("gaming")),
		newSub(2, "b", 52, "EUR", cycle(core.Weekly)),
		newSub(3, "c", 5, "USD", category("gaming"), freeTrial()),
	}

	aggs := Aggregate(subs)

	require.Len(t, aggs, 2)
	assert.Equal(t, "EUR", aggs[0].Currency)
	assert.InDelta(t, 225.333333, aggs[0].MonthlyCost, 1e-5)
	assert.Equal(t, "USD", aggs[1].Currency)
	assert.Equal(t, 10.0, aggs.Total("USD"))
	assert.Equal(t, 0.0, aggs.Total("JPY"))
	assert.Equal(t, 2, aggs[1].SubscriptionCount)
	assert.Equal(t, 1, aggs[1].FreeTrialCount)
	assert.Equal(t, []CategoryAggregate{{Category: "gaming", MonthlyCost: 10, SubscriptionCount: 2, FreeTrialCount: 1}}, aggs[1].Categories)
}
