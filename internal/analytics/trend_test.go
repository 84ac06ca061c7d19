package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/core"
)

func labels(points []MonthlySpendingPoint) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		out = append(out, p.Month)
	}
	return out
}

func costs(points []MonthlySpendingPoint) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.TotalMonthlyCost)
	}
	return out
}

func TestTrendWindows(t *testing.T) {
	windows := TrendWindows(4, day(2025, 2, 10))
	got := make([]string, 0, len(windows))
	for _, w := range windows {
		got = append(got, w.Label())
	}
	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"}, got)
	assert.Empty(t, TrendWindows(0, now))
}

func TestSpendingTrends_GapFillsEveryCurrency(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Netflix", 10, "USD"),
		newSub(2, "Deezer", 10, "EUR", createdAt(day(2025, 5, 20))),
	}

	trends := SpendingTrends(subs, 6, now)

	require.Len(t, trends, 2)
	eur := trends[0]
	assert.Equal(t, "EUR", eur.Currency)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}, labels(eur.DataPoints))
	assert.Equal(t, []float64{0, 0, 0, 0, 10, 10}, costs(eur.DataPoints))
	assert.Equal(t, 0, eur.DataPoints[0].SubscriptionCount)
	assert.Equal(t, 1, eur.DataPoints[5].SubscriptionCount)
	assert.Equal(t, 3.33, eur.AverageMonthlyCost)
	assert.Equal(t, TrendStable, eur.TrendDirection)
	require.NotNil(t, eur.TrendPercentage)
	assert.Equal(t, 0.0, *eur.TrendPercentage)

	assert.Equal(t, "USD", trends[1].Currency)
	assert.Len(t, trends[1].DataPoints, 6)
}

func TestSpendingTrends_CancelledBeforeCurrentMonth(t *testing.T) {
	// Cancelled ten days before the first day of the current month.
	subs := []core.Subscription{
		newSub(1, "Magazine", 10, "USD", cancelledAt(day(2025, 5, 22))),
	}

	trends := SpendingTrends(subs, 6, now)

	require.Len(t, trends, 1)
	points := trends[0].DataPoints
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 0}, costs(points))
	assert.Equal(t, 0, points[5].SubscriptionCount)
	assert.Equal(t, 1, points[4].SubscriptionCount)
	assert.Equal(t, 8.33, trends[0].AverageMonthlyCost)
	assert.Equal(t, TrendStable, trends[0].TrendDirection)
}

func TestSpendingTrends_Direction(t *testing.T) {
	tests := []struct {
		name      string
		subs      []core.Subscription
		direction TrendDirection
		pct       *float64
	}{
		{
			name: "increasing",
			subs: []core.Subscription{
				newSub(1, "a", 10, "USD"),
				newSub(2, "b", 10, "USD", createdAt(day(2025, 4, 10))),
			},
			direction: TrendIncreasing,
			pct:       ptr(100.0),
		},
		{
			name: "decreasing",
			subs: []core.Subscription{
				newSub(1, "a", 10, "USD"),
				newSub(2, "b", 10, "USD", cancelledAt(day(2025, 3, 15))),
			},
			direction: TrendDecreasing,
			pct:       ptr(-50.0),
		},
		{
			name: "within dead band",
			subs: []core.Subscription{
				newSub(1, "a", 100, "USD"),
				newSub(2, "b", 4, "USD", createdAt(day(2025, 6, 1))),
			},
			direction: TrendStable,
			pct:       ptr(0.0),
		},
		{
			name: "single non-zero point",
			subs: []core.Subscription{
				newSub(1, "a", 10, "USD", createdAt(day(2025, 6, 1))),
			},
			direction: TrendStable,
			pct:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trends := SpendingTrends(tt.subs, 6, now)
			require.Len(t, trends, 1)
			assert.Equal(t, tt.direction, trends[0].TrendDirection)
			if tt.pct == nil {
				assert.Nil(t, trends[0].TrendPercentage)
				return
			}
			require.NotNil(t, trends[0].TrendPercentage)
			assert.Equal(t, *tt.pct, *trends[0].TrendPercentage)
		})
	}
}

func TestSpendingTrends_IncludesFreeTrialsAndAllStatuses(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Trial", 10, "USD", freeTrial()),
		newSub(2, "Deleted", 5, "USD", deletedAt(day(2025, 6, 5))),
	}

	trends := SpendingTrends(subs, 2, now)

	require.Len(t, trends, 1)
	assert.Equal(t, []float64{15, 15}, costs(trends[0].DataPoints))
	assert.Equal(t, 15.0, trends[0].AverageMonthlyCost)
}

func TestSpendingTrends_AlwaysNBuckets(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "a", 10, "USD", createdAt(day(2025, 6, 14))),
		newSub(2, "b", 10, "JPY", cancelledAt(day(2024, 8, 1))),
		newSub(3, "c", 10, "CHF", createdAt(day(2024, 3, 1)), deletedAt(day(2024, 12, 1))),
	}

	for n := MinTrendMonths; n <= MaxTrendMonths; n++ {
		for _, trend := range SpendingTrends(subs, n, now) {
			assert.Len(t, trend.DataPoints, n, "currency %s months %d", trend.Currency, n)
			assert.Equal(t, "2025-06", trend.DataPoints[n-1].Month)
		}
	}
}

func TestClassifyTrend(t *testing.T) {
	dir, pct := classifyTrend([]float64{0, 0, 0})
	assert.Equal(t, TrendStable, dir)
	assert.Nil(t, pct)

	dir, pct = classifyTrend([]float64{0, 20, 0, 10, 0})
	assert.Equal(t, TrendDecreasing, dir)
	require.NotNil(t, pct)
	assert.Equal(t, -50.0, *pct)

	dir, pct = classifyTrend([]float64{100, 0, 96})
	assert.Equal(t, TrendStable, dir)
	require.NotNil(t, pct)
	assert.Equal(t, 0.0, *pct)
}

func ptr[T any](v T) *T { return &v }

func TestSpendingTrends_SubCentBucketsCountAsZero(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "Domain", 0.05, "USD", cycle(core.Yearly)),
		newSub(2, "Netflix", 10, "USD", createdAt(day(2025, 5, 20))),
	}

	trends := SpendingTrends(subs, 6, now)

	require.Len(t, trends, 1)
	usd := trends[0]
	assert.Equal(t, []float64{0, 0, 0, 0, 10, 10}, costs(usd.DataPoints))
	assert.Equal(t, 3.33, usd.AverageMonthlyCost)
	assert.Equal(t, TrendStable, usd.TrendDirection)
	require.NotNil(t, usd.TrendPercentage)
	assert.Equal(t, 0.0, *usd.TrendPercentage)
}
