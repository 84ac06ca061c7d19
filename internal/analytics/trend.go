package analytics

import (
	"time"

	"substack/internal/core"
)

const (
	DefaultTrendMonths = 6
	MinTrendMonths     = 1
	MaxTrendMonths     = 12

	trendUpperBand = 1.05
	trendLowerBand = 0.95
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

type MonthlySpendingPoint struct {
	Month             string  `json:"month"`
	TotalMonthlyCost  float64 `json:"total_monthly_cost"`
	SubscriptionCount int     `json:"subscription_count"`
}

type SpendingTrend struct {
	Currency           string                 `json:"currency"`
	DataPoints         []MonthlySpendingPoint `json:"data_points"`
	AverageMonthlyCost float64                `json:"average_monthly_cost"`
	TrendDirection     TrendDirection         `json:"trend_direction"`
	TrendPercentage    *float64               `json:"trend_percentage"`
}

// TrendWindows returns the n calendar months ending at the month of now, oldest first.
func TrendWindows(n int, now time.Time) []MonthWindow {
	if n < 1 {
		return nil
	}
	windows := make([]MonthWindow, n)
	w := MonthWindowOf(now)
	for i := n - 1; i >= 0; i-- {
		windows[i] = w
		w = w.Previous()
	}
	return windows
}

// SpendingTrends builds an n-month series per currency. Every currency active
// in any bucket gets all n buckets, zero-filled where it had no activity.
func SpendingTrends(subs []core.Subscription, months int, now time.Time) []SpendingTrend {
	windows := TrendWindows(months, now)

	type series struct {
		costs  []float64
		counts []int
	}
	byCurrency := make(map[string]*series)

	for i, w := range windows {
		for _, s := range subs {
			if !WasActiveInMonth(s, w) {
				continue
			}
			ser, ok := byCurrency[s.Currency]
			if !ok {
				ser = &series{costs: make([]float64, len(windows)), counts: make([]int, len(windows))}
				byCurrency[s.Currency] = ser
			}
			ser.costs[i] += monthlyCost(s)
			ser.counts[i]++
		}
	}

	out := make([]SpendingTrend, 0, len(byCurrency))
	for _, currency := range sortedKeys(byCurrency) {
		ser := byCurrency[currency]
		trend := SpendingTrend{
			Currency:   currency,
			DataPoints: make([]MonthlySpendingPoint, len(windows)),
		}
		rounded := make([]float64, len(windows))
		var sum float64
		for i, w := range windows {
			rounded[i] = round2(ser.costs[i])
			trend.DataPoints[i] = MonthlySpendingPoint{
				Month:             w.Label(),
				TotalMonthlyCost:  rounded[i],
				SubscriptionCount: ser.counts[i],
			}
			sum += rounded[i]
		}
		trend.AverageMonthlyCost = round2(sum / float64(len(windows)))
		trend.TrendDirection, trend.TrendPercentage = classifyTrend(rounded)
		out = append(out, trend)
	}
	return out
}

// classifyTrend compares the first and last non-zero buckets with a ±5% dead band.
// costs are the reported (rounded) bucket values.
func classifyTrend(costs []float64) (TrendDirection, *float64) {
	first, last := -1, -1
	for i, c := range costs {
		if c > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 || first == last {
		return TrendStable, nil
	}

	firstCost, lastCost := costs[first], costs[last]
	var (
		direction TrendDirection
		pct       float64
	)
	switch {
	case lastCost > firstCost*trendUpperBand:
		direction = TrendIncreasing
		pct = (lastCost - firstCost) / firstCost * 100
	case lastCost < firstCost*trendLowerBand:
		direction = TrendDecreasing
		pct = (firstCost - lastCost) / firstCost * -100
	default:
		direction = TrendStable
		pct = 0
	}
	pct = round2(pct)
	return direction, &pct
}
