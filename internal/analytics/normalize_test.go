package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"substack/internal/core"
)

func TestMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		name  string
		cost  float64
		cycle core.BillingCycle
		want  float64
	}{
		{"weekly", 10, core.Weekly, 43.33},
		{"monthly", 15.99, core.Monthly, 15.99},
		{"quarterly", 30, core.Quarterly, 10},
		{"yearly", 120, core.Yearly, 10},
		{"unknown falls back to monthly", 7, core.BillingCycle("daily"), 7},
		{"empty falls back to monthly", 7, core.BillingCycle(""), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, round2(MonthlyEquivalent(tt.cost, tt.cycle)))
		})
	}
}

func TestMonthlyEquivalentIsLinear(t *testing.T) {
	cycles := []core.BillingCycle{core.Weekly, core.Monthly, core.Quarterly, core.Yearly, "unknown"}
	costs := []float64{0.01, 1, 9.99, 15.99, 120, 1234.56}

	for _, c := range cycles {
		for _, x := range costs {
			assert.InDelta(t, 2*MonthlyEquivalent(x, c), MonthlyEquivalent(2*x, c), 1e-9, "cycle %s cost %v", c, x)
		}
	}
}
