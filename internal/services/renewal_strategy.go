// This file implements the Strategy Pattern for advancing billing dates.
// Each billing cycle has its own strategy that encapsulates how the next
// renewal date is derived from the current one.

package services

import (
	"fmt"
	"time"

	"substack/internal/core"
)

// RenewalAdvancer is the strategy interface for computing the next billing date.
type RenewalAdvancer interface {
	// Next returns the renewal following current. anchorDay is the day of month
	// the subscription originally renewed on, so a Jan 31 renewal lands on
	// Feb 28 and then returns to Mar 31.
	Next(current core.Date, anchorDay int) core.Date
}

// WeeklyAdvancer implements RenewalAdvancer for weekly subscriptions.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(current core.Date, _ int) core.Date {
	return current.AddDays(7)
}

// MonthlyAdvancer moves the date forward by a fixed number of calendar months.
type MonthlyAdvancer struct {
	Months int
}

func (a MonthlyAdvancer) Next(current core.Date, anchorDay int) core.Date {
	year, month := current.Year(), current.Month()+time.Month(a.Months)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	targetDay := anchorDay
	lastDayOfMonth := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return core.NewDate(first.Year(), int(first.Month()), targetDay)
}

var renewalStrategies = map[core.BillingCycle]RenewalAdvancer{
	core.Weekly:    WeeklyAdvancer{},
	core.Monthly:   MonthlyAdvancer{Months: 1},
	core.Quarterly: MonthlyAdvancer{Months: 3},
	core.Yearly:    MonthlyAdvancer{Months: 12},
}

// GetRenewalAdvancer returns the strategy for a billing cycle.
func GetRenewalAdvancer(cycle core.BillingCycle) (RenewalAdvancer, error) {
	advancer, ok := renewalStrategies[cycle]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidBillingCycle, cycle)
	}
	return advancer, nil
}

// RollForward advances a billing date by whole cycles until it is on or
// after today. Dates already in the future are returned unchanged.
func RollForward(date core.Date, cycle core.BillingCycle, today core.Date) (core.Date, error) {
	advancer, err := GetRenewalAdvancer(cycle)
	if err != nil {
		return date, err
	}
	anchorDay := date.Day()
	for date.Before(today.Time) {
		date = advancer.Next(date, anchorDay)
	}
	return date, nil
}
