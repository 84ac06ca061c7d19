package analytics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"substack/internal/core"
)

// Errors returned by ParseMonth.
var (
	ErrInvalidMonthFormat = errors.New("invalid month format, use YYYY-MM")
	ErrInvalidMonthValue  = errors.New("invalid month value, month must be between 01 and 12")
)

// MonthWindow is the inclusive [Start, End] date range of a calendar month.
type MonthWindow struct {
	Year  int
	Month time.Month
	Start core.Date
	End   core.Date
}

// NewMonthWindow returns the window of the given calendar month.
func NewMonthWindow(year int, month time.Month) MonthWindow {
	start := core.NewDate(year, int(month), 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	return MonthWindow{Year: year, Month: month, Start: start, End: end}
}

// MonthWindowOf returns the calendar month containing t (UTC).
func MonthWindowOf(t time.Time) MonthWindow {
	t = t.UTC()
	return NewMonthWindow(t.Year(), t.Month())
}

// Previous returns the preceding month, wrapping January to December of the prior year.
func (w MonthWindow) Previous() MonthWindow {
	if w.Month == time.January {
		return NewMonthWindow(w.Year-1, time.December)
	}
	return NewMonthWindow(w.Year, w.Month-1)
}

// Label formats the window as YYYY-MM.
func (w MonthWindow) Label() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}

// ParseMonth parses a YYYY-MM label.
func ParseMonth(s string) (MonthWindow, error) {
	if len(s) != 7 || s[4] != '-' {
		return MonthWindow{}, ErrInvalidMonthFormat
	}
	for _, r := range s[:4] + s[5:] {
		if r < '0' || r > '9' {
			return MonthWindow{}, ErrInvalidMonthFormat
		}
	}
	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:])
	if month < 1 || month > 12 {
		return MonthWindow{}, ErrInvalidMonthValue
	}
	return NewMonthWindow(year, time.Month(month)), nil
}

// WasActiveInMonth reports whether a subscription was billed at some point in w.
// Comparisons are on calendar dates only. A subscription cancelled or deleted
// during or after the month still counts for it.
func WasActiveInMonth(s core.Subscription, w MonthWindow) bool {
	if core.DateOf(s.CreatedAt).After(w.End.Time) {
		return false
	}
	if s.DeletedAt != nil && core.DateOf(*s.DeletedAt).Before(w.Start.Time) {
		return false
	}
	if s.Status == core.StatusCancelled && s.CancelledAt != nil && core.DateOf(*s.CancelledAt).Before(w.Start.Time) {
		return false
	}
	return true
}

// Predicate selects subscriptions for a report.
type Predicate func(core.Subscription) bool

// CurrentlyActive selects active, non-deleted subscriptions.
func CurrentlyActive(s core.Subscription) bool {
	return s.IsCurrentlyActive()
}

// NotDeleted selects subscriptions that have not been soft-deleted.
func NotDeleted(s core.Subscription) bool {
	return s.DeletedAt == nil
}

// ActiveIn selects subscriptions that were billed during w.
func ActiveIn(w MonthWindow) Predicate {
	return func(s core.Subscription) bool {
		return WasActiveInMonth(s, w)
	}
}

// All combines predicates with logical AND.
func All(preds ...Predicate) Predicate {
	return func(s core.Subscription) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Filter returns the subscriptions matching pred, preserving input order.
func Filter(subs []core.Subscription, pred Predicate) []core.Subscription {
	out := make([]core.Subscription, 0, len(subs))
	for _, s := range subs {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}
