package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/core"
)

func TestNewMonthWindow(t *testing.T) {
	w := NewMonthWindow(2024, time.February)
	assert.Equal(t, core.NewDate(2024, 2, 1), w.Start)
	assert.Equal(t, core.NewDate(2024, 2, 29), w.End)
	assert.Equal(t, "2024-02", w.Label())

	prev := NewMonthWindow(2025, time.January).Previous()
	assert.Equal(t, 2024, prev.Year)
	assert.Equal(t, time.December, prev.Month)
	assert.Equal(t, core.NewDate(2024, 12, 31), prev.End)

	assert.Equal(t, "2025-06", MonthWindowOf(now).Label())
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"2025-06", "2025-06", nil},
		{"1999-12", "1999-12", nil},
		{"2025-6", "", ErrInvalidMonthFormat},
		{"2025/06", "", ErrInvalidMonthFormat},
		{"abcd-01", "", ErrInvalidMonthFormat},
		{"2025-+1", "", ErrInvalidMonthFormat},
		{"", "", ErrInvalidMonthFormat},
		{"2025-13", "", ErrInvalidMonthValue},
		{"2025-00", "", ErrInvalidMonthValue},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, err := ParseMonth(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Label())
		})
	}
}

func TestWasActiveInMonth(t *testing.T) {
	june := NewMonthWindow(2025, time.June)

	tests := []struct {
		name string
		sub  core.Subscription
		want bool
	}{
		{"long-running", newSub(1, "a", 10, "USD"), true},
		{"created after month end", newSub(1, "a", 10, "USD", createdAt(day(2025, 7, 1))), false},
		{"created late on last day", newSub(1, "a", 10, "USD",
			createdAt(time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC))), true},
		{"deleted before month start", newSub(1, "a", 10, "USD", deletedAt(day(2025, 5, 31))), false},
		{"deleted on first day", newSub(1, "a", 10, "USD", deletedAt(day(2025, 6, 1))), true},
		{"cancelled before month start", newSub(1, "a", 10, "USD", cancelledAt(day(2025, 5, 22))), false},
		{"cancelled during month", newSub(1, "a", 10, "USD", cancelledAt(day(2025, 6, 20))), true},
		{"cancelled after month", newSub(1, "a", 10, "USD", cancelledAt(day(2025, 8, 1))), true},
		{"reactivated keeps stale timestamp", func() core.Subscription {
			s := newSub(1, "a", 10, "USD", cancelledAt(day(2025, 1, 1)))
			s.Status = core.StatusActive
			return s
		}(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WasActiveInMonth(tt.sub, june))
		})
	}
}

func TestWasActiveInMonthMonotonicInCancellation(t *testing.T) {
	windows := TrendWindows(12, now)
	cancelDates := []time.Time{
		day(2024, 7, 1), day(2024, 9, 15), day(2024, 12, 31), day(2025, 1, 1),
		day(2025, 3, 10), day(2025, 6, 1), day(2025, 6, 15),
	}

	for _, w := range windows {
		for i := 1; i < len(cancelDates); i++ {
			earlier := newSub(1, "a", 10, "USD", cancelledAt(cancelDates[i-1]))
			later := newSub(1, "a", 10, "USD", cancelledAt(cancelDates[i]))
			if WasActiveInMonth(earlier, w) {
				assert.True(t, WasActiveInMonth(later, w),
					"month %s: active with cancellation %s but not with later %s",
					w.Label(), cancelDates[i-1].Format(time.DateOnly), cancelDates[i].Format(time.DateOnly))
			}
		}
	}
}

func TestPredicates(t *testing.T) {
	subs := []core.Subscription{
		newSub(1, "active", 10, "USD"),
		newSub(2, "cancelled", 10, "USD", cancelledAt(day(2025, 6, 2))),
		newSub(3, "deleted", 10, "USD", deletedAt(day(2025, 6, 3))),
		newSub(4, "new", 10, "USD", createdAt(day(2025, 6, 10))),
	}

	ids := func(list []core.Subscription) []int64 {
		out := make([]int64, 0, len(list))
		for _, s := range list {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 4}, ids(Filter(subs, CurrentlyActive)))
	assert.Equal(t, []int64{1, 2, 4}, ids(Filter(subs, NotDeleted)))

	may := NewMonthWindow(2025, time.May)
	assert.Equal(t, []int64{1, 2, 3}, ids(Filter(subs, ActiveIn(may))))
	assert.Equal(t, []int64{1, 2}, ids(Filter(subs, All(ActiveIn(may), NotDeleted))))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(Filter(subs, All())))
}
