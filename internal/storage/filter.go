package storage

import (
	"cmp"
	"fmt"
	"sort"
	"strings"

	"substack/internal/core"
)

const (
	StatusFilterActive    = "active"
	StatusFilterCancelled = "cancelled"
	StatusFilterAll       = "all"
)

const (
	SortNextBillingDate = "next_billing_date"
	SortName            = "name"
	SortCost            = "cost"
	SortCreatedAt       = "created_at"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SubscriptionFilter narrows ListSubscriptions. Zero values mean "no constraint"
// except Status, Sort and Order, which Normalize defaults.
type SubscriptionFilter struct {
	Status         string
	Search         string
	BillingCycle   core.BillingCycle
	CostMin        *float64
	CostMax        *float64
	CategoryID     *int64
	Category       *string
	IncludeDeleted bool
	Sort           string
	Order          string
}

// Normalize fills defaults and rejects unknown enum values.
func (f SubscriptionFilter) Normalize() (SubscriptionFilter, error) {
	if f.Status == "" {
		f.Status = StatusFilterActive
	}
	switch f.Status {
	case StatusFilterActive, StatusFilterCancelled, StatusFilterAll:
	default:
		return f, fmt.Errorf("invalid status filter %q: must be active, cancelled or all", f.Status)
	}

	if f.Sort == "" {
		f.Sort = SortNextBillingDate
	}
	switch f.Sort {
	case SortNextBillingDate, SortName, SortCost, SortCreatedAt:
	default:
		return f, fmt.Errorf("invalid sort %q", f.Sort)
	}

	if f.Order == "" {
		f.Order = OrderAsc
	}
	if f.Order != OrderAsc && f.Order != OrderDesc {
		return f, fmt.Errorf("invalid order %q: must be asc or desc", f.Order)
	}

	if f.BillingCycle != "" && !f.BillingCycle.IsValid() {
		return f, fmt.Errorf("%w: %q", core.ErrInvalidBillingCycle, f.BillingCycle)
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

// Matches applies the filter to a single subscription. It expects a normalized filter.
func (f SubscriptionFilter) Matches(s core.Subscription) bool {
	if s.DeletedAt != nil && !f.IncludeDeleted {
		return false
	}
	switch f.Status {
	case StatusFilterActive:
		if s.Status != core.StatusActive {
			return false
		}
	case StatusFilterCancelled:
		if s.Status != core.StatusCancelled {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.BillingCycle != "" && s.BillingCycle != f.BillingCycle {
		return false
	}
	if f.CostMin != nil && s.Cost < *f.CostMin {
		return false
	}
	if f.CostMax != nil && s.Cost > *f.CostMax {
		return false
	}
	if f.CategoryID != nil {
		if s.CategoryID == nil || *s.CategoryID != *f.CategoryID {
			return false
		}
	} else if f.Category != nil {
		if s.Category == nil || *s.Category != *f.Category {
			return false
		}
	}
	return true
}

// SortSubscriptions orders subs in place by the filter's sort key, id breaking ties.
func (f SubscriptionFilter) SortSubscriptions(subs []core.Subscription) {
	by := func(a, b core.Subscription) int {
		switch f.Sort {
		case SortName:
			return strings.Compare(a.Name, b.Name)
		case SortCost:
			return cmp.Compare(a.Cost, b.Cost)
		case SortCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return a.NextBillingDate.Compare(b.NextBillingDate.Time)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		c := by(subs[i], subs[j])
		if c == 0 {
			return subs[i].ID < subs[j].ID
		}
		if f.Order == OrderDesc {
			return c > 0
		}
		return c < 0
	})
}
