package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Weekly    BillingCycle = "weekly"
	Monthly   BillingCycle = "monthly"
	Quarterly BillingCycle = "quarterly"
	Yearly    BillingCycle = "yearly"
)

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Uncategorized is the label reports use for subscriptions without a legacy category.
const Uncategorized = "uncategorized"

const (
	MaxNameLength               = 100
	MaxCancellationReasonLength = 500
	MaxReminderDaysBefore       = 30
	DefaultReminderDaysBefore   = 3
)

type (
	BillingCycle string

	Status string

	// Date is a calendar day in UTC, serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Subscription struct {
		ID                        int64        `json:"id"`
		UserID                    int64        `json:"user_id"`
		Name                      string       `json:"name"`
		Cost                      float64      `json:"cost"`
		Currency                  string       `json:"currency"`
		BillingCycle              BillingCycle `json:"billing_cycle"`
		NextBillingDate           Date         `json:"next_billing_date"`
		Category                  *string      `json:"category"` // legacy label, superseded by CategoryID
		CategoryID                *int64       `json:"category_id"`
		ReminderDaysBefore        int          `json:"reminder_days_before"`
		CreatedAt                 time.Time    `json:"created_at"`
		UpdatedAt                 time.Time    `json:"updated_at"`
		Status                    Status       `json:"status"`
		CancelledAt               *time.Time   `json:"cancelled_at"`
		CancellationReason        *string      `json:"cancellation_reason"`
		CancellationEffectiveDate *Date        `json:"cancellation_effective_date"`
		DeletedAt                 *time.Time   `json:"-"`
		WasFreeTrial              bool         `json:"was_free_trial"`
		LastUsedAt                *time.Time   `json:"last_used_at"`
	}
)

// SupportedCurrencies lists the ISO codes accepted on write.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "SEK", "NOK", "DKK"}

// LegacyCategories lists the accepted values of Subscription.Category.
var LegacyCategories = []string{"streaming", "software", "utilities", "gaming", "other"}

var (
	ErrEmptyName              = errors.New("empty name")
	ErrNameTooLong            = errors.New("name too long (max 100 characters)")
	ErrInvalidCost            = errors.New("cost must be greater than zero")
	ErrUnsupportedCurrency    = errors.New("unsupported currency")
	ErrInvalidBillingCycle    = errors.New("invalid billing cycle")
	ErrInvalidReminderDays    = errors.New("reminder_days_before must be between 0 and 30")
	ErrInvalidLegacyCategory  = errors.New("invalid category")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrMissingCancelledAt     = errors.New("cancelled subscription must have cancelled_at")
	ErrCancelledBeforeCreated = errors.New("cancelled_at cannot precede created_at")
	ErrBillingDateInPast      = errors.New("next billing date cannot be in the past")
	ErrReasonTooLong          = errors.New("cancellation reason too long (max 500 characters)")
	ErrInvalidDate            = errors.New("invalid date")
)

var validationErrors = []error{
	ErrEmptyName, ErrNameTooLong, ErrInvalidCost, ErrUnsupportedCurrency,
	ErrInvalidBillingCycle, ErrInvalidReminderDays, ErrInvalidLegacyCategory,
	ErrInvalidStatus, ErrMissingCancelledAt, ErrCancelledBeforeCreated,
	ErrBillingDateInPast, ErrReasonTooLong, ErrInvalidDate,
	ErrInvalidEmail, ErrWeakPassword, ErrInvalidTimezone,
	ErrEmptyCategoryName, ErrCategoryNameTooLong, ErrInvalidIcon, ErrInvalidColor,
}

// IsValidationError reports whether err wraps one of the domain validation errors.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (c BillingCycle) IsValid() bool {
	switch c {
	case Weekly, Monthly, Quarterly, Yearly:
		return true
	default:
		return false
	}
}

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusCancelled
}

// IsSupportedCurrency reports whether code is one of SupportedCurrencies.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

func IsLegacyCategory(name string) bool {
	for _, c := range LegacyCategories {
		if c == name {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsCurrentlyActive reports whether the subscription is active and not soft-deleted.
func (s Subscription) IsCurrentlyActive() bool {
	return s.Status == StatusActive && s.DeletedAt == nil
}

// IsDeleted reports whether the subscription has been soft-deleted.
func (s Subscription) IsDeleted() bool {
	return s.DeletedAt != nil
}

// CategoryLabel returns the legacy category or the uncategorized sentinel.
func (s Subscription) CategoryLabel() string {
	if s.Category == nil || *s.Category == "" {
		return Uncategorized
	}
	return *s.Category
}

// Validate checks the fields a stored subscription must always satisfy.
func (s Subscription) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(s.Name)) > MaxNameLength {
		return ErrNameTooLong
	}
	if s.Cost <= 0 {
		return ErrInvalidCost
	}
	if !IsSupportedCurrency(s.Currency) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s.Currency)
	}
	if !s.BillingCycle.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidBillingCycle, s.BillingCycle)
	}
	if s.ReminderDaysBefore < 0 || s.ReminderDaysBefore > MaxReminderDaysBefore {
		return ErrInvalidReminderDays
	}
	if s.Category != nil && !IsLegacyCategory(*s.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidLegacyCategory, *s.Category)
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}
	if s.Status == StatusCancelled {
		if s.CancelledAt == nil {
			return ErrMissingCancelledAt
		}
		if !s.CreatedAt.IsZero() && s.CancelledAt.Before(s.CreatedAt) {
			return ErrCancelledBeforeCreated
		}
	}
	if s.CancellationReason != nil && len([]rune(*s.CancellationReason)) > MaxCancellationReasonLength {
		return ErrReasonTooLong
	}
	return nil
}
