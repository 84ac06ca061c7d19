package core

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	ReminderTypeEmail = "email"
	ReminderTypeInApp = "in_app"

	ReminderStatusSent    = "sent"
	ReminderStatusFailed  = "failed"
	ReminderStatusSkipped = "skipped"
)

const (
	MaxCustomCategories      = 20
	MaxCategoryNameLength    = 50
	CustomCategoryOrder      = 100
	OtherCategoryName        = "Other"
	DefaultTimezone          = "UTC"
	MinPasswordLength        = 8
	passwordSpecialCharacter = `!@#$%^&*(),.?":{}|<>`
)

type (
	User struct {
		ID                        int64     `json:"id"`
		Email                     string    `json:"email"`
		HashedPassword            string    `json:"-"`
		CreatedAt                 time.Time `json:"created_at"`
		EmailNotificationsEnabled bool      `json:"email_notifications_enabled"`
		PushNotificationsEnabled  bool      `json:"push_notifications_enabled"`
		Timezone                  string    `json:"timezone"`
	}

	// Category is either a system category (UserID nil) or a user's custom one.
	Category struct {
		ID           int64      `json:"id"`
		UserID       *int64     `json:"-"`
		Name         string     `json:"name"`
		Icon         string     `json:"icon"`
		Color        string     `json:"color"`
		IsSystem     bool       `json:"is_system"`
		DisplayOrder int        `json:"display_order"`
		CreatedAt    time.Time  `json:"-"`
		UpdatedAt    time.Time  `json:"-"`
		DeletedAt    *time.Time `json:"-"`
	}

	ReminderLog struct {
		ID             int64     `json:"id"`
		UserID         int64     `json:"user_id"`
		SubscriptionID int64     `json:"subscription_id"`
		ReminderType   string    `json:"reminder_type"`
		ScheduledFor   time.Time `json:"scheduled_for"`
		SentAt         time.Time `json:"sent_at"`
		Status         string    `json:"status"`
		ErrorMessage   *string   `json:"error_message"`
		EmailID        *string   `json:"email_id"`
	}
)

// SystemCategories is the seed set every user sees.
var SystemCategories = []Category{
	{Name: "Entertainment", Icon: "play.tv.fill", Color: "#E91E63", IsSystem: true, DisplayOrder: 1},
	{Name: "Productivity", Icon: "laptopcomputer", Color: "#2196F3", IsSystem: true, DisplayOrder: 2},
	{Name: "Health", Icon: "heart.fill", Color: "#4CAF50", IsSystem: true, DisplayOrder: 3},
	{Name: "Finance", Icon: "creditcard.fill", Color: "#FF9800", IsSystem: true, DisplayOrder: 4},
	{Name: "Education", Icon: "book.fill", Color: "#9C27B0", IsSystem: true, DisplayOrder: 5},
	{Name: "Shopping", Icon: "cart.fill", Color: "#00BCD4", IsSystem: true, DisplayOrder: 6},
	{Name: OtherCategoryName, Icon: "ellipsis.circle.fill", Color: "#607D8B", IsSystem: true, DisplayOrder: 99},
}

// CategoryIcons is the set of SF Symbol names a category may use.
var CategoryIcons = map[string]struct{}{
	"play.tv.fill": {}, "play.circle.fill": {}, "film.fill": {}, "music.note": {}, "gamecontroller.fill": {},
	"laptopcomputer": {}, "desktopcomputer": {}, "keyboard": {}, "doc.fill": {}, "folder.fill": {},
	"heart.fill": {}, "figure.run": {}, "cross.fill": {}, "pills.fill": {}, "stethoscope": {},
	"creditcard.fill": {}, "dollarsign.circle.fill": {}, "banknote.fill": {}, "chart.line.uptrend.xyaxis": {},
	"book.fill": {}, "graduationcap.fill": {}, "pencil": {}, "lightbulb.fill": {}, "brain.head.profile": {},
	"cart.fill": {}, "bag.fill": {}, "shippingbox.fill": {}, "gift.fill": {},
	"message.fill": {}, "envelope.fill": {}, "phone.fill": {}, "video.fill": {},
	"gearshape.fill": {}, "wrench.fill": {}, "hammer.fill": {}, "cloud.fill": {},
	"folder": {}, "star.fill": {}, "bookmark.fill": {}, "tag.fill": {}, "house.fill": {},
	"ellipsis.circle.fill": {}, "square.grid.2x2.fill": {}, "circle.fill": {},
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password must be at least 8 characters and contain a number and a special character")
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrEmptyCategoryName   = errors.New("empty category name")
	ErrCategoryNameTooLong = errors.New("category name too long (max 50 characters)")
	ErrInvalidIcon         = errors.New("invalid icon")
	ErrInvalidColor        = errors.New("invalid hex color, must be in format #RRGGBB")
)

// NormalizeEmail lowercases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hasDigit := strings.IndexFunc(password, unicode.IsDigit) >= 0
	hasSpecial := strings.ContainsAny(password, passwordSpecialCharacter)
	if !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

func ValidateTimezone(tz string) error {
	if tz == "" {
		return ErrInvalidTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return ErrInvalidTimezone
	}
	return nil
}

func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if len([]rune(name)) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	return nil
}

func ValidateIcon(icon string) error {
	if _, ok := CategoryIcons[icon]; !ok {
		return ErrInvalidIcon
	}
	return nil
}

// NormalizeColor validates a #RRGGBB color and returns it upper-cased.
func NormalizeColor(color string) (string, error) {
	if !hexColorPattern.MatchString(color) {
		return "", ErrInvalidColor
	}
	return strings.ToUpper(color), nil
}
