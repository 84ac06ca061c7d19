package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"substack/internal/core"
	"substack/web"
)

// Reminder holds the values shown in a renewal reminder email.
type Reminder struct {
	SubscriptionName string
	Cost             float64
	Currency         string
	NextBillingDate  string
	DaysUntilRenewal int
}

var reminderTemplate = template.Must(template.ParseFS(web.TemplatesFS, "templates/email/reminder.html"))

func daysText(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// ReminderSubject returns e.g. "Reminder: Netflix renews in 3 days".
func ReminderSubject(r Reminder) string {
	return fmt.Sprintf("Reminder: %s renews in %s", r.SubscriptionName, daysText(r.DaysUntilRenewal))
}

// RenderReminder builds the reminder email addressed to toAddress.
func RenderReminder(toAddress string, r Reminder) (Email, error) {
	var buf bytes.Buffer
	err := reminderTemplate.ExecuteTemplate(&buf, "reminder.html", struct {
		Reminder
		Amount   string
		DaysText string
	}{
		Reminder: r,
		Amount:   core.FormatAmount(r.Currency, r.Cost),
		DaysText: daysText(r.DaysUntilRenewal),
	})
	if err != nil {
		return Email{}, fmt.Errorf("render reminder: %w", err)
	}

	return Email{
		ToAddress: toAddress,
		Subject:   ReminderSubject(r),
		HTML:      buf.String(),
	}, nil
}
