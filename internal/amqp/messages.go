package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReminderEmailMessage asks the notifier to email a renewal reminder.
// It carries everything the email needs so the consumer does not have to
// read the subscription back.
type ReminderEmailMessage struct {
	MessageID        string    `json:"message_id"`
	UserID           int64     `json:"user_id"`
	SubscriptionID   int64     `json:"subscription_id"`
	Email            string    `json:"email"`
	SubscriptionName string    `json:"subscription_name"`
	Cost             float64   `json:"cost"`
	Currency         string    `json:"currency"`
	DaysUntilRenewal int       `json:"days_until_renewal"`
	NextBillingDate  string    `json:"next_billing_date"`
	ScheduledFor     time.Time `json:"scheduled_for"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewReminderEmailMessage stamps a fresh message id and timestamp on msg.
func NewReminderEmailMessage(msg ReminderEmailMessage) *ReminderEmailMessage {
	msg.MessageID = uuid.NewString()
	msg.Timestamp = time.Now()
	return &msg
}

// ToJSON converts the message to JSON bytes
func (m *ReminderEmailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderEmailMessageFromJSON creates a message from JSON bytes
func ReminderEmailMessageFromJSON(data []byte) (*ReminderEmailMessage, error) {
	var msg ReminderEmailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
