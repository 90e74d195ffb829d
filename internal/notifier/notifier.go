package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReminderPayload is the fixed contract carried to every channel. The
// channel set is closed; there is no free-form payload bag.
type ReminderPayload struct {
	UserID        uuid.UUID `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	UserName      string    `json:"user_name"`
	WarrantyID    uuid.UUID `json:"warranty_id"`
	ProductName   string    `json:"product_name"`
	ExpiryDate    time.Time `json:"expiry_date"`
	ThresholdDays int       `json:"threshold_days"`
	ReminderType  string    `json:"reminder_type"`
}

// Notifier delivers a reminder through one channel. Implementations may be
// slow and may fail transiently; the engine retries unrecorded thresholds
// on the next scan cycle.
type Notifier interface {
	Send(ctx context.Context, payload ReminderPayload) error
	Channel() string
}
