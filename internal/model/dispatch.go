package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification channel constants. The channel set is closed: each variant
// carries a fixed payload contract, never an open-ended object bag.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// DispatchRecord is the durable proof that a specific reminder for a
// specific warranty was sent. (warranty_id, threshold_days) is unique and
// acts as the idempotency key: at most one record ever exists per pair.
// Records are created only by a successful notifier call and never updated.
type DispatchRecord struct {
	ID            uuid.UUID `json:"id" db:"id"`
	WarrantyID    uuid.UUID `json:"warranty_id" db:"warranty_id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	ThresholdDays int       `json:"threshold_days" db:"threshold_days"`
	Channel       string    `json:"channel" db:"channel"`
	ReminderType  string    `json:"reminder_type" db:"reminder_type"`
	SentAt        time.Time `json:"sent_at" db:"sent_at"`
}

// ReminderTypeForOffset maps a threshold offset to its reminder type,
// e.g. 30 -> "30_day". The set of types is derived from the configured
// thresholds, not free-form.
func ReminderTypeForOffset(days int) string {
	return fmt.Sprintf("%d_day", days)
}
