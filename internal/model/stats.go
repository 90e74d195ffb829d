package model

// PlatformStats is the admin platform overview. Counts are projections over
// the status values last written by the lifecycle engine; freshness is
// bounded by scan-cycle latency.
type PlatformStats struct {
	TotalUsers      int64 `json:"total_users"`
	ActiveUsers     int64 `json:"active_users"`
	TotalWarranties int64 `json:"total_warranties"`
	ExpiringSoon    int64 `json:"expiring_soon"`
	Expired         int64 `json:"expired"`
}

// ReminderCount is one bucket of a dispatch-ledger aggregation
type ReminderCount struct {
	Key   string `json:"key" db:"key"`
	Count int64  `json:"count" db:"count"`
}

// ReminderStats is the admin reminder-system overview
type ReminderStats struct {
	TotalReminders int64           `json:"total_reminders"`
	ByType         []ReminderCount `json:"by_type"`
	ByChannel      []ReminderCount `json:"by_channel"`
}
