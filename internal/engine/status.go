package engine

import (
	"time"

	"github.com/warrantywise/warranty-api/internal/model"
)

// EvaluateStatus derives a warranty's lifecycle status from its expiry date.
// Pure and total: no I/O, no error conditions.
//
// The expiry boundary is inclusive: on the expiry instant itself the product
// is no longer covered, so now == expiryDate yields EXPIRED. A zero or
// negative window degenerates to a plain ACTIVE/EXPIRED classification.
func EvaluateStatus(expiryDate, now time.Time, expiringSoonWindow time.Duration) model.WarrantyStatus {
	if !now.Before(expiryDate) {
		return model.WarrantyStatusExpired
	}
	if expiryDate.Sub(now) <= expiringSoonWindow {
		return model.WarrantyStatusExpiringSoon
	}
	return model.WarrantyStatusActive
}

// StatusRank orders statuses along the lifecycle. For a fixed expiry date
// the rank never decreases as time advances.
func StatusRank(s model.WarrantyStatus) int {
	switch s {
	case model.WarrantyStatusActive:
		return 0
	case model.WarrantyStatusExpiringSoon:
		return 1
	case model.WarrantyStatusExpired:
		return 2
	default:
		return -1
	}
}
