package engine

import (
	"fmt"
	"time"
)

// ReminderPolicy decides which reminder thresholds are due for a warranty.
// Thresholds are day offsets measured backward from the expiry date and
// must be strictly decreasing and non-negative, e.g. {30, 7, 1}.
//
// The policy is idempotent by construction: offsets already present in the
// ledger are never returned again, so it is safe to re-run arbitrarily
// often. The ledger's atomic insert remains the authoritative safety net
// against races.
type ReminderPolicy struct {
	offsetDays []int
}

// NewReminderPolicy validates the configured offsets. An empty, negative or
// non-strictly-decreasing list is a configuration error: the engine refuses
// to start rather than produce incorrect reminder semantics.
func NewReminderPolicy(offsetDays []int) (*ReminderPolicy, error) {
	if len(offsetDays) == 0 {
		return nil, fmt.Errorf("reminder thresholds must not be empty")
	}
	for i, d := range offsetDays {
		if d < 0 {
			return nil, fmt.Errorf("reminder threshold %d must be non-negative", d)
		}
		if i > 0 && d >= offsetDays[i-1] {
			return nil, fmt.Errorf("reminder thresholds must be strictly decreasing, got %v", offsetDays)
		}
	}

	policy := &ReminderPolicy{offsetDays: make([]int, len(offsetDays))}
	copy(policy.offsetDays, offsetDays)
	return policy, nil
}

// OffsetDays returns the configured offsets, farthest from expiry first.
func (p *ReminderPolicy) OffsetDays() []int {
	out := make([]int, len(p.offsetDays))
	copy(out, p.offsetDays)
	return out
}

// MaxOffset returns the farthest configured offset as a duration. The scan
// horizon must cover it so that candidates surface in time.
func (p *ReminderPolicy) MaxOffset() time.Duration {
	return time.Duration(p.offsetDays[0]) * 24 * time.Hour
}

// FinalOffset returns the closest-to-expiry offset. Once it is in the
// ledger for an expired warranty, no reminder or status change can ever be
// due again; the scan uses this to drop finished warranties from the
// candidate set.
func (p *ReminderPolicy) FinalOffset() int {
	return p.offsetDays[len(p.offsetDays)-1]
}

// DueOffsets returns every threshold t where now has crossed
// expiryDate - t and t is not yet in the ledger. When the engine was
// offline across several boundaries, all of them are returned at once and
// dispatched independently, preserving a complete audit trail. Order is
// farthest-from-expiry first, the sequence a user would naturally see had
// the engine never been offline.
func (p *ReminderPolicy) DueOffsets(expiryDate, now time.Time, alreadySent map[int]bool) []int {
	var due []int
	for _, d := range p.offsetDays {
		if alreadySent[d] {
			continue
		}
		fireAt := expiryDate.Add(-time.Duration(d) * 24 * time.Hour)
		if !now.Before(fireAt) {
			due = append(due, d)
		}
	}
	return due
}
