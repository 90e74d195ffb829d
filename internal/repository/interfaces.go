package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/warrantywise/warranty-api/internal/model"
)

// ErrVersionConflict is returned by UpdateStatus when the expected version
// no longer matches, meaning a concurrent writer touched the record.
var ErrVersionConflict = errors.New("warranty version conflict")

// ErrNotFound is returned when a record does not exist or is soft-deleted.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// UserRepository handles account operations
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, role string) ([]*model.User, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
		Delete(ctx context.Context, id uuid.UUID) error
		Count(ctx context.Context, role string, activeOnly bool) (int64, error)
	}

	// WarrantyRepository handles warranty records and their status writes
	WarrantyRepository interface {
		Create(ctx context.Context, w *model.Warranty) error
		Get(ctx context.Context, id uuid.UUID) (*model.Warranty, error)
		Update(ctx context.Context, w *model.Warranty) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Warranty, error)

		// ListDueForScan returns warranties whose status may have changed or
		// whose reminders may be due at now, joined with the owner's active
		// flag. Candidates are ordered by expiry date. Warranties already
		// EXPIRED with finalOffsetDays in the dispatch ledger are finished
		// and excluded, so they can never crowd newer work out of the batch.
		ListDueForScan(ctx context.Context, now time.Time, horizon time.Duration, finalOffsetDays, limit int) ([]*model.ScanCandidate, error)

		// UpdateStatus performs a compare-and-swap on the version column.
		// Returns ErrVersionConflict when a concurrent edit won.
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.WarrantyStatus, expectedVersion int64) error

		CountAll(ctx context.Context) (int64, error)
		CountByStatus(ctx context.Context, status model.WarrantyStatus) (int64, error)
		DeleteByUser(ctx context.Context, userID uuid.UUID) error
	}

	// DispatchLogRepository is the idempotency ledger of sent reminders
	DispatchLogRepository interface {
		// TryRecord atomically inserts the record unless one already exists
		// for (warranty_id, threshold_days). Reports whether a row was
		// created; false means the reminder was already accounted for.
		TryRecord(ctx context.Context, rec *model.DispatchRecord) (bool, error)

		ListSentOffsets(ctx context.Context, warrantyID uuid.UUID) ([]int, error)
		CountAll(ctx context.Context) (int64, error)
		AggregateByType(ctx context.Context) ([]model.ReminderCount, error)
		AggregateByChannel(ctx context.Context) ([]model.ReminderCount, error)
		DeleteByWarranty(ctx context.Context, warrantyID uuid.UUID) error
		DeleteByUser(ctx context.Context, userID uuid.UUID) error
	}
)
