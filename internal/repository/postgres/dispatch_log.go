package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
)

type dispatchLogRepository struct {
	BaseRepository
}

func NewDispatchLogRepository(base BaseRepository) repository.DispatchLogRepository {
	return &dispatchLogRepository{base}
}

// TryRecord converts at-least-once delivery attempts into at-most-once
// accounting. The unique index on (warranty_id, threshold_days) makes the
// insert atomic under concurrent callers, including overlapping scan
// cycles; DO NOTHING keeps the loser side-effect free.
func (r *dispatchLogRepository) TryRecord(ctx context.Context, rec *model.DispatchRecord) (bool, error) {
	query := `
		INSERT INTO dispatch_records (
			id, warranty_id, user_id, threshold_days,
			channel, reminder_type, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (warranty_id, threshold_days) DO NOTHING
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.WarrantyID,
		rec.UserID,
		rec.ThresholdDays,
		rec.Channel,
		rec.ReminderType,
		rec.SentAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record dispatch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

func (r *dispatchLogRepository) ListSentOffsets(ctx context.Context, warrantyID uuid.UUID) ([]int, error) {
	query := `
		SELECT threshold_days FROM dispatch_records
		WHERE warranty_id = $1
	`

	var offsets []int
	if err := r.db.SelectContext(ctx, &offsets, query, warrantyID); err != nil {
		return nil, fmt.Errorf("failed to list sent offsets: %w", err)
	}

	return offsets, nil
}

func (r *dispatchLogRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM dispatch_records`

	var count int64
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count dispatch records: %w", err)
	}

	return count, nil
}

func (r *dispatchLogRepository) AggregateByType(ctx context.Context) ([]model.ReminderCount, error) {
	query := `
		SELECT reminder_type AS key, COUNT(*) AS count
		FROM dispatch_records
		GROUP BY reminder_type
		ORDER BY count DESC
	`

	var counts []model.ReminderCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate dispatches by type: %w", err)
	}

	return counts, nil
}

func (r *dispatchLogRepository) AggregateByChannel(ctx context.Context) ([]model.ReminderCount, error) {
	query := `
		SELECT channel AS key, COUNT(*) AS count
		FROM dispatch_records
		GROUP BY channel
		ORDER BY count DESC
	`

	var counts []model.ReminderCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate dispatches by channel: %w", err)
	}

	return counts, nil
}

func (r *dispatchLogRepository) DeleteByWarranty(ctx context.Context, warrantyID uuid.UUID) error {
	query := `DELETE FROM dispatch_records WHERE warranty_id = $1`

	if _, err := r.db.ExecContext(ctx, query, warrantyID); err != nil {
		return fmt.Errorf("failed to delete warranty dispatch records: %w", err)
	}

	return nil
}

func (r *dispatchLogRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM dispatch_records WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete user dispatch records: %w", err)
	}

	return nil
}
