package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
)

type warrantyRepository struct {
	BaseRepository
}

func NewWarrantyRepository(base BaseRepository) repository.WarrantyRepository {
	return &warrantyRepository{base}
}

func (r *warrantyRepository) Create(ctx context.Context, w *model.Warranty) error {
	query := `
		INSERT INTO warranties (
			id, user_id, product_name, brand, serial_number,
			purchase_date, expiry_date, status, version, invoice_url,
			notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	w.ID = uuid.New()
	w.Version = 1
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			w.ID,
			w.UserID,
			w.ProductName,
			w.Brand,
			w.SerialNumber,
			w.PurchaseDate,
			w.ExpiryDate,
			w.Status,
			w.Version,
			w.InvoiceURL,
			w.Notes,
			w.CreatedAt,
			w.UpdatedAt,
		)
		return err
	})
}

func (r *warrantyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Warranty, error) {
	query := `
		SELECT * FROM warranties
		WHERE id = $1 AND deleted_at IS NULL
	`

	var w model.Warranty
	if err := r.db.GetContext(ctx, &w, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get warranty: %w", err)
	}

	return &w, nil
}

// Update persists a user edit. The version check makes the edit lose
// gracefully against a concurrent writer instead of silently clobbering it.
func (r *warrantyRepository) Update(ctx context.Context, w *model.Warranty) error {
	query := `
		UPDATE warranties SET
			product_name = $1,
			brand = $2,
			serial_number = $3,
			purchase_date = $4,
			expiry_date = $5,
			status = $6,
			invoice_url = $7,
			notes = $8,
			version = version + 1,
			updated_at = $9
		WHERE id = $10 AND version = $11 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		w.ProductName,
		w.Brand,
		w.SerialNumber,
		w.PurchaseDate,
		w.ExpiryDate,
		w.Status,
		w.InvoiceURL,
		w.Notes,
		time.Now(),
		w.ID,
		w.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update warranty: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrVersionConflict
	}

	w.Version++
	return nil
}

func (r *warrantyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE warranties
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete warranty: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *warrantyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Warranty, error) {
	query := `
		SELECT * FROM warranties
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY expiry_date ASC
	`

	var warranties []*model.Warranty
	if err := r.db.SelectContext(ctx, &warranties, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list warranties: %w", err)
	}

	return warranties, nil
}

// ListDueForScan returns candidates whose status may need recomputation or
// whose reminders may be due: everything expiring before now + horizon,
// where horizon covers the expiring-soon window and the farthest reminder
// threshold. Warranties that are already EXPIRED with the final threshold
// in the ledger have no possible work left and are excluded; without that
// anti-join they would pile up at the front of the expiry-ordered batch
// and eventually starve newer due warranties past the limit. Relies on the
// idx_warranties_expiry index.
func (r *warrantyRepository) ListDueForScan(ctx context.Context, now time.Time, horizon time.Duration, finalOffsetDays, limit int) ([]*model.ScanCandidate, error) {
	query := `
		SELECT w.*, u.is_active AS owner_active, u.email AS owner_email, u.name AS owner_name
		FROM warranties w
		JOIN users u ON u.id = w.user_id AND u.deleted_at IS NULL
		WHERE w.deleted_at IS NULL
		  AND w.expiry_date <= $1
		  AND NOT (w.status = $2 AND EXISTS (
			SELECT 1 FROM dispatch_records d
			WHERE d.warranty_id = w.id AND d.threshold_days = $3
		  ))
		ORDER BY w.expiry_date ASC
		LIMIT $4
	`

	var candidates []*model.ScanCandidate
	err := r.db.SelectContext(ctx, &candidates, query,
		now.Add(horizon), model.WarrantyStatusExpired, finalOffsetDays, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan candidates: %w", err)
	}

	return candidates, nil
}

func (r *warrantyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WarrantyStatus, expectedVersion int64) error {
	query := `
		UPDATE warranties
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, status, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update warranty status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrVersionConflict
	}

	return nil
}

func (r *warrantyRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM warranties WHERE deleted_at IS NULL`

	var count int64
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count warranties: %w", err)
	}

	return count, nil
}

func (r *warrantyRepository) CountByStatus(ctx context.Context, status model.WarrantyStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM warranties WHERE status = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("failed to count warranties by status: %w", err)
	}

	return count, nil
}

func (r *warrantyRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE warranties
		SET deleted_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete user warranties: %w", err)
	}

	return nil
}
