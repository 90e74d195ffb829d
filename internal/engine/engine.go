package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/notifier"
	"github.com/warrantywise/warranty-api/internal/repository"
	"github.com/warrantywise/warranty-api/pkg/logger"
	"github.com/warrantywise/warranty-api/pkg/metrics"
)

// WarrantyStore is the slice of the warranty repository the engine needs.
type WarrantyStore interface {
	ListDueForScan(ctx context.Context, now time.Time, horizon time.Duration, finalOffsetDays, limit int) ([]*model.ScanCandidate, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Warranty, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.WarrantyStatus, expectedVersion int64) error
}

// DispatchLog is the slice of the ledger the engine needs.
type DispatchLog interface {
	TryRecord(ctx context.Context, rec *model.DispatchRecord) (bool, error)
	ListSentOffsets(ctx context.Context, warrantyID uuid.UUID) ([]int, error)
}

// Config enumerates the engine's tuning surface. There is no implicit
// tuning beyond these options.
type Config struct {
	ScanInterval       time.Duration
	ExpiringSoonWindow time.Duration
	ThresholdDays      []int
	Workers            int
	BatchSize          int
	ConflictRetries    int
}

// CycleStats summarizes one scan cycle.
type CycleStats struct {
	Scanned          int64
	Skipped          int64
	Dispatched       int64
	Duplicates       int64
	NotifierErrors   int64
	StatusUpdates    int64
	ConflictsDropped int64
}

// Engine drives the warranty lifecycle: it scans candidates, recomputes
// statuses, decides due reminders against the dispatch ledger, and sends
// them through the notifier with at-most-once accounting.
//
// The notifier call and the ledger insert are not one transaction: a crash
// between them can send a reminder whose ledger row never lands, and the
// next cycle will retry it. That at-least-once-delivery, at-most-once-
// accounting trade-off is accepted; a duplicate send is bounded to crash
// windows while a duplicate ledger row can never occur.
type Engine struct {
	warranties WarrantyStore
	ledger     DispatchLog
	notifier   notifier.Notifier
	policy     *ReminderPolicy
	clock      Clock
	cfg        Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// New validates the configuration and builds an engine. Invalid reminder
// thresholds or pool settings are fatal here, before any scan runs.
func New(
	warranties WarrantyStore,
	ledger DispatchLog,
	n notifier.Notifier,
	clock Clock,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) (*Engine, error) {
	policy, err := NewReminderPolicy(cfg.ThresholdDays)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder thresholds: %w", err)
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("scan interval must be positive")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("worker pool size must be positive")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if cfg.ConflictRetries <= 0 {
		return nil, fmt.Errorf("conflict retry bound must be positive")
	}

	return &Engine{
		warranties: warranties,
		ledger:     ledger,
		notifier:   n,
		policy:     policy,
		clock:      clock,
		cfg:        cfg,
		logger:     log,
		metrics:    m,
	}, nil
}

// Start runs scan cycles until ctx is canceled. In-flight notifier calls
// finish on their own budget; there is no partial-result rollback because
// each warranty's work is independently committed.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	e.logger.Info("starting lifecycle engine",
		"scan_interval", e.cfg.ScanInterval.String(),
		"thresholds", e.policy.OffsetDays())

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("shutting down lifecycle engine")
			return
		case <-ticker.C:
			if _, err := e.RunCycle(ctx, e.clock.Now()); err != nil {
				e.logger.Error(err, "scan cycle failed")
			}
		}
	}
}

// RunCycle executes one full pass over candidate warranties at the given
// instant. It is safe to invoke on demand; the ledger keeps overlapping
// cycles from double-sending.
func (e *Engine) RunCycle(ctx context.Context, now time.Time) (CycleStats, error) {
	timer := prometheus.NewTimer(e.metrics.ScanCycleDuration)
	defer timer.ObserveDuration()

	horizon := e.cfg.ExpiringSoonWindow
	if max := e.policy.MaxOffset(); max > horizon {
		horizon = max
	}

	candidates, err := e.warranties.ListDueForScan(ctx, now, horizon, e.policy.FinalOffset(), e.cfg.BatchSize)
	if err != nil {
		e.metrics.DatabaseOperations.WithLabelValues("list_due_for_scan", "error").Inc()
		return CycleStats{}, fmt.Errorf("failed to list scan candidates: %w", err)
	}
	e.metrics.DatabaseOperations.WithLabelValues("list_due_for_scan", "success").Inc()

	var stats CycleStats
	jobs := make(chan *model.ScanCandidate)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				e.processWarranty(ctx, now, cand, &stats)
			}
		}()
	}

feed:
	for _, cand := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- cand:
		}
	}
	close(jobs)
	wg.Wait()

	e.metrics.ScanCycles.Inc()
	e.logger.Debug("scan cycle complete",
		"scanned", atomic.LoadInt64(&stats.Scanned),
		"dispatched", atomic.LoadInt64(&stats.Dispatched),
		"status_updates", atomic.LoadInt64(&stats.StatusUpdates))

	return stats, ctx.Err()
}

// processWarranty runs the per-warranty state machine. Faults are isolated:
// one bad record or failed send never stops the rest of the cycle.
func (e *Engine) processWarranty(ctx context.Context, now time.Time, cand *model.ScanCandidate, stats *CycleStats) {
	atomic.AddInt64(&stats.Scanned, 1)
	e.metrics.WarrantiesScanned.Inc()

	if !cand.OwnerActive {
		atomic.AddInt64(&stats.Skipped, 1)
		e.metrics.WarrantiesSkipped.WithLabelValues("inactive_owner").Inc()
		return
	}

	// Malformed records are rejected by the create path; if one appears
	// anyway, skip it rather than halting the scan.
	if cand.ExpiryDate.Before(cand.PurchaseDate) {
		atomic.AddInt64(&stats.Skipped, 1)
		e.metrics.WarrantiesSkipped.WithLabelValues("invalid_dates").Inc()
		e.logger.Warn("skipping warranty with expiry before purchase",
			"warranty_id", cand.ID.String())
		return
	}

	newStatus := EvaluateStatus(cand.ExpiryDate, now, e.cfg.ExpiringSoonWindow)

	e.dispatchDueReminders(ctx, now, cand, stats)

	if newStatus != cand.Status {
		e.persistStatus(ctx, now, &cand.Warranty, newStatus, stats)
	}
}

func (e *Engine) dispatchDueReminders(ctx context.Context, now time.Time, cand *model.ScanCandidate, stats *CycleStats) {
	sentOffsets, err := e.ledger.ListSentOffsets(ctx, cand.ID)
	if err != nil {
		e.logger.Error(err, "failed to read dispatch ledger", "warranty_id", cand.ID.String())
		return
	}

	alreadySent := make(map[int]bool, len(sentOffsets))
	for _, d := range sentOffsets {
		alreadySent[d] = true
	}

	for _, offsetDays := range e.policy.DueOffsets(cand.ExpiryDate, now, alreadySent) {
		reminderType := model.ReminderTypeForOffset(offsetDays)

		payload := notifier.ReminderPayload{
			UserID:        cand.UserID,
			UserEmail:     cand.OwnerEmail,
			UserName:      cand.OwnerName,
			WarrantyID:    cand.ID,
			ProductName:   cand.ProductName,
			ExpiryDate:    cand.ExpiryDate,
			ThresholdDays: offsetDays,
			ReminderType:  reminderType,
		}

		// A failed send stays unrecorded so the next cycle retries it.
		// A late reminder is strictly better than a missing one, so
		// thresholds are never silently dropped, however old.
		if err := e.notifier.Send(ctx, payload); err != nil {
			atomic.AddInt64(&stats.NotifierErrors, 1)
			e.metrics.NotifierFailures.WithLabelValues(e.notifier.Channel()).Inc()
			e.logger.Error(err, "failed to send reminder",
				"warranty_id", cand.ID.String(),
				"reminder_type", reminderType)
			continue
		}

		created, err := e.ledger.TryRecord(ctx, &model.DispatchRecord{
			WarrantyID:    cand.ID,
			UserID:        cand.UserID,
			ThresholdDays: offsetDays,
			Channel:       e.notifier.Channel(),
			ReminderType:  reminderType,
			SentAt:        now,
		})
		if err != nil {
			e.logger.Error(err, "failed to record dispatch",
				"warranty_id", cand.ID.String(),
				"reminder_type", reminderType)
			continue
		}

		if created {
			atomic.AddInt64(&stats.Dispatched, 1)
			e.metrics.RemindersDispatched.WithLabelValues(e.notifier.Channel(), reminderType).Inc()
		} else {
			// A concurrent cycle won the insert; the send above was the
			// duplicate side of the race.
			atomic.AddInt64(&stats.Duplicates, 1)
			e.metrics.DuplicatesSuppressed.Inc()
		}
	}
}

// persistStatus performs the compare-and-swap write. On conflict the record
// is re-read and re-evaluated rather than overwritten, so a concurrent user
// edit to the dates is never silently dropped. Exhausting the retry bound
// defers the update to the next cycle.
func (e *Engine) persistStatus(ctx context.Context, now time.Time, w *model.Warranty, newStatus model.WarrantyStatus, stats *CycleStats) {
	version := w.Version

	for attempt := 0; attempt < e.cfg.ConflictRetries; attempt++ {
		err := e.warranties.UpdateStatus(ctx, w.ID, newStatus, version)
		if err == nil {
			atomic.AddInt64(&stats.StatusUpdates, 1)
			e.metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()
			return
		}

		if !errors.Is(err, repository.ErrVersionConflict) {
			e.logger.Error(err, "failed to persist status", "warranty_id", w.ID.String())
			return
		}

		e.metrics.VersionConflicts.Inc()

		fresh, err := e.warranties.Get(ctx, w.ID)
		if err != nil {
			e.logger.Error(err, "failed to re-read warranty after conflict", "warranty_id", w.ID.String())
			return
		}

		newStatus = EvaluateStatus(fresh.ExpiryDate, now, e.cfg.ExpiringSoonWindow)
		if fresh.Status == newStatus {
			return
		}
		version = fresh.Version
	}

	atomic.AddInt64(&stats.ConflictsDropped, 1)
	e.logger.Warn("deferring status update after repeated conflicts", "warranty_id", w.ID.String())
}
