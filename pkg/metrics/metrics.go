package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scan cycle metrics
	ScanCycles        prometheus.Counter
	ScanCycleDuration prometheus.Histogram
	WarrantiesScanned prometheus.Counter
	WarrantiesSkipped *prometheus.CounterVec

	// Dispatch metrics
	RemindersDispatched  *prometheus.CounterVec
	DuplicatesSuppressed prometheus.Counter
	NotifierFailures     *prometheus.CounterVec

	// Status metrics
	StatusTransitions *prometheus.CounterVec
	VersionConflicts  prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on the default
// registry.
func NewMetrics(namespace, subsystem string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace, subsystem)
}

// NewMetricsWith registers metrics on an explicit registerer. Tests use a
// fresh registry per instance to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScanCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scan_cycles_total",
			Help:      "Total number of completed scan cycles",
		}),
		ScanCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scan_cycle_duration_seconds",
			Help:      "Time spent running a full scan cycle",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		WarrantiesScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "warranties_scanned_total",
			Help:      "Total number of warranties evaluated by the engine",
		}),
		WarrantiesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "warranties_skipped_total",
			Help:      "Total number of warranties skipped during scans",
		}, []string{"reason"}),
		RemindersDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_dispatched_total",
			Help:      "Total number of reminders successfully dispatched",
		}, []string{"channel", "reminder_type"}),
		DuplicatesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duplicate_dispatches_suppressed_total",
			Help:      "Total number of dispatch attempts rejected by the ledger",
		}),
		NotifierFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifier_failures_total",
			Help:      "Total number of failed notifier calls",
		}, []string{"channel"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Total number of warranty status transitions persisted",
		}, []string{"to_status"}),
		VersionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "version_conflicts_total",
			Help:      "Total number of optimistic concurrency conflicts on status writes",
		}),
		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
