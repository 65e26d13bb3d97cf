// Package metrics registers the tracker's Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsComputed counts settlement records created by the
	// aggregate+simplify pipeline.
	SettlementsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_settlements_computed_total",
		Help: "Settlement records created",
	})

	// TransactionsEmitted counts simplified transactions attached to
	// created settlement records.
	TransactionsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_settlement_transactions_emitted_total",
		Help: "Settlement transactions produced by simplification",
	})

	// TransactionsSettled counts successful per-transaction settle marks.
	TransactionsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_settlement_transactions_settled_total",
		Help: "Settlement transactions marked settled",
	})

	// RecordsFinalized counts successful finalizations.
	RecordsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_settlements_finalized_total",
		Help: "Settlement records finalized",
	})

	// StorageFailures counts persistence errors surfaced by the services.
	StorageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_storage_failures_total",
		Help: "Persistence failures surfaced to callers",
	})

	computeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_settlement_compute_seconds",
		Help:    "Duration of the aggregate+simplify+create pipeline",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveCompute records one settlement computation duration.
func ObserveCompute(d time.Duration) {
	computeDuration.Observe(d.Seconds())
}
