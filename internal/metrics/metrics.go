package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the reporting tool.
type Metrics struct {
	// Report cycle metrics
	ReportRuns     *prometheus.CounterVec
	ReportDuration *prometheus.HistogramVec

	// Snapshot store metrics
	SnapshotsSaved   *prometheus.CounterVec
	SnapshotsPruned  prometheus.Counter
	StoreErrors      *prometheus.CounterVec
	TrendUnavailable *prometheus.CounterVec

	// Attribution metrics
	Classifications *prometheus.CounterVec

	// Delivery metrics
	Deliveries *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ReportRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_runs_total",
				Help:      "Report cycles by account and outcome",
			},
			[]string{"account_id", "status"},
		),
		ReportDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Report cycle duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"account_id"},
		),
		SnapshotsSaved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_saved_total",
				Help:      "Metric snapshots persisted",
			},
			[]string{"account_id"},
		),
		SnapshotsPruned: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_pruned_total",
				Help:      "Snapshots deleted past the retention window",
			},
		),
		StoreErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Snapshot store failures by operation",
			},
			[]string{"operation"},
		),
		TrendUnavailable: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trend_unavailable_total",
				Help:      "Report cycles delivered without trend data",
			},
			[]string{"account_id", "reason"},
		),
		Classifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Install referrer classifications by channel",
			},
			[]string{"channel"},
		),
		Deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Report deliveries by status",
			},
			[]string{"status"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records one completed report cycle.
func (m *Metrics) RecordRun(accountID, status string, elapsed time.Duration) {
	m.ReportRuns.WithLabelValues(accountID, status).Inc()
	m.ReportDuration.WithLabelValues(accountID).Observe(elapsed.Seconds())
}

// RecordSnapshotSaved records a persisted snapshot.
func (m *Metrics) RecordSnapshotSaved(accountID string) {
	m.SnapshotsSaved.WithLabelValues(accountID).Inc()
}

// RecordPruned records deleted snapshots.
func (m *Metrics) RecordPruned(count int64) {
	m.SnapshotsPruned.Add(float64(count))
}

// RecordStoreError records a snapshot store failure.
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}

// RecordTrendUnavailable records a cycle that went out without trends.
func (m *Metrics) RecordTrendUnavailable(accountID, reason string) {
	m.TrendUnavailable.WithLabelValues(accountID, reason).Inc()
}

// RecordClassification records one classified install.
func (m *Metrics) RecordClassification(channel string) {
	m.Classifications.WithLabelValues(channel).Inc()
}

// RecordDelivery records a report delivery attempt.
func (m *Metrics) RecordDelivery(status string) {
	m.Deliveries.WithLabelValues(status).Inc()
}
