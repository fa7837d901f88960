package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the quota package.
type Metrics struct {
	decisions       *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	trackedCallers  prometheus.Gauge
	sweepRuns       prometheus.Counter
	sweptRecords    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Collectors are registered on the default registry; create at most one
// Metrics per process.
func NewMetrics() *Metrics {
	return &Metrics{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shepherd_quota_decisions_total",
				Help: "Total number of quota decisions by result",
			},
			[]string{"result"},
		),

		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shepherd_quota_rejections_total",
				Help: "Total number of quota rejections by reason",
			},
			[]string{"reason"},
		),

		trackedCallers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shepherd_quota_tracked_callers",
				Help: "Current number of caller records in the quota store",
			},
		),

		sweepRuns: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shepherd_quota_sweep_runs_total",
				Help: "Total number of sweep executions",
			},
		),

		sweptRecords: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shepherd_quota_swept_records_total",
				Help: "Total number of stale caller records removed by sweeps",
			},
		),
	}
}

// RecordDecision records a quota decision and, for rejections, the reason.
func (m *Metrics) RecordDecision(allowed bool, reason Reason) {
	result := "allowed"
	if !allowed {
		result = "rejected"
		m.rejections.WithLabelValues(string(reason)).Inc()
	}
	m.decisions.WithLabelValues(result).Inc()
}

// RecordSweep records one sweep run and how many records it removed.
func (m *Metrics) RecordSweep(removed int) {
	m.sweepRuns.Inc()
	m.sweptRecords.Add(float64(removed))
}

// SetTrackedCallers updates the tracked-caller gauge.
func (m *Metrics) SetTrackedCallers(n int) {
	m.trackedCallers.Set(float64(n))
}
