package proxy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parable-systems/shepherd/pkg/intent"
)

// Metrics contains Prometheus metrics for the chat endpoint.
type Metrics struct {
	requests        *prometheus.CounterVec
	labels          *prometheus.CounterVec
	latency         prometheus.Histogram
	upstreamLatency prometheus.Histogram
	fallbacks       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Collectors are registered on the default registry; create at most one
// Metrics per process.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shepherd_chat_requests_total",
				Help: "Total number of chat requests by outcome",
			},
			[]string{"status"},
		),

		labels: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shepherd_chat_labels_total",
				Help: "Total number of classified messages by intent label",
			},
			[]string{"label"},
		),

		latency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shepherd_chat_request_duration_seconds",
				Help:    "End-to-end chat request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		upstreamLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shepherd_chat_upstream_duration_seconds",
				Help:    "Upstream completion call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		fallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shepherd_chat_classifier_fallbacks_total",
				Help: "Total number of classifications that used the fallback label",
			},
		),
	}
}

// RecordRequest records a completed chat request.
func (m *Metrics) RecordRequest(status string, duration time.Duration) {
	m.requests.WithLabelValues(status).Inc()
	m.latency.Observe(duration.Seconds())
}

// RecordClassification records the label a message was classified as.
func (m *Metrics) RecordClassification(label intent.Label, fallbackUsed bool) {
	m.labels.WithLabelValues(string(label)).Inc()
	if fallbackUsed {
		m.fallbacks.Inc()
	}
}

// RecordUpstreamLatency records the duration of the completion call.
func (m *Metrics) RecordUpstreamLatency(duration time.Duration) {
	m.upstreamLatency.Observe(duration.Seconds())
}
