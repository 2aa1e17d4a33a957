// Package metrics provides Prometheus metrics for the command center.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "command_center"

// Outcome labels for FetchTotal.
const (
	OutcomeOK      = "ok"
	OutcomeDecode  = "decode_error"
	OutcomeRequest = "request_error"
	OutcomeShape   = "shape_error"
	OutcomeOther   = "error"
)

// Metrics holds all collectors of the service.
type Metrics struct {
	FetchTotal     *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	StaleDiscarded prometheus.Counter
	Resolved       prometheus.Counter
	QueueSize      prometheus.Gauge
}

// New creates the collectors and registers them on reg when non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_fetch_total",
				Help:      "Fetches of the remote query source by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "queries_fetch_duration_seconds",
				Help:      "Latency of fetch-and-map cycles",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		StaleDiscarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_stale_discarded_total",
				Help:      "Fetch results dropped because a newer fetch was issued",
			},
		),
		Resolved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_resolved_total",
				Help:      "Queries resolved by agents",
			},
		),
		QueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_size",
				Help:      "Queries currently held in the agent queue",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.FetchTotal, m.FetchDuration, m.StaleDiscarded, m.Resolved, m.QueueSize)
	}
	return m
}
