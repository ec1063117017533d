package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keypulse_probes_total",
			Help: "Total number of balance probes by classification",
		},
		[]string{"result"},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keypulse_probe_duration_seconds",
			Help:    "Balance probe latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
	)

	DisablesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keypulse_disables_total",
			Help: "Total number of billing disablements applied",
		},
	)

	ReenablesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keypulse_reenables_total",
			Help: "Total number of billing disablements cleared",
		},
	)

	LastRunCredentials = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keypulse_last_run_credentials",
			Help: "Credential counts from the most recent run",
		},
		[]string{"status"},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keypulse_last_run_timestamp_seconds",
			Help: "Unix time of the most recent completed run",
		},
	)
)
