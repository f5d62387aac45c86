package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest decision counters, one per protocol outcome.
	ReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_edge_received_total",
			Help: "Total number of telemetry messages received",
		},
	)

	AcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_edge_accepted_total",
			Help: "Total number of telemetry messages accepted",
		},
	)

	DuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_edge_duplicates_total",
			Help: "Total number of duplicate messages acknowledged",
		},
	)

	RejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_edge_rejected_total",
			Help: "Total number of messages rejected as invalid",
		},
	)

	OverloadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_edge_overload_total",
			Help: "Total number of messages refused by the simulated overload gate",
		},
	)

	DecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_edge_decision_duration_seconds",
			Help:    "Duration of ingest decisions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Dedup cache metrics
	DedupEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telhawk_edge_dedup_entries",
			Help: "Current number of unexpired dedup entries (memory backend only)",
		},
	)

	StorageErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_edge_storage_errors_total",
			Help: "Total number of reading store failures",
		},
	)
)
