package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yuruhealth_ingest_records_total",
			Help: "Ingestion outcomes by source and status",
		},
		[]string{"source", "status"},
	)

	TimestampFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yuruhealth_ingest_timestamp_fallbacks_total",
			Help: "Records whose recorded_at fell back to wall-clock time",
		},
		[]string{"source"},
	)

	// Fetch metrics
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yuruhealth_fetch_duration_seconds",
			Help:    "Duration of provider fetch calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yuruhealth_fetch_errors_total",
			Help: "Provider fetch failures by source",
		},
		[]string{"source"},
	)
)
