// Package metrics defines Prometheus metrics for the statistics API and ingestion.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitiapi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitiapi_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitiapi_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitiapi_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	PageFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitiapi_source_fetches_total",
			Help: "Source page fetches by outcome (ok, cached, http_error, transport_error)",
		},
		[]string{"outcome"},
	)

	PageFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitiapi_source_fetch_duration_seconds",
			Help:    "Source page fetch duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	IngestedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitiapi_ingest_records_total",
			Help: "Records handled by ingestion, by domain and outcome (inserted, skipped, unresolved)",
		},
		[]string{"domain", "outcome"},
	)

	IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitiapi_ingest_duration_seconds",
			Help:    "Per-domain ingestion duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"domain"},
	)

	IngestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitiapi_ingest_failures_total",
			Help: "Domains whose ingestion aborted",
		},
		[]string{"domain"},
	)

	TableRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitiapi_table_rows",
			Help: "Row count per statistics table, refreshed by ingestion and the stats endpoint",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, RequestsInFlight, ErrorsTotal,
		PageFetches, PageFetchDuration,
		IngestedRecords, IngestDuration, IngestFailures,
		TableRows,
	)
}
