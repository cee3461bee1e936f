// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_messages_total",
			Help: "Messages handled by the pipeline by intent kind and outcome",
		},
		[]string{"intent", "outcome"},
	)

	MessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_message_duration_seconds",
			Help:    "End-to-end message handling latency",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	ExtractionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_extraction_total",
			Help: "Language extraction attempts by outcome and failure reason",
		},
		[]string{"outcome", "reason"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_extraction_duration_seconds",
			Help:    "Latency of the remote extraction call",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5},
		},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_upstream_requests_total",
			Help: "Outbound provider requests by host and status class",
		},
		[]string{"host", "status"},
	)

	NormalizerClamps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_normalizer_clamps_total",
			Help: "Intent fields dropped or corrected by the normalizer",
		},
		[]string{"field"},
	)

	ContinuationsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_continuations_total",
			Help: "Follow-up phrases resolved against the previous turn",
		},
		[]string{"kind"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_catalog_query_duration_seconds",
			Help:    "Catalog query latency by backend and intent kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "intent"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_catalog_query_errors_total",
			Help: "Catalog query failures by backend",
		},
		[]string{"backend"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_catalog_cache_lookups_total",
			Help: "Catalog result cache lookups by result",
		},
		[]string{"result"},
	)

	MemoryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_memory_operations_total",
			Help: "Conversation memory operations by backend, op and outcome",
		},
		[]string{"backend", "op", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
