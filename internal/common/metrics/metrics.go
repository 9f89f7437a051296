// internal/common/metrics/metrics.go
package metrics

import (
	"fourget-bridge/pkg/results"

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

	SidecarRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fourget_sidecar_request_duration_seconds",
			Help:    "Latency of calls to the 4get sidecar",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"endpoint", "outcome"},
	)

	FilterCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourget_filter_cache_lookups_total",
			Help: "Engine filter cache lookups by result",
		},
		[]string{"result"},
	)

	PipelineResultsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourget_results_emitted_total",
			Help: "Canonical results emitted by the normalization pipeline",
		},
		[]string{"engine", "kind"},
	)

	PipelineItemsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourget_items_dropped_total",
			Help: "Raw items rejected by the quality filter",
		},
		[]string{"engine", "category", "reason"},
	)

	PipelineMalformedResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourget_malformed_responses_total",
			Help: "Engine payloads discarded because of their top-level shape",
		},
		[]string{"engine"},
	)
)

// RecordPipeline exports the counts of one pipeline run.
func RecordPipeline(engine string, stats results.Stats) {
	if stats.Malformed {
		PipelineMalformedResponses.WithLabelValues(engine).Inc()
	}
	for kind, n := range stats.Emitted {
		PipelineResultsEmitted.WithLabelValues(engine, string(kind)).Add(float64(n))
	}
	for category, reasons := range stats.Dropped {
		for reason, n := range reasons {
			PipelineItemsDropped.WithLabelValues(engine, string(category), string(reason)).Add(float64(n))
		}
	}
}
