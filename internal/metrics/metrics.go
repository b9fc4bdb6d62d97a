package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	PipelineRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_pipeline_requests_total",
			Help: "Total number of pipeline requests",
		},
		[]string{"entrypoint", "status"}, // status: success|client_error|server_error
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minerva_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"}, // select|score|keywords|summarize|features|fit|explain|narrate
	)

	DegradedResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_degraded_responses_total",
			Help: "Responses that lost one field to a sub-failure",
		},
		[]string{"component"}, // selector|keywords|summarizer|lexicon|narrative
	)

	// Cache metrics
	WeeklyCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_weekly_cache_total",
			Help: "Weekly analytics response cache lookups",
		},
		[]string{"result"}, // hit|miss
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minerva_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)
)

// Register registers all collectors with the default registry
func Register() {
	prometheus.MustRegister(
		PipelineRequests,
		StageDuration,
		DegradedResponses,
		WeeklyCacheHits,
		WorkerExecutions,
		WorkerDuration,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
