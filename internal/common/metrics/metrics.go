package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SurveysScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_handler_surveys_scored_total",
			Help: "Total number of survey submissions scored",
		},
		[]string{"kind", "outcome"},
	)

	RiskLevel = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "score_handler_risk_level",
			Help:    "Distribution of aggregate risk levels",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	PlansComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_handler_repayment_plans_total",
			Help: "Total number of repayment plans computed",
		},
		[]string{"mode", "outcome"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_handler_risk_distance_classifications_total",
			Help: "Total number of risk-distance classifications by category",
		},
		[]string{"category"},
	)

	ModelRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_handler_risk_model_rebuilds_total",
			Help: "Total number of risk-distance model rebuilds",
		},
		[]string{"outcome"},
	)

	ReferencePopulation = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "score_handler_reference_population_size",
			Help: "Number of reference profiles in the last built model",
		},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "score_handler_operation_duration_seconds",
			Help:    "Duration of caller-facing operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_handler_storage_errors_total",
			Help: "Total number of failed persistence calls",
		},
		[]string{"operation"},
	)

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
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
