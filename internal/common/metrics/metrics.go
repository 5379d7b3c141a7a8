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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DealsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deals_scored_total",
			Help: "Total number of deals scored, by resulting tier",
		},
		[]string{"tier"},
	)

	WeightRecalibrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weight_recalibrations_total",
			Help: "Total recalibration runs, by result (activated, skipped, failed)",
		},
		[]string{"result"},
	)

	LoanCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_calculations_total",
			Help: "Total loan structure calculations, by SBA eligibility outcome",
		},
		[]string{"eligible"},
	)
)
