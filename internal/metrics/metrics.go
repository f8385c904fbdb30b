package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitdiary_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitdiary_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AIInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitdiary_ai_invocations_total",
			Help: "AI invocations by operation and outcome.",
		},
		[]string{"operation", "status"},
	)

	AIQuotaDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitdiary_ai_quota_denied_total",
			Help: "Requests rejected by the daily AI quota.",
		},
		[]string{"operation"},
	)

	AIRepairStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitdiary_ai_repair_stage_total",
			Help: "Stage at which model output became parseable.",
		},
		[]string{"operation", "stage"},
	)

	PlanFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitdiary_plan_fallback_total",
			Help: "Training plan requests served by the fallback generator.",
		},
	)

	AnalysisLogDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitdiary_analysis_log_dropped_total",
			Help: "Analysis log entries dropped because the buffer was full or the write failed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AIInvocationsTotal,
		AIQuotaDeniedTotal,
		AIRepairStageTotal,
		PlanFallbackTotal,
		AnalysisLogDroppedTotal,
	)
}
