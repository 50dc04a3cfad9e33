package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foreman_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Ingestion metrics
	PlansIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_plans_ingested_total",
			Help: "Total number of plan ingestion requests by outcome",
		},
		[]string{"outcome"},
	)

	// Kernel metrics
	StatusEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_status_events_total",
			Help: "Total number of processed status events by outcome",
		},
		[]string{"outcome"},
	)

	PlansFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_plans_finished_total",
			Help: "Total number of plans that reached the finished state",
		},
	)

	PlansFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_plans_failed_total",
			Help: "Total number of plans that reached the failed state",
		},
	)

	// Trigger metrics
	TriggersFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_triggers_fired_total",
			Help: "Total number of execution triggers fired",
		},
	)

	TriggersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_triggers_failed_total",
			Help: "Total number of execution triggers that failed",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PlansIngested,
		StatusEventsTotal,
		PlansFinished,
		PlansFailed,
		TriggersFired,
		TriggersFailed,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
