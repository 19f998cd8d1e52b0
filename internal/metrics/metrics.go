// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptforge_submissions_total",
		Help: "Submission attempts by outcome.",
	}, []string{"outcome"}) // accepted, invalid, rate_limited, error

	WorkflowTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptforge_workflow_triggers_total",
		Help: "Generation workflow trigger attempts.",
	}, []string{"transport", "outcome"})

	StatusReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptforge_status_reads_total",
		Help: "Job status reads by access tier and outcome.",
	}, []string{"tier", "outcome"}) // tier: elevated, restricted

	ScriptFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptforge_script_fetches_total",
		Help: "Script fetches by outcome.",
	}, []string{"outcome"})

	StaleSubmissions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptforge_stale_submissions",
		Help: "Non-terminal submissions older than the stale threshold.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scriptforge_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
