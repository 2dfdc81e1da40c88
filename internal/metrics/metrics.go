// Package metrics exposes prometheus collectors for sync outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_runs_total",
			Help: "Total number of sync runs",
		},
		[]string{"scope", "status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadsync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	leadsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_leads_processed_total",
			Help: "Leads handled per outcome",
		},
		[]string{"result"}, // created | updated | skipped | ambiguous | not_found
	)

	providerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_provider_errors_total",
			Help: "Provider call failures by error class",
		},
		[]string{"provider", "class"}, // class: credential | transient | api
	)
)

func RecordRun(scope, status string, dur time.Duration) {
	runsTotal.WithLabelValues(scope, status).Inc()
	runDuration.Observe(dur.Seconds())
}

func RecordLead(result string) {
	leadsProcessed.WithLabelValues(result).Inc()
}

func RecordProviderError(provider, class string) {
	providerErrors.WithLabelValues(provider, class).Inc()
}
