// Package metrics provides Prometheus metrics for figma-sync.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote API metrics
	apiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figma_sync_api_calls_total",
			Help: "Figma API attempts by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	rateBudgetUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "figma_sync_rate_budget_used",
			Help: "Calls made in the current hour window",
		},
	)

	rateBudgetMax = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "figma_sync_rate_budget_max",
			Help: "Maximum calls allowed per hour window",
		},
	)

	// Sync metrics
	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figma_sync_runs_total",
			Help: "Sync runs by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	syncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "figma_sync_run_duration_seconds",
			Help:    "Duration of completed sync runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	fileSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figma_sync_files_total",
			Help: "Per-file sync results (synced, unchanged, failed)",
		},
		[]string{"status"},
	)

	schedulerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figma_sync_scheduler_ticks_total",
			Help: "Auto-sync timer firings by result",
		},
		[]string{"result"},
	)

	// Cache metrics
	cacheItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "figma_sync_cache_items",
			Help: "Items in the committed cache snapshot",
		},
		[]string{"kind"},
	)
)

// RecordAPICall counts one remote attempt.
func RecordAPICall(endpoint, outcome string) {
	apiCallsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// SetRateBudget publishes the limiter counters.
func SetRateBudget(used, max int) {
	rateBudgetUsed.Set(float64(used))
	rateBudgetMax.Set(float64(max))
}

// RecordSyncRun counts a finished sync run.
func RecordSyncRun(kind, outcome string, d time.Duration) {
	syncRunsTotal.WithLabelValues(kind, outcome).Inc()
	syncRunDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordFileSync counts a per-file result.
func RecordFileSync(status string) {
	fileSyncsTotal.WithLabelValues(status).Inc()
}

// RecordSchedulerTick counts an auto-sync firing ("started", "busy", "rate_limited", "fresh").
func RecordSchedulerTick(result string) {
	schedulerTicksTotal.WithLabelValues(result).Inc()
}

// SetCacheItems publishes the committed snapshot sizes.
func SetCacheItems(tokens, components, pages int) {
	cacheItems.WithLabelValues("tokens").Set(float64(tokens))
	cacheItems.WithLabelValues("components").Set(float64(components))
	cacheItems.WithLabelValues("pages").Set(float64(pages))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
