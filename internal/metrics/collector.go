package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_requests_total",
			Help: "Total number of scoring requests processed",
		},
		[]string{"path", "status"},
	)

	scoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadscore_score_duration_seconds",
			Help:    "Scoring request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// Cache metrics
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_cache_hits_total",
			Help: "Total number of score cache hits",
		},
	)

	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_cache_misses_total",
			Help: "Total number of score cache misses",
		},
	)

	staleServes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_cache_stale_serves_total",
			Help: "Total number of stale scores served in place of a failed or slow compute",
		},
	)

	// Drift metrics
	driftAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_drift_alerts_total",
			Help: "Total number of drift alerts emitted",
		},
		[]string{"severity"},
	)

	retrainRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_retrain_requests_total",
			Help: "Total number of retrain requests sent to the training service",
		},
	)

	// Model metrics
	activeModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadscore_active_model_info",
			Help: "Set to 1 for the currently active model version",
		},
		[]string{"version"},
	)
)

// Request paths
const (
	PathSingle = "single"
	PathBatch  = "batch"
)

// Request statuses
const (
	StatusOK    = "ok"
	StatusStale = "stale"
	StatusError = "error"
)

// RecordRequest counts one scoring request and its latency
func RecordRequest(path, status string, duration time.Duration) {
	requestsTotal.WithLabelValues(path, status).Inc()
	scoreDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordCacheHit counts a cache hit
func RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss counts a cache miss
func RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordStaleServe counts a stale score served for availability
func RecordStaleServe() {
	staleServes.Inc()
}

// RecordDriftAlert counts an emitted drift alert
func RecordDriftAlert(severity string) {
	driftAlerts.WithLabelValues(severity).Inc()
}

// RecordRetrainRequest counts a retrain request
func RecordRetrainRequest() {
	retrainRequests.Inc()
}

// SetActiveModel marks a model version as active
func SetActiveModel(version string) {
	activeModelInfo.Reset()
	activeModelInfo.WithLabelValues(version).Set(1)
}
