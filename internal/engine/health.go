package engine

import (
	"time"

	"github.com/FairForge/leadscore/internal/drift"
)

// PerformanceMetrics is the engine's read-only introspection surface
type PerformanceMetrics struct {
	Requests      int64         `json:"requests"`
	AccuracyProxy float64       `json:"accuracy_proxy"`
	LatencyP50    time.Duration `json:"latency_p50"`
	LatencyP95    time.Duration `json:"latency_p95"`
	LatencyP99    time.Duration `json:"latency_p99"`
	CacheHitRate  float64       `json:"cache_hit_rate"`
	StaleServes   int64         `json:"stale_serves"`
}

// GetPerformanceMetrics returns the current snapshot. The accuracy
// proxy is the running mean confidence of fresh results.
func (e *Engine) GetPerformanceMetrics() PerformanceMetrics {
	e.mu.Lock()
	requests := e.requests
	confidenceSum := e.confidenceSum
	e.mu.Unlock()

	var proxy float64
	if requests > 0 {
		proxy = confidenceSum / float64(requests)
	}

	cacheStats := e.cache.Stats()
	return PerformanceMetrics{
		Requests:      requests,
		AccuracyProxy: proxy,
		LatencyP50:    e.latency.Percentile(50),
		LatencyP95:    e.latency.Percentile(95),
		LatencyP99:    e.latency.Percentile(99),
		CacheHitRate:  cacheStats.HitRate(),
		StaleServes:   cacheStats.StaleServes,
	}
}

// Health statuses
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health rolls up component status for operators
func (e *Engine) Health() map[string]string {
	health := map[string]string{
		"cache": HealthOK,
		"model": HealthOK,
		"drift": HealthOK,
	}

	active, err := e.registry.Active()
	if err != nil {
		health["model"] = HealthDegraded
		return health
	}
	if state := e.monitor.State(active.Version); state == drift.StateDegraded {
		health["drift"] = HealthDegraded
	}
	return health
}
