package metrics

import (
	"sort"
	"sync"
	"time"
)

// defaultMaxSamples bounds the latency sample buffer
const defaultMaxSamples = 4096

// LatencyTracker keeps a bounded buffer of recent request latencies for
// percentile introspection. Prometheus histograms cover dashboards; this
// backs the engine's own GetPerformanceMetrics surface.
type LatencyTracker struct {
	mu         sync.Mutex
	samples    []time.Duration
	maxSamples int
}

// NewLatencyTracker creates a tracker with the default buffer size
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{maxSamples: defaultMaxSamples}
}

// Record adds a latency sample, evicting the oldest past capacity
func (t *LatencyTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, d)
	if len(t.samples) > t.maxSamples {
		t.samples = t.samples[len(t.samples)-t.maxSamples:]
	}
}

// Percentile returns the p-th percentile (0 < p <= 100) of the recorded
// samples, zero when empty.
func (t *LatencyTracker) Percentile(p float64) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(t.samples))
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted))*p/100) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Count returns how many samples are buffered
func (t *LatencyTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}
