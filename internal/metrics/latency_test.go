package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyTracker(t *testing.T) {
	t.Run("percentiles over a known distribution", func(t *testing.T) {
		tracker := NewLatencyTracker()
		for i := 1; i <= 100; i++ {
			tracker.Record(time.Duration(i) * time.Millisecond)
		}

		assert.Equal(t, 50*time.Millisecond, tracker.Percentile(50))
		assert.Equal(t, 95*time.Millisecond, tracker.Percentile(95))
		assert.Equal(t, 99*time.Millisecond, tracker.Percentile(99))
	})

	t.Run("empty tracker returns zero", func(t *testing.T) {
		tracker := NewLatencyTracker()
		assert.Equal(t, time.Duration(0), tracker.Percentile(50))
	})

	t.Run("buffer is bounded", func(t *testing.T) {
		tracker := NewLatencyTracker()
		for i := 0; i < defaultMaxSamples*2; i++ {
			tracker.Record(time.Millisecond)
		}
		assert.Equal(t, defaultMaxSamples, tracker.Count())
	})
}
