package drift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/leadscore/internal/scoring"
)

// resultsAround builds a deterministic sample spread around a center
func resultsAround(center float64, confidence float64, n int) []*scoring.ScoredResult {
	out := make([]*scoring.ScoredResult, n)
	for i := 0; i < n; i++ {
		score := center + float64(i%11) - 5
		out[i] = &scoring.ScoredResult{
			LeadID:       "lead",
			OverallScore: score,
			SubScores: map[string]float64{
				"behavioral": score - 2,
				"engagement": score + 2,
			},
			Confidence:   confidence,
			ModelVersion: "v1",
			ComputedAt:   time.Now().UTC(),
		}
	}
	return out
}

func feed(m *Monitor, results []*scoring.ScoredResult) {
	for _, r := range results {
		m.Record(r)
	}
}

func drainAlerts(m *Monitor) []Alert {
	var alerts []Alert
	for {
		select {
		case a := <-m.Alerts():
			alerts = append(alerts, a)
		default:
			return alerts
		}
	}
}

func testMonitor() *Monitor {
	cfg := DefaultConfig()
	cfg.MinWindow = 10
	cfg.WindowSize = 200
	return NewMonitor(cfg, zap.NewNop())
}

func TestMonitor_Evaluate(t *testing.T) {
	t.Run("six percent shift past a five percent threshold alerts", func(t *testing.T) {
		// Arrange
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")
		feed(m, resultsAround(53, 0.9, 100)) // 6% mean shift

		// Act
		m.Evaluate()

		// Assert
		alerts := drainAlerts(m)
		require.NotEmpty(t, alerts, "a 6%% shift must alert within one window")
		var sawMean bool
		for _, a := range alerts {
			if a.MetricName == MetricMeanScore {
				sawMean = true
				assert.Equal(t, "v1", a.ModelVersion)
				assert.InDelta(t, 0.06, a.Delta, 0.01)
				assert.Equal(t, SeverityLow, a.Severity)
			}
		}
		assert.True(t, sawMean, "mean_score should be among the alerting metrics")
	})

	t.Run("no baseline means no evaluation", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(80, 0.9, 100))

		m.Evaluate()

		assert.Empty(t, drainAlerts(m))
	})

	t.Run("stable window stays quiet", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")
		feed(m, resultsAround(50, 0.9, 100))

		m.Evaluate()

		for _, a := range drainAlerts(m) {
			assert.NotEqual(t, MetricMeanScore, a.MetricName)
		}
		assert.Equal(t, StateStable, m.State("v1"))
	})

	t.Run("severity escalates with magnitude", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")
		feed(m, resultsAround(80, 0.9, 100)) // 60% shift, 12x threshold

		m.Evaluate()

		alerts := drainAlerts(m)
		require.NotEmpty(t, alerts)
		var sawHigh bool
		for _, a := range alerts {
			if a.MetricName == MetricMeanScore {
				sawHigh = a.Severity == SeverityHigh
			}
		}
		assert.True(t, sawHigh, "a 12x-threshold shift must be high severity")
	})

	t.Run("accuracy proxy drift is tracked", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.95, 100))
		m.CaptureBaseline("v1")
		feed(m, resultsAround(50, 0.5, 100))

		m.Evaluate()

		var sawProxy bool
		for _, a := range drainAlerts(m) {
			if a.MetricName == MetricAccuracyProxy {
				sawProxy = true
			}
		}
		assert.True(t, sawProxy)
	})

	t.Run("distribution shape drift is tracked", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")

		// Same-ish mean, different shape: two tight clusters
		window := make([]*scoring.ScoredResult, 0, 100)
		for i := 0; i < 50; i++ {
			window = append(window, resultsAround(30, 0.9, 1)...)
			window = append(window, resultsAround(70, 0.9, 1)...)
		}
		for _, r := range window {
			m.Record(r)
		}

		m.Evaluate()

		var sawKS bool
		for _, a := range drainAlerts(m) {
			if a.MetricName == MetricScoreDistribution {
				sawKS = true
			}
		}
		assert.True(t, sawKS, "KS distance should catch a shape change")
	})
}

func TestMonitor_StateMachine(t *testing.T) {
	degrade := func(m *Monitor) {
		// Push a window far from baseline to force a high-severity pass
		feed(m, resultsAround(95, 0.9, 100))
		m.Evaluate()
	}

	t.Run("stable through warning to degraded with retrain", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")
		assert.Equal(t, StateStable, m.State("v1"))

		degrade(m)
		assert.Equal(t, StateWarning, m.State("v1"))

		degrade(m)
		assert.Equal(t, StateWarning, m.State("v1"))

		degrade(m)
		assert.Equal(t, StateDegraded, m.State("v1"))

		select {
		case req := <-m.Retrains():
			assert.Equal(t, "v1", req.ModelVersion)
			assert.NotEmpty(t, req.Reason)
		default:
			t.Fatal("expected a retrain request after three high windows")
		}
	})

	t.Run("clean window resets the streak", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")

		degrade(m)
		degrade(m)
		assert.Equal(t, StateWarning, m.State("v1"))

		feed(m, resultsAround(50, 0.9, 100))
		m.Evaluate()
		assert.Equal(t, StateStable, m.State("v1"))

		// Streak starts over, no retrain on the next high window
		degrade(m)
		assert.Equal(t, StateWarning, m.State("v1"))
		select {
		case <-m.Retrains():
			t.Fatal("retrain must need a fresh streak")
		default:
		}
	})

	t.Run("degraded holds through clean windows until a new baseline", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")
		degrade(m)
		degrade(m)
		degrade(m)
		require.Equal(t, StateDegraded, m.State("v1"))

		// Clean windows are not a recovery signal for a degraded
		// version; only a retrain with a fresh baseline is.
		for i := 0; i < 3; i++ {
			feed(m, resultsAround(50, 0.9, 100))
			m.Evaluate()
			assert.Equal(t, StateDegraded, m.State("v1"))
		}

		// Nor does renewed drift demote it back to warning
		degrade(m)
		assert.Equal(t, StateDegraded, m.State("v1"))
	})

	t.Run("fresh baseline returns a degraded version to stable", func(t *testing.T) {
		m := testMonitor()
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")
		degrade(m)
		degrade(m)
		degrade(m)
		require.Equal(t, StateDegraded, m.State("v1"))

		m.CaptureBaseline("v1")

		assert.Equal(t, StateStable, m.State("v1"))
	})

	t.Run("retrain requests are rate limited", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MinWindow = 10
		cfg.RetrainPerHour = 1
		m := NewMonitor(cfg, zap.NewNop())
		feed(m, resultsAround(50, 0.9, 100))
		m.CaptureBaseline("v1")

		degrade(m)
		degrade(m)
		degrade(m)
		require.Equal(t, StateDegraded, m.State("v1"))
		<-m.Retrains()

		// Recover then degrade again immediately
		feed(m, resultsAround(50, 0.9, 100))
		m.Evaluate()
		degrade(m)
		degrade(m)
		degrade(m)

		select {
		case <-m.Retrains():
			t.Fatal("second retrain within the limit window should be suppressed")
		default:
		}
	})
}

func TestMonitor_Record(t *testing.T) {
	t.Run("window is bounded", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.WindowSize = 50
		m := NewMonitor(cfg, zap.NewNop())

		feed(m, resultsAround(50, 0.9, 200))

		m.mu.Lock()
		defer m.mu.Unlock()
		assert.Len(t, m.versions["v1"].window, 50)
	})

	t.Run("nil results ignored", func(t *testing.T) {
		m := testMonitor()
		m.Record(nil)
		m.Evaluate()
		assert.Empty(t, drainAlerts(m))
	})
}

func TestKSDistance(t *testing.T) {
	t.Run("identical samples have zero distance", func(t *testing.T) {
		sample := []float64{1, 2, 3, 4, 5}
		assert.InDelta(t, 0, ksDistance(sample, sample), 1e-9)
	})

	t.Run("disjoint samples approach one", func(t *testing.T) {
		a := []float64{1, 2, 3, 4, 5}
		b := []float64{101, 102, 103, 104, 105}
		assert.InDelta(t, 1.0, ksDistance(a, b), 1e-9)
	})

	t.Run("empty samples are zero", func(t *testing.T) {
		assert.Zero(t, ksDistance(nil, []float64{1}))
	})
}
