package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/leadscore/internal/features"
)

func extractFor(t *testing.T, snap *features.LeadSnapshot) features.FeatureVector {
	t.Helper()
	fv, err := features.NewExtractor(zap.NewNop()).Extract(snap)
	require.NoError(t, err)
	return fv
}

func coldSnapshot() *features.LeadSnapshot {
	captured := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &features.LeadSnapshot{
		LeadID:     "cold-1",
		CapturedAt: captured,
		CreatedAt:  captured.Add(-400 * 24 * time.Hour),
		Source:     "cold_call",
	}
}

func hotSnapshot() *features.LeadSnapshot {
	captured := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	events := make([]features.Event, 0, 60)
	for i := 0; i < 25; i++ {
		events = append(events, features.Event{Type: features.EventVisit, OccurredAt: captured.Add(-time.Duration(i) * time.Hour)})
	}
	for i := 0; i < 20; i++ {
		events = append(events, features.Event{Type: features.EventEmailOpen, OccurredAt: captured.Add(-time.Duration(i) * time.Hour)})
		events = append(events, features.Event{Type: features.EventEmailClick, OccurredAt: captured.Add(-time.Duration(i) * time.Hour)})
	}
	events = append(events, features.Event{Type: features.EventSession, OccurredAt: captured.Add(-time.Hour), DurationSeconds: 900})
	return &features.LeadSnapshot{
		LeadID:         "hot-1",
		CapturedAt:     captured,
		CreatedAt:      captured.Add(-10 * 24 * time.Hour),
		Industry:       "software",
		Seniority:      "c_level",
		FirmSize:       2000,
		Name:           "Riley Chen",
		Email:          "riley@example.com",
		Phone:          "+1-555-0199",
		Title:          "CEO",
		Website:        "example.com",
		Source:         "referral",
		Events:         events,
		ResponseCount:  10,
		OutreachCount:  10,
		CallCount:      12,
		DemoRequests:   3,
		SocialActivity: 15,
		ReferralCount:  6,
		LastActivityAt: captured.Add(-time.Hour),
	}
}

func TestStrategies(t *testing.T) {
	strategies := DefaultStrategies()

	t.Run("outputs stay in the unit interval", func(t *testing.T) {
		for _, snap := range []*features.LeadSnapshot{coldSnapshot(), hotSnapshot()} {
			fv := extractFor(t, snap)
			for _, s := range strategies {
				value, err := s.Evaluate(fv)
				require.NoError(t, err, s.Name())
				assert.GreaterOrEqual(t, value, 0.0, s.Name())
				assert.LessOrEqual(t, value, 1.0, s.Name())
			}
		}
	})

	t.Run("hot lead outscores cold lead", func(t *testing.T) {
		hot := extractFor(t, hotSnapshot())
		cold := extractFor(t, coldSnapshot())

		for _, s := range strategies {
			hotValue, err := s.Evaluate(hot)
			require.NoError(t, err)
			coldValue, err := s.Evaluate(cold)
			require.NoError(t, err)
			assert.Greater(t, hotValue, coldValue, s.Name())
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		fv := extractFor(t, hotSnapshot())
		for _, s := range strategies {
			first, err := s.Evaluate(fv)
			require.NoError(t, err)
			second, err := s.Evaluate(fv)
			require.NoError(t, err)
			assert.Equal(t, first, second, s.Name())
		}
	})

	t.Run("empty vector errors", func(t *testing.T) {
		for _, s := range strategies {
			_, err := s.Evaluate(features.FeatureVector{})
			assert.ErrorIs(t, err, ErrMissingFeatures, s.Name())
		}
	})

	t.Run("category restriction still evaluates", func(t *testing.T) {
		fv := extractFor(t, hotSnapshot())
		restricted := fv.Restrict(features.CategoryEngagement)

		for _, s := range strategies {
			value, err := s.Evaluate(restricted)
			require.NoError(t, err, s.Name())
			assert.GreaterOrEqual(t, value, 0.0)
			assert.LessOrEqual(t, value, 1.0)
		}
	})
}
