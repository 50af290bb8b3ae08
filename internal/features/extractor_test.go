package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot() *LeadSnapshot {
	captured := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &LeadSnapshot{
		LeadID:     "lead-100",
		CapturedAt: captured,
		CreatedAt:  captured.Add(-30 * 24 * time.Hour),
		Company:    "Acme",
		Industry:   "software",
		Seniority:  "director",
		FirmSize:   120,
		Name:       "Dana Reyes",
		Email:      "dana@acme.example",
		Phone:      "+1-555-0100",
		Source:     "website",
		Events: []Event{
			{Type: EventVisit, OccurredAt: captured.Add(-48 * time.Hour)},
			{Type: EventVisit, OccurredAt: captured.Add(-24 * time.Hour)},
			{Type: EventSession, OccurredAt: captured.Add(-24 * time.Hour), DurationSeconds: 300},
			{Type: EventEmailOpen, OccurredAt: captured.Add(-12 * time.Hour)},
			{Type: EventEmailClick, OccurredAt: captured.Add(-12 * time.Hour)},
		},
		ResponseCount:  3,
		OutreachCount:  6,
		CallCount:      2,
		DemoRequests:   1,
		SocialActivity: 4,
		ReferralCount:  1,
		LastActivityAt: captured.Add(-12 * time.Hour),
	}
}

func TestExtractor_Extract(t *testing.T) {
	extractor := NewExtractor(zap.NewNop())

	t.Run("populates the full schema", func(t *testing.T) {
		// Arrange
		snap := testSnapshot()

		// Act
		fv, err := extractor.Extract(snap)

		// Assert
		require.NoError(t, err)
		assert.True(t, fv.Complete(), "every schema feature must be present")
		for _, category := range Categories() {
			for _, name := range Schema(category) {
				_, ok := fv[name]
				assert.True(t, ok, "missing feature %s", name)
			}
		}
	})

	t.Run("aggregates behavioral events", func(t *testing.T) {
		snap := testSnapshot()

		fv, err := extractor.Extract(snap)

		require.NoError(t, err)
		assert.Equal(t, 2.0, fv[FeatureSiteVisits])
		assert.Equal(t, 300.0, fv[FeatureAvgSessionDuration])
		assert.Equal(t, 1.0, fv[FeatureEmailOpens])
		assert.Equal(t, 1.0, fv[FeatureEmailClicks])
	})

	t.Run("engagement ratios guard zero division", func(t *testing.T) {
		snap := testSnapshot()
		snap.ResponseCount = 0
		snap.OutreachCount = 0

		fv, err := extractor.Extract(snap)

		require.NoError(t, err)
		assert.Equal(t, 0.0, fv[FeatureResponseRate])
	})

	t.Run("temporal features derive from captured time", func(t *testing.T) {
		snap := testSnapshot()

		fv, err := extractor.Extract(snap)

		require.NoError(t, err)
		assert.InDelta(t, 30.0, fv[FeatureRecordAgeDays], 0.01)
		assert.InDelta(t, 0.5, fv[FeatureDaysSinceActivity], 0.01)

		// Half a day against a 7 day half-life
		want := math.Exp(-math.Ln2 * 0.5 / 7)
		assert.InDelta(t, want, fv[FeatureActivityDecay], 1e-9)
	})

	t.Run("unknown demographics impute to the unknown bucket", func(t *testing.T) {
		snap := testSnapshot()
		snap.Industry = ""
		snap.Seniority = "astronaut"
		snap.FirmSize = 0

		fv, err := extractor.Extract(snap)

		require.NoError(t, err)
		assert.Equal(t, industryWeightUnknown, fv[FeatureIndustryWeight])
		assert.Equal(t, seniorityLevelUnknown, fv[FeatureSeniorityLevel])
		assert.Equal(t, 0.4, fv[FeatureFirmSizeBucket])
	})

	t.Run("data completeness counts contact fields", func(t *testing.T) {
		snap := testSnapshot()
		snap.Title = ""
		snap.Website = ""
		// Name, Email, Phone populated -> 3 of 5

		fv, err := extractor.Extract(snap)

		require.NoError(t, err)
		assert.InDelta(t, 0.6, fv[FeatureDataCompleteness], 1e-9)
	})

	t.Run("unlisted source falls to the unknown weight", func(t *testing.T) {
		snap := testSnapshot()
		snap.Source = "carrier_pigeon"

		fv, err := extractor.Extract(snap)

		require.NoError(t, err)
		assert.Equal(t, sourceQualityUnknown, fv[FeatureSourceQuality])
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		snap := testSnapshot()

		first, err := extractor.Extract(snap)
		require.NoError(t, err)
		second, err := extractor.Extract(snap)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestExtractor_SchemaErrors(t *testing.T) {
	extractor := NewExtractor(zap.NewNop())

	t.Run("missing lead id fails loudly", func(t *testing.T) {
		snap := testSnapshot()
		snap.LeadID = ""

		_, err := extractor.Extract(snap)

		require.Error(t, err)
		var schemaErr SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "lead_id", schemaErr.Field)
	})

	t.Run("missing captured timestamp fails loudly", func(t *testing.T) {
		snap := testSnapshot()
		snap.CapturedAt = time.Time{}

		_, err := extractor.Extract(snap)

		var schemaErr SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "captured_at", schemaErr.Field)
	})

	t.Run("missing created timestamp fails loudly", func(t *testing.T) {
		snap := testSnapshot()
		snap.CreatedAt = time.Time{}

		_, err := extractor.Extract(snap)

		var schemaErr SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "created_at", schemaErr.Field)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		_, err := extractor.Extract(nil)
		require.Error(t, err)
	})
}

func TestFeatureVector_Restrict(t *testing.T) {
	extractor := NewExtractor(zap.NewNop())
	fv, err := extractor.Extract(testSnapshot())
	require.NoError(t, err)

	restricted := fv.Restrict(CategoryEngagement)

	assert.Len(t, restricted, len(Schema(CategoryEngagement)))
	for _, name := range Schema(CategoryEngagement) {
		assert.Contains(t, restricted, name)
	}
	assert.NotContains(t, restricted, FeatureSiteVisits)
}
