package features

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// activityHalfLife is the fixed half-life for the exponential activity
// decay feature.
const activityHalfLife = 7 * 24 * time.Hour

// requiredContactFields counted for the data-completeness feature
const requiredContactFields = 5

// Extractor derives a fixed-shape feature vector from a lead snapshot.
// Extraction is a deterministic pure function of the snapshot: temporal
// features are computed against CapturedAt, never the wall clock.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a feature extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract turns a snapshot into a feature vector covering the full
// schema. Missing demographic and engagement inputs impute per the
// documented defaults; fields with no default fail with a SchemaError.
func (e *Extractor) Extract(snap *LeadSnapshot) (FeatureVector, error) {
	if snap == nil {
		return nil, ErrMissingField("snapshot")
	}
	if err := snap.Validate(); err != nil {
		e.logger.Warn("snapshot failed schema validation",
			zap.String("lead_id", snap.LeadID),
			zap.Error(err))
		return nil, err
	}

	fv := make(FeatureVector, 17)
	e.extractBehavioral(snap, fv)
	e.extractDemographic(snap, fv)
	e.extractEngagement(snap, fv)
	e.extractTemporal(snap, fv)
	e.extractInteraction(snap, fv)
	e.extractQuality(snap, fv)
	return fv, nil
}

func (e *Extractor) extractBehavioral(snap *LeadSnapshot, fv FeatureVector) {
	var visits, opens, clicks float64
	var sessionTotal float64
	var sessions int

	for _, ev := range snap.Events {
		switch ev.Type {
		case EventVisit:
			visits++
		case EventEmailOpen:
			opens++
		case EventEmailClick:
			clicks++
		case EventSession:
			sessionTotal += ev.DurationSeconds
			sessions++
		}
	}

	fv[FeatureSiteVisits] = visits
	fv[FeatureAvgSessionDuration] = ratio(sessionTotal, float64(sessions))
	fv[FeatureEmailOpens] = opens
	fv[FeatureEmailClicks] = clicks
}

func (e *Extractor) extractDemographic(snap *LeadSnapshot, fv FeatureVector) {
	fv[FeatureFirmSizeBucket] = firmSizeBucket(snap.FirmSize)
	fv[FeatureIndustryWeight] = lookupOrDefault(industryWeight, snap.Industry, industryWeightUnknown)
	fv[FeatureSeniorityLevel] = lookupOrDefault(seniorityLevel, snap.Seniority, seniorityLevelUnknown)
}

func (e *Extractor) extractEngagement(snap *LeadSnapshot, fv FeatureVector) {
	fv[FeatureResponseRate] = ratio(float64(snap.ResponseCount), float64(snap.OutreachCount))
	fv[FeatureCallFrequency] = float64(snap.CallCount)
	fv[FeatureDemoRequests] = float64(snap.DemoRequests)
}

func (e *Extractor) extractTemporal(snap *LeadSnapshot, fv FeatureVector) {
	ageDays := snap.CapturedAt.Sub(snap.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	fv[FeatureRecordAgeDays] = ageDays

	last := snap.LastActivityAt
	if last.IsZero() {
		// No recorded activity: recency equals record age
		last = snap.CreatedAt
	}
	sinceDays := snap.CapturedAt.Sub(last).Hours() / 24
	if sinceDays < 0 {
		sinceDays = 0
	}
	fv[FeatureDaysSinceActivity] = sinceDays
	fv[FeatureActivityDecay] = math.Exp(-math.Ln2 * sinceDays / (activityHalfLife.Hours() / 24))
}

func (e *Extractor) extractInteraction(snap *LeadSnapshot, fv FeatureVector) {
	fv[FeatureSocialActivity] = float64(snap.SocialActivity)
	fv[FeatureReferralCount] = float64(snap.ReferralCount)
}

func (e *Extractor) extractQuality(snap *LeadSnapshot, fv FeatureVector) {
	populated := 0
	for _, f := range []string{snap.Name, snap.Email, snap.Phone, snap.Title, snap.Website} {
		if f != "" {
			populated++
		}
	}
	fv[FeatureDataCompleteness] = float64(populated) / float64(requiredContactFields)
	fv[FeatureSourceQuality] = lookupOrDefault(sourceQuality, snap.Source, sourceQualityUnknown)
}

// ratio returns numerator/denominator with a zero-division guard
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func lookupOrDefault(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return def
}

// firmSizeBucket maps employee count to a 0..1 bucket; zero or unknown
// sizes land mid-table rather than at the bottom.
func firmSizeBucket(size int) float64 {
	switch {
	case size <= 0:
		return 0.4 // unknown
	case size < 10:
		return 0.3
	case size < 50:
		return 0.5
	case size < 250:
		return 0.7
	case size < 1000:
		return 0.85
	default:
		return 1.0
	}
}
