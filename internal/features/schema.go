package features

// Feature categories
const (
	CategoryBehavioral  = "behavioral"
	CategoryDemographic = "demographic"
	CategoryEngagement  = "engagement"
	CategoryTemporal    = "temporal"
	CategoryInteraction = "interaction"
	CategoryQuality     = "quality"
)

// Behavioral features
const (
	FeatureSiteVisits         = "site_visits"
	FeatureAvgSessionDuration = "avg_session_duration"
	FeatureEmailOpens         = "email_opens"
	FeatureEmailClicks        = "email_clicks"
)

// Demographic features
const (
	FeatureFirmSizeBucket = "firm_size_bucket"
	FeatureIndustryWeight = "industry_weight"
	FeatureSeniorityLevel = "seniority_level"
)

// Engagement features
const (
	FeatureResponseRate  = "response_rate"
	FeatureCallFrequency = "call_frequency"
	FeatureDemoRequests  = "demo_requests"
)

// Temporal features
const (
	FeatureRecordAgeDays     = "record_age_days"
	FeatureDaysSinceActivity = "days_since_activity"
	FeatureActivityDecay     = "activity_decay"
)

// Interaction features
const (
	FeatureSocialActivity = "social_activity"
	FeatureReferralCount  = "referral_count"
)

// Quality features
const (
	FeatureDataCompleteness = "data_completeness"
	FeatureSourceQuality    = "source_quality"
)

// schema maps each category to its fixed feature set. Every extraction
// populates every name listed here; imputation fills what the snapshot
// lacks, never omission.
var schema = map[string][]string{
	CategoryBehavioral:  {FeatureSiteVisits, FeatureAvgSessionDuration, FeatureEmailOpens, FeatureEmailClicks},
	CategoryDemographic: {FeatureFirmSizeBucket, FeatureIndustryWeight, FeatureSeniorityLevel},
	CategoryEngagement:  {FeatureResponseRate, FeatureCallFrequency, FeatureDemoRequests},
	CategoryTemporal:    {FeatureRecordAgeDays, FeatureDaysSinceActivity, FeatureActivityDecay},
	CategoryInteraction: {FeatureSocialActivity, FeatureReferralCount},
	CategoryQuality:     {FeatureDataCompleteness, FeatureSourceQuality},
}

// Categories returns the six fixed category names in stable order
func Categories() []string {
	return []string{
		CategoryBehavioral,
		CategoryDemographic,
		CategoryEngagement,
		CategoryTemporal,
		CategoryInteraction,
		CategoryQuality,
	}
}

// Schema returns the full feature-name list for a category. The returned
// slice is shared; callers must not modify it.
func Schema(category string) []string {
	return schema[category]
}

// FeatureVector maps feature name to numeric value. Derived
// deterministically from a LeadSnapshot.
type FeatureVector map[string]float64

// Restrict returns a copy of the vector containing only the named
// category's features. Used for per-category sub-scoring.
func (fv FeatureVector) Restrict(category string) FeatureVector {
	names := schema[category]
	out := make(FeatureVector, len(names))
	for _, name := range names {
		if v, ok := fv[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Complete reports whether every feature in the schema is present
func (fv FeatureVector) Complete() bool {
	for _, names := range schema {
		for _, name := range names {
			if _, ok := fv[name]; !ok {
				return false
			}
		}
	}
	return true
}

// sourceQuality is a static weight table keyed by acquisition channel.
// Unlisted channels fall to the unknown weight.
var sourceQuality = map[string]float64{
	"referral":   1.0,
	"website":    0.85,
	"google_ads": 0.7,
	"facebook":   0.55,
	"instagram":  0.5,
	"cold_call":  0.35,
}

const sourceQualityUnknown = 0.5

// industryWeight buckets industries by historical conversion strength.
// Absent or unlisted industries land in the unknown bucket.
var industryWeight = map[string]float64{
	"software":      0.9,
	"finance":       0.85,
	"healthcare":    0.75,
	"manufacturing": 0.65,
	"retail":        0.55,
	"education":     0.45,
}

const industryWeightUnknown = 0.5

// seniorityLevel maps job seniority to a 0..1 ordinal
var seniorityLevel = map[string]float64{
	"c_level":    1.0,
	"vp":         0.85,
	"director":   0.7,
	"manager":    0.55,
	"individual": 0.35,
}

const seniorityLevelUnknown = 0.4
