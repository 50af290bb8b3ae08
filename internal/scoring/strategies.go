package scoring

import (
	"github.com/FairForge/leadscore/internal/features"
)

// GradientStrategy is a boosted-stage estimator: a fixed sequence of
// stages, each contributing a margin proportional to how far a feature
// group sits from its center, squashed through a sigmoid.
type GradientStrategy struct{}

// Name returns the strategy name
func (g *GradientStrategy) Name() string { return StrategyGradient }

type gradientStage struct {
	names  []string
	center float64
	gain   float64
}

var gradientStages = []gradientStage{
	{names: []string{features.FeatureResponseRate, features.FeatureCallFrequency, features.FeatureDemoRequests}, center: 0.5, gain: 1.8},
	{names: []string{features.FeatureSiteVisits, features.FeatureAvgSessionDuration, features.FeatureEmailOpens, features.FeatureEmailClicks}, center: 0.5, gain: 1.6},
	{names: []string{features.FeatureActivityDecay, features.FeatureDaysSinceActivity, features.FeatureRecordAgeDays}, center: 0.5, gain: 1.2},
	{names: []string{features.FeatureDataCompleteness, features.FeatureSourceQuality}, center: 0.5, gain: 1.0},
	{names: []string{features.FeatureSeniorityLevel, features.FeatureIndustryWeight, features.FeatureFirmSizeBucket}, center: 0.5, gain: 0.8},
	{names: []string{features.FeatureSocialActivity, features.FeatureReferralCount}, center: 0.5, gain: 0.6},
}

// Evaluate runs the staged margin accumulation
func (g *GradientStrategy) Evaluate(fv features.FeatureVector) (float64, error) {
	if len(fv) == 0 {
		return 0, ErrMissingFeatures
	}
	norm := normalized(fv)

	var margin float64
	for _, stage := range gradientStages {
		margin += stage.gain * (meanOf(norm, stage.names...) - stage.center)
	}
	return sigmoid(margin), nil
}

// ForestStrategy is a tree-ensemble estimator: a small set of fixed rule
// trees whose leaf probabilities are averaged.
type ForestStrategy struct{}

// Name returns the strategy name
func (f *ForestStrategy) Name() string { return StrategyForest }

// Evaluate averages the rule trees
func (f *ForestStrategy) Evaluate(fv features.FeatureVector) (float64, error) {
	if len(fv) == 0 {
		return 0, ErrMissingFeatures
	}
	norm := normalized(fv)

	sum := f.engagementTree(norm) + f.behavioralTree(norm) + f.profileTree(norm)
	return sum / 3, nil
}

func (f *ForestStrategy) engagementTree(norm map[string]float64) float64 {
	e := meanOf(norm, features.FeatureResponseRate, features.FeatureCallFrequency, features.FeatureDemoRequests)
	switch {
	case e >= 0.7:
		if meanOf(norm, features.FeatureDemoRequests) >= 0.5 {
			return 0.95
		}
		return 0.85
	case e >= 0.4:
		return 0.55
	default:
		if meanOf(norm, features.FeatureActivityDecay) >= 0.6 {
			return 0.4
		}
		return 0.2
	}
}

func (f *ForestStrategy) behavioralTree(norm map[string]float64) float64 {
	b := meanOf(norm,
		features.FeatureSiteVisits,
		features.FeatureAvgSessionDuration,
		features.FeatureEmailOpens,
		features.FeatureEmailClicks)
	switch {
	case b >= 0.65:
		if meanOf(norm, features.FeatureEmailClicks) >= 0.5 {
			return 0.9
		}
		return 0.8
	case b >= 0.35:
		return 0.5
	default:
		return 0.25
	}
}

func (f *ForestStrategy) profileTree(norm map[string]float64) float64 {
	q := meanOf(norm,
		features.FeatureDataCompleteness,
		features.FeatureSourceQuality,
		features.FeatureSeniorityLevel)
	switch {
	case q >= 0.75:
		return 0.88
	case q >= 0.45:
		return 0.52
	default:
		return 0.3
	}
}

// LinearStrategy is a logistic estimator over the normalized features.
// Missing features drop out and the remaining weights renormalize, which
// lets the same coefficients serve per-category sub-scoring.
type LinearStrategy struct{}

// Name returns the strategy name
func (l *LinearStrategy) Name() string { return StrategyLinear }

var linearCoefficients = map[string]float64{
	features.FeatureSiteVisits:         0.06,
	features.FeatureAvgSessionDuration: 0.05,
	features.FeatureEmailOpens:         0.05,
	features.FeatureEmailClicks:        0.08,
	features.FeatureFirmSizeBucket:     0.04,
	features.FeatureIndustryWeight:     0.04,
	features.FeatureSeniorityLevel:     0.06,
	features.FeatureResponseRate:       0.10,
	features.FeatureCallFrequency:      0.06,
	features.FeatureDemoRequests:       0.07,
	features.FeatureRecordAgeDays:      0.04,
	features.FeatureDaysSinceActivity:  0.05,
	features.FeatureActivityDecay:      0.07,
	features.FeatureSocialActivity:     0.04,
	features.FeatureReferralCount:      0.05,
	features.FeatureDataCompleteness:   0.07,
	features.FeatureSourceQuality:      0.07,
}

// linearSteepness controls how sharply the logistic separates leads
// around the midpoint.
const linearSteepness = 6.0

// Evaluate computes the weighted logistic response
func (l *LinearStrategy) Evaluate(fv features.FeatureVector) (float64, error) {
	if len(fv) == 0 {
		return 0, ErrMissingFeatures
	}
	norm := normalized(fv)

	var weighted, totalWeight float64
	for name, v := range norm {
		w, ok := linearCoefficients[name]
		if !ok {
			continue
		}
		weighted += w * v
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0, ErrMissingFeatures
	}
	mean := weighted / totalWeight
	return sigmoid(linearSteepness * (mean - 0.5)), nil
}
