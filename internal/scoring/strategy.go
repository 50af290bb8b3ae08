package scoring

import (
	"math"

	"github.com/FairForge/leadscore/internal/features"
)

// Strategy names
const (
	StrategyGradient = "gradient"
	StrategyForest   = "forest"
	StrategyLinear   = "linear"
)

// Strategy evaluates a feature vector to a probability-like value in
// [0,1]. Implementations are stateless and must be deterministic for a
// fixed input.
type Strategy interface {
	Name() string
	Evaluate(fv features.FeatureVector) (float64, error)
}

// DefaultStrategies returns the fixed enumerable strategy set
func DefaultStrategies() []Strategy {
	return []Strategy{
		&GradientStrategy{},
		&ForestStrategy{},
		&LinearStrategy{},
	}
}

// featureScale normalizes raw feature values into [0,1] before the
// strategies consume them. Count-like features saturate at a fixed
// ceiling; ratio and lookup features are already unit-scaled.
var featureScale = map[string]func(float64) float64{
	features.FeatureSiteVisits:         capScale(20),
	features.FeatureAvgSessionDuration: capScale(600),
	features.FeatureEmailOpens:         capScale(20),
	features.FeatureEmailClicks:        capScale(10),
	features.FeatureCallFrequency:      capScale(10),
	features.FeatureDemoRequests:       capScale(3),
	features.FeatureSocialActivity:     capScale(10),
	features.FeatureReferralCount:      capScale(5),
	features.FeatureRecordAgeDays:      inverseScale(90),
	features.FeatureDaysSinceActivity:  inverseScale(14),
}

func capScale(ceiling float64) func(float64) float64 {
	return func(v float64) float64 {
		return clamp01(v / ceiling)
	}
}

// inverseScale maps "lower is better" day counts into [0,1], 1 at zero
// days and falling toward 0 as the count grows past the scale.
func inverseScale(scale float64) func(float64) float64 {
	return func(v float64) float64 {
		if v < 0 {
			v = 0
		}
		return 1 / (1 + v/scale)
	}
}

// normalize returns the unit-scaled value for a named feature
func normalize(name string, v float64) float64 {
	if scale, ok := featureScale[name]; ok {
		return scale(v)
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return math.Min(v, 1)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// normalized returns the unit-scaled view of the features present in fv,
// keyed by name. Strategies score whatever subset they are handed, which
// is how per-category sub-scoring reuses the same ensemble.
func normalized(fv features.FeatureVector) map[string]float64 {
	out := make(map[string]float64, len(fv))
	for name, v := range fv {
		out[name] = normalize(name, v)
	}
	return out
}

// meanOf averages the named features that are present, falling back to
// the overall mean when none of the names are in the vector.
func meanOf(norm map[string]float64, names ...string) float64 {
	var sum float64
	var n int
	for _, name := range names {
		if v, ok := norm[name]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return meanAll(norm)
	}
	return sum / float64(n)
}

func meanAll(norm map[string]float64) float64 {
	if len(norm) == 0 {
		return 0
	}
	var sum float64
	for _, v := range norm {
		sum += v
	}
	return sum / float64(len(norm))
}
