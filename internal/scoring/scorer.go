package scoring

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/leadscore/internal/features"
)

// failurePenalty multiplies confidence once per excluded strategy
const failurePenalty = 0.8

// maxSpreadVariance is the largest possible variance of values in [0,1],
// used to normalize inter-strategy disagreement.
const maxSpreadVariance = 0.25

// ScoredResult is the output of one ensemble computation, written once
// and read-shared by the cache and callers.
type ScoredResult struct {
	LeadID       string             `json:"lead_id"`
	OverallScore float64            `json:"overall_score"`
	SubScores    map[string]float64 `json:"sub_scores"`
	Confidence   float64            `json:"confidence"`
	ModelVersion string             `json:"model_version"`
	VariantID    string             `json:"variant_id,omitempty"`
	ComputedAt   time.Time          `json:"computed_at"`
	Stale        bool               `json:"stale,omitempty"`
}

// Clone returns a copy safe for the caller to hold while the original
// stays in the cache.
func (r *ScoredResult) Clone() *ScoredResult {
	if r == nil {
		return nil
	}
	out := *r
	out.SubScores = make(map[string]float64, len(r.SubScores))
	for k, v := range r.SubScores {
		out.SubScores[k] = v
	}
	return &out
}

// Scorer applies the weighted strategy ensemble to a feature vector.
// Stateless and safe for concurrent use.
type Scorer struct {
	strategies map[string]Strategy
	logger     *zap.Logger
}

// NewScorer creates an ensemble scorer over the given strategies
func NewScorer(strategies []Strategy, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}
	return &Scorer{strategies: byName, logger: logger}
}

// StrategyNames returns the names of the configured strategies
func (s *Scorer) StrategyNames() []string {
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	return names
}

// Score computes the calibrated result for a feature vector against one
// model version. A strategy that errors is excluded for this call and
// weights renormalize over the survivors; only when every strategy fails
// does the call fail with UnavailableError.
func (s *Scorer) Score(leadID string, fv features.FeatureVector, mv *ModelVersion) (*ScoredResult, error) {
	if mv == nil {
		return nil, ErrNoActiveModel
	}
	if len(fv) == 0 {
		return nil, ErrMissingFeatures
	}

	overall, confidence, err := s.ensemble(fv, mv)
	if err != nil {
		return nil, err
	}

	subScores := make(map[string]float64, len(features.Categories()))
	for _, category := range features.Categories() {
		restricted := fv.Restrict(category)
		if len(restricted) == 0 {
			subScores[category] = overall
			continue
		}
		sub, _, subErr := s.ensemble(restricted, mv)
		if subErr != nil {
			// Sub-scores are explainability only; fall back to the
			// overall rather than failing the call.
			sub = overall
		}
		subScores[category] = sub
	}

	return &ScoredResult{
		LeadID:       leadID,
		OverallScore: overall,
		SubScores:    subScores,
		Confidence:   confidence,
		ModelVersion: mv.Version,
		ComputedAt:   time.Now().UTC(),
	}, nil
}

// ensemble returns the weighted 0..100 score and the agreement-based
// confidence for one vector.
func (s *Scorer) ensemble(fv features.FeatureVector, mv *ModelVersion) (float64, float64, error) {
	outputs := make([]float64, 0, len(mv.Weights))
	weights := make([]float64, 0, len(mv.Weights))
	failures := 0

	for _, name := range mv.StrategyNames() {
		strategy, ok := s.strategies[name]
		if !ok {
			failures++
			s.logger.Warn("model weights name an unconfigured strategy",
				zap.String("strategy", name),
				zap.String("model_version", mv.Version))
			continue
		}
		value, err := strategy.Evaluate(fv)
		if err != nil {
			failures++
			s.logger.Warn("strategy excluded from ensemble",
				zap.String("strategy", name),
				zap.String("model_version", mv.Version),
				zap.Error(err))
			continue
		}
		outputs = append(outputs, clamp01(value))
		weights = append(weights, mv.Weights[name])
	}

	if len(outputs) == 0 {
		return 0, 0, UnavailableError{ModelVersion: mv.Version, Failures: failures}
	}

	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}

	var combined float64
	for i, out := range outputs {
		combined += (weights[i] / weightSum) * out
	}

	confidence := agreement(outputs) * math.Pow(failurePenalty, float64(failures))
	return clampScore(combined * 100), clamp01(confidence), nil
}

// agreement maps inter-strategy variance to a 0..1 confidence where full
// agreement is 1.
func agreement(outputs []float64) float64 {
	if len(outputs) < 2 {
		return 1
	}
	var mean float64
	for _, v := range outputs {
		mean += v
	}
	mean /= float64(len(outputs))

	var variance float64
	for _, v := range outputs {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(outputs))

	return clamp01(1 - variance/maxSpreadVariance)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
