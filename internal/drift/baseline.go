package drift

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/FairForge/leadscore/internal/features"
	"github.com/FairForge/leadscore/internal/scoring"
)

// Baseline is the distribution snapshot captured at model deployment
// time that later windows are compared against.
type Baseline struct {
	ModelVersion  string             `json:"model_version"`
	MeanScore     float64            `json:"mean_score"`
	AccuracyProxy float64            `json:"accuracy_proxy"`
	SubScoreMeans map[string]float64 `json:"sub_score_means"`
	Scores        []float64          `json:"scores"`
	CapturedAt    time.Time          `json:"captured_at"`
}

// NewBaseline summarizes a sample of results into a baseline. The raw
// score sample is kept (sorted) for distributional comparison.
func NewBaseline(modelVersion string, results []*scoring.ScoredResult) *Baseline {
	b := &Baseline{
		ModelVersion:  modelVersion,
		SubScoreMeans: make(map[string]float64, len(features.Categories())),
		CapturedAt:    time.Now().UTC(),
	}
	if len(results) == 0 {
		return b
	}

	scores := make([]float64, 0, len(results))
	confidences := make([]float64, 0, len(results))
	subTotals := make(map[string]float64, len(features.Categories()))
	for _, r := range results {
		scores = append(scores, r.OverallScore)
		confidences = append(confidences, r.Confidence)
		for category, sub := range r.SubScores {
			subTotals[category] += sub
		}
	}

	b.MeanScore = stat.Mean(scores, nil)
	b.AccuracyProxy = stat.Mean(confidences, nil)
	for category, total := range subTotals {
		b.SubScoreMeans[category] = total / float64(len(results))
	}

	sort.Float64s(scores)
	b.Scores = scores
	return b
}
