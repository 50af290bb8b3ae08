package drift

import "time"

// Severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Monitor states per model version
const (
	StateStable   = "stable"
	StateWarning  = "warning"
	StateDegraded = "degraded"
)

// Tracked metric names
const (
	MetricMeanScore         = "mean_score"
	MetricAccuracyProxy     = "accuracy_proxy"
	MetricScoreDistribution = "score_distribution"
	metricSubScorePrefix    = "subscore_"
)

// Alert is one detected divergence between the live window and the
// stored baseline. Immutable once emitted; consumed by an external
// alerting collaborator. Alerts are informational, never thrown.
type Alert struct {
	ID            string    `json:"id"`
	MetricName    string    `json:"metric_name"`
	ModelVersion  string    `json:"model_version"`
	BaselineValue float64   `json:"baseline_value"`
	ObservedValue float64   `json:"observed_value"`
	Delta         float64   `json:"delta"`
	Severity      string    `json:"severity"`
	DetectedAt    time.Time `json:"detected_at"`
}

// RetrainRequest signals the external training collaborator that a
// model version has degraded past recovery by alerting alone.
type RetrainRequest struct {
	ID           string    `json:"id"`
	ModelVersion string    `json:"model_version"`
	Reason       string    `json:"reason"`
	RequestedAt  time.Time `json:"requested_at"`
}
