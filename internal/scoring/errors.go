package scoring

import "fmt"

// UnavailableError indicates every strategy in the ensemble failed for a
// call. Callers fall back to a cached or baseline score, never a silent
// zero.
type UnavailableError struct {
	ModelVersion string
	Failures     int
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("scoring: all %d strategies failed for model %s", e.Failures, e.ModelVersion)
}

// ModelLoadError indicates a model version failed validation at
// registration and never became active.
type ModelLoadError struct {
	Version string
	Reason  string
}

func (e ModelLoadError) Error() string {
	return fmt.Sprintf("scoring: model %s rejected: %s", e.Version, e.Reason)
}

// Common errors
var (
	ErrNoActiveModel   = fmt.Errorf("scoring: no active model version")
	ErrUnknownVersion  = fmt.Errorf("scoring: unknown model version")
	ErrDuplicateModel  = fmt.Errorf("scoring: model version already registered")
	ErrMissingFeatures = fmt.Errorf("scoring: empty feature vector")
)
