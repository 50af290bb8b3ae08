package engine

import (
	"github.com/FairForge/leadscore/internal/drift"
	"github.com/FairForge/leadscore/internal/metrics"
	"github.com/FairForge/leadscore/internal/scoring"
)

// RegisterModelVersion validates and appends a model version. The
// weight-sum invariant is checked here, at registration, never at call
// time; a rejected version never becomes active.
func (e *Engine) RegisterModelVersion(version string, weights map[string]float64) (*scoring.ModelVersion, error) {
	mv, err := e.registry.Register(version, weights)
	if err != nil {
		return nil, err
	}
	if active, activeErr := e.registry.Active(); activeErr == nil && active.Version == mv.Version {
		// First registration auto-activates
		metrics.SetActiveModel(mv.Version)
	}
	return mv, nil
}

// ActivateModel hot-swaps the active model version. In-flight
// computations finish against the version they started with; the swap
// is atomic for new calls.
func (e *Engine) ActivateModel(version string) (*scoring.ModelVersion, error) {
	mv, err := e.registry.Activate(version)
	if err != nil {
		return nil, err
	}
	metrics.SetActiveModel(mv.Version)
	return mv, nil
}

// ModelVersions lists registered versions in registration order
func (e *Engine) ModelVersions() []string {
	return e.registry.Versions()
}

// ActiveModel returns the active model version
func (e *Engine) ActiveModel() (*scoring.ModelVersion, error) {
	return e.registry.Active()
}

// CaptureBaseline freezes the current drift window as the comparison
// baseline for a version. Called after a new deployment has warmed up.
func (e *Engine) CaptureBaseline(version string) *drift.Baseline {
	return e.monitor.CaptureBaseline(version)
}

// DriftState reports the drift state for a model version
func (e *Engine) DriftState(version string) string {
	return e.monitor.State(version)
}

// EvaluateDrift forces a drift evaluation pass outside the periodic
// schedule, for operational tooling and deploy-time checks.
func (e *Engine) EvaluateDrift() {
	e.monitor.Evaluate()
}
