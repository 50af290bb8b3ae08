package engine

import "github.com/FairForge/leadscore/internal/experiment"

// CreateExperiment validates and starts an experiment
func (e *Engine) CreateExperiment(cfg experiment.Config) (*experiment.Experiment, error) {
	return e.experiments.Create(cfg)
}

// ConcludeExperiment archives an experiment. An operator action, never
// automatic.
func (e *Engine) ConcludeExperiment(id string) (*experiment.Experiment, error) {
	return e.experiments.Conclude(id)
}

// RecordOutcome appends a realized outcome to a variant's sample
func (e *Engine) RecordOutcome(experimentID, variantID string, value float64) error {
	return e.experiments.RecordOutcome(experimentID, variantID, value)
}

// EvaluateExperiment runs the two-sample comparison
func (e *Engine) EvaluateExperiment(id string) (*experiment.Evaluation, error) {
	return e.experiments.Evaluate(id)
}

// GetExperiment returns an experiment by ID, archived included
func (e *Engine) GetExperiment(id string) (*experiment.Experiment, error) {
	return e.experiments.Get(id)
}
