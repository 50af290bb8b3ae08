package experiment

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// assignmentBuckets is the modulus for sticky traffic splitting
const assignmentBuckets = 100

// Manager owns the experiment lifecycle: creation, sticky variant
// assignment, outcome recording, evaluation, and archival. Safe for
// concurrent use.
type Manager struct {
	mu          sync.RWMutex
	experiments map[string]*Experiment
	logger      *zap.Logger
}

// NewManager creates an experiment manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		experiments: make(map[string]*Experiment),
		logger:      logger,
	}
}

// Create validates the config and starts a new experiment
func (m *Manager) Create(cfg Config) (*Experiment, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		m.logger.Error("experiment config rejected", zap.String("name", cfg.Name), zap.Error(err))
		return nil, err
	}

	exp := &Experiment{
		ID:        uuid.New().String(),
		Config:    cfg,
		StartedAt: time.Now().UTC(),
		samples:   make(map[string][]float64, len(cfg.Variants)),
	}
	for _, v := range cfg.Variants {
		exp.samples[v.ID] = nil
	}

	m.mu.Lock()
	m.experiments[exp.ID] = exp
	m.mu.Unlock()

	m.logger.Info("experiment created",
		zap.String("experiment_id", exp.ID),
		zap.String("name", cfg.Name),
		zap.Int("variants", len(cfg.Variants)))
	return exp, nil
}

// Get returns an experiment by ID
func (m *Manager) Get(id string) (*Experiment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.experiments[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return exp, nil
}

// List returns all experiment IDs, archived included
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.experiments))
	for id := range m.experiments {
		out = append(out, id)
	}
	return out
}

// AssignVariant deterministically buckets a lead into a variant. The
// same (lead, experiment) pair always lands in the same variant for the
// life of the experiment, so comparisons never see flip-flopping
// assignment.
func (m *Manager) AssignVariant(leadID, experimentID string) (string, error) {
	m.mu.RLock()
	exp, ok := m.experiments[experimentID]
	if !ok {
		m.mu.RUnlock()
		return "", fmt.Errorf("assign %s: %w", experimentID, ErrNotFound)
	}
	if exp.Archived {
		m.mu.RUnlock()
		return "", fmt.Errorf("assign %s: %w", experimentID, ErrConcluded)
	}
	// Archived and Variants are written by Conclude/Create under the
	// write lock, so read them before releasing.
	variants := exp.Config.Variants
	m.mu.RUnlock()

	bucket := assignmentBucket(leadID, experimentID)
	var cumulative float64
	for _, v := range variants {
		cumulative += v.Weight * assignmentBuckets
		if float64(bucket) < cumulative {
			return v.ID, nil
		}
	}
	// Rounding residue at the top of the range maps to the last variant
	return variants[len(variants)-1].ID, nil
}

func assignmentBucket(leadID, experimentID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(leadID))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(experimentID))
	return h.Sum32() % assignmentBuckets
}

// RecordOutcome appends a realized metric value to a variant's sample.
// Concluded experiments reject new outcomes.
func (m *Manager) RecordOutcome(experimentID, variantID string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.experiments[experimentID]
	if !ok {
		return fmt.Errorf("record %s: %w", experimentID, ErrNotFound)
	}
	if exp.Archived {
		return fmt.Errorf("record %s: %w", experimentID, ErrConcluded)
	}
	if _, ok := exp.samples[variantID]; !ok {
		return fmt.Errorf("record %s/%s: %w", experimentID, variantID, ErrUnknownVariant)
	}

	exp.samples[variantID] = append(exp.samples[variantID], value)
	return nil
}

// Conclude archives an experiment. An explicit operator action, never
// automatic; the experiment stays addressable afterward.
func (m *Manager) Conclude(experimentID string) (*Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.experiments[experimentID]
	if !ok {
		return nil, fmt.Errorf("conclude %s: %w", experimentID, ErrNotFound)
	}
	if exp.Archived {
		return nil, fmt.Errorf("conclude %s: %w", experimentID, ErrConcluded)
	}

	exp.Archived = true
	exp.ConcludedAt = time.Now().UTC()
	m.logger.Info("experiment concluded",
		zap.String("experiment_id", experimentID),
		zap.String("name", exp.Config.Name))
	return exp, nil
}

// Evaluate runs the two-sample comparison between the control arm and
// the first candidate arm. Significance is declared only when the
// p-value clears the configured level AND both arms have the minimum
// sample size.
func (m *Manager) Evaluate(experimentID string) (*Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exp, ok := m.experiments[experimentID]
	if !ok {
		return nil, fmt.Errorf("evaluate %s: %w", experimentID, ErrNotFound)
	}

	control := exp.Config.Variants[0]
	candidate := exp.Config.Variants[1]

	controlSample := exp.samples[control.ID]
	candidateSample := exp.samples[candidate.ID]

	eval := &Evaluation{
		ExperimentID:    experimentID,
		ControlVariant:  control.ID,
		Candidate:       candidate.ID,
		ControlSamples:  len(controlSample),
		CandidateSample: len(candidateSample),
		Winner:          WinnerInconclusive,
	}

	if len(controlSample) < 2 || len(candidateSample) < 2 {
		return eval, nil
	}

	test := welchTTest(controlSample, candidateSample)
	eval.PValue = test.PValue
	eval.ControlMean = test.MeanA
	eval.CandidateMean = test.MeanB
	eval.ConfidenceInterval = test.ConfidenceInterval

	enoughData := len(controlSample) >= exp.Config.MinSamples &&
		len(candidateSample) >= exp.Config.MinSamples
	if enoughData && test.PValue < exp.Config.SignificanceLevel {
		if test.MeanB > test.MeanA {
			eval.Winner = candidate.ID
		} else {
			eval.Winner = control.ID
		}
	}
	return eval, nil
}

// Winner sentinel when significance has not been reached
const WinnerInconclusive = "inconclusive"

// Evaluation is the outcome of a two-sample experiment comparison
type Evaluation struct {
	ExperimentID       string     `json:"experiment_id"`
	ControlVariant     string     `json:"control_variant"`
	Candidate          string     `json:"candidate_variant"`
	ControlMean        float64    `json:"control_mean"`
	CandidateMean      float64    `json:"candidate_mean"`
	ControlSamples     int        `json:"control_samples"`
	CandidateSample    int        `json:"candidate_samples"`
	PValue             float64    `json:"p_value"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	Winner             string     `json:"winner"`
}

// Conclusive reports whether a winner was declared
func (e *Evaluation) Conclusive() bool {
	return e.Winner != WinnerInconclusive
}
