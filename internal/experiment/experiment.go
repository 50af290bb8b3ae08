package experiment

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// trafficSumTolerance bounds how far the traffic split may drift from 1.0
const trafficSumTolerance = 1e-6

// DefaultMinSamples is the per-variant floor before significance can be
// declared. Avoids premature calls on thin data.
const DefaultMinSamples = 30

// ConfigError indicates an experiment configuration was rejected at
// creation and never started.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("experiment: invalid config: %s", e.Reason)
}

// Common errors
var (
	ErrNotFound       = errors.New("experiment: not found")
	ErrConcluded      = errors.New("experiment: already concluded")
	ErrUnknownVariant = errors.New("experiment: unknown variant")
	ErrNotConcluded   = errors.New("experiment: evaluation requires samples")
)

// VariantConfig is one arm of an experiment
type VariantConfig struct {
	ID     string  `json:"id" yaml:"id"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Config configures an experiment. The first variant is the control arm.
type Config struct {
	Name              string          `json:"name" yaml:"name"`
	Variants          []VariantConfig `json:"variants" yaml:"variants"`
	SignificanceLevel float64         `json:"significance_level" yaml:"significance_level"`
	MinSamples        int             `json:"min_samples" yaml:"min_samples"`
}

// Validate checks configuration
func (c *Config) Validate() error {
	if c.Name == "" {
		return ConfigError{Reason: "name is required"}
	}
	if len(c.Variants) < 2 {
		return ConfigError{Reason: "at least two variants required"}
	}
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		return ConfigError{Reason: fmt.Sprintf("significance level %.3f outside (0,1)", c.SignificanceLevel)}
	}

	seen := make(map[string]bool, len(c.Variants))
	var sum float64
	for _, v := range c.Variants {
		if v.ID == "" {
			return ConfigError{Reason: "variant id is required"}
		}
		if seen[v.ID] {
			return ConfigError{Reason: fmt.Sprintf("duplicate variant %q", v.ID)}
		}
		seen[v.ID] = true
		if v.Weight < 0 {
			return ConfigError{Reason: fmt.Sprintf("negative weight for variant %q", v.ID)}
		}
		sum += v.Weight
	}
	if math.Abs(sum-1.0) > trafficSumTolerance {
		return ConfigError{Reason: fmt.Sprintf("traffic split sums to %.6f, want 1.0", sum)}
	}
	return nil
}

// ApplyDefaults fills in default values
func (c *Config) ApplyDefaults() {
	if c.MinSamples == 0 {
		c.MinSamples = DefaultMinSamples
	}
}

// Experiment is a running or archived comparison between scoring
// variants. Mutated only by appending outcomes; conclusion archives it.
type Experiment struct {
	ID          string    `json:"id"`
	Config      Config    `json:"config"`
	StartedAt   time.Time `json:"started_at"`
	ConcludedAt time.Time `json:"concluded_at,omitempty"`
	Archived    bool      `json:"archived"`

	samples map[string][]float64
}

// ControlVariant returns the control arm's ID
func (e *Experiment) ControlVariant() string {
	return e.Config.Variants[0].ID
}

// SampleCount returns how many outcomes a variant has recorded
func (e *Experiment) SampleCount(variantID string) int {
	return len(e.samples[variantID])
}
