package scoring

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// weightSumTolerance bounds how far Σweights may drift from 1.0
const weightSumTolerance = 1e-6

// ModelVersion is an immutable bundle of strategy weights. New versions
// are appended to the registry, never edited in place; old versions stay
// addressable for rollback and comparison.
type ModelVersion struct {
	Version   string             `json:"version"`
	Weights   map[string]float64 `json:"weights"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewModelVersion validates the weight invariant and builds a version.
// The weights map is copied so later caller mutation cannot leak in.
func NewModelVersion(version string, weights map[string]float64, known []string) (*ModelVersion, error) {
	if version == "" {
		return nil, ModelLoadError{Version: version, Reason: "version name is required"}
	}
	if len(weights) == 0 {
		return nil, ModelLoadError{Version: version, Reason: "no strategy weights"}
	}

	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}

	var sum float64
	copied := make(map[string]float64, len(weights))
	for name, w := range weights {
		if !knownSet[name] {
			return nil, ModelLoadError{Version: version, Reason: fmt.Sprintf("unknown strategy %q", name)}
		}
		if w < 0 {
			return nil, ModelLoadError{Version: version, Reason: fmt.Sprintf("negative weight for %q", name)}
		}
		copied[name] = w
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, ModelLoadError{Version: version, Reason: fmt.Sprintf("weights sum to %.6f, want 1.0", sum)}
	}

	return &ModelVersion{
		Version:   version,
		Weights:   copied,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// StrategyNames returns the weighted strategy names in stable order
func (m *ModelVersion) StrategyNames() []string {
	names := make([]string, 0, len(m.Weights))
	for name := range m.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry is an append-only store of model versions with one atomically
// swapped active pointer. Readers always observe a single consistent
// version per call; in-flight computations finish against the version
// they started with.
type Registry struct {
	mu       sync.RWMutex
	versions map[string]*ModelVersion
	order    []string
	active   atomic.Pointer[ModelVersion]
	known    []string
	logger   *zap.Logger
}

// NewRegistry creates a registry validating against the given strategy
// names.
func NewRegistry(known []string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		versions: make(map[string]*ModelVersion),
		known:    known,
		logger:   logger,
	}
}

// Register validates and appends a new version. The first registered
// version becomes active automatically.
func (r *Registry) Register(version string, weights map[string]float64) (*ModelVersion, error) {
	mv, err := NewModelVersion(version, weights, r.known)
	if err != nil {
		r.logger.Error("model version rejected",
			zap.String("version", version),
			zap.Error(err))
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.versions[version]; exists {
		return nil, fmt.Errorf("register %s: %w", version, ErrDuplicateModel)
	}
	r.versions[version] = mv
	r.order = append(r.order, version)

	if r.active.Load() == nil {
		r.active.Store(mv)
	}
	r.logger.Info("model version registered",
		zap.String("version", version),
		zap.Int("strategies", len(mv.Weights)))
	return mv, nil
}

// Activate swaps the active version. The swap is atomic from the
// caller's perspective; no partial-weight state is observable.
func (r *Registry) Activate(version string) (*ModelVersion, error) {
	r.mu.RLock()
	mv, ok := r.versions[version]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("activate %s: %w", version, ErrUnknownVersion)
	}
	r.active.Store(mv)
	r.logger.Info("model version activated", zap.String("version", version))
	return mv, nil
}

// Active returns the currently active version
func (r *Registry) Active() (*ModelVersion, error) {
	mv := r.active.Load()
	if mv == nil {
		return nil, ErrNoActiveModel
	}
	return mv, nil
}

// Get returns a version by name
func (r *Registry) Get(version string) (*ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mv, ok := r.versions[version]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", version, ErrUnknownVersion)
	}
	return mv, nil
}

// Versions returns registered version names in registration order
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
