package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FairForge/leadscore/internal/scoring"
)

// fakeRegistrar records registrations the way the engine would
type fakeRegistrar struct {
	mu         sync.Mutex
	registered map[string]map[string]float64
	active     string
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{registered: make(map[string]map[string]float64)}
}

func (r *fakeRegistrar) RegisterModelVersion(version string, weights map[string]float64) (*scoring.ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.registered[version]; ok {
		return nil, scoring.ErrDuplicateModel
	}
	r.registered[version] = weights
	return nil, nil
}

func (r *fakeRegistrar) ActivateModel(version string) (*scoring.ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = version
	return nil, nil
}

func (r *fakeRegistrar) activeVersion() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *fakeRegistrar) versions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registered)
}

const manifestV1 = `
models:
  - version: v1
    weights:
      gradient: 0.4
      forest: 0.35
      linear: 0.25
    active: true
`

const manifestV2 = manifestV1 + `
  - version: v2
    weights:
      gradient: 0.5
      forest: 0.3
      linear: 0.2
    active: true
`

func TestModelWatcher(t *testing.T) {
	t.Run("applies the manifest on startup", func(t *testing.T) {
		path := writeFile(t, "weights.yaml", manifestV1)
		registrar := newFakeRegistrar()

		_, err := NewModelWatcher(path, registrar, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, registrar.versions())
		assert.Equal(t, "v1", registrar.activeVersion())
		assert.Equal(t, 0.35, registrar.registered["v1"]["forest"])
	})

	t.Run("picks up file changes", func(t *testing.T) {
		path := writeFile(t, "weights.yaml", manifestV1)
		registrar := newFakeRegistrar()
		watcher, err := NewModelWatcher(path, registrar, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watcher.Run(ctx)

		require.NoError(t, os.WriteFile(path, []byte(manifestV2), 0o644))

		require.Eventually(t, func() bool {
			return registrar.versions() == 2 && registrar.activeVersion() == "v2"
		}, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("ignores unrelated files in the directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "weights.yaml")
		require.NoError(t, os.WriteFile(path, []byte(manifestV1), 0o644))
		registrar := newFakeRegistrar()
		watcher, err := NewModelWatcher(path, registrar, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watcher.Run(ctx)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte(manifestV2), 0o644))

		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, 1, registrar.versions())
	})

	t.Run("rejects an empty manifest", func(t *testing.T) {
		path := writeFile(t, "weights.yaml", "models: []\n")

		_, err := NewModelWatcher(path, newFakeRegistrar(), nil)

		assert.Error(t, err)
	})

	t.Run("rejects a missing manifest", func(t *testing.T) {
		_, err := NewModelWatcher(filepath.Join(t.TempDir(), "nope.yaml"), newFakeRegistrar(), nil)

		assert.Error(t, err)
	})
}
