package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/FairForge/leadscore/internal/scoring"
)

// ModelRegistrar receives model versions parsed from the weights
// manifest. Satisfied by the scoring engine.
type ModelRegistrar interface {
	RegisterModelVersion(version string, weights map[string]float64) (*scoring.ModelVersion, error)
	ActivateModel(version string) (*scoring.ModelVersion, error)
}

// weightsManifest is the on-disk model-weights format
type weightsManifest struct {
	Models []manifestEntry `yaml:"models"`
}

type manifestEntry struct {
	Version string             `yaml:"version"`
	Weights map[string]float64 `yaml:"weights"`
	Active  bool               `yaml:"active"`
}

// ModelWatcher rolls new model versions into a running engine when the
// weights manifest changes on disk. Versions already registered are
// skipped, so re-applying the whole manifest on every change is safe.
type ModelWatcher struct {
	path      string
	registrar ModelRegistrar
	watcher   *fsnotify.Watcher
	logger    *zap.Logger
}

// NewModelWatcher applies the manifest once and begins watching its
// directory. Watching the directory rather than the file survives
// atomic replace-by-rename writes.
func NewModelWatcher(path string, registrar ModelRegistrar, logger *zap.Logger) (*ModelWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ModelWatcher{path: path, registrar: registrar, logger: logger}
	if err := w.apply(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	w.watcher = fw
	return w, nil
}

// Run processes file events until the context ends
func (w *ModelWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.apply(); err != nil {
				w.logger.Error("failed to apply model weights manifest",
					zap.String("path", w.path),
					zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("model weights watcher error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

// apply registers every manifest entry that is not already known, then
// activates the entry marked active.
func (w *ModelWatcher) apply() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("reading weights manifest %s: %w", w.path, err)
	}
	var manifest weightsManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parsing weights manifest %s: %w", w.path, err)
	}
	if len(manifest.Models) == 0 {
		return fmt.Errorf("weights manifest %s declares no models", w.path)
	}

	activate := ""
	for _, entry := range manifest.Models {
		if entry.Active {
			activate = entry.Version
		}
		_, err := w.registrar.RegisterModelVersion(entry.Version, entry.Weights)
		if errors.Is(err, scoring.ErrDuplicateModel) {
			continue
		}
		if err != nil {
			return fmt.Errorf("registering model %s: %w", entry.Version, err)
		}
		w.logger.Info("registered model version from manifest",
			zap.String("version", entry.Version))
	}

	if activate != "" {
		if _, err := w.registrar.ActivateModel(activate); err != nil {
			return fmt.Errorf("activating model %s: %w", activate, err)
		}
	}
	return nil
}
