package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/FairForge/leadscore/internal/scoring"
)

// ErrNoSnapshotStore means ID-based scoring was requested without a
// snapshot source wired in.
var ErrNoSnapshotStore = errors.New("engine: no snapshot store configured")

// SetSnapshotStore wires a lead-record source for ID-based scoring.
// Callers that build their own snapshots can skip this.
func (e *Engine) SetSnapshotStore(store SnapshotStore) {
	e.store = store
}

// ScoreLead fetches the latest snapshot for a lead and scores it on
// the real-time path.
func (e *Engine) ScoreLead(ctx context.Context, leadID, experimentID string) (*scoring.ScoredResult, error) {
	if e.store == nil {
		return nil, ErrNoSnapshotStore
	}
	snap, err := e.store.GetSnapshot(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot for lead %s: %w", leadID, err)
	}
	return e.ScoreSingle(ctx, snap, experimentID)
}
