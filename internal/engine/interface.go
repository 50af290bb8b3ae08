package engine

import (
	"context"

	"github.com/FairForge/leadscore/internal/drift"
	"github.com/FairForge/leadscore/internal/features"
)

// SnapshotStore is the read-only lead-record collaborator. The engine
// never writes lead records.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, leadID string) (*features.LeadSnapshot, error)
}

// AlertSink receives drift alerts for delivery outside the engine
type AlertSink interface {
	SendAlert(ctx context.Context, alert drift.Alert) error
}

// TrainingService receives retrain requests; training itself happens
// elsewhere and new model versions arrive via RegisterModelVersion.
type TrainingService interface {
	RequestRetrain(ctx context.Context, req drift.RetrainRequest) error
}
