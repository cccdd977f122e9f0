package reconcile

import (
	"context"

	"driftd/internal/drift"
	"driftd/internal/gitsync"
	"driftd/internal/manifest"
)

// ManifestSource loads the desired state for a cycle.
type ManifestSource interface {
	Load(ctx context.Context) (manifest.Manifest, error)
}

// Detector compares desired against observed state.
type Detector interface {
	Detect(ctx context.Context, m manifest.Manifest) (drift.Report, error)
}

// Workload is the write side of the runtime. Both calls act on every
// manifest-managed resource and must be safe when nothing is running.
type Workload interface {
	Down(ctx context.Context) error
	Up(ctx context.Context) error
}

// Syncer brings the local checkout level with its remote.
type Syncer interface {
	Sync(ctx context.Context) (gitsync.Result, error)
}

// HistoryRecorder persists finished cycles.
type HistoryRecorder interface {
	Record(ctx context.Context, out Outcome) error
}
