package observed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Snapshot is the runtime listing taken at the start of a cycle.
// Inspection records are fetched separately, only for matched containers.
type Snapshot struct {
	Containers []Container
	Volumes    []string
	Networks   []string
}

// Collect lists containers, volumes and networks. The three reads are
// independent and run concurrently; the first failure cancels the rest.
func Collect(ctx context.Context, r StateReader) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		containers, err := r.ListContainers(gctx)
		if err != nil {
			return fmt.Errorf("list containers: %w", err)
		}
		snap.Containers = containers
		return nil
	})
	g.Go(func() error {
		volumes, err := r.ListVolumes(gctx)
		if err != nil {
			return fmt.Errorf("list volumes: %w", err)
		}
		snap.Volumes = volumes
		return nil
	})
	g.Go(func() error {
		networks, err := r.ListNetworks(gctx)
		if err != nil {
			return fmt.Errorf("list networks: %w", err)
		}
		snap.Networks = networks
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
