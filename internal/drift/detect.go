// Package drift compares a desired manifest against what the container
// runtime is running and reports every configuration dimension that differs.
package drift

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/containerd/errdefs"

	"driftd/internal/manifest"
	"driftd/internal/observed"
)

// Detector reads observed state through the injected StateReader and
// reports drift against a manifest.
type Detector struct {
	reader observed.StateReader
}

func NewDetector(reader observed.StateReader) *Detector {
	return &Detector{reader: reader}
}

// Detect lists the runtime once, matches each declared service to a
// running container and checks that declared volumes and networks exist.
// An error means observed state could not be read; drift is never an error.
func (d *Detector) Detect(ctx context.Context, m manifest.Manifest) (Report, error) {
	snap, err := observed.Collect(ctx, d.reader)
	if err != nil {
		return Report{}, fmt.Errorf("collect observed state: %w", err)
	}

	var report Report
	for _, svc := range m.Services {
		mismatches, err := d.checkService(ctx, snap.Containers, svc, m.Project)
		if err != nil {
			return Report{}, err
		}
		report.add(SubjectService, svc.Name, mismatches)
	}
	report.add(SubjectVolumes, VolumesGroup, CheckResources(DimensionVolume, m.Project, m.Volumes, snap.Volumes))
	report.add(SubjectNetworks, NetworksGroup, CheckResources(DimensionNetwork, m.Project, m.Networks, snap.Networks))
	return report, nil
}

func (d *Detector) checkService(ctx context.Context, containers []observed.Container, svc manifest.ServiceSpec, project string) ([]Mismatch, error) {
	candidates := Candidates(containers, svc, project)
	if len(candidates) > 1 {
		slog.Debug("several containers run the service image, using the best candidate",
			"service", svc.Name, "image", svc.Image, "container", candidates[0].ID, "candidates", len(candidates))
	}

	for _, c := range candidates {
		rec, err := d.reader.InspectContainer(ctx, c.ID)
		if err != nil {
			if errdefs.IsNotFound(err) {
				// Removed between list and inspect.
				continue
			}
			return nil, fmt.Errorf("inspect container %s for service %s: %w", c.ID, svc.Name, err)
		}
		return CompareService(rec, svc), nil
	}
	return []Mismatch{{Dimension: DimensionContainer, Reason: DimensionContainer.Message()}}, nil
}

// CheckResources reports each declared volume or network whose runtime
// name ("{project}_{name}") is missing from the runtime listing.
func CheckResources(dim Dimension, project string, declared, present []string) []Mismatch {
	if len(declared) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(present))
	for _, name := range present {
		have[name[strings.LastIndexByte(name, '/')+1:]] = struct{}{}
	}

	var out []Mismatch
	for _, name := range declared {
		full := manifest.QualifiedName(project, name)
		if _, ok := have[full]; ok {
			continue
		}
		out = append(out, Mismatch{
			Dimension: dim,
			Reason:    fmt.Sprintf("%s %q is not present or not created", dim, full),
		})
	}
	return out
}
