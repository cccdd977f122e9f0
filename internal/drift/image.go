package drift

import (
	"cmp"
	"slices"
	"strings"

	"github.com/distribution/reference"

	"driftd/internal/manifest"
	"driftd/internal/observed"
)

const (
	composeServiceLabel = "com.docker.compose.service"
	composeProjectLabel = "com.docker.compose.project"
)

// ImageMatches compares image references after normalization, so "nginx"
// and "docker.io/library/nginx:latest" are the same image. References that
// do not parse are compared verbatim.
func ImageMatches(running, desired string) bool {
	running = strings.TrimSpace(running)
	desired = strings.TrimSpace(desired)
	if desired == "" {
		return false
	}
	a, errA := reference.ParseNormalizedNamed(running)
	b, errB := reference.ParseNormalizedNamed(desired)
	if errA != nil || errB != nil {
		return running == desired
	}
	return reference.TagNameOnly(a).String() == reference.TagNameOnly(b).String()
}

// Candidates returns the containers running the service's image, best
// candidate first: containers compose labelled for this service (and
// project) come first, then older containers, then lower IDs.
func Candidates(containers []observed.Container, svc manifest.ServiceSpec, project string) []observed.Container {
	var out []observed.Container
	for _, c := range containers {
		if ImageMatches(c.Image, svc.Image) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b observed.Container) int {
		la, lb := ownedBy(a, svc.Name, project), ownedBy(b, svc.Name, project)
		if la != lb {
			if la {
				return -1
			}
			return 1
		}
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func ownedBy(c observed.Container, service, project string) bool {
	if c.Labels[composeServiceLabel] != service {
		return false
	}
	return project == "" || c.Labels[composeProjectLabel] == project
}
