package manifest

import (
	"fmt"
	"sort"
)

// ServiceSpec is the normalized desired configuration of one compose service.
// Empty fields place no constraint on the running container.
type ServiceSpec struct {
	Name          string            `json:"name"`
	Image         string            `json:"image"`
	Ports         []string          `json:"ports,omitempty"`
	Environment   []string          `json:"environment,omitempty"`
	RestartPolicy string            `json:"restart_policy,omitempty"`
	Networks      []string          `json:"networks,omitempty"`
	HealthCheck   *HealthCheck      `json:"health_check,omitempty"`
	Logging       *Logging          `json:"logging,omitempty"`
	Labels        map[string]string `json:"labels,omitempty"`
	ExtraHosts    []string          `json:"extra_hosts,omitempty"`
	Sysctls       map[string]string `json:"sysctls,omitempty"`
}

// HealthCheck holds the compose healthcheck with durations already rendered
// as "{seconds}s".
type HealthCheck struct {
	Test     []string `json:"test"`
	Interval string   `json:"interval"`
	Timeout  string   `json:"timeout"`
	Retries  int      `json:"retries"`
}

type Logging struct {
	Driver  string            `json:"driver"`
	Options map[string]string `json:"options,omitempty"`
}

// Manifest is the desired state for one reconciliation cycle. It is built
// fresh from the manifest file and never mutated afterwards.
type Manifest struct {
	Path     string
	Project  string
	Services []ServiceSpec
	Volumes  []string
	Networks []string
}

// Empty reports whether the manifest declares nothing at all.
func (m Manifest) Empty() bool {
	return len(m.Services) == 0 && len(m.Volumes) == 0 && len(m.Networks) == 0
}

// Service returns the service with the given name.
func (m Manifest) Service(name string) (ServiceSpec, bool) {
	for _, svc := range m.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return ServiceSpec{}, false
}

// Validate checks that every service has a non-empty, unique name.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Services))
	for i, svc := range m.Services {
		if svc.Name == "" {
			return fmt.Errorf("service %d has no name", i)
		}
		if _, dup := seen[svc.Name]; dup {
			return fmt.Errorf("duplicate service %q", svc.Name)
		}
		seen[svc.Name] = struct{}{}
	}
	return nil
}

// ParseError is returned when the manifest file cannot be read or parsed.
// A cycle that hits it proceeds with an empty desired state.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func sortedServices(services []ServiceSpec) []ServiceSpec {
	sort.Slice(services, func(i, j int) bool {
		return services[i].Name < services[j].Name
	})
	return services
}
