// Package observed models what the container runtime reports, in the
// runtime's own shapes, and the narrow query port used to read it.
package observed

import (
	"context"
	"time"
)

// StateReader is the read side of the container runtime.
type StateReader interface {
	// ListContainers returns running containers in runtime listing order.
	ListContainers(ctx context.Context) ([]Container, error)
	// InspectContainer returns the full inspection record. A container that
	// no longer exists yields an error satisfying errdefs.IsNotFound.
	InspectContainer(ctx context.Context, id string) (Record, error)
	ListVolumes(ctx context.Context) ([]string, error)
	ListNetworks(ctx context.Context) ([]string, error)
}

// Container is a running container as listed by the runtime.
type Container struct {
	ID      string
	Name    string
	Image   string
	Created time.Time
	Labels  map[string]string
}

// Record is a container inspection record.
type Record struct {
	ID    string
	Name  string
	Image string

	// PortBindings is keyed by "containerPort/proto".
	PortBindings  map[string][]PortBinding
	Env           []string
	RestartPolicy string
	Networks      []string
	Healthcheck   *Healthcheck
	LogConfig     LogConfig
	Labels        map[string]string
	ExtraHosts    []string
	Sysctls       map[string]string
}

type PortBinding struct {
	HostIP   string
	HostPort string
}

// Healthcheck durations are in nanoseconds, as the runtime stores them.
type Healthcheck struct {
	Test     []string
	Interval time.Duration
	Timeout  time.Duration
	Retries  int
}

type LogConfig struct {
	Type   string
	Config map[string]string
}
