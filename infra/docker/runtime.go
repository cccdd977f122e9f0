// Package docker reads observed workload state from the Docker Engine.
package docker

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"driftd/internal/observed"
)

// Runtime implements observed.StateReader over the Docker API.
type Runtime struct {
	docker client.APIClient
}

func NewRuntime(docker client.APIClient) *Runtime {
	return &Runtime{docker: docker}
}

// NewClient connects to the daemon described by the DOCKER_* environment.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return cli, nil
}

// ListContainers returns running containers in the daemon's listing order.
func (r *Runtime) ListContainers(ctx context.Context) ([]observed.Container, error) {
	summaries, err := r.docker.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	out := make([]observed.Container, 0, len(summaries))
	for _, s := range summaries {
		var name string
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		out = append(out, observed.Container{
			ID:      s.ID,
			Name:    name,
			Image:   s.Image,
			Created: time.Unix(s.Created, 0),
			Labels:  maps.Clone(s.Labels),
		})
	}
	return out, nil
}

// InspectContainer keeps the daemon's NotFound error in the chain so callers
// can test it with errdefs.IsNotFound.
func (r *Runtime) InspectContainer(ctx context.Context, id string) (observed.Record, error) {
	info, err := r.docker.ContainerInspect(ctx, id)
	if err != nil {
		return observed.Record{}, fmt.Errorf("inspect container %s: %w", id, err)
	}
	return toRecord(info), nil
}

func (r *Runtime) ListVolumes(ctx context.Context) ([]string, error) {
	resp, err := r.docker.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}
	names := make([]string, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v != nil {
			names = append(names, v.Name)
		}
	}
	return names, nil
}

func (r *Runtime) ListNetworks(ctx context.Context) ([]string, error) {
	nets, err := r.docker.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	names := make([]string, 0, len(nets))
	for _, n := range nets {
		names = append(names, n.Name)
	}
	return names, nil
}

func toRecord(info container.InspectResponse) observed.Record {
	rec := observed.Record{}
	if info.ContainerJSONBase != nil {
		rec.ID = info.ID
		rec.Name = strings.TrimPrefix(info.Name, "/")
		if hc := info.HostConfig; hc != nil {
			rec.PortBindings = portBindings(hc.PortBindings)
			rec.RestartPolicy = string(hc.RestartPolicy.Name)
			rec.LogConfig = observed.LogConfig{Type: hc.LogConfig.Type, Config: maps.Clone(hc.LogConfig.Config)}
			rec.ExtraHosts = slices.Clone(hc.ExtraHosts)
			rec.Sysctls = maps.Clone(hc.Sysctls)
		}
	}
	if cfg := info.Config; cfg != nil {
		rec.Image = cfg.Image
		rec.Env = slices.Clone(cfg.Env)
		rec.Labels = maps.Clone(cfg.Labels)
		if h := cfg.Healthcheck; h != nil {
			rec.Healthcheck = &observed.Healthcheck{
				Test:     slices.Clone(h.Test),
				Interval: h.Interval,
				Timeout:  h.Timeout,
				Retries:  h.Retries,
			}
		}
	}
	if ns := info.NetworkSettings; ns != nil {
		rec.Networks = slices.Sorted(maps.Keys(ns.Networks))
	}
	return rec
}

func portBindings(pm nat.PortMap) map[string][]observed.PortBinding {
	if len(pm) == 0 {
		return nil
	}
	out := make(map[string][]observed.PortBinding, len(pm))
	for port, bindings := range pm {
		key := port.Port() + "/" + port.Proto()
		list := make([]observed.PortBinding, 0, len(bindings))
		for _, b := range bindings {
			list = append(list, observed.PortBinding{HostIP: b.HostIP, HostPort: b.HostPort})
		}
		out[key] = list
	}
	return out
}
