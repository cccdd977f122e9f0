package manifest

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	compose "github.com/compose-spec/compose-go/v2/types"
	"github.com/docker/docker/api/types/container"
)

// NormalizeServiceSpec extracts the dimensions the drift detector compares
// from a compose ServiceConfig. The compose map key is authoritative for the
// service name.
func NormalizeServiceSpec(name string, svc compose.ServiceConfig) ServiceSpec {
	return ServiceSpec{
		Name:          name,
		Image:         strings.TrimSpace(svc.Image),
		Ports:         normalizePorts(svc.Ports),
		Environment:   normalizeEnvironment(svc.Environment),
		RestartPolicy: normalizeRestartPolicy(svc),
		Networks:      normalizeNetworks(svc.Networks),
		HealthCheck:   normalizeHealthCheck(svc.HealthCheck),
		Logging:       normalizeLogging(svc.Logging),
		Labels:        normalizeStringMap(svc.Labels),
		ExtraHosts:    normalizeExtraHosts(svc.ExtraHosts),
		Sysctls:       normalizeStringMap(svc.Sysctls),
	}
}

// FormatSeconds renders a duration the way the runtime comparison expects:
// whole seconds with an "s" suffix.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}

func normalizePorts(ports []compose.ServicePortConfig) []string {
	if len(ports) == 0 {
		return nil
	}
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		out = append(out, fmt.Sprintf("%s:%d", strings.TrimSpace(p.Published), p.Target))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Variables declared without a value are resolved from the host environment
// at "up" time, so they cannot be compared and are left out.
func normalizeEnvironment(env compose.MappingWithEquals) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k, v := range env {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key+"="+*env[key])
	}
	return out
}

// normalizeRestartPolicy returns the policy name the runtime stores for the
// service. deploy.restart_policy overrides restart, as it does when compose
// creates the container. Retry counts are not compared.
func normalizeRestartPolicy(svc compose.ServiceConfig) string {
	if svc.Deploy != nil && svc.Deploy.RestartPolicy != nil {
		if cond := strings.TrimSpace(svc.Deploy.RestartPolicy.Condition); cond != "" {
			return restartCondition(cond)
		}
	}
	name, _, _ := strings.Cut(strings.TrimSpace(svc.Restart), ":")
	return name
}

// restartCondition maps a swarm-style deploy condition to a container
// restart policy name.
func restartCondition(cond string) string {
	switch cond {
	case "any":
		return string(container.RestartPolicyAlways)
	case "none":
		return string(container.RestartPolicyDisabled)
	default:
		return cond
	}
}

func normalizeNetworks(networks map[string]*compose.ServiceNetworkConfig) []string {
	if len(networks) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(networks))
}

func normalizeHealthCheck(hc *compose.HealthCheckConfig) *HealthCheck {
	if hc == nil || hc.Disable {
		return nil
	}
	var test []string
	if len(hc.Test) > 0 {
		test = append([]string(nil), hc.Test...)
	}
	return &HealthCheck{
		Test:     test,
		Interval: FormatSeconds(composeDuration(hc.Interval)),
		Timeout:  FormatSeconds(composeDuration(hc.Timeout)),
		Retries:  retriesValue(hc.Retries),
	}
}

func composeDuration(d *compose.Duration) time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

func retriesValue(retries *uint64) int {
	if retries == nil {
		return 0
	}
	const maxInt = int(^uint(0) >> 1)
	if *retries > uint64(maxInt) {
		return maxInt
	}
	return int(*retries)
}

func normalizeLogging(cfg *compose.LoggingConfig) *Logging {
	if cfg == nil {
		return nil
	}
	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" && len(cfg.Options) == 0 {
		return nil
	}
	return &Logging{
		Driver:  driver,
		Options: normalizeStringMap(cfg.Options),
	}
}

func normalizeExtraHosts(hosts compose.HostsList) []string {
	if len(hosts) == 0 {
		return nil
	}
	out := make([]string, 0, len(hosts))
	for host, ips := range hosts {
		if len(ips) == 0 {
			out = append(out, host)
			continue
		}
		for _, ip := range ips {
			out = append(out, host+":"+ip)
		}
	}
	slices.Sort(out)
	return out
}

func normalizeStringMap[M ~map[string]string](in M) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
