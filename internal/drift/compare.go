package drift

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"driftd/internal/manifest"
	"driftd/internal/observed"
)

// Every comparator treats an empty desired value as "not constrained" and
// returns true regardless of what is observed.

// PortsMatch requires every host binding the runtime reports to be declared.
// Declared ports that are not bound are not checked. Only the first host
// binding of each container port is considered.
func PortsMatch(bindings map[string][]observed.PortBinding, desired []string) bool {
	if len(desired) == 0 {
		return true
	}
	want := make(map[string]struct{}, len(desired))
	for _, p := range desired {
		want[p] = struct{}{}
	}
	for port, hosts := range bindings {
		if len(hosts) == 0 {
			continue
		}
		containerPort, _, _ := strings.Cut(port, "/")
		if _, ok := want[hosts[0].HostPort+":"+containerPort]; !ok {
			return false
		}
	}
	return true
}

// EnvironmentMatch requires every desired KEY=VALUE to be present with the
// exact value. Extra observed variables are ignored.
func EnvironmentMatch(env []string, desired []string) bool {
	if len(desired) == 0 {
		return true
	}
	have := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		have[k] = v
	}
	for _, kv := range desired {
		k, v, _ := strings.Cut(kv, "=")
		got, ok := have[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}

func RestartPolicyMatch(policy, desired string) bool {
	if desired == "" {
		return true
	}
	return policy == desired
}

// NetworksMatch strips the project qualification from observed network
// names (last "_" segment) and requires every desired network among them.
func NetworksMatch(networks []string, desired []string) bool {
	if len(desired) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(networks))
	for _, n := range networks {
		have[n[strings.LastIndexByte(n, '_')+1:]] = struct{}{}
	}
	for _, n := range desired {
		if _, ok := have[n]; !ok {
			return false
		}
	}
	return true
}

// HealthCheckMatch requires equal test command, interval, timeout and
// retries. Observed durations are normalized with NormalizeDuration.
func HealthCheckMatch(hc *observed.Healthcheck, desired *manifest.HealthCheck) bool {
	if desired == nil {
		return true
	}
	var got observed.Healthcheck
	if hc != nil {
		got = *hc
	}
	return slices.Equal(got.Test, desired.Test) &&
		NormalizeDuration(got.Interval) == desired.Interval &&
		NormalizeDuration(got.Timeout) == desired.Timeout &&
		got.Retries == desired.Retries
}

// NormalizeDuration renders integer durations (nanoseconds) as
// "{seconds}s". Anything else passes through in its string form.
func NormalizeDuration(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Duration:
		return manifest.FormatSeconds(d)
	case int:
		return manifest.FormatSeconds(time.Duration(d))
	case int32:
		return manifest.FormatSeconds(time.Duration(d))
	case int64:
		return manifest.FormatSeconds(time.Duration(d))
	case uint64:
		return manifest.FormatSeconds(time.Duration(d))
	case string:
		return d
	default:
		return fmt.Sprint(v)
	}
}

func LoggingMatch(cfg observed.LogConfig, desired *manifest.Logging) bool {
	if desired == nil {
		return true
	}
	return cfg.Type == desired.Driver && maps.Equal(cfg.Config, desired.Options)
}

// LabelsMatch restricts the observed labels to the desired keys and
// requires the result to equal the desired mapping. A missing key reads as
// the empty string.
func LabelsMatch(labels, desired map[string]string) bool {
	if len(desired) == 0 {
		return true
	}
	for k, v := range desired {
		if labels[k] != v {
			return false
		}
	}
	return true
}

// ExtraHostsMatch compares the sets of hostnames, ignoring addresses.
func ExtraHostsMatch(hosts, desired []string) bool {
	if len(desired) == 0 {
		return true
	}
	return setEqual(hostnames(hosts), hostnames(desired))
}

// SysctlsMatch compares the sets of sysctl keys, ignoring values.
func SysctlsMatch(sysctls, desired map[string]string) bool {
	if len(desired) == 0 {
		return true
	}
	return setEqual(keySet(sysctls), keySet(desired))
}

// hostnames drops the address part of "host:ip" (or "host=ip") entries.
func hostnames(entries []string) map[string]struct{} {
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if i := strings.IndexAny(e, ":="); i >= 0 {
			e = e[:i]
		}
		out[e] = struct{}{}
	}
	return out
}

func keySet(m map[string]string) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

type comparator struct {
	dimension Dimension
	match     func(observed.Record, manifest.ServiceSpec) bool
}

// comparators run in this order for every matched service.
var comparators = []comparator{
	{DimensionPorts, func(r observed.Record, s manifest.ServiceSpec) bool { return PortsMatch(r.PortBindings, s.Ports) }},
	{DimensionEnvironment, func(r observed.Record, s manifest.ServiceSpec) bool { return EnvironmentMatch(r.Env, s.Environment) }},
	{DimensionRestartPolicy, func(r observed.Record, s manifest.ServiceSpec) bool {
		return RestartPolicyMatch(r.RestartPolicy, s.RestartPolicy)
	}},
	{DimensionNetworks, func(r observed.Record, s manifest.ServiceSpec) bool { return NetworksMatch(r.Networks, s.Networks) }},
	{DimensionHealthCheck, func(r observed.Record, s manifest.ServiceSpec) bool {
		return HealthCheckMatch(r.Healthcheck, s.HealthCheck)
	}},
	{DimensionLogging, func(r observed.Record, s manifest.ServiceSpec) bool { return LoggingMatch(r.LogConfig, s.Logging) }},
	{DimensionLabels, func(r observed.Record, s manifest.ServiceSpec) bool { return LabelsMatch(r.Labels, s.Labels) }},
	{DimensionExtraHosts, func(r observed.Record, s manifest.ServiceSpec) bool {
		return ExtraHostsMatch(r.ExtraHosts, s.ExtraHosts)
	}},
	{DimensionSysctls, func(r observed.Record, s manifest.ServiceSpec) bool { return SysctlsMatch(r.Sysctls, s.Sysctls) }},
}

// CompareService runs every comparator and collects all failures.
func CompareService(rec observed.Record, svc manifest.ServiceSpec) []Mismatch {
	var out []Mismatch
	for _, c := range comparators {
		if !c.match(rec, svc) {
			out = append(out, Mismatch{Dimension: c.dimension, Reason: c.dimension.Message()})
		}
	}
	return out
}
