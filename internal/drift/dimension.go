package drift

// Dimension identifies the configuration aspect a mismatch was found in.
type Dimension uint8

const (
	DimensionContainer Dimension = iota + 1
	DimensionPorts
	DimensionEnvironment
	DimensionRestartPolicy
	DimensionNetworks
	DimensionHealthCheck
	DimensionLogging
	DimensionLabels
	DimensionExtraHosts
	DimensionSysctls
	DimensionVolume
	DimensionNetwork
)

func (d Dimension) String() string {
	switch d {
	case DimensionContainer:
		return "container"
	case DimensionPorts:
		return "ports"
	case DimensionEnvironment:
		return "environment"
	case DimensionRestartPolicy:
		return "restart_policy"
	case DimensionNetworks:
		return "networks"
	case DimensionHealthCheck:
		return "healthcheck"
	case DimensionLogging:
		return "logging"
	case DimensionLabels:
		return "labels"
	case DimensionExtraHosts:
		return "extra_hosts"
	case DimensionSysctls:
		return "sysctls"
	case DimensionVolume:
		return "volume"
	case DimensionNetwork:
		return "network"
	default:
		return "unknown"
	}
}

func (d Dimension) IsValid() bool {
	switch d {
	case DimensionContainer,
		DimensionPorts,
		DimensionEnvironment,
		DimensionRestartPolicy,
		DimensionNetworks,
		DimensionHealthCheck,
		DimensionLogging,
		DimensionLabels,
		DimensionExtraHosts,
		DimensionSysctls,
		DimensionVolume,
		DimensionNetwork:
		return true
	default:
		return false
	}
}

// Message is the fixed diagnostic shown for a failed service dimension.
// Volume and network messages name the missing item and are built by the
// detector instead.
func (d Dimension) Message() string {
	switch d {
	case DimensionContainer:
		return "no matching container found"
	case DimensionPorts:
		return "ports configuration does not match"
	case DimensionEnvironment:
		return "environment variables do not match"
	case DimensionRestartPolicy:
		return "restart policy does not match"
	case DimensionNetworks:
		return "networks configuration does not match"
	case DimensionHealthCheck:
		return "healthcheck configuration does not match"
	case DimensionLogging:
		return "logging configuration does not match"
	case DimensionLabels:
		return "labels configuration does not match"
	case DimensionExtraHosts:
		return "extra hosts configuration does not match"
	case DimensionSysctls:
		return "sysctls configuration does not match"
	default:
		return "configuration does not match"
	}
}
