package drift

// Mismatch is one drift finding. Reason is descriptive text meant to be
// displayed verbatim.
type Mismatch struct {
	Dimension Dimension `json:"dimension"`
	Reason    string    `json:"reason"`
}

type SubjectKind uint8

const (
	SubjectService SubjectKind = iota + 1
	SubjectVolumes
	SubjectNetworks
)

func (k SubjectKind) String() string {
	switch k {
	case SubjectService:
		return "service"
	case SubjectVolumes:
		return "volumes"
	case SubjectNetworks:
		return "networks"
	default:
		return "unknown"
	}
}

// Group names used for the volume and network entries of a report.
const (
	VolumesGroup  = "volumes"
	NetworksGroup = "networks"
)

type Entry struct {
	Kind       SubjectKind `json:"kind"`
	Name       string      `json:"name"`
	Mismatches []Mismatch  `json:"mismatches"`
}

// Report holds the drifted subjects of one cycle: services sorted by name
// (the compose loader does not keep document order), then volumes, then
// networks. Subjects in sync are omitted, so an empty report means the
// workload has converged.
type Report struct {
	Entries []Entry `json:"entries,omitempty"`
}

func (r *Report) add(kind SubjectKind, name string, mismatches []Mismatch) {
	if len(mismatches) == 0 {
		return
	}
	r.Entries = append(r.Entries, Entry{Kind: kind, Name: name, Mismatches: mismatches})
}

func (r Report) InSync() bool {
	return len(r.Entries) == 0
}

// Count returns the total number of mismatches.
func (r Report) Count() int {
	n := 0
	for _, e := range r.Entries {
		n += len(e.Mismatches)
	}
	return n
}

// Get returns the mismatches recorded for a service or group name.
func (r Report) Get(name string) []Mismatch {
	for _, e := range r.Entries {
		if e.Name == name {
			return e.Mismatches
		}
	}
	return nil
}

// Reasons maps each drifted subject to its reasons.
func (r Report) Reasons() map[string][]string {
	out := make(map[string][]string, len(r.Entries))
	for _, e := range r.Entries {
		reasons := make([]string, 0, len(e.Mismatches))
		for _, m := range e.Mismatches {
			reasons = append(reasons, m.Reason)
		}
		out[e.Name] = reasons
	}
	return out
}
