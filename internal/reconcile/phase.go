package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phase is the state of one reconciliation cycle. A cycle that ends in
// PhaseDetecting took no action: observed state was unreadable or drift was
// found with remediation disabled.
type Phase uint8

const (
	PhaseDetecting Phase = iota + 1
	PhaseRemediating
	PhaseConverged
)

func (p Phase) String() string {
	switch p {
	case PhaseDetecting:
		return "detecting"
	case PhaseRemediating:
		return "remediating"
	case PhaseConverged:
		return "converged"
	default:
		return "unknown"
	}
}

func (p Phase) IsValid() bool {
	switch p {
	case PhaseDetecting, PhaseRemediating, PhaseConverged:
		return true
	default:
		return false
	}
}

// Transition returns the next phase, or p and an error when the move is not
// allowed. Converged is terminal for the cycle.
func (p Phase) Transition(to Phase) (Phase, error) {
	ok := false
	switch p {
	case PhaseDetecting:
		ok = to == PhaseRemediating || to == PhaseConverged
	case PhaseRemediating:
		ok = to == PhaseConverged
	case PhaseConverged:
		ok = false
	}
	if !ok {
		return p, fmt.Errorf("cycle phase transition: %s -> %s", p, to)
	}
	return to, nil
}

func (p Phase) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid cycle phase: %d", p)
	}
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	next, ok := ParsePhase(raw)
	if !ok {
		return fmt.Errorf("invalid cycle phase: %q", raw)
	}
	*p = next
	return nil
}

func ParsePhase(raw string) (Phase, bool) {
	switch strings.TrimSpace(raw) {
	case "detecting":
		return PhaseDetecting, true
	case "remediating":
		return PhaseRemediating, true
	case "converged":
		return PhaseConverged, true
	default:
		return 0, false
	}
}
