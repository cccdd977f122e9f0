package reconcile

import (
	"errors"
	"fmt"
	"time"

	"driftd/internal/drift"
	"driftd/internal/gitsync"
)

// RuntimeError is a failed teardown or recreate call.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

const (
	OpTeardown = "teardown"
	OpRecreate = "recreate"
)

// Outcome is everything one cycle observed and did.
type Outcome struct {
	Started  time.Time
	Finished time.Time
	Phase    Phase
	Report   drift.Report

	// ManifestErr is set when the manifest could not be parsed and the cycle
	// ran against an empty desired state.
	ManifestErr error
	// DetectErr is set when observed state could not be read.
	DetectErr error

	Remediated     bool
	RemediationErr error

	Sync    gitsync.Result
	SyncErr error
}

func (o Outcome) Drifted() bool {
	return !o.Report.InSync()
}

func (o Outcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Err joins every failure recorded during the cycle.
func (o Outcome) Err() error {
	return errors.Join(o.ManifestErr, o.DetectErr, o.RemediationErr, o.SyncErr)
}

func (o *Outcome) advance(to Phase) error {
	next, err := o.Phase.Transition(to)
	if err != nil {
		return err
	}
	o.Phase = next
	return nil
}
