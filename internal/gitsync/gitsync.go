// Package gitsync keeps a local checkout level with its tracked remote
// branch: fetch, compare commits, pull when they differ.
package gitsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Repository is the source-control port the syncer drives.
type Repository interface {
	// Fetch updates remote-tracking refs from remote.
	Fetch(ctx context.Context, remote string) error
	CurrentBranch(ctx context.Context) (string, error)
	// LocalCommit resolves HEAD.
	LocalCommit(ctx context.Context) (string, error)
	// RemoteCommit resolves the remote-tracking ref remote/branch.
	RemoteCommit(ctx context.Context, remote, branch string) (string, error)
	Pull(ctx context.Context, remote, branch string) error
}

const DefaultRemote = "origin"

type Result uint8

const (
	ResultUpToDate Result = iota + 1
	ResultSynchronized
)

func (r Result) String() string {
	switch r {
	case ResultUpToDate:
		return "up_to_date"
	case ResultSynchronized:
		return "synchronized"
	default:
		return "unknown"
	}
}

func (r Result) IsValid() bool {
	return r == ResultUpToDate || r == ResultSynchronized
}

func (r Result) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return json.Marshal("")
	}
	return json.Marshal(r.String())
}

// SyncError reports the step that failed: remote unreachable, detached
// HEAD, unknown remote branch or a failed pull.
type SyncError struct {
	Step string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("git sync %s: %v", e.Step, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

type Syncer struct {
	repo   Repository
	remote string
}

// New creates a syncer tracking remote. An empty remote means DefaultRemote.
func New(repo Repository, remote string) *Syncer {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		remote = DefaultRemote
	}
	return &Syncer{repo: repo, remote: remote}
}

// Sync fetches, compares HEAD to the remote-tracking branch and pulls when
// they differ. Failures are not retried.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	branch, err := s.repo.CurrentBranch(ctx)
	if err != nil {
		return 0, &SyncError{Step: "branch", Err: err}
	}
	if branch == "" {
		return 0, &SyncError{Step: "branch", Err: fmt.Errorf("HEAD is detached")}
	}

	if err := s.repo.Fetch(ctx, s.remote); err != nil {
		return 0, &SyncError{Step: "fetch", Err: err}
	}

	local, err := s.repo.LocalCommit(ctx)
	if err != nil {
		return 0, &SyncError{Step: "resolve local", Err: err}
	}
	remote, err := s.repo.RemoteCommit(ctx, s.remote, branch)
	if err != nil {
		return 0, &SyncError{Step: "resolve remote", Err: err}
	}
	if local == remote {
		slog.Debug("checkout matches remote", "branch", branch, "commit", local)
		return ResultUpToDate, nil
	}

	slog.Debug("checkout differs from remote, pulling", "branch", branch, "local", local, "remote", remote)
	if err := s.repo.Pull(ctx, s.remote, branch); err != nil {
		return 0, &SyncError{Step: "pull", Err: err}
	}
	return ResultSynchronized, nil
}
