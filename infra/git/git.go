// Package git drives a local checkout with the git CLI.
package git

import (
	"context"
	"fmt"
	"strings"

	"driftd/infra/command"
)

// Repository implements gitsync.Repository for the checkout at dir.
type Repository struct {
	dir string
	run command.Runner
}

func New(dir string) *Repository {
	return &Repository{dir: dir, run: command.Run}
}

// NewWithRunner uses run instead of os/exec.
func NewWithRunner(dir string, run command.Runner) *Repository {
	return &Repository{dir: dir, run: run}
}

// Check fails unless dir is inside a git work tree.
func (r *Repository) Check(ctx context.Context) error {
	out, err := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return err
	}
	if out != "true" {
		return fmt.Errorf("%s is not a git work tree", r.dir)
	}
	return nil
}

func (r *Repository) Fetch(ctx context.Context, remote string) error {
	_, err := r.git(ctx, "fetch", "--quiet", remote)
	return err
}

// CurrentBranch returns "" when HEAD is detached.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", nil
	}
	return out, nil
}

func (r *Repository) LocalCommit(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "HEAD")
}

func (r *Repository) RemoteCommit(ctx context.Context, remote, branch string) (string, error) {
	return r.git(ctx, "rev-parse", "--verify", "refs/remotes/"+remote+"/"+branch)
}

func (r *Repository) Pull(ctx context.Context, remote, branch string) error {
	_, err := r.git(ctx, "pull", "--quiet", remote, branch)
	return err
}

func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, r.dir, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(out), nil
}
