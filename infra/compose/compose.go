// Package compose tears down and recreates the managed workload with the
// docker compose CLI.
package compose

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"driftd/infra/command"
)

const DefaultCommand = "docker compose"

// Workload implements the reconcile Workload port for one compose file.
type Workload struct {
	command []string
	file    string
	project string
	run     command.Runner
}

type Option func(*Workload)

// WithCommand sets the compose invocation, e.g. "docker-compose".
func WithCommand(cmd string) Option {
	return func(w *Workload) {
		if fields := strings.Fields(cmd); len(fields) > 0 {
			w.command = fields
		}
	}
}

// WithRunner replaces os/exec. Used by tests.
func WithRunner(run command.Runner) Option {
	return func(w *Workload) { w.run = run }
}

func New(file, project string, opts ...Option) *Workload {
	w := &Workload{
		command: strings.Fields(DefaultCommand),
		file:    file,
		project: project,
		run:     command.Run,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Down stops and removes every resource of the project. Running it with
// nothing up is a no-op.
func (w *Workload) Down(ctx context.Context) error {
	if _, err := w.exec(ctx, "down"); err != nil {
		return fmt.Errorf("compose down: %w", err)
	}
	return nil
}

// Up creates and starts every service of the manifest, detached.
func (w *Workload) Up(ctx context.Context) error {
	if _, err := w.exec(ctx, "up", "-d"); err != nil {
		return fmt.Errorf("compose up: %w", err)
	}
	return nil
}

func (w *Workload) exec(ctx context.Context, args ...string) (string, error) {
	full := append([]string{}, w.command[1:]...)
	full = append(full, "-f", w.file)
	if w.project != "" {
		full = append(full, "-p", w.project)
	}
	full = append(full, args...)
	return w.run(ctx, filepath.Dir(w.file), w.command[0], full...)
}
