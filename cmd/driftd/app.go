package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"driftd/cmd/driftd/ui"
	"driftd/config"
	"driftd/infra/compose"
	"driftd/infra/docker"
	"driftd/infra/git"
	"driftd/infra/sqlite"
	"driftd/internal/drift"
	"driftd/internal/gitsync"
	"driftd/internal/manifest"
	"driftd/internal/reconcile"
)

const tracerName = "driftd"

// app holds what every command needs after flags are resolved.
type app struct {
	cfg        config.Config
	configPath string
	trace      *ui.TraceOutput
}

func (a *app) project() string {
	if a.cfg.Project != "" {
		return a.cfg.Project
	}
	return manifest.ProjectName(a.cfg.Manifest)
}

func (a *app) manifestFile() manifest.File {
	return manifest.File{Path: a.cfg.Manifest, Project: a.project()}
}

func (a *app) syncer() *gitsync.Syncer {
	return gitsync.New(git.New(a.cfg.CheckoutDir()), a.cfg.Remote)
}

func (a *app) lockPath() string {
	return filepath.Join(filepath.Dir(a.cfg.StateDB), "driftd.lock")
}

type controllerOptions struct {
	remediate bool
	sync      bool
	history   bool
	// readyWait bounds how long to wait for the docker daemon.
	readyWait time.Duration
}

// newController wires the docker, compose, git and sqlite adapters into a
// controller. The returned func releases them.
func (a *app) newController(ctx context.Context, o controllerOptions) (*reconcile.Controller, func(), error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = cli.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := docker.WaitReady(ctx, cli, o.readyWait); err != nil {
		cleanup()
		return nil, nil, err
	}

	opts := []reconcile.Option{
		reconcile.WithRemediation(o.remediate),
		reconcile.WithTracer(a.trace.Tracer(tracerName)),
	}
	if o.sync {
		opts = append(opts, reconcile.WithSyncer(a.syncer()))
	}
	if o.history {
		store, err := sqlite.Open(a.cfg.StateDB)
		if err != nil {
			slog.Warn("cycle history disabled", "err", err)
		} else {
			closers = append(closers, func() { _ = store.Close() })
			opts = append(opts, reconcile.WithHistory(store))
		}
	}

	project := a.project()
	workload := compose.New(a.cfg.Manifest, project, compose.WithCommand(a.cfg.ComposeCommand))
	controller := reconcile.NewController(
		a.manifestFile(),
		drift.NewDetector(docker.NewRuntime(cli)),
		workload,
		opts...,
	)
	slog.Debug("controller ready", "manifest", a.cfg.Manifest, "project", project, "git_sync", o.sync)
	return controller, cleanup, nil
}

func errDriftUnremediated(out reconcile.Outcome) error {
	return &exitCodeError{code: 3, err: fmt.Errorf("drift detected: %d issue(s) not remediated", out.Report.Count())}
}
