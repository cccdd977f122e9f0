package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"driftd/config"
	"driftd/infra/lockfile"
	"driftd/internal/reconcile"
)

func runCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile on a fixed interval until interrupted",
		Long: "Runs one cycle immediately and then one per interval. Each cycle " +
			"compares the running containers with the manifest, recreates the " +
			"workload when they drift and then syncs the git checkout. SIGHUP " +
			"triggers an extra cycle.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("interval") {
				a.cfg.Interval = config.Duration(interval)
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			lock, err := lockfile.Acquire(a.lockPath())
			if err != nil {
				return fmt.Errorf("another driftd is running: %w", err)
			}
			defer lock.Release()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			controller, cleanup, err := a.newController(ctx, controllerOptions{
				remediate: true,
				sync:      a.cfg.GitSync,
				history:   true,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			loop := reconcile.NewLoop(controller, time.Duration(a.cfg.Interval))
			go triggerOnHangup(ctx, loop)

			slog.Info("reconcile loop started", "interval", time.Duration(a.cfg.Interval), "manifest", a.cfg.Manifest)
			err = loop.Run(ctx)
			slog.Info("reconcile loop stopped")
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between cycles (overrides config)")
	return cmd
}

func triggerOnHangup(ctx context.Context, loop *reconcile.Loop) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			slog.Info("SIGHUP received, running cycle")
			loop.Trigger(ctx)
		}
	}
}
