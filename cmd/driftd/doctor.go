package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"driftd/cmd/driftd/ui"
	"driftd/infra/docker"
	"driftd/infra/git"
	"driftd/internal/manifest"
	"driftd/internal/signal/ntp"
)

func doctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that driftd can reach everything it needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			problems := 0
			report := func(err error, okMsg string) {
				if err != nil {
					problems++
					fmt.Println(ui.ErrorMsg("%v", err))
					return
				}
				fmt.Println(ui.SuccessMsg("%s", okMsg))
			}

			cli, err := docker.NewClient()
			if err == nil {
				err = docker.WaitReady(ctx, cli, 3*time.Second)
				_ = cli.Close()
			}
			report(err, "docker daemon reachable")

			m, err := manifest.Load(ctx, a.cfg.Manifest, a.project())
			if err == nil {
				err = m.Validate()
			}
			report(err, fmt.Sprintf("manifest %s: %d service(s), project %q", a.cfg.Manifest, len(m.Services), m.Project))

			if a.cfg.GitSync {
				err = git.New(a.cfg.CheckoutDir()).Check(ctx)
				report(err, fmt.Sprintf("git checkout %s", a.cfg.CheckoutDir()))
			}

			status := ntp.NewChecker("", 0).Check()
			switch status.Phase {
			case ntp.PhaseHealthy:
				fmt.Println(ui.SuccessMsg("clock offset %s", status.Offset.Round(time.Millisecond)))
			case ntp.PhaseUnhealthyOffset:
				fmt.Println(ui.WarnMsg("clock offset %s exceeds %s", status.Offset.Round(time.Millisecond), ntp.DefaultThreshold))
			default:
				fmt.Println(ui.WarnMsg("clock offset unknown: %s", status.Error))
			}

			fmt.Println()
			fmt.Print(ui.KeyValues("  ",
				ui.KV("Project", a.project()),
				ui.KV("Compose", a.cfg.ComposeCommand),
				ui.KV("State DB", a.cfg.StateDB),
				ui.KV("Interval", time.Duration(a.cfg.Interval).String()),
			))
			if problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", problems)
			}
			return nil
		},
	}
}
