package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"driftd/cmd/driftd/ui"
)

func checkCmd(a *app) *cobra.Command {
	var remediate bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one cycle and print the drift report",
		Long: "Compares the running containers with the manifest once. Exits 3 " +
			"when drift is found and was not remediated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			controller, cleanup, err := a.newController(cmd.Context(), controllerOptions{
				remediate: remediate,
				history:   remediate,
				readyWait: 5 * time.Second,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			out := controller.RunCycle(cmd.Context())
			fmt.Print(ui.Outcome(out))

			if out.DetectErr != nil {
				return out.DetectErr
			}
			if out.Drifted() && !out.Remediated {
				return errDriftUnremediated(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remediate, "remediate", false, "Recreate the workload when drift is found")
	return cmd
}
