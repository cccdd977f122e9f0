package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftd/cmd/driftd/ui"
	"driftd/internal/manifest"
)

func setImageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-image IMAGE TAG",
		Short: "Point every service running IMAGE at IMAGE:TAG in the manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, tag := args[0], args[1]
			n, err := manifest.SetImageTag(a.cfg.Manifest, image, tag)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println(ui.WarnMsg("no service in %s uses %s", a.cfg.Manifest, image))
				return nil
			}
			fmt.Println(ui.SuccessMsg("updated %d service(s) to %s:%s", n, image, tag))
			return nil
		},
	}
}
