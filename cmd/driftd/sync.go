package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftd/cmd/driftd/ui"
)

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull the git checkout if its remote branch moved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.syncer().Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(ui.SyncResult(res.String()))
			return nil
		},
	}
}
