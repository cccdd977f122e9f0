package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"driftd/cmd/driftd/ui"
	"driftd/config"
)

func initCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the config file",
		Long: "Saves the configuration driftd would run with, including any " +
			"--manifest, --checkout and --project flags, so later commands " +
			"need no flags.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("interval") {
				a.cfg.Interval = config.Duration(interval)
			}
			if err := writeConfig(a.configPath, a.cfg, force); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("wrote %s", a.configPath))
			fmt.Print(ui.KeyValues("  ",
				ui.KV("Manifest", a.cfg.Manifest),
				ui.KV("Project", a.project()),
				ui.KV("Checkout", a.cfg.CheckoutDir()),
				ui.KV("Interval", time.Duration(a.cfg.Interval).String()),
				ui.KV("Git sync", strconv.FormatBool(a.cfg.GitSync)),
			))
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between cycles")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

// writeConfig validates cfg and saves it to path. An existing file is only
// replaced when force is set.
func writeConfig(path string, cfg config.Config, force bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
	}
	return cfg.Save(path)
}
