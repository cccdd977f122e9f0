package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftd/config"
)

// globalFlags override values from the config file when set.
type globalFlags struct {
	configPath string
	manifest   string
	checkout   string
	project    string
	logFormat  string
	debug      bool
	noColor    bool
	trace      bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/driftd/config.yaml)")
	pf.StringVarP(&f.manifest, "manifest", "f", "", "Compose manifest path")
	pf.StringVar(&f.checkout, "checkout", "", "Git checkout to sync (default: manifest directory)")
	pf.StringVarP(&f.project, "project", "p", "", "Compose project name (default: derived from manifest directory)")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&f.trace, "trace", false, "Print cycle spans to stderr")
}

func (f *globalFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("manifest") {
		cfg.Manifest = f.manifest
	}
	if changed("checkout") {
		cfg.Checkout = f.checkout
	}
	if changed("project") {
		cfg.Project = f.project
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
