package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"driftd/cmd/driftd/ui"
	"driftd/config"
	"driftd/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// exitCodeError carries a process exit code other than 1.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func main() {
	if err := logging.Configure(logging.LevelInfo, logging.FormatText); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		code := 1
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(code)
	}
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:           "driftd",
		Short:         "Keep a compose workload converged with its manifest",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.ConfigureColor(flags.noColor)

			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if flags.debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level, cfg.LogFormat); err != nil {
				return err
			}

			a.cfg = cfg
			a.configPath = flags.configPath
			if a.configPath == "" {
				a.configPath = config.Path()
			}
			if flags.trace {
				a.trace = ui.NewTraceOutput(os.Stderr)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.trace.Close()
		},
	}
	flags.register(root)

	root.AddCommand(initCmd(a))
	root.AddCommand(runCmd(a))
	root.AddCommand(checkCmd(a))
	root.AddCommand(syncCmd(a))
	root.AddCommand(setImageCmd(a))
	root.AddCommand(historyCmd(a))
	root.AddCommand(doctorCmd(a))
	return root
}
