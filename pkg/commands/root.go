// Package commands provides the dsgen CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"DatasetGenerator/pkg/config"
	"DatasetGenerator/pkg/logging"
)

// Cfg is the shared configuration instance.
var Cfg = config.New()

var (
	configFile string
	logger     = logging.NewNop()
)

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dsgen",
		Short: "Host telemetry dataset generator",
		Long: `dsgen samples CPU, memory and disk telemetry into a pre-allocated
columnar table file.

Commands:
  collect   Take samples into a new table
  probe     Show the host layout a table would get
  inspect   Describe an existing table
  export    Convert a table to parquet, jsonl, csv or tsv

Configuration is read from defaults, then --config, then DSGEN_* variables,
then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&Cfg.LogLevel, "log-level", Cfg.LogLevel, "Log level (debug, info, warn, error)")

	root.AddCommand(
		NewCollectCmd(),
		NewProbeCmd(),
		NewInspectCmd(),
		NewExportCmd(),
	)

	return root
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := Cfg.Resolve(cmd.Flags(), configFile); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	l, err := logging.New("dsgen", Cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Execute runs the root command.
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := NewRootCmd().Execute(); err != nil {
		if logger.Desugar().Core().Enabled(zap.ErrorLevel) {
			logger.Errorf("%v", err)
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
