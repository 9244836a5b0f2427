package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"DatasetGenerator/pkg/collecting"
	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/profiling"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Root attributes identifying a run.
const (
	AttrRunID     = "run_id"
	AttrCreatedAt = "created_at"
)

// NewCollectCmd creates the collect subcommand.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collect",
		Aliases: []string{"c"},
		Short:   "Take samples into a new table",
		Long: `Probe the host, lay out a table for it and fill one index per sample.
Ctrl+C stops early and keeps the samples taken so far.

Example:
  dsgen collect -n 100000 -o host.tlm
  dsgen collect -n 500 --interval 100ms --process --gpu`,
		Args: cobra.NoArgs,
		RunE: runCollect,
	}

	Cfg.AddAllFlags(cmd)

	return cmd
}

func runCollect(cmd *cobra.Command, _ []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probe, err := probeHost(cmd)
	if err != nil {
		return err
	}

	temps := Cfg.Temperatures
	if temps && probe.CoreSensors != probe.PhysicalUnits {
		logger.Warnf("Found %d core temperature sensors for %d physical cpus, not recording temperatures",
			probe.CoreSensors, probe.PhysicalUnits)
		temps = false
	}

	s, err := schema.FromProbe(probe, schema.Options{
		Temperatures: temps,
		Run:          Cfg.RunFields,
		Process:      Cfg.Process,
		GPU:          Cfg.GPU,
		Attrs: map[string]any{
			schema.AttrHostname: Cfg.Hostname,
			AttrRunID:           Cfg.UUID,
			AttrCreatedAt:       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.Wrap(err, "lay out table")
	}

	manager, err := collecting.FromConfig(Cfg, probe, s, logger.Named("collecting"))
	if err != nil {
		return errors.Wrap(err, "create collectors")
	}
	defer func() { err = multierr.Append(err, manager.Close()) }()

	runner := profiling.NewRunner(manager, profiling.Options{
		Samples:       Cfg.Samples,
		Capacity:      Cfg.TableCapacity(),
		Goal:          Cfg.Goal(),
		GrowStep:      Cfg.GrowStep,
		Interval:      Cfg.Interval,
		ProgressEvery: Cfg.ProgressEvery,
		FlushEvery:    Cfg.FlushEvery,
		RunFields:     Cfg.RunFields,
		TableOptions: []table.Option{
			table.WithChunkLength(Cfg.ChunkSamples),
			table.WithStrictNames(Cfg.StrictNames),
			table.WithLogger(logger.Named("table")),
		},
	}, logger.Named("profiling"))

	logger.Infof("Run %s on %s: %d samples into %s", Cfg.UUID, Cfg.Hostname, Cfg.Samples, Cfg.OutputPath)
	_, err = runner.Run(ctx, Cfg.OutputPath, s)
	return err
}

// probeHost probes the host with the configured sources.
func probeHost(cmd *cobra.Command) (*probing.HostProbe, error) {
	opts := probing.Options{DiskPath: Cfg.DiskPath, GPU: Cfg.GPU}
	if Cfg.Temperatures {
		pattern, err := probing.CompileCorePattern(Cfg.TempPattern)
		if err != nil {
			return nil, errors.Wrap(err, "temperature sensor pattern")
		}
		opts.CorePattern = pattern
	}
	p, err := probing.ProbeHost(cmd.Context(), opts)
	return p, errors.Wrap(err, "probe host")
}
