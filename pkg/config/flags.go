package config

import (
	"github.com/spf13/cobra"
)

// AddCollectionFlags adds sampling flags to a command.
func (c *Config) AddCollectionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVarP(&c.Samples, "samples", "n", c.Samples, "Number of samples to take")
	flags.IntVar(&c.Capacity, "capacity", c.Capacity, "Samples to pre-allocate (defaults to --samples)")
	flags.IntVar(&c.GoalSamples, "goal", c.GoalSamples, "Sample count to extrapolate the run duration to")
	flags.IntVar(&c.GrowStep, "grow-step", c.GrowStep, "Samples added per growth when capacity runs out")
	flags.DurationVar(&c.Interval, "interval", c.Interval, "Delay between samples (0 samples back to back)")
	flags.IntVar(&c.ProgressEvery, "progress-every", c.ProgressEvery, "Log progress every N samples (0 disables)")
	flags.IntVar(&c.FlushEvery, "flush-every", c.FlushEvery, "Flush the table every N samples (0 flushes on close only)")
	flags.BoolVar(&c.Concurrent, "concurrent", c.Concurrent, "Run collectors concurrently within a sample")
	flags.IntVar(&c.Retries, "retries", c.Retries, "Retries for a failed collector read")
}

// AddSourceFlags adds sensor source flags to a command.
func (c *Config) AddSourceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.DiskPath, "disk-path", c.DiskPath, "Mount point reported in the DISK category")
	flags.BoolVar(&c.Temperatures, "temps", c.Temperatures, "Record per-core temperatures")
	flags.StringVar(&c.TempPattern, "temp-pattern", c.TempPattern, "Regexp selecting per-core sensor labels")
	flags.BoolVar(&c.Process, "process", c.Process, "Record the generator's own CPU and memory use")
	flags.BoolVar(&c.GPU, "gpu", c.GPU, "Record NVIDIA GPU metrics")
	flags.BoolVar(&c.RunFields, "run-fields", c.RunFields, "Record timing bookkeeping in the RUN category")
}

// AddOutputFlags adds table output flags to a command.
func (c *Config) AddOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&c.OutputPath, "output", "o", c.OutputPath, "Table file to create")
	flags.IntVar(&c.ChunkSamples, "chunk", c.ChunkSamples, "Samples per storage chunk")
	flags.BoolVar(&c.StrictNames, "strict-names", c.StrictNames, "Fail when a slot name exists in two categories")
}

// AddExportFlags adds export flags to a command.
func (c *Config) AddExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&c.ExportFormat, "format", "f", c.ExportFormat, "Export format (parquet, jsonl, csv, tsv)")
	flags.StringVar(&c.ExportPath, "export-output", c.ExportPath, "Export file (derived from the table name if empty)")
}

// AddSystemFlags adds system identification flags to a command.
func (c *Config) AddSystemFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.UUID, "uuid", c.UUID, "Run ID (auto-generated if empty)")
	flags.StringVar(&c.Hostname, "hostname", c.Hostname, "Hostname override")
}

// AddAllFlags adds every collection flag to a command.
func (c *Config) AddAllFlags(cmd *cobra.Command) {
	c.AddCollectionFlags(cmd)
	c.AddSourceFlags(cmd)
	c.AddOutputFlags(cmd)
	c.AddSystemFlags(cmd)
}
