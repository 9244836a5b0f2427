package commands

import (
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"DatasetGenerator/pkg/exporting"
	"DatasetGenerator/pkg/table"
)

var (
	exportVectorsJSON bool
	exportAttrs       bool
)

// NewExportCmd creates the export subcommand.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export <file>",
		Aliases: []string{"e"},
		Short:   "Convert a table to parquet, jsonl, csv or tsv",
		Long: `Write every sampled row of a table as one flat record. Vector slots
expand into one column per unit (CPU.user.0, CPU.user.1, ...) unless
--vectors-json is set.

Example:
  dsgen export host.tlm -f parquet
  dsgen export host.tlm -f csv --export-output /tmp/host.csv --attrs`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	Cfg.AddExportFlags(cmd)
	cmd.Flags().BoolVar(&exportVectorsJSON, "vectors-json", false, "Write vector slots as JSON arrays in one column")
	cmd.Flags().BoolVar(&exportAttrs, "attrs", false, "Also write group attributes to <output>_attrs.json")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	src := args[0]
	t, err := table.Open(src, table.WithLogger(logger.Named("table")))
	if err != nil {
		return errors.Wrapf(err, "open %s", src)
	}
	defer func() { err = multierr.Append(err, t.Close()) }()

	mode := exporting.FlattenAll
	if exportVectorsJSON {
		mode = exporting.FlattenVectorsAsJSON
	}
	dst := exportPath(src, Cfg.ExportPath, Cfg.ExportFormat)

	e, err := exporting.NewExporter(dst, Cfg.ExportFormat, exporting.WithFlattenMode(mode))
	if err != nil {
		return err
	}
	n, err := e.WriteTable(t)
	if err = multierr.Append(err, e.Close()); err != nil {
		return errors.Wrapf(err, "export %s", dst)
	}
	logger.Infof("Exported %s rows to %s (%s)", humanize.Comma(int64(n)), dst, e.Format())

	if exportAttrs {
		path, err := e.WriteAttrs(t)
		if err != nil {
			return err
		}
		logger.Infof("Attributes written to %s", path)
	}
	return nil
}

// exportPath returns out, or src with its extension replaced by format's.
func exportPath(src, out, format string) string {
	if out != "" {
		return out
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + exporting.GetExtension(format)
}
