package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
)

// NewProbeCmd creates the probe subcommand.
func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Show the host layout a table would get",
		Long: `Probe the host and print the categories, slots and unit counts that
collect would lay out, without creating a table.`,
		Args: cobra.NoArgs,
		RunE: runProbe,
	}

	Cfg.AddSourceFlags(cmd)

	return cmd
}

func runProbe(cmd *cobra.Command, _ []string) error {
	p, err := probeHost(cmd)
	if err != nil {
		return err
	}
	s, err := schema.FromProbe(p, schema.Options{
		Temperatures: Cfg.Temperatures,
		Run:          Cfg.RunFields,
		Process:      Cfg.Process,
		GPU:          Cfg.GPU,
	})
	if err != nil {
		return errors.Wrap(err, "lay out table")
	}

	out := cmd.OutOrStdout()
	renderHost(out, p)
	fmt.Fprintln(out)
	renderLayout(out, s)
	return nil
}

func renderHost(w io.Writer, p *probing.HostProbe) {
	tbl := newTable(w, "Property", "Value")
	tbl.AppendBulk([][]string{
		{"hostname", p.Host.Hostname},
		{"platform", p.Host.Platform + " " + p.Host.PlatformVersion},
		{"kernel", p.Host.KernelVersion + " " + p.Host.KernelArch},
		{"cpu", p.CPUBrand},
		{"logical cpus", strconv.Itoa(p.LogicalUnits)},
		{"physical cpus", strconv.Itoa(p.PhysicalUnits)},
		{"core sensors", strconv.Itoa(p.CoreSensors)},
		{"disk path", p.DiskPath},
		{"process stats", strconv.FormatBool(p.ProcessStats)},
		{"gpus", strconv.Itoa(p.GPUs)},
	})
	tbl.Render()
}

func renderLayout(w io.Writer, s *schema.Schema) {
	entries := s.Entries()
	tbl := newTable(w, "Category", "Slot", "Rank", "Units")
	for _, e := range entries {
		tbl.Append([]string{e.Category, e.Slot, strconv.Itoa(e.Rank), strconv.Itoa(e.Units)})
	}
	tbl.Render()
	fmt.Fprintf(w, "(%d slots)\n", len(entries))
	if dups := s.Duplicates(); len(dups) > 0 {
		fmt.Fprintf(w, "Names in more than one category (qualify as CATEGORY/name): %s\n", strings.Join(dups, ", "))
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetAutoWrapText(false)
	tbl.SetAlignment(tablewriter.ALIGN_LEFT)
	tbl.SetHeader(header)
	return tbl
}
