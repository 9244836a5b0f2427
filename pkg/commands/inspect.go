package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"DatasetGenerator/pkg/exporting"
	"DatasetGenerator/pkg/table"
)

var inspectHead int

// NewInspectCmd creates the inspect subcommand.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect <file>",
		Aliases: []string{"i"},
		Short:   "Describe an existing table",
		Long: `Print the size, attributes and slot layout of a table file.

Example:
  dsgen inspect host.tlm
  dsgen inspect host.tlm --head 5`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().IntVar(&inspectHead, "head", 0, "Also print the first N sampled rows")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) (err error) {
	t, err := table.Open(args[0], table.WithLogger(logger.Named("table")))
	if err != nil {
		return errors.Wrapf(err, "open %s", args[0])
	}
	defer func() { err = multierr.Append(err, t.Close()) }()

	out := cmd.OutOrStdout()
	if err := renderSummary(out, t); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := renderAttrs(out, t); err != nil {
		return err
	}
	fmt.Fprintln(out)
	renderSlots(out, t)

	if inspectHead > 0 {
		fmt.Fprintln(out)
		return renderHead(out, t, inspectHead)
	}
	return nil
}

func renderSummary(w io.Writer, t *table.Table) error {
	st, err := os.Stat(t.Path())
	if err != nil {
		return errors.Wrap(err, "stat table")
	}
	tbl := newTable(w, "Property", "Value")
	tbl.AppendBulk([][]string{
		{"path", t.Path()},
		{"size", humanize.IBytes(uint64(st.Size()))},
		{"samples", humanize.Comma(int64(t.Len()))},
		{"capacity", humanize.Comma(int64(t.Capacity()))},
		{"chunk length", humanize.Comma(int64(t.ChunkLength()))},
		{"slots", strconv.Itoa(len(t.Slots()))},
	})
	tbl.Render()
	return nil
}

func renderAttrs(w io.Writer, t *table.Table) error {
	tbl := newTable(w, "Group", "Attribute", "Value")
	add := func(g *table.Group) {
		attrs := g.Attrs()
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tbl.Append([]string{g.Path(), k, fmt.Sprint(attrs[k])})
		}
	}

	add(t.Root())
	err := t.Walk(func(n table.Node) error {
		if g, ok := n.(*table.Group); ok {
			add(g)
		}
		return nil
	})
	if err != nil {
		return err
	}
	tbl.Render()
	return nil
}

func renderSlots(w io.Writer, t *table.Table) {
	tbl := newTable(w, "Slot", "Rank", "Shape")
	for _, s := range t.Slots() {
		tbl.Append([]string{s.Path(), strconv.Itoa(s.Rank()), fmt.Sprint(s.Shape())})
	}
	tbl.Render()
}

func renderHead(w io.Writer, t *table.Table, n int) error {
	cols := exporting.Columns(t, exporting.FlattenVectorsAsJSON)
	header := []string{exporting.IndexColumn}
	for _, c := range cols {
		header = append(header, c.Name)
	}

	tbl := newTable(w, header...)
	for i := 0; i < min(n, t.Len()); i++ {
		r, err := exporting.FlattenRow(cols, i)
		if err != nil {
			return err
		}
		row := make([]string, len(header))
		for j, name := range header {
			row[j] = fmt.Sprint(r[name])
		}
		tbl.Append(row)
	}
	tbl.Render()
	return nil
}
