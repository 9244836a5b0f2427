package commands

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DatasetGenerator/pkg/config"
	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

func layout() *schema.Schema {
	return &schema.Schema{
		Attrs: map[string]any{schema.AttrHostname: "bench-01"},
		Categories: []schema.Category{
			{Name: "CPU", Attrs: map[string]any{schema.AttrNumCPU: 2}, Slots: []schema.Slot{{Name: "user", Rank: 2, Units: 2}}},
			{Name: "RAM", Slots: []schema.Slot{{Name: "total", Rank: 1}}},
			{Name: "DISK", Slots: []schema.Slot{{Name: "total", Rank: 1}}},
		},
	}
}

func writeTable(t *testing.T, rows int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "host.tlm")
	tbl, err := table.Create(path, layout(), rows+2)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		require.NoError(t, tbl.Insert(i, table.Sample{
			"CPU/user":   table.Vector(float64(i), 1),
			"RAM/total":  table.Scalar(1000),
			"DISK/total": table.Scalar(2000),
		}))
	}
	require.NoError(t, tbl.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	Cfg = config.New()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	path := writeTable(t, 3)

	out, err := execute(t, "inspect", path, "--head", "2", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "/CPU/user")
	assert.Contains(t, out, "[2 5]")
	assert.Contains(t, out, "bench-01")
	assert.Contains(t, out, "[1,1]", "head rows print vectors as JSON")
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "nope.tlm"), "--log-level", "error")
	assert.ErrorContains(t, err, "nope.tlm")
}

func TestExport(t *testing.T) {
	path := writeTable(t, 3)
	dst := filepath.Join(t.TempDir(), "host.csv")

	_, err := execute(t, "export", path, "-f", "csv", "--export-output", dst, "--attrs", "--log-level", "error")
	require.NoError(t, err)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 4, "header and three sampled rows")
	assert.Equal(t, []string{"CPU.user.0", "CPU.user.1", "DISK.total", "RAM.total", "index"}, lines[0])
	assert.FileExists(t, filepath.Join(filepath.Dir(dst), "host_attrs.json"))
}

func TestExportRejectsFormat(t *testing.T) {
	path := writeTable(t, 1)
	_, err := execute(t, "export", path, "-f", "xlsx", "--log-level", "error")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, "/data/host.parquet", exportPath("/data/host.tlm", "", "parquet"))
	assert.Equal(t, "run.jsonl", exportPath("run", "", "jsonl"))
	assert.Equal(t, "/tmp/x.csv", exportPath("/data/host.tlm", "/tmp/x.csv", "tsv"))
}

func TestRenderLayout(t *testing.T) {
	var out bytes.Buffer
	renderLayout(&out, layout())
	assert.Contains(t, out.String(), "(3 slots)")
	assert.Contains(t, out.String(), "Names in more than one category (qualify as CATEGORY/name): total")
}

func TestRenderHost(t *testing.T) {
	var out bytes.Buffer
	renderHost(&out, &probing.HostProbe{
		LogicalUnits:  8,
		PhysicalUnits: 4,
		DiskPath:      "/",
		Host:          probing.HostInfo{Hostname: "bench-01"},
	})
	assert.Contains(t, out.String(), "bench-01")
	assert.Contains(t, out.String(), "logical cpus")
}
