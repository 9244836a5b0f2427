package collecting

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"

	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Disk reports usage of the filesystem holding path.
type Disk struct {
	path   string
	fields []string
}

func NewDisk(path string, fields []string) *Disk { return &Disk{path: path, fields: fields} }
func (c *Disk) Name() string                     { return "Disk" }
func (c *Disk) Close() error                     { return nil }

func (c *Disk) Collect(ctx context.Context, s table.Sample) error {
	usage, err := disk.UsageWithContext(ctx, c.path)
	if err != nil {
		return errors.Wrapf(err, "read disk usage of %s", c.path)
	}
	setScalars(s, schema.CategoryDisk, probing.NumericValues(usage), c.fields)
	return nil
}
