package collecting

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"

	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

type Memory struct {
	fields []string
}

func NewMemory(fields []string) *Memory { return &Memory{fields: fields} }
func (c *Memory) Name() string          { return "Memory" }
func (c *Memory) Close() error          { return nil }

func (c *Memory) Collect(ctx context.Context, s table.Sample) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return errors.Wrap(err, "read virtual memory")
	}
	setScalars(s, schema.CategoryRAM, probing.NumericValues(vm), c.fields)
	return nil
}

// setScalars stores the named values under category, reading missing ones as zero.
func setScalars(s table.Sample, category string, values map[string]float64, fields []string) {
	for _, f := range fields {
		s.Set(schema.Qualify(category, f), table.Scalar(values[f]))
	}
}
