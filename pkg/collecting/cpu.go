package collecting

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"

	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// CPU reports per-logical-cpu time counters, one vector per field.
type CPU struct {
	fields []string
}

func NewCPU(fields []string) *CPU { return &CPU{fields: fields} }
func (c *CPU) Name() string       { return "CPU" }
func (c *CPU) Close() error       { return nil }

func (c *CPU) Collect(ctx context.Context, s table.Sample) error {
	times, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return errors.Wrap(err, "read per-cpu times")
	}
	s.Merge(cpuSample(times, c.fields))
	return nil
}

func cpuSample(times []cpu.TimesStat, fields []string) table.Sample {
	columns := make(map[string][]float64, len(fields))
	for i := range times {
		values := probing.NumericValues(&times[i])
		for _, f := range fields {
			columns[f] = append(columns[f], values[f])
		}
	}
	s := make(table.Sample, len(fields))
	for _, f := range fields {
		s.Set(schema.Qualify(schema.CategoryCPU, f), table.Vector(columns[f]...))
	}
	return s
}
