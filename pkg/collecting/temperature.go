package collecting

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"

	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Temperature reports per-core temperatures ordered by core number.
type Temperature struct {
	pattern *regexp.Regexp
}

func NewTemperature(pattern *regexp.Regexp) *Temperature { return &Temperature{pattern: pattern} }
func (c *Temperature) Name() string                       { return "Temperature" }
func (c *Temperature) Close() error                       { return nil }

func (c *Temperature) Collect(ctx context.Context, s table.Sample) error {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	// Some sensors failing still yields the readable ones.
	if err != nil && len(stats) == 0 {
		return errors.Wrap(err, "read temperature sensors")
	}
	temps := probing.CoreTemperatures(stats, c.pattern)
	s.Set(schema.Qualify(schema.CategoryCPU, schema.FieldCPUTemps), table.Vector(temps...))
	return nil
}
