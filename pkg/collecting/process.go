package collecting

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"

	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Process reports the generator's own resource use from /proc/self/stat.
type Process struct {
	proc procfs.Proc
}

func NewProcess() (*Process, error) {
	proc, err := procfs.Self()
	if err != nil {
		return nil, errors.Wrap(err, "open /proc/self")
	}
	return &Process{proc: proc}, nil
}

func (c *Process) Name() string { return "Process" }
func (c *Process) Close() error { return nil }

func (c *Process) Collect(_ context.Context, s table.Sample) error {
	stat, err := c.proc.Stat()
	if err != nil {
		return errors.Wrap(err, "read /proc/self/stat")
	}
	s.Merge(processSample(stat))
	return nil
}

func processSample(stat procfs.ProcStat) table.Sample {
	q := func(f string) string { return schema.Qualify(schema.CategoryProc, f) }
	return table.Sample{
		q(schema.FieldProcUserCPU):   table.Scalar(float64(stat.UTime) / jiffiesPerSecond),
		q(schema.FieldProcSystemCPU): table.Scalar(float64(stat.STime) / jiffiesPerSecond),
		q(schema.FieldProcRSS):       table.Scalar(float64(stat.ResidentMemory())),
		q(schema.FieldProcVSS):       table.Scalar(float64(stat.VirtualMemory())),
		q(schema.FieldProcThreads):   table.Scalar(float64(stat.NumThreads)),
	}
}
