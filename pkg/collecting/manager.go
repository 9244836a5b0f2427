package collecting

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"DatasetGenerator/pkg/config"
	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Options controls how a Manager runs its collectors.
type Options struct {
	Concurrent bool
	Retries    int
	RetryDelay time.Duration
}

// Manager runs a set of collectors and merges their readings into one sample.
type Manager struct {
	collectors []Collector
	opts       Options
	logger     *zap.SugaredLogger
}

func NewManager(logger *zap.SugaredLogger, opts Options, collectors ...Collector) *Manager {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	m := &Manager{collectors: collectors, opts: opts, logger: logger}

	mode := "sequential"
	if opts.Concurrent {
		mode = "concurrent"
	}
	logger.Infof("Initialized %d collectors (%s)", len(collectors), mode)
	return m
}

// FromConfig builds the collectors that fill the slots declared by s.
func FromConfig(cfg *config.Config, p *probing.HostProbe, s *schema.Schema, logger *zap.SugaredLogger) (*Manager, error) {
	var collectors []Collector

	collectors = append(collectors, NewCPU(p.CPUFields))
	if cpu, ok := s.Category(schema.CategoryCPU); ok && hasSlot(cpu, schema.FieldCPUTemps) {
		pattern, err := probing.CompileCorePattern(cfg.TempPattern)
		if err != nil {
			return nil, errors.Wrap(err, "temperature sensor pattern")
		}
		collectors = append(collectors, NewTemperature(pattern))
	}
	collectors = append(collectors,
		NewMemory(p.MemoryFields),
		NewDisk(p.DiskPath, p.DiskFields),
	)

	if _, ok := s.Category(schema.CategoryProc); ok {
		c, err := NewProcess()
		if err != nil {
			return nil, multierr.Append(err, closeAll(collectors))
		}
		collectors = append(collectors, c)
	}
	if _, ok := s.Category(schema.CategoryGPU); ok {
		c, err := NewNvidia()
		if err != nil {
			return nil, multierr.Append(err, closeAll(collectors))
		}
		collectors = append(collectors, c)
	}

	return NewManager(logger, Options{Concurrent: cfg.Concurrent, Retries: cfg.Retries}, collectors...), nil
}

func hasSlot(c *schema.Category, name string) bool {
	for _, sl := range c.Slots {
		if sl.Name == name {
			return true
		}
	}
	return false
}

// Collect runs every collector once and returns the merged sample.
func (m *Manager) Collect(ctx context.Context) (table.Sample, error) {
	parts := make([]table.Sample, len(m.collectors))

	if m.opts.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for i, c := range m.collectors {
			i, c := i, c
			g.Go(func() error {
				part, err := m.collectOne(gctx, c)
				parts[i] = part
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, c := range m.collectors {
			part, err := m.collectOne(ctx, c)
			if err != nil {
				return nil, err
			}
			parts[i] = part
		}
	}

	sample := make(table.Sample)
	for _, part := range parts {
		sample.Merge(part)
	}
	return sample, nil
}

// collectOne retries a failing collector, discarding partial readings from
// failed attempts.
func (m *Manager) collectOne(ctx context.Context, c Collector) (table.Sample, error) {
	var err error
	for attempt := 0; attempt <= m.opts.Retries; attempt++ {
		if attempt > 0 {
			m.logger.Debugf("Retrying collector %s (attempt %d): %v", c.Name(), attempt+1, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.opts.RetryDelay):
			}
		}
		part := make(table.Sample)
		if err = c.Collect(ctx, part); err == nil {
			return part, nil
		}
	}
	return nil, errors.Wrapf(err, "collector %s", c.Name())
}

func (m *Manager) Close() error {
	return closeAll(m.collectors)
}

func closeAll(collectors []Collector) error {
	var err error
	for _, c := range collectors {
		err = multierr.Append(err, errors.Wrapf(c.Close(), "close collector %s", c.Name()))
	}
	return err
}

func (m *Manager) CollectorNames() []string {
	names := make([]string, len(m.collectors))
	for i, c := range m.collectors {
		names[i] = c.Name()
	}
	return names
}
