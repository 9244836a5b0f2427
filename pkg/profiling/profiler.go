// Package profiling drives a sampling run: it creates the table, fills one
// index per tick from a sample source and reports throughput.
package profiling

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"DatasetGenerator/pkg/collecting"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Root attributes written by the runner.
const (
	AttrSampleTarget   = "sample_target"
	AttrSamplesTaken   = "samples_taken"
	AttrElapsedSeconds = "elapsed_seconds"
	AttrInterrupted    = "interrupted"
)

// Options configures a Runner.
type Options struct {
	Samples       int
	Capacity      int // defaults to Samples
	Goal          int // defaults to Samples
	GrowStep      int // 0 grows straight to Samples
	Interval      time.Duration
	ProgressEvery int
	FlushEvery    int
	RunFields     bool
	TableOptions  []table.Option
}

// Report summarises a finished run.
type Report struct {
	Path         string
	Target       int
	Samples      int
	Interrupted  bool
	Elapsed      time.Duration
	PerSecond    float64
	Goal         int
	GoalDuration time.Duration
}

// Runner takes Options.Samples samples from a source into a new table.
type Runner struct {
	source collecting.Source
	opts   Options
	logger *zap.SugaredLogger
}

func NewRunner(source collecting.Source, opts Options, logger *zap.SugaredLogger) *Runner {
	if opts.Capacity <= 0 {
		opts.Capacity = opts.Samples
	}
	if opts.Goal <= 0 {
		opts.Goal = opts.Samples
	}
	return &Runner{source: source, opts: opts, logger: logger}
}

// Run creates the table at path laid out by s, fills it and closes it.
// Cancelling ctx stops sampling early; the samples taken so far are kept.
func (r *Runner) Run(ctx context.Context, path string, s *schema.Schema) (*Report, error) {
	t, err := table.Create(path, s, r.opts.Capacity, r.opts.TableOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "create table")
	}
	r.logger.Infof("Created %s: %d slots, capacity %s", path, len(t.Slots()), humanize.Comma(int64(t.Capacity())))

	report, runErr := r.fill(ctx, t)
	err = multierr.Combine(
		runErr,
		t.SetAttr("/", AttrSamplesTaken, report.Samples),
		t.SetAttr("/", AttrElapsedSeconds, report.Elapsed.Seconds()),
		t.SetAttr("/", AttrInterrupted, report.Interrupted),
		t.Close(),
	)
	if err != nil {
		return report, err
	}
	r.logReport(report)
	return report, nil
}

func (r *Runner) fill(ctx context.Context, t *table.Table) (*Report, error) {
	rep := &Report{Path: t.Path(), Target: r.opts.Samples, Goal: r.opts.Goal}
	if err := t.SetAttr("/", AttrSampleTarget, r.opts.Samples); err != nil {
		return rep, err
	}

	var tick <-chan time.Time
	if r.opts.Interval > 0 {
		ticker := time.NewTicker(r.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	defer func() { rep.finish(time.Since(start)) }()

	for i := 0; i < r.opts.Samples; i++ {
		if tick != nil && i > 0 {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			rep.Interrupted = true
			r.logger.Infof("Interrupted after %d samples", i)
			return rep, nil
		}

		if i >= t.Capacity() {
			if err := r.grow(t); err != nil {
				return rep, err
			}
		}

		sample, err := r.source.Collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				rep.Interrupted = true
				r.logger.Infof("Interrupted after %d samples", i)
				return rep, nil
			}
			return rep, errors.Wrapf(err, "collect sample %d", i)
		}
		if r.opts.RunFields {
			r.addRunFields(sample, i, start)
		}
		if err := t.Insert(i, sample); err != nil {
			return rep, err
		}
		rep.Samples = i + 1

		if r.opts.ProgressEvery > 0 && i%r.opts.ProgressEvery == 0 {
			r.logProgress(i, time.Since(start))
		}
		if r.opts.FlushEvery > 0 && rep.Samples%r.opts.FlushEvery == 0 {
			if err := t.Flush(); err != nil {
				return rep, err
			}
		}
	}
	return rep, nil
}

func (r *Runner) grow(t *table.Table) error {
	newCap := r.opts.Samples
	if r.opts.GrowStep > 0 {
		newCap = min(t.Capacity()+r.opts.GrowStep, r.opts.Samples)
	}
	r.logger.Infof("Growing table from %s to %s samples",
		humanize.Comma(int64(t.Capacity())), humanize.Comma(int64(newCap)))
	return t.Grow(newCap)
}

func (r *Runner) addRunFields(s table.Sample, i int, start time.Time) {
	now := time.Now()
	q := func(f string) string { return schema.Qualify(schema.CategoryRun, f) }
	s.Set(q(schema.FieldSystemTime), table.Scalar(float64(now.UnixNano())/1e9))
	s.Set(q(schema.FieldTimeElapsed), table.Scalar(now.Sub(start).Seconds()))
	s.Set(q(schema.FieldMeasurementsTaken), table.Scalar(float64(i+1)))
	s.Set(q(schema.FieldMeasurementsRemaining), table.Scalar(float64(r.opts.Samples-i-1)))
}

func (r *Runner) logProgress(i int, elapsed time.Duration) {
	done := i + 1
	eta := time.Duration(float64(elapsed) / float64(done) * float64(r.opts.Samples-done))
	r.logger.Infof("Measurement %s / %s, elapsed %v, ETA: complete in %s",
		humanize.Comma(int64(i)), humanize.Comma(int64(r.opts.Samples)),
		elapsed.Round(time.Millisecond), FormatETA(eta))
}

func (r *Runner) logReport(rep *Report) {
	r.logger.Infof("Took %s measurements in %v", humanize.Comma(int64(rep.Samples)), rep.Elapsed.Round(time.Millisecond))
	r.logger.Infof("Comes out to %s measurements/second", humanize.CommafWithDigits(rep.PerSecond, 2))
	if rep.Samples > 0 {
		r.logger.Infof("%s measurements would take %v (%s)",
			humanize.Comma(int64(rep.Goal)), rep.GoalDuration.Round(time.Second), FormatETA(rep.GoalDuration))
	}
	r.logger.Infof("Data written to: %s", rep.Path)
}

func (rep *Report) finish(elapsed time.Duration) {
	rep.Elapsed = elapsed
	if rep.Samples == 0 || elapsed <= 0 {
		return
	}
	rep.PerSecond = float64(rep.Samples) / elapsed.Seconds()
	rep.GoalDuration = time.Duration(float64(elapsed) / float64(rep.Samples) * float64(rep.Goal))
}

// FormatETA renders d as "1d 2h 3m 4s".
func FormatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d.Round(time.Second) / time.Second)
	days := secs / 86400
	secs %= 86400
	hours := secs / 3600
	secs %= 3600
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, secs/60, secs%60)
}
