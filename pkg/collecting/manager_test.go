package collecting

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"DatasetGenerator/pkg/config"
	"DatasetGenerator/pkg/probing"
	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

type fakeCollector struct {
	name     string
	sample   table.Sample
	failures int32
	calls    atomic.Int32
	closeErr error
}

func (f *fakeCollector) Name() string { return f.name }
func (f *fakeCollector) Close() error { return f.closeErr }

func (f *fakeCollector) Collect(_ context.Context, s table.Sample) error {
	n := f.calls.Add(1)
	s.Set(f.name+"/partial", table.Scalar(float64(n)))
	if n <= f.failures {
		return errors.Errorf("%s transient failure %d", f.name, n)
	}
	delete(s, f.name+"/partial")
	s.Merge(f.sample)
	return nil
}

func nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestManagerMerges(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		a := &fakeCollector{name: "A", sample: table.Sample{"A/x": table.Scalar(1)}}
		b := &fakeCollector{name: "B", sample: table.Sample{"B/y": table.Vector(2, 3)}}
		m := NewManager(nop(), Options{Concurrent: concurrent}, a, b)

		s, err := m.Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, table.Sample{"A/x": table.Scalar(1), "B/y": table.Vector(2, 3)}, s)
		assert.Equal(t, []string{"A", "B"}, m.CollectorNames())
	}
}

func TestManagerRetries(t *testing.T) {
	flaky := &fakeCollector{name: "F", failures: 2, sample: table.Sample{"F/v": table.Scalar(9)}}
	m := NewManager(nop(), Options{Retries: 2, RetryDelay: time.Millisecond}, flaky)

	s, err := m.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, table.Sample{"F/v": table.Scalar(9)}, s, "failed attempts leave no partial readings")
	assert.EqualValues(t, 3, flaky.calls.Load())
}

func TestManagerGivesUp(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		broken := &fakeCollector{name: "Broken", failures: 100}
		ok := &fakeCollector{name: "OK", sample: table.Sample{"OK/v": table.Scalar(1)}}
		m := NewManager(nop(), Options{Concurrent: concurrent, Retries: 1, RetryDelay: time.Millisecond}, ok, broken)

		_, err := m.Collect(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collector Broken")
	}
}

func TestManagerCancelledDuringRetry(t *testing.T) {
	broken := &fakeCollector{name: "Broken", failures: 100}
	m := NewManager(nop(), Options{Retries: 5, RetryDelay: time.Hour}, broken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManagerClose(t *testing.T) {
	a := &fakeCollector{name: "A", closeErr: errors.New("boom")}
	b := &fakeCollector{name: "B"}
	c := &fakeCollector{name: "C", closeErr: errors.New("bang")}
	err := NewManager(nop(), Options{}, a, b, c).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close collector A: boom")
	assert.Contains(t, err.Error(), "close collector C: bang")
}

func TestCPUSample(t *testing.T) {
	times := []cpu.TimesStat{
		{CPU: "cpu0", User: 1, System: 3, Idle: 5},
		{CPU: "cpu1", User: 2, System: 4, Idle: 6},
	}
	s := cpuSample(times, []string{"user", "system", "idle"})
	assert.Equal(t, table.Sample{
		"CPU/user":   table.Vector(1, 2),
		"CPU/system": table.Vector(3, 4),
		"CPU/idle":   table.Vector(5, 6),
	}, s)
}

func TestSetScalars(t *testing.T) {
	s := make(table.Sample)
	setScalars(s, schema.CategoryDisk, map[string]float64{"total": 2000, "used": 10}, []string{"total", "used", "free"})
	assert.Equal(t, table.Sample{
		"DISK/total": table.Scalar(2000),
		"DISK/used":  table.Scalar(10),
		"DISK/free":  table.Scalar(0),
	}, s)
}

func TestProcessSample(t *testing.T) {
	s := processSample(procfs.ProcStat{UTime: 250, STime: 50, NumThreads: 8, VSize: 4096})
	assert.Equal(t, 2.5, s["PROC/proc_user_cpu_secs"].Float())
	assert.Equal(t, 0.5, s["PROC/proc_system_cpu_secs"].Float())
	assert.Equal(t, 8.0, s["PROC/proc_threads"].Float())
	assert.Equal(t, 4096.0, s["PROC/proc_vss_bytes"].Float())
	assert.Len(t, s, len(schema.ProcFields))
}

func TestFromConfigMatchesSchema(t *testing.T) {
	p := &probing.HostProbe{
		LogicalUnits:  1,
		PhysicalUnits: 1,
		CPUFields:     []string{"user"},
		MemoryFields:  []string{"total"},
		DiskFields:    []string{"total"},
		DiskPath:      "/",
	}
	cfg := config.New()

	s, err := schema.FromProbe(p, schema.Options{Temperatures: true})
	require.NoError(t, err)
	m, err := FromConfig(cfg, p, s, nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"CPU", "Temperature", "Memory", "Disk"}, m.CollectorNames())

	s, err = schema.FromProbe(p, schema.Options{})
	require.NoError(t, err)
	m, err = FromConfig(cfg, p, s, nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"CPU", "Memory", "Disk"}, m.CollectorNames())

	cfg.TempPattern = "("
	s, err = schema.FromProbe(p, schema.Options{Temperatures: true})
	require.NoError(t, err)
	_, err = FromConfig(cfg, p, s, nop())
	assert.Error(t, err)
}
