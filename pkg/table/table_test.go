package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DatasetGenerator/pkg/schema"
)

// hostSchema mirrors a 2-logical/2-physical host with a RAM/DISK name collision.
func hostSchema() *schema.Schema {
	return &schema.Schema{
		Attrs: map[string]any{"hostname": "bench-01"},
		Categories: []schema.Category{
			{
				Name:  "CPU",
				Attrs: map[string]any{"num_cpu": 2, "num_physical_cpu": 2},
				Slots: []schema.Slot{
					{Name: "user", Rank: 2, Units: 2},
					{Name: "system", Rank: 2, Units: 2},
					{Name: "idle", Rank: 2, Units: 2},
					{Name: "cpu_temps", Rank: 2, Units: 2},
				},
			},
			{Name: "RAM", Slots: []schema.Slot{{Name: "total", Rank: 1}, {Name: "available", Rank: 1}}},
			{Name: "DISK", Slots: []schema.Slot{{Name: "total", Rank: 1}, {Name: "used", Rank: 1}}},
		},
	}
}

func hostSample() Sample {
	return Sample{
		"user":       Vector(1, 2),
		"system":     Vector(3, 4),
		"idle":       Vector(5, 6),
		"cpu_temps":  Vector(40, 41),
		"total":      Scalar(1000),
		"available":  Scalar(500),
		"DISK/total": Scalar(2000),
		"used":       Scalar(10),
	}
}

func createTable(t *testing.T, s *schema.Schema, capacity int, opts ...Option) *Table {
	t.Helper()
	tbl, err := Create(filepath.Join(t.TempDir(), "dataset.tlm"), s, capacity, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !tbl.closed {
			tbl.Close()
		}
	})
	return tbl
}

func TestEndToEnd(t *testing.T) {
	tbl := createTable(t, hostSchema(), 5)

	for _, sl := range tbl.Slots() {
		assert.Equal(t, 5, sl.Shape()[len(sl.Shape())-1], sl.Path())
	}
	require.NoError(t, tbl.Insert(0, hostSample()))

	v, err := tbl.ReadAt(0, "user")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v.Floats())

	v, err = tbl.ReadAt(0, "RAM/total")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, v.Float())

	v, err = tbl.ReadAt(0, "DISK/total")
	require.NoError(t, err)
	assert.Equal(t, 2000.0, v.Float())

	v, err = tbl.ReadAt(0, "cpu_temps")
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 41}, v.Floats())

	assert.Equal(t, 1, tbl.Len())
}

func TestEverySampleFieldResolves(t *testing.T) {
	s := hostSchema()
	tbl := createTable(t, s, 1)

	for _, field := range s.Fields() {
		_, ok := tbl.Resolve(field)
		assert.True(t, ok, field)
	}
	for name := range hostSample() {
		_, ok := tbl.Resolve(name)
		assert.True(t, ok, name)
	}
	require.NoError(t, tbl.Insert(0, hostSample()))
}

func TestIndexIsolation(t *testing.T) {
	tbl := createTable(t, hostSchema(), 5, WithChunkLength(2))

	require.NoError(t, tbl.WriteAt(1, "user", Vector(11, 12)))
	require.NoError(t, tbl.WriteAt(3, "user", Vector(31, 32)))
	require.NoError(t, tbl.WriteAt(3, "available", Scalar(7)))

	want := map[int][]float64{0: {0, 0}, 1: {11, 12}, 2: {0, 0}, 3: {31, 32}, 4: {0, 0}}
	for i, w := range want {
		v, err := tbl.ReadAt(i, "user")
		require.NoError(t, err)
		assert.Equal(t, w, v.Floats(), "index %d", i)
	}
	v, err := tbl.ReadAt(1, "available")
	require.NoError(t, err)
	assert.Zero(t, v.Float())
	assert.Equal(t, 4, tbl.Len())
}

func TestRankDispatch(t *testing.T) {
	tbl := createTable(t, hostSchema(), 3)

	tests := []struct {
		name  string
		field string
		value Value
		err   error
	}{
		{"vector into rank 2", "user", Vector(1, 2), nil},
		{"scalar into rank 1", "available", Scalar(1), nil},
		{"scalar into rank 2", "user", Scalar(1), ErrShapeMismatch},
		{"short vector", "user", Vector(1), ErrShapeMismatch},
		{"long vector", "cpu_temps", Vector(1, 2, 3), ErrShapeMismatch},
		{"vector into rank 1", "available", Vector(1), ErrShapeMismatch},
		{"unknown field", "nope", Scalar(1), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tbl.WriteAt(0, tt.field, tt.value)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}

	cube := &Slot{name: "cube", path: "/CPU/cube", rank: 3, units: 1, table: tbl}
	assert.ErrorIs(t, cube.WriteAt(0, Scalar(1)), ErrUnsupportedRank)
}

func TestIndexOutOfRange(t *testing.T) {
	tbl := createTable(t, hostSchema(), 3)

	assert.ErrorIs(t, tbl.WriteAt(-1, "available", Scalar(1)), ErrIndexOutOfRange)
	assert.ErrorIs(t, tbl.WriteAt(3, "available", Scalar(1)), ErrIndexOutOfRange)
	_, err := tbl.ReadAt(3, "available")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestInsertIsAllOrNothing(t *testing.T) {
	tbl := createTable(t, hostSchema(), 3)

	bad := hostSample()
	bad["cpu_temps"] = Vector(40)
	require.ErrorIs(t, tbl.Insert(0, bad), ErrShapeMismatch)

	missing := hostSample()
	missing["gpu_temps"] = Vector(1)
	require.ErrorIs(t, tbl.Insert(0, missing), ErrNotFound)

	v, err := tbl.ReadAt(0, "user")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, v.Floats())
	assert.Zero(t, tbl.Len())
}

func TestGrowPreservesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grow.tlm")
	tbl, err := Create(path, hostSchema(), 3, WithChunkLength(2))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.WriteAt(i, "user", Vector(float64(i), float64(10+i))))
		require.NoError(t, tbl.WriteAt(i, "total", Scalar(float64(100+i))))
	}
	require.NoError(t, tbl.Grow(7))
	assert.Equal(t, 7, tbl.Capacity())

	for i := 0; i < 3; i++ {
		v, err := tbl.ReadAt(i, "user")
		require.NoError(t, err)
		assert.Equal(t, []float64{float64(i), float64(10 + i)}, v.Floats())
	}
	for i := 3; i < 7; i++ {
		v, err := tbl.ReadAt(i, "total")
		require.NoError(t, err)
		assert.Zero(t, v.Float(), "index %d", i)
	}
	require.NoError(t, tbl.WriteAt(6, "total", Scalar(42)))
	assert.ErrorIs(t, tbl.WriteAt(7, "total", Scalar(1)), ErrIndexOutOfRange)

	assert.ErrorIs(t, tbl.Grow(2), ErrShrink)
	require.NoError(t, tbl.Grow(7))
	require.NoError(t, tbl.Close())

	ro, err := Open(path)
	require.NoError(t, err)
	defer ro.Close()
	assert.Equal(t, 7, ro.Capacity())
	assert.Equal(t, 7, ro.Len())
	v, err := ro.ReadAt(6, "RAM/total")
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Float())
	v, err = ro.ReadAt(2, "user")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 12}, v.Floats())
}

func TestGrowWithinLastChunk(t *testing.T) {
	tbl := createTable(t, hostSchema(), 3, WithChunkLength(2))
	require.NoError(t, tbl.WriteAt(2, "used", Scalar(9)))
	require.NoError(t, tbl.Grow(4))
	require.NoError(t, tbl.WriteAt(3, "used", Scalar(10)))

	col, err := tbl.Column("used")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0, 9, 10}}, col)
}

func TestChunkLengthSurvivesGrowth(t *testing.T) {
	tbl := createTable(t, hostSchema(), 10, WithChunkLength(64))
	assert.Equal(t, 64, tbl.ChunkLength(), "a small capacity does not shrink the chunk")

	for c := 20; c <= 1000; c += 10 {
		require.NoError(t, tbl.Grow(c))
	}
	require.NoError(t, tbl.WriteAt(999, "user", Vector(1, 2)))

	assert.Equal(t, 64, tbl.ChunkLength())
	for _, sl := range tbl.Slots() {
		assert.Len(t, sl.chunks, 16, sl.Path())
	}
	v, err := tbl.ReadAt(999, "user")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v.Floats())

	small := createTable(t, hostSchema(), 3)
	assert.Equal(t, DefaultChunkLength, small.ChunkLength())
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.tlm")
	tbl, err := Create(path, hostSchema(), 4)
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(0, hostSample()))
	require.NoError(t, tbl.SetAttr("/", "samples_taken", 1))
	require.NoError(t, tbl.Close())

	ro, err := Open(path)
	require.NoError(t, err)
	defer ro.Close()

	assert.Equal(t, 4, ro.Capacity())
	assert.Equal(t, 1, ro.Len())
	v, err := ro.ReadAt(0, "idle")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, v.Floats())

	root, err := ro.Attrs("/")
	require.NoError(t, err)
	assert.Equal(t, "bench-01", root["hostname"])
	assert.Equal(t, 1.0, root["samples_taken"])
	cpuAttrs, err := ro.Attrs("CPU")
	require.NoError(t, err)
	assert.Equal(t, 2.0, cpuAttrs["num_cpu"])

	var paths []string
	require.NoError(t, ro.Walk(func(n Node) error {
		paths = append(paths, n.Path())
		return nil
	}))
	assert.Equal(t, []string{
		"/CPU", "/CPU/user", "/CPU/system", "/CPU/idle", "/CPU/cpu_temps",
		"/RAM", "/RAM/total", "/RAM/available",
		"/DISK", "/DISK/total", "/DISK/used",
	}, paths)

	assert.ErrorIs(t, ro.WriteAt(1, "idle", Vector(1, 1)), ErrReadOnly)
	assert.ErrorIs(t, ro.Grow(8), ErrReadOnly)
	assert.NoError(t, ro.Flush())
}

func TestCloseTwice(t *testing.T) {
	tbl := createTable(t, hostSchema(), 2)
	require.NoError(t, tbl.Close())

	assert.ErrorIs(t, tbl.Close(), ErrClosed)
	assert.ErrorIs(t, tbl.WriteAt(0, "total", Scalar(1)), ErrClosed)
	assert.ErrorIs(t, tbl.Flush(), ErrClosed)
	_, err := tbl.Lookup("total")
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := tbl.Resolve("total")
	assert.False(t, ok)
}

func TestCreateReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.tlm")
	require.NoError(t, os.WriteFile(path, []byte("stale contents"), 0o644))

	tbl, err := Create(path, hostSchema(), 2)
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	ro, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, ro.Close())
}

func TestCreateCannotRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "busy")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "child"), 0o755))

	_, err := Create(dir, hostSchema(), 2)
	require.Error(t, err)
}

func TestCreateRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "a"), hostSchema(), 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = Create(filepath.Join(dir, "b"), hostSchema(), 2, WithStrictNames(true))
	assert.ErrorIs(t, err, ErrAmbiguousName)

	cube := &schema.Schema{Categories: []schema.Category{{Name: "X", Slots: []schema.Slot{{Name: "c", Rank: 3}}}}}
	_, err = Create(filepath.Join(dir, "c"), cube, 2)
	assert.ErrorIs(t, err, ErrUnsupportedRank)

	empty := &schema.Schema{Categories: []schema.Category{{Name: "X", Slots: []schema.Slot{{Name: "c", Rank: 2}}}}}
	_, err = Create(filepath.Join(dir, "d"), empty, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestOpenCorrupt(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.tlm")
	require.NoError(t, os.WriteFile(garbage, make([]byte, 128), 0o644))
	_, err := Open(garbage)
	assert.ErrorIs(t, err, ErrCorrupt)

	path := filepath.Join(dir, "flipped.tlm")
	tbl, err := Create(path, hostSchema(), 2)
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	b[len(b)-2] ^= 0xff
	require.NoError(t, os.WriteFile(path, b, 0o644))
	_, err = Open(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFlushPersistsWithoutClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.tlm")
	tbl, err := Create(path, hostSchema(), 3)
	require.NoError(t, err)
	defer tbl.Close()

	require.NoError(t, tbl.Insert(0, hostSample()))
	require.NoError(t, tbl.Insert(1, hostSample()))
	require.NoError(t, tbl.Flush())

	ro, err := Open(path)
	require.NoError(t, err)
	defer ro.Close()
	assert.Equal(t, 2, ro.Len())
	v, err := ro.ReadAt(1, "DISK/total")
	require.NoError(t, err)
	assert.Equal(t, 2000.0, v.Float())
}

func BenchmarkInsert(b *testing.B) {
	tbl, err := Create(filepath.Join(b.TempDir(), "bench.tlm"), hostSchema(), 1024)
	if err != nil {
		b.Fatal(err)
	}
	defer tbl.Close()
	sample := hostSample()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tbl.Insert(i%1024, sample); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSlotWriteAt(b *testing.B) {
	tbl, err := Create(filepath.Join(b.TempDir(), "bench.tlm"), hostSchema(), 1024)
	if err != nil {
		b.Fatal(err)
	}
	defer tbl.Close()
	slot, err := tbl.Lookup("user")
	if err != nil {
		b.Fatal(err)
	}
	v := Vector(1, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := slot.WriteAt(i%1024, v); err != nil {
			b.Fatal(err)
		}
	}
}
