// Package table implements a pre-allocated, self-describing columnar file
// for fixed-shape telemetry. Every slot is sized for the full capacity at
// creation, and writers address slots by name.
package table

import (
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"DatasetGenerator/pkg/schema"
)

// Table is an open telemetry table. It is not safe for concurrent use.
type Table struct {
	path     string
	file     *os.File
	data     mmap.MMap
	readOnly bool
	closed   bool

	root     *Group
	slots    map[string]*Slot
	order    []*Slot
	resolved map[string]resolution

	capacity int
	chunkLen int
	length   int
	dataEnd  int64

	logger *zap.SugaredLogger
}

// Create writes a new table at path laid out from s with room for capacity
// samples. Any existing file at path is replaced.
func Create(path string, s *schema.Schema, capacity int, opts ...Option) (*Table, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "create %s with capacity %d", path, capacity)
	}
	o := buildOptions(opts)

	if dups := s.Duplicates(); len(dups) > 0 {
		if o.strict {
			return nil, errors.Wrapf(ErrAmbiguousName, "%s", strings.Join(dups, ", "))
		}
		o.logger.Warnf("Slot names defined in more than one category, bare lookups take the first: %s",
			strings.Join(dups, ", "))
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "remove existing table %s", path)
	}

	t := newTable(path, o)
	t.capacity = capacity
	t.chunkLen = o.chunkLen
	t.dataEnd = headerSize

	for k, v := range s.Attrs {
		t.root.attrs[k] = v
	}
	for _, c := range s.Categories {
		if err := t.declare(t.root, c); err != nil {
			return nil, err
		}
	}
	nChunks := ceilDiv(capacity, t.chunkLen)
	for _, sl := range t.order {
		for i := 0; i < nChunks; i++ {
			sl.chunks = append(sl.chunks, t.allocChunk(sl))
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "create table %s", path)
	}
	t.file = f
	if err := preallocate(f, t.dataEnd); err != nil {
		return nil, multierr.Append(errors.Wrapf(err, "allocate %d bytes", t.dataEnd), f.Close())
	}
	if err := t.mapData(mmap.RDWR); err != nil {
		return nil, multierr.Append(err, f.Close())
	}
	if err := t.writeMeta(); err != nil {
		return nil, multierr.Combine(err, t.data.Unmap(), f.Close())
	}

	o.logger.Debugf("Created table %s: %d slots, capacity %d, chunk %d, %d data bytes",
		path, len(t.order), capacity, t.chunkLen, t.dataEnd)
	return t, nil
}

// Open maps an existing table read-only.
func Open(path string, opts ...Option) (*Table, error) {
	o := buildOptions(opts)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open table %s", path)
	}
	t, err := load(f, path, o)
	if err != nil {
		return nil, multierr.Append(err, f.Close())
	}
	return t, nil
}

func load(f *os.File, path string, o options) (*Table, error) {
	hb := make([]byte, headerSize)
	if _, err := f.ReadAt(hb, 0); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "read header of %s: %v", path, err)
	}
	h, err := decodeHeader(hb)
	if err != nil {
		return nil, err
	}
	mb := make([]byte, h.MetaLength)
	if _, err := f.ReadAt(mb, int64(h.MetaOffset)); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "read metadata of %s: %v", path, err)
	}
	m, err := decodeMetadata(mb, h.MetaCRC)
	if err != nil {
		return nil, err
	}
	if uint64(m.DataEnd) != h.MetaOffset {
		return nil, errors.Wrap(ErrCorrupt, "metadata offset does not follow data region")
	}

	t := newTable(path, o)
	t.file = f
	t.readOnly = true
	t.capacity = m.Capacity
	t.chunkLen = m.ChunkLen
	t.length = m.Len
	t.dataEnd = m.DataEnd
	if err := t.rebuild(t.root, m.Root); err != nil {
		return nil, err
	}
	if err := t.mapData(mmap.RDONLY); err != nil {
		return nil, err
	}
	return t, nil
}

func newTable(path string, o options) *Table {
	return &Table{
		path:     path,
		root:     newGroup("", "/"),
		slots:    make(map[string]*Slot),
		resolved: make(map[string]resolution),
		logger:   o.logger,
	}
}

func (t *Table) declare(parent *Group, c schema.Category) error {
	g := newGroup(c.Name, joinPath(parent.path, c.Name))
	for k, v := range c.Attrs {
		g.attrs[k] = v
	}
	if err := parent.add(g); err != nil {
		return err
	}
	for _, sl := range c.Slots {
		path := joinPath(g.path, sl.Name)
		units := sl.Units
		switch sl.Rank {
		case 1:
			units = 1
		case 2:
			if units < 1 {
				return errors.Wrapf(ErrShapeMismatch, "%s: rank-2 slot needs at least one unit", path)
			}
		default:
			return errors.Wrapf(ErrUnsupportedRank, "%s has rank %d", path, sl.Rank)
		}
		s := &Slot{name: sl.Name, path: path, rank: sl.Rank, units: units, table: t}
		if err := g.add(s); err != nil {
			return err
		}
		t.slots[path] = s
		t.order = append(t.order, s)
	}
	for _, sub := range c.Groups {
		if err := t.declare(g, sub); err != nil {
			return err
		}
	}
	return nil
}

// allocChunk reserves one chunk for s at the end of the data region.
func (t *Table) allocChunk(s *Slot) int64 {
	off := t.dataEnd
	t.dataEnd += int64(s.units * t.chunkLen * float64Size)
	return off
}

func (t *Table) mapData(prot int) error {
	m, err := mmap.MapRegion(t.file, int(t.dataEnd), prot, 0, 0)
	if err != nil {
		return errors.Wrapf(err, "map %s", t.path)
	}
	t.data = m
	return nil
}

// writeMeta stores the metadata after the data region and points the header at it.
func (t *Table) writeMeta() error {
	b, crc, err := encodeMetadata(t.metadata())
	if err != nil {
		return err
	}
	if _, err := t.file.WriteAt(b, t.dataEnd); err != nil {
		return errors.Wrapf(err, "write metadata of %s", t.path)
	}
	if err := t.file.Truncate(t.dataEnd + int64(len(b))); err != nil {
		return errors.Wrapf(err, "truncate %s", t.path)
	}
	h := header{
		Version:    formatVersion,
		MetaOffset: uint64(t.dataEnd),
		MetaLength: uint64(len(b)),
		MetaCRC:    crc,
	}
	copy(t.data[:headerSize], h.encode())
	return nil
}

// Grow raises the capacity to newCapacity. Existing chunks stay where they
// are; new chunks are appended after the data region and read as zero.
func (t *Table) Grow(newCapacity int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if newCapacity < t.capacity {
		return errors.Wrapf(ErrShrink, "grow %s from %d to %d", t.path, t.capacity, newCapacity)
	}
	if newCapacity == t.capacity {
		return nil
	}
	need := ceilDiv(newCapacity, t.chunkLen)
	if need == ceilDiv(t.capacity, t.chunkLen) {
		t.capacity = newCapacity
		return t.writeMeta()
	}

	oldEnd := t.dataEnd
	if err := t.data.Flush(); err != nil {
		return errors.Wrapf(err, "flush %s before grow", t.path)
	}
	if err := t.data.Unmap(); err != nil {
		return errors.Wrapf(err, "unmap %s", t.path)
	}
	t.data = nil

	added := make([][]int64, len(t.order))
	for i, s := range t.order {
		for n := len(s.chunks); n < need; n++ {
			added[i] = append(added[i], t.allocChunk(s))
		}
	}
	// Drop the old metadata so the new chunks start zeroed.
	if err := t.file.Truncate(oldEnd); err != nil {
		return errors.Wrapf(err, "truncate %s", t.path)
	}
	if err := preallocate(t.file, t.dataEnd); err != nil {
		return errors.Wrapf(err, "allocate %d bytes", t.dataEnd)
	}
	if err := t.mapData(mmap.RDWR); err != nil {
		return err
	}
	for i, s := range t.order {
		s.chunks = append(s.chunks, added[i]...)
	}
	t.logger.Debugf("Grew %s from %d to %d samples", t.path, t.capacity, newCapacity)
	t.capacity = newCapacity
	return t.writeMeta()
}

// Flush persists the metadata and syncs the mapped data to disk.
func (t *Table) Flush() error {
	if err := t.usable(); err != nil {
		return err
	}
	if t.readOnly {
		return nil
	}
	return t.flush()
}

func (t *Table) flush() error {
	if err := t.writeMeta(); err != nil {
		return err
	}
	if err := t.data.Flush(); err != nil {
		return errors.Wrapf(err, "sync mapping of %s", t.path)
	}
	return errors.Wrapf(t.file.Sync(), "sync %s", t.path)
}

// Close flushes, unmaps and closes the file. Every later call returns ErrClosed.
func (t *Table) Close() error {
	if t.closed {
		return errors.Wrap(ErrClosed, t.path)
	}
	var err error
	if t.data != nil {
		if !t.readOnly {
			err = multierr.Append(err, t.flush())
		}
		err = multierr.Append(err, t.data.Unmap())
	}
	err = multierr.Append(err, t.file.Close())
	t.closed = true
	t.data = nil
	t.resolved = nil
	return err
}

// SetAttr sets an attribute on the group at path ("/" for the root).
func (t *Table) SetAttr(path, key string, value any) error {
	if err := t.writable(); err != nil {
		return err
	}
	g, err := t.group(path)
	if err != nil {
		return err
	}
	g.attrs[key] = value
	return nil
}

// Attrs returns the attributes of the group at path ("/" for the root).
func (t *Table) Attrs(path string) (Attrs, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	g, err := t.group(path)
	if err != nil {
		return nil, err
	}
	return g.Attrs(), nil
}

func (t *Table) group(path string) (*Group, error) {
	g := t.root
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		n, ok := g.byName[part]
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "group %s", path)
		}
		if g, ok = n.(*Group); !ok {
			return nil, errors.Wrapf(ErrNotFound, "%s is a slot", path)
		}
	}
	return g, nil
}

// Root returns the root group.
func (t *Table) Root() *Group { return t.root }

// Capacity returns the number of sample positions every slot holds.
func (t *Table) Capacity() int { return t.capacity }

// Len returns one past the highest index ever written.
func (t *Table) Len() int { return t.length }

// ChunkLength returns the number of sample positions per chunk.
func (t *Table) ChunkLength() int { return t.chunkLen }

// Path returns the file path.
func (t *Table) Path() string { return t.path }

// Slots returns every slot in namespace order.
func (t *Table) Slots() []*Slot {
	out := make([]*Slot, len(t.order))
	copy(out, t.order)
	return out
}

// Walk calls fn for every node below the root, depth first in creation order.
func (t *Table) Walk(fn func(Node) error) error {
	if err := t.usable(); err != nil {
		return err
	}
	return walk(t.root, fn)
}

func walk(g *Group, fn func(Node) error) error {
	for _, c := range g.children {
		if err := fn(c); err != nil {
			return err
		}
		if sub, ok := c.(*Group); ok {
			if err := walk(sub, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) usable() error {
	if t.closed {
		return errors.Wrap(ErrClosed, t.path)
	}
	if t.data == nil {
		return errors.Wrapf(ErrClosed, "%s has no mapping after a failed resize", t.path)
	}
	return nil
}

func (t *Table) writable() error {
	if err := t.usable(); err != nil {
		return err
	}
	if t.readOnly {
		return errors.Wrap(ErrReadOnly, t.path)
	}
	return nil
}
