package table

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"math"

	"github.com/pkg/errors"
)

// File layout:
//
//	[0, 64)          header
//	[64, dataEnd)    chunks, float64 little endian
//	[dataEnd, EOF)   JSON metadata
//
// The metadata is rewritten on every flush. Chunks never move once allocated.
const (
	magic         = "DSGTBL01"
	formatVersion = 1
	headerSize    = 64
	float64Size   = 8
	dtypeFloat64  = "float64"
)

const (
	kindGroup = "group"
	kindSlot  = "slot"
)

type header struct {
	Version    uint32
	MetaOffset uint64
	MetaLength uint64
	MetaCRC    uint32
}

func (h header) encode() []byte {
	b := make([]byte, headerSize)
	copy(b[0:8], magic)
	binary.LittleEndian.PutUint32(b[8:12], h.Version)
	binary.LittleEndian.PutUint64(b[12:20], h.MetaOffset)
	binary.LittleEndian.PutUint64(b[20:28], h.MetaLength)
	binary.LittleEndian.PutUint32(b[28:32], h.MetaCRC)
	return b
}

func decodeHeader(b []byte) (header, error) {
	if len(b) < headerSize {
		return header{}, errors.Wrap(ErrCorrupt, "short header")
	}
	if !bytes.Equal(b[0:8], []byte(magic)) {
		return header{}, errors.Wrap(ErrCorrupt, "bad magic")
	}
	h := header{
		Version:    binary.LittleEndian.Uint32(b[8:12]),
		MetaOffset: binary.LittleEndian.Uint64(b[12:20]),
		MetaLength: binary.LittleEndian.Uint64(b[20:28]),
		MetaCRC:    binary.LittleEndian.Uint32(b[28:32]),
	}
	if h.Version != formatVersion {
		return header{}, errors.Wrapf(ErrCorrupt, "unsupported format version %d", h.Version)
	}
	return h, nil
}

type metadata struct {
	Capacity int      `json:"capacity"`
	ChunkLen int      `json:"chunk_len"`
	Len      int      `json:"len"`
	DataEnd  int64    `json:"data_end"`
	Root     nodeMeta `json:"root"`
}

type nodeMeta struct {
	Kind     string     `json:"kind"`
	Name     string     `json:"name"`
	Attrs    Attrs      `json:"attrs,omitempty"`
	Children []nodeMeta `json:"children,omitempty"`
	DType    string     `json:"dtype,omitempty"`
	Rank     int        `json:"rank,omitempty"`
	Units    int        `json:"units,omitempty"`
	Chunks   []int64    `json:"chunks,omitempty"`
}

func (t *Table) metadata() metadata {
	return metadata{
		Capacity: t.capacity,
		ChunkLen: t.chunkLen,
		Len:      t.length,
		DataEnd:  t.dataEnd,
		Root:     groupMeta(t.root),
	}
}

func groupMeta(g *Group) nodeMeta {
	m := nodeMeta{Kind: kindGroup, Name: g.name, Attrs: g.attrs}
	for _, c := range g.children {
		switch n := c.(type) {
		case *Group:
			m.Children = append(m.Children, groupMeta(n))
		case *Slot:
			m.Children = append(m.Children, nodeMeta{
				Kind:   kindSlot,
				Name:   n.name,
				DType:  dtypeFloat64,
				Rank:   n.rank,
				Units:  n.units,
				Chunks: n.chunks,
			})
		}
	}
	return m
}

func encodeMetadata(m metadata) ([]byte, uint32, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, 0, errors.Wrap(err, "encode table metadata")
	}
	return b, crc32.ChecksumIEEE(b), nil
}

func decodeMetadata(b []byte, crc uint32) (metadata, error) {
	var m metadata
	if crc32.ChecksumIEEE(b) != crc {
		return m, errors.Wrap(ErrCorrupt, "metadata checksum mismatch")
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, errors.Wrapf(ErrCorrupt, "decode metadata: %v", err)
	}
	if m.Capacity <= 0 || m.ChunkLen <= 0 || m.DataEnd < headerSize {
		return m, errors.Wrap(ErrCorrupt, "invalid table dimensions")
	}
	return m, nil
}

// rebuild restores the namespace of m under t, validating chunk bounds.
func (t *Table) rebuild(g *Group, m nodeMeta) error {
	for k, v := range m.Attrs {
		g.attrs[k] = v
	}
	need := ceilDiv(t.capacity, t.chunkLen)
	for _, c := range m.Children {
		path := joinPath(g.path, c.Name)
		switch c.Kind {
		case kindGroup:
			child := newGroup(c.Name, path)
			if err := g.add(child); err != nil {
				return errors.Wrap(ErrCorrupt, err.Error())
			}
			if err := t.rebuild(child, c); err != nil {
				return err
			}
		case kindSlot:
			if c.DType != dtypeFloat64 {
				return errors.Wrapf(ErrCorrupt, "%s: unsupported dtype %q", path, c.DType)
			}
			if c.Rank == 1 && c.Units == 0 {
				c.Units = 1
			}
			if len(c.Chunks) != need || c.Units <= 0 {
				return errors.Wrapf(ErrCorrupt, "%s: bad chunk table", path)
			}
			size := int64(c.Units * t.chunkLen * float64Size)
			for _, off := range c.Chunks {
				if off < headerSize || off+size > t.dataEnd {
					return errors.Wrapf(ErrCorrupt, "%s: chunk at %d outside data region", path, off)
				}
			}
			s := &Slot{name: c.Name, path: path, rank: c.Rank, units: c.Units, chunks: c.Chunks, table: t}
			if err := g.add(s); err != nil {
				return errors.Wrap(ErrCorrupt, err.Error())
			}
			t.slots[path] = s
			t.order = append(t.order, s)
		default:
			return errors.Wrapf(ErrCorrupt, "%s: unknown node kind %q", path, c.Kind)
		}
	}
	return nil
}

func putFloat(b []byte, off int64, v float64) {
	binary.LittleEndian.PutUint64(b[off:off+float64Size], math.Float64bits(v))
}

func getFloat(b []byte, off int64) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off : off+float64Size]))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
