package table

import "github.com/pkg/errors"

// WriteAt stores v at sample position index of the slot name resolves to.
func (t *Table) WriteAt(index int, name string, v Value) error {
	s, err := t.Lookup(name)
	if err != nil {
		return err
	}
	return s.WriteAt(index, v)
}

// WriteAt stores v at sample position index. A rank-2 slot takes a Vector
// with one element per unit, a rank-1 slot takes a Scalar.
func (s *Slot) WriteAt(index int, v Value) error {
	if err := s.check(index, v); err != nil {
		return err
	}
	s.store(index, v)
	return nil
}

// Insert writes every reading of sample at index. The whole sample is
// checked first so a failure leaves the index untouched.
func (t *Table) Insert(index int, sample Sample) error {
	keys := sample.Keys()
	slots := make([]*Slot, len(keys))
	for i, k := range keys {
		s, err := t.Lookup(k)
		if err != nil {
			return errors.Wrapf(err, "sample %d", index)
		}
		if err := s.check(index, sample[k]); err != nil {
			return errors.Wrapf(err, "sample %d", index)
		}
		slots[i] = s
	}
	for i, k := range keys {
		slots[i].store(index, sample[k])
	}
	return nil
}

func (s *Slot) check(index int, v Value) error {
	t := s.table
	if err := t.writable(); err != nil {
		return err
	}
	if index < 0 || index >= t.capacity {
		return errors.Wrapf(ErrIndexOutOfRange, "%s[%d] with capacity %d", s.path, index, t.capacity)
	}
	switch s.rank {
	case 1:
		if v.IsVector() {
			return errors.Wrapf(ErrShapeMismatch, "%s is rank 1, got %d values", s.path, v.Len())
		}
	case 2:
		if !v.IsVector() {
			return errors.Wrapf(ErrShapeMismatch, "%s is rank 2 with %d units, got a scalar", s.path, s.units)
		}
		if v.Len() != s.units {
			return errors.Wrapf(ErrShapeMismatch, "%s has %d units, got %d values", s.path, s.units, v.Len())
		}
	default:
		return errors.Wrapf(ErrUnsupportedRank, "%s has rank %d", s.path, s.rank)
	}
	return nil
}

// offset returns the byte offset of (unit, index). Chunks are unit-major.
func (s *Slot) offset(unit, index int) int64 {
	cl := s.table.chunkLen
	chunk := s.chunks[index/cl]
	return chunk + int64((unit*cl+index%cl)*float64Size)
}

func (s *Slot) store(index int, v Value) {
	data := s.table.data
	switch s.rank {
	case 1:
		putFloat(data, s.offset(0, index), v.scalar)
	case 2:
		for u, f := range v.units {
			putFloat(data, s.offset(u, index), f)
		}
	}
	if index >= s.table.length {
		s.table.length = index + 1
	}
}
