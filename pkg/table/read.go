package table

import "github.com/pkg/errors"

// ReadAt returns the value stored at index of the slot name resolves to.
func (t *Table) ReadAt(index int, name string) (Value, error) {
	s, err := t.Lookup(name)
	if err != nil {
		return Value{}, err
	}
	return s.ReadAt(index)
}

// ReadAt returns the value stored at index. Positions never written read as zero.
func (s *Slot) ReadAt(index int) (Value, error) {
	t := s.table
	if err := t.usable(); err != nil {
		return Value{}, err
	}
	if index < 0 || index >= t.capacity {
		return Value{}, errors.Wrapf(ErrIndexOutOfRange, "%s[%d] with capacity %d", s.path, index, t.capacity)
	}
	switch s.rank {
	case 1:
		return Scalar(getFloat(t.data, s.offset(0, index))), nil
	case 2:
		units := make([]float64, s.units)
		for u := range units {
			units[u] = getFloat(t.data, s.offset(u, index))
		}
		return Vector(units...), nil
	default:
		return Value{}, errors.Wrapf(ErrUnsupportedRank, "%s has rank %d", s.path, s.rank)
	}
}

// Column returns the slot's values as units rows of capacity entries.
func (t *Table) Column(name string) ([][]float64, error) {
	s, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.Column()
}

// Column returns units rows of capacity entries each.
func (s *Slot) Column() ([][]float64, error) {
	t := s.table
	if err := t.usable(); err != nil {
		return nil, err
	}
	out := make([][]float64, s.units)
	for u := range out {
		row := make([]float64, t.capacity)
		for i := range row {
			row[i] = getFloat(t.data, s.offset(u, i))
		}
		out[u] = row
	}
	return out, nil
}
