package table

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a field name does not resolve to a slot.
	ErrNotFound = errors.New("field not found")
	// ErrShapeMismatch is returned when a value does not match the slot shape.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnsupportedRank is returned for slots that are neither rank 1 nor rank 2.
	ErrUnsupportedRank = errors.New("unsupported slot rank")
	// ErrIndexOutOfRange is returned for sample indices outside [0, capacity).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidCapacity is returned when a capacity is not positive.
	ErrInvalidCapacity = errors.New("capacity must be positive")
	// ErrShrink is returned when Grow is asked for a smaller capacity.
	ErrShrink = errors.New("table capacity can only grow")
	// ErrClosed is returned by every operation on a closed table.
	ErrClosed = errors.New("table is closed")
	// ErrReadOnly is returned when writing to a table opened with Open.
	ErrReadOnly = errors.New("table is read-only")
	// ErrAmbiguousName is returned in strict mode when two categories define the same slot name.
	ErrAmbiguousName = errors.New("slot name defined in more than one category")
	// ErrCorrupt is returned when a file is not a readable table.
	ErrCorrupt = errors.New("corrupt table file")
)
