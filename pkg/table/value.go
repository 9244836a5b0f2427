package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is one reading destined for a slot: a scalar for rank-1 slots, or
// one reading per unit for rank-2 slots.
type Value struct {
	scalar float64
	units  []float64
	vector bool
}

// Scalar returns a Value for a rank-1 slot.
func Scalar(v float64) Value {
	return Value{scalar: v}
}

// Vector returns a Value for a rank-2 slot, one element per unit.
func Vector(v ...float64) Value {
	return Value{units: v, vector: true}
}

// IsVector reports whether v holds per-unit readings.
func (v Value) IsVector() bool { return v.vector }

// Float returns the scalar reading. It is zero for vectors.
func (v Value) Float() float64 { return v.scalar }

// Floats returns the readings as a slice; a scalar yields a single element.
func (v Value) Floats() []float64 {
	if !v.vector {
		return []float64{v.scalar}
	}
	out := make([]float64, len(v.units))
	copy(out, v.units)
	return out
}

// Len returns the number of readings held by v.
func (v Value) Len() int {
	if !v.vector {
		return 1
	}
	return len(v.units)
}

func (v Value) String() string {
	if !v.vector {
		return strconv.FormatFloat(v.scalar, 'g', -1, 64)
	}
	parts := make([]string, len(v.units))
	for i, f := range v.units {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}

// Sample is one tick's readings keyed by field name. Keys may be bare slot
// names ("user") or qualified paths ("DISK/total").
type Sample map[string]Value

// Set records a reading for name.
func (s Sample) Set(name string, v Value) {
	s[name] = v
}

// Merge copies every reading of other into s, overwriting existing keys.
func (s Sample) Merge(other Sample) {
	for k, v := range other {
		s[k] = v
	}
}

// Keys returns the field names in sorted order.
func (s Sample) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
