package exporting

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"DatasetGenerator/pkg/table"
)

// IndexColumn holds the sample index of each row.
const IndexColumn = "index"

// FlattenMode controls how vector slots become columns.
type FlattenMode int

const (
	// FlattenAll expands every unit of a vector slot into its own column:
	// CPU.user.0, CPU.user.1, ...
	FlattenAll FlattenMode = iota

	// FlattenVectorsAsJSON keeps one column per slot and writes vector values
	// as JSON arrays: CPU.user = "[1,2]".
	FlattenVectorsAsJSON
)

// Column maps one output column to a unit of a slot. Unit is -1 when the whole
// slot is written into the column.
type Column struct {
	Name string
	Slot *table.Slot
	Unit int
}

// ColumnName turns a slot path like /CPU/user into CPU.user.
func ColumnName(slotPath string) string {
	return strings.ReplaceAll(strings.Trim(slotPath, "/"), "/", ".")
}

// Columns lists the output columns for t in slot creation order.
func Columns(t *table.Table, mode FlattenMode) []Column {
	var cols []Column
	for _, s := range t.Slots() {
		name := ColumnName(s.Path())
		if s.Rank() == 1 || mode == FlattenVectorsAsJSON {
			cols = append(cols, Column{Name: name, Slot: s, Unit: -1})
			continue
		}
		for u := 0; u < s.Units(); u++ {
			cols = append(cols, Column{Name: name + "." + strconv.Itoa(u), Slot: s, Unit: u})
		}
	}
	return cols
}

// FlattenRow reads sample index of every column into one record.
func FlattenRow(cols []Column, index int) (Record, error) {
	r := make(Record, len(cols)+1)
	r[IndexColumn] = int64(index)

	// Columns of one vector slot are adjacent; read each slot once.
	var (
		last  *table.Slot
		v     table.Value
		units []float64
	)
	for _, c := range cols {
		if c.Slot != last {
			var err error
			if v, err = c.Slot.ReadAt(index); err != nil {
				return nil, err
			}
			units = v.Floats()
			last = c.Slot
		}
		switch {
		case !v.IsVector():
			r[c.Name] = v.Float()
		case c.Unit >= 0:
			r[c.Name] = units[c.Unit]
		default:
			r[c.Name] = vectorJSON(units)
		}
	}
	return r, nil
}

func vectorJSON(vals []float64) string {
	safe := make([]interface{}, len(vals))
	for i, f := range vals {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			safe[i] = f
		}
	}
	data, _ := json.Marshal(safe)
	return string(data)
}
