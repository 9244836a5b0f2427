// Package schema describes the categories and slots of a telemetry table.
// It is a pure function of a host probe: nothing here touches the host.
package schema

import "sort"

// Slot declares one dataset in a category.
type Slot struct {
	Name  string
	Rank  int
	Units int // rank-2 width; ignored for rank 1
}

// Category is a named group of slots. Groups nest further categories.
type Category struct {
	Name   string
	Attrs  map[string]any
	Slots  []Slot
	Groups []Category
}

// Schema is the ordered list of categories placed under the table root.
type Schema struct {
	Attrs      map[string]any
	Categories []Category
}

// Entry is one flattened slot declaration.
type Entry struct {
	Category string // "/"-joined path of the owning category
	Slot     string
	Rank     int
	Units    int // 1 for rank-1 slots
	Attrs    map[string]any
}

// Entries returns every slot declaration in namespace order.
func (s *Schema) Entries() []Entry {
	var out []Entry
	for _, c := range s.Categories {
		out = appendEntries(out, "", c)
	}
	return out
}

func appendEntries(out []Entry, prefix string, c Category) []Entry {
	name := c.Name
	if prefix != "" {
		name = prefix + "/" + c.Name
	}
	for _, sl := range c.Slots {
		units := sl.Units
		if sl.Rank == 1 {
			units = 1
		}
		out = append(out, Entry{Category: name, Slot: sl.Name, Rank: sl.Rank, Units: units, Attrs: c.Attrs})
	}
	for _, g := range c.Groups {
		out = appendEntries(out, name, g)
	}
	return out
}

// Fields returns the qualified name ("CPU/user") of every slot.
func (s *Schema) Fields() []string {
	entries := s.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Category + "/" + e.Slot
	}
	return out
}

// Duplicates returns the bare slot names defined by more than one category, sorted.
func (s *Schema) Duplicates() []string {
	owners := make(map[string]map[string]struct{})
	for _, e := range s.Entries() {
		if owners[e.Slot] == nil {
			owners[e.Slot] = make(map[string]struct{})
		}
		owners[e.Slot][e.Category] = struct{}{}
	}
	var dups []string
	for name, cats := range owners {
		if len(cats) > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// Category returns the top-level category called name.
func (s *Schema) Category(name string) (*Category, bool) {
	for i := range s.Categories {
		if s.Categories[i].Name == name {
			return &s.Categories[i], true
		}
	}
	return nil, false
}
