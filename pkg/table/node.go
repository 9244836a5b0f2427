package table

import (
	"strings"

	"github.com/pkg/errors"
)

// Attrs holds the attributes attached to a group.
type Attrs map[string]any

// Node is an element of the table namespace: a *Group or a *Slot.
type Node interface {
	Name() string
	Path() string
}

// Group is a container in the namespace. The root group has the path "/";
// metric categories are groups directly under it.
type Group struct {
	name     string
	path     string
	attrs    Attrs
	children []Node
	byName   map[string]Node
}

func newGroup(name, path string) *Group {
	return &Group{
		name:   name,
		path:   path,
		attrs:  Attrs{},
		byName: make(map[string]Node),
	}
}

func (g *Group) Name() string { return g.name }
func (g *Group) Path() string { return g.path }

// Attrs returns a copy of the group attributes.
func (g *Group) Attrs() Attrs {
	out := make(Attrs, len(g.attrs))
	for k, v := range g.attrs {
		out[k] = v
	}
	return out
}

// Child returns the direct child called name.
func (g *Group) Child(name string) (Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

func (g *Group) add(n Node) error {
	if _, exists := g.byName[n.Name()]; exists {
		return errors.Errorf("%s already defined in %s", n.Name(), g.path)
	}
	g.children = append(g.children, n)
	g.byName[n.Name()] = n
	return nil
}

// Slot is a fixed-shape float64 dataset. A rank-1 slot holds one value per
// sample position; a rank-2 slot holds one value per unit per position.
type Slot struct {
	name   string
	path   string
	rank   int
	units  int
	chunks []int64
	table  *Table
}

func (s *Slot) Name() string { return s.name }
func (s *Slot) Path() string { return s.path }

// Rank returns 1 or 2.
func (s *Slot) Rank() int { return s.rank }

// Units returns the width of a rank-2 slot, and 1 for rank-1 slots.
func (s *Slot) Units() int { return s.units }

// Shape returns [capacity] for rank-1 slots and [units, capacity] for rank-2 slots.
func (s *Slot) Shape() []int {
	if s.rank == 1 {
		return []int{s.table.capacity}
	}
	return []int{s.units, s.table.capacity}
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// cleanPath turns "RAM/total" or "/RAM/total/" into "/RAM/total".
func cleanPath(name string) string {
	return "/" + strings.Trim(name, "/")
}
