package table

import (
	"strings"

	"github.com/pkg/errors"
)

type resolution struct {
	path string
	ok   bool
}

// Resolve maps a field name to the full path of its slot. Qualified names
// ("RAM/total") match exactly. A bare name matches the first group, depth
// first in creation order, whose direct children include a slot of that name.
// Results, including misses, are cached for the life of the table.
func (t *Table) Resolve(name string) (string, bool) {
	if t.closed {
		return "", false
	}
	if r, ok := t.resolved[name]; ok {
		return r.path, r.ok
	}
	var r resolution
	if strings.Contains(name, "/") {
		p := cleanPath(name)
		if _, ok := t.slots[p]; ok {
			r = resolution{path: p, ok: true}
		}
	} else {
		r.path, r.ok = resolveFrom(t.root, name)
	}
	t.resolved[name] = r
	return r.path, r.ok
}

// resolveFrom searches n and its descendants for name. A slot is not a
// container, so searching from one finds nothing.
func resolveFrom(n Node, name string) (string, bool) {
	g, ok := n.(*Group)
	if !ok {
		return "", false
	}
	if c, ok := g.byName[name]; ok {
		if s, ok := c.(*Slot); ok {
			return s.path, true
		}
	}
	for _, c := range g.children {
		if p, ok := resolveFrom(c, name); ok {
			return p, true
		}
	}
	return "", false
}

// Lookup returns the slot a field name resolves to.
func (t *Table) Lookup(name string) (*Slot, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	p, ok := t.Resolve(name)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "field %q", name)
	}
	return t.slots[p], nil
}
