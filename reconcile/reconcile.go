// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package reconcile merges a parsed schema with stored diagram layout
// into a renderable model, and materializes live positions back into
// the layout before a save.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/erdpets/erdpets/diagram"
	"github.com/erdpets/erdpets/schema"
)

// ErrDiagramNotFound is returned when the requested diagram name does
// not exist in the set.
var ErrDiagramNotFound = errors.New("reconcile: diagram not found")

type (
	// A Model is the renderable view of one diagram: every resolved
	// table with a concrete position, and every foreign key whose two
	// endpoints are both resolved. It is derived, read-only data,
	// rebuilt on every load, refresh or diagram switch.
	Model struct {
		Nodes []*Node
		Edges []*Edge
	}

	// A Node is one rendered table.
	Node struct {
		Name  string // qualified name
		X, Y  int
		Table *schema.Table
	}

	// An Edge is one rendered foreign key, directed from the key
	// owner to the referenced table.
	Edge struct {
		From, To string
		FK       *schema.ForeignKey
	}

	// A Warning reports a diagram entry that names a table missing
	// from the schema. The node is skipped; Suggestion carries a
	// close-by table name when one exists.
	Warning struct {
		Diagram    string
		Table      string
		Suggestion string
	}

	// A PositionGenerator places tables that have no stored position.
	// It is called with the already-placed nodes for collision
	// avoidance and must return one position per requested name.
	// Swapping the placement algorithm never touches this package.
	PositionGenerator interface {
		Place(placed []*Node, names []string) map[string]diagram.Point
	}

	// GenerateFunc adapts a function to the PositionGenerator
	// interface.
	GenerateFunc func(placed []*Node, names []string) map[string]diagram.Point
)

// Place calls f.
func (f GenerateFunc) Place(placed []*Node, names []string) map[string]diagram.Point {
	return f(placed, names)
}

func (w Warning) String() string {
	if w.Suggestion != "" {
		return fmt.Sprintf("diagram %q: unknown table %q (did you mean %q?)", w.Diagram, w.Table, w.Suggestion)
	}
	return fmt.Sprintf("diagram %q: unknown table %q", w.Diagram, w.Table)
}

// Node returns the node with the given qualified name.
func (m *Model) Node(name string) (*Node, bool) {
	for _, n := range m.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Positions returns the current node positions keyed by table name.
func (m *Model) Positions() map[string]diagram.Point {
	ps := make(map[string]diagram.Point, len(m.Nodes))
	for _, n := range m.Nodes {
		ps[n.Name] = diagram.Point{X: n.X, Y: n.Y}
	}
	return ps
}

// Resolve builds the model for the named diagram. Wildcards expand
// against the current schema first; explicit entries then overlay
// them, winning both inclusion and position for their table. Tables
// still unplaced after the overlay get positions from gen. Tables the
// diagram does not select are excluded entirely, as are their keys.
func Resolve(name string, s *schema.Schema, set *diagram.Set, gen PositionGenerator) (*Model, []Warning, error) {
	d, ok := set.Diagram(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrDiagramNotFound, name)
	}
	r := newResolution(d, s)
	m := r.model(gen)
	return m, r.warns, nil
}

// resolution carries the two-pass state: membership in first-seen
// order, with explicit entries overlaying wildcard expansion.
type resolution struct {
	d      *diagram.Diagram
	schema *schema.Schema
	order  []string
	nodes  map[string]*Node
	placed map[string]bool
	warns  []Warning
}

func newResolution(d *diagram.Diagram, s *schema.Schema) *resolution {
	r := &resolution{
		d:      d,
		schema: s,
		nodes:  make(map[string]*Node),
		placed: make(map[string]bool),
	}
	for _, e := range d.Entries {
		switch e := e.(type) {
		case *diagram.Wildcard:
			// Zero matches is a valid state: the entry stays in the
			// set and simply yields nothing.
			for _, t := range s.TablesOf(e.Schema) {
				r.include(t)
			}
		case *diagram.Position:
			t, ok := s.Table(e.Table)
			if !ok {
				r.warns = append(r.warns, Warning{
					Diagram:    d.Name,
					Table:      e.Table,
					Suggestion: closest(e.Table, s),
				})
				continue
			}
			n := r.include(t)
			if e.Placed {
				n.X, n.Y = e.X, e.Y
				r.placed[n.Name] = true
			}
		}
	}
	return r
}

// include adds the table once; later entries for the same table reuse
// the node, so membership is single regardless of how often a table
// is named.
func (r *resolution) include(t *schema.Table) *Node {
	q := t.Qualified()
	if n, ok := r.nodes[q]; ok {
		return n
	}
	n := &Node{Name: q, Table: t}
	r.nodes[q] = n
	r.order = append(r.order, q)
	return n
}

func (r *resolution) model(gen PositionGenerator) *Model {
	m := &Model{}
	var missing []string
	for _, q := range r.order {
		n := r.nodes[q]
		m.Nodes = append(m.Nodes, n)
		if !r.placed[q] {
			missing = append(missing, q)
		}
	}
	if len(missing) > 0 {
		var done []*Node
		for _, q := range r.order {
			if r.placed[q] {
				done = append(done, r.nodes[q])
			}
		}
		ps := gen.Place(done, missing)
		for _, q := range missing {
			if p, ok := ps[q]; ok {
				r.nodes[q].X, r.nodes[q].Y = p.X, p.Y
			}
		}
	}
	for _, q := range r.order {
		for _, fk := range r.nodes[q].Table.ForeignKeys {
			if _, ok := r.nodes[fk.RefTable]; !ok {
				continue
			}
			m.Edges = append(m.Edges, &Edge{From: fk.Table, To: fk.RefTable, FK: fk})
		}
	}
	return m
}

// DefaultSet builds a single-diagram set selecting every table via one
// wildcard per schema, in declaration order. Used when a file has no
// layout block yet.
func DefaultSet(name string, s *schema.Schema) *diagram.Set {
	d := &diagram.Diagram{Name: name}
	seen := make(map[string]bool)
	for _, t := range s.Tables {
		if !seen[t.Schema] {
			seen[t.Schema] = true
			d.Entries = append(d.Entries, &diagram.Wildcard{Schema: t.Schema})
		}
	}
	return &diagram.Set{Diagrams: []*diagram.Diagram{d}}
}
