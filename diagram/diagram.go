// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package diagram models the layout block embedded in a schema file:
// named diagrams holding per-table positions and schema wildcards.
package diagram

type (
	// A Set holds the named diagrams parsed from one layout block,
	// in declaration order.
	Set struct {
		Diagrams []*Diagram
	}

	// A Diagram is a named, ordered list of table-inclusion entries
	// defining one renderable view. Entry order is preserved for
	// stable serialization; the parser does not deduplicate entries.
	Diagram struct {
		Name    string
		Entries []Entry
	}

	// An Entry is either a Position or a Wildcard.
	Entry interface {
		entry()
	}

	// A Position names one table and, optionally, its coordinates.
	// Placed reports whether X and Y carry values; an unplaced entry
	// means the table still needs placement.
	Position struct {
		Table  string // qualified name
		X, Y   int
		Placed bool
	}

	// A Wildcard includes every table of one schema. It expands at
	// resolution time, so tables added later are caught on refresh.
	Wildcard struct {
		Schema string
	}

	// A Point is a pixel coordinate pair, top-left origin.
	Point struct {
		X, Y int
	}
)

func (*Position) entry() {}
func (*Wildcard) entry() {}

// Diagram returns the diagram with the given name.
func (s *Set) Diagram(name string) (*Diagram, bool) {
	for _, d := range s.Diagrams {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Names returns all diagram names in declaration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Diagrams))
	for i, d := range s.Diagrams {
		names[i] = d.Name
	}
	return names
}

// Clone returns a deep copy of the set. Reconciliation works on
// copies so that a failed save never corrupts the loaded state.
func (s *Set) Clone() *Set {
	c := &Set{Diagrams: make([]*Diagram, len(s.Diagrams))}
	for i, d := range s.Diagrams {
		cd := &Diagram{Name: d.Name, Entries: make([]Entry, len(d.Entries))}
		for j, e := range d.Entries {
			switch e := e.(type) {
			case *Position:
				p := *e
				cd.Entries[j] = &p
			case *Wildcard:
				w := *e
				cd.Entries[j] = &w
			}
		}
		c.Diagrams[i] = cd
	}
	return c
}
