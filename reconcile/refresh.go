// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package reconcile

import (
	"fmt"
	"sort"

	"github.com/erdpets/erdpets/diagram"
	"github.com/erdpets/erdpets/schema"
)

// Refresh re-resolves the named diagram against a fresh schema.
// Explicit positions carry over unchanged; entries for tables no
// longer in the schema are dropped; wildcards stay even when they
// currently match nothing; newly matched tables get generated
// positions which are materialized into the returned set, so calling
// Refresh again without a schema change reuses them instead of
// regenerating.
func Refresh(name string, s *schema.Schema, set *diagram.Set, gen PositionGenerator) (*Model, *diagram.Set, []Warning, error) {
	updated := set.Clone()
	d, ok := updated.Diagram(name)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %q", ErrDiagramNotFound, name)
	}
	kept := d.Entries[:0]
	for _, e := range d.Entries {
		if p, ok := e.(*diagram.Position); ok {
			if _, ok := s.Table(p.Table); !ok {
				continue
			}
		}
		kept = append(kept, e)
	}
	d.Entries = kept
	m, warns, err := Resolve(name, s, updated, gen)
	if err != nil {
		return nil, nil, warns, err
	}
	materialize(d, m.Nodes)
	return m, updated, warns, nil
}

// Commit folds the live on-screen positions of the named diagram back
// into the set: every rendered table becomes an explicit positioned
// entry, while wildcard lines stay untouched so they keep catching
// future tables. Explicit entries that were never placed and are not
// on screen are dropped; nothing else is lost. The input set is not
// modified.
func Commit(set *diagram.Set, name string, live map[string]diagram.Point) (*diagram.Set, error) {
	updated := set.Clone()
	d, ok := updated.Diagram(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDiagramNotFound, name)
	}
	var (
		kept = d.Entries[:0]
		seen = make(map[string]bool)
	)
	for _, e := range d.Entries {
		p, ok := e.(*diagram.Position)
		if !ok {
			kept = append(kept, e)
			continue
		}
		// Entries are not deduplicated at parse time; the first line
		// for a table keeps its slot, coordinates come from live.
		if pt, ok := live[p.Table]; ok {
			p.X, p.Y, p.Placed = pt.X, pt.Y, true
		}
		if !p.Placed {
			continue
		}
		if seen[p.Table] {
			continue
		}
		seen[p.Table] = true
		kept = append(kept, p)
	}
	d.Entries = kept
	// Tables rendered through a wildcard only: materialize them as
	// explicit entries, in stable order.
	var missing []string
	for q := range live {
		if !seen[q] {
			missing = append(missing, q)
		}
	}
	sort.Strings(missing)
	for _, q := range missing {
		pt := live[q]
		d.Entries = append(d.Entries, &diagram.Position{Table: q, X: pt.X, Y: pt.Y, Placed: true})
	}
	return updated, nil
}

// materialize rewrites d's explicit entries from the resolved nodes,
// in node order, keeping wildcards where they are.
func materialize(d *diagram.Diagram, nodes []*Node) {
	var (
		kept = d.Entries[:0]
		seen = make(map[string]bool)
		pos  = make(map[string]diagram.Point, len(nodes))
	)
	for _, n := range nodes {
		pos[n.Name] = diagram.Point{X: n.X, Y: n.Y}
	}
	for _, e := range d.Entries {
		p, ok := e.(*diagram.Position)
		if !ok {
			kept = append(kept, e)
			continue
		}
		pt, ok := pos[p.Table]
		if !ok || seen[p.Table] {
			continue
		}
		seen[p.Table] = true
		p.X, p.Y, p.Placed = pt.X, pt.Y, true
		kept = append(kept, p)
	}
	d.Entries = kept
	for _, n := range nodes {
		if !seen[n.Name] {
			d.Entries = append(d.Entries, &diagram.Position{Table: n.Name, X: n.X, Y: n.Y, Placed: true})
		}
	}
}
