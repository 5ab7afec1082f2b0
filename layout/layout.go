// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package layout provides position generators for tables that have no
// stored coordinates. Every generator satisfies
// reconcile.PositionGenerator; swapping one for another never touches
// the reconciliation engine.
package layout

import (
	"math"
	"math/rand"

	"github.com/erdpets/erdpets/diagram"
	"github.com/erdpets/erdpets/reconcile"
)

// Canvas bounds shared by the generators, in pixels.
const (
	DefaultWidth  = 1600
	DefaultHeight = 1000

	cellW = 260
	cellH = 180
)

// Grid places new tables row by row on a fixed cell grid, starting
// below the lowest already-placed node so fresh tables never stack on
// top of the existing layout.
type Grid struct {
	Width int // canvas width, DefaultWidth when zero
}

// Place implements reconcile.PositionGenerator.
func (g Grid) Place(placed []*reconcile.Node, names []string) map[string]diagram.Point {
	w := g.Width
	if w <= 0 {
		w = DefaultWidth
	}
	cols := w / cellW
	if cols < 1 {
		cols = 1
	}
	startY := 0
	for _, n := range placed {
		if n.Y+cellH > startY {
			startY = n.Y + cellH
		}
	}
	ps := make(map[string]diagram.Point, len(names))
	for i, name := range names {
		ps[name] = diagram.Point{
			X: (i % cols) * cellW,
			Y: startY + (i/cols)*cellH,
		}
	}
	return ps
}

// Circle spreads new tables evenly on a circle around the canvas
// center. With few tables this keeps relationship lines short without
// any knowledge of the edges.
type Circle struct {
	Width, Height int
}

// Place implements reconcile.PositionGenerator.
func (c Circle) Place(placed []*reconcile.Node, names []string) map[string]diagram.Point {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	var (
		cx, cy = float64(w) / 2, float64(h) / 2
		radius = math.Min(cx, cy) * 0.8
		ps     = make(map[string]diagram.Point, len(names))
	)
	for i, name := range names {
		a := 2 * math.Pi * float64(i) / float64(len(names))
		ps[name] = diagram.Point{
			X: int(cx + radius*math.Cos(a)),
			Y: int(cy + radius*math.Sin(a)),
		}
	}
	return ps
}

// Random scatters new tables uniformly over the canvas. A fixed Seed
// makes placement reproducible.
type Random struct {
	Width, Height int
	Seed          int64
}

// Place implements reconcile.PositionGenerator.
func (r Random) Place(placed []*reconcile.Node, names []string) map[string]diagram.Point {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	rnd := rand.New(rand.NewSource(r.Seed))
	ps := make(map[string]diagram.Point, len(names))
	for _, name := range names {
		ps[name] = diagram.Point{X: rnd.Intn(w), Y: rnd.Intn(h)}
	}
	return ps
}

// ByName returns the generator registered under the given strategy
// name, defaulting to Grid for the empty string.
func ByName(strategy string, width, height int, seed int64) (reconcile.PositionGenerator, bool) {
	switch strategy {
	case "", "grid":
		return Grid{Width: width}, true
	case "circle":
		return Circle{Width: width, Height: height}, true
	case "random":
		return Random{Width: width, Height: height, Seed: seed}, true
	}
	return nil, false
}
