// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erdpets/erdpets/reconcile"
)

func TestGrid_PlacesBelowExisting(t *testing.T) {
	g := Grid{}
	placed := []*reconcile.Node{{Name: "a.t0", X: 40, Y: 500}}
	ps := g.Place(placed, []string{"a.t1", "a.t2"})
	require.Len(t, ps, 2)
	for _, p := range ps {
		require.GreaterOrEqual(t, p.Y, 500+cellH)
	}
	require.NotEqual(t, ps["a.t1"], ps["a.t2"])
}

func TestCircle_OnePositionPerName(t *testing.T) {
	names := []string{"a.t1", "a.t2", "a.t3"}
	ps := Circle{}.Place(nil, names)
	require.Len(t, ps, 3)
	seen := make(map[[2]int]bool)
	for _, n := range names {
		p, ok := ps[n]
		require.True(t, ok)
		require.False(t, seen[[2]int{p.X, p.Y}])
		seen[[2]int{p.X, p.Y}] = true
	}
}

func TestRandom_Seeded(t *testing.T) {
	names := []string{"a.t1", "a.t2"}
	first := Random{Seed: 7}.Place(nil, names)
	second := Random{Seed: 7}.Place(nil, names)
	require.Equal(t, first, second)
}

func TestByName(t *testing.T) {
	for _, s := range []string{"", "grid", "circle", "random"} {
		_, ok := ByName(s, 0, 0, 0)
		require.True(t, ok, s)
	}
	_, ok := ByName("spiral", 0, 0, 0)
	require.False(t, ok)
}
