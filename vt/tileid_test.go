package vt

import "testing"

func TestTileIdParentChildRoundTrip(t *testing.T) {
	cases := []TileId{
		{Zoom: 5, X: 3, Y: 7},
		{Zoom: 0, X: 0, Y: 0},
		{Zoom: 12, X: -4, Y: 9},
	}
	for _, tile := range cases {
		for dx := 0; dx < 2; dx++ {
			for dy := 0; dy < 2; dy++ {
				child := tile.Child(dx, dy)
				if got := child.Parent(); got != tile {
					t.Errorf("Child(%d,%d).Parent() = %+v, want %+v", dx, dy, got, tile)
				}
			}
		}
	}
}

func TestTileIdIntersects(t *testing.T) {
	parent := TileId{Zoom: 2, X: 1, Y: 1}
	child := parent.Child(0, 1)
	if !parent.Intersects(child) {
		t.Errorf("parent %+v should intersect its own child %+v", parent, child)
	}
	if !child.Intersects(parent) {
		t.Errorf("Intersects should be symmetric")
	}

	unrelated := TileId{Zoom: 2, X: 3, Y: 3}
	if parent.Intersects(unrelated) {
		t.Errorf("%+v should not intersect unrelated %+v", parent, unrelated)
	}
}

func TestTileIdLessTotalOrder(t *testing.T) {
	a := TileId{Zoom: 1, X: 0, Y: 0}
	b := TileId{Zoom: 2, X: 0, Y: 0}
	c := TileId{Zoom: 2, X: 1, Y: 0}
	d := TileId{Zoom: 2, X: 1, Y: 1}

	if !a.Less(b) {
		t.Error("lower zoom should sort first")
	}
	if !b.Less(c) {
		t.Error("lower x should sort first within a zoom")
	}
	if !c.Less(d) {
		t.Error("lower y should sort first within (zoom, x)")
	}
	if a.Less(a) {
		t.Error("Less should be irreflexive")
	}
}
