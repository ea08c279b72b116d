// Package vt implements the tile rendering core: bitmap/glyph/stroke atlases,
// tile geometry tessellation, cross-zoom blending, label placement and the
// renderer passes that turn a compiled CartoCSS layer into GPU draw commands.
package vt

// TileId identifies one tile in a standard zoom/x/y quadtree.
type TileId struct {
	Zoom int
	X    int
	Y    int
}

// NewTileId constructs a TileId.
func NewTileId(zoom, x, y int) TileId {
	return TileId{Zoom: zoom, X: x, Y: y}
}

// Parent returns the tile one zoom level up that contains this tile.
// Negative coordinates floor toward negative infinity rather than truncating
// toward zero, matching the quadtree's wraparound tiles.
func (t TileId) Parent() TileId {
	return TileId{Zoom: t.Zoom - 1, X: floorDiv2(t.X), Y: floorDiv2(t.Y)}
}

// Child returns the tile one zoom level down at offset (dx, dy) in {0, 1}.
func (t TileId) Child(dx, dy int) TileId {
	return TileId{Zoom: t.Zoom + 1, X: t.X*2 + dx, Y: t.Y*2 + dy}
}

// Intersects reports whether the two tiles cover any common ground area,
// reprojecting the coarser tile's bounds to the finer tile's zoom level.
func (t TileId) Intersects(other TileId) bool {
	tile1, tile2 := t, other
	if tile2.Zoom < tile1.Zoom {
		tile1, tile2 = tile2, tile1
	}
	deltaZoom := uint(tile2.Zoom - tile1.Zoom)
	minX, maxX := tile1.X<<deltaZoom, (tile1.X+1)<<deltaZoom
	minY, maxY := tile1.Y<<deltaZoom, (tile1.Y+1)<<deltaZoom
	return minX <= tile2.X && maxX > tile2.X && minY <= tile2.Y && maxY > tile2.Y
}

// Matrix returns the transform mapping this tile's local [0,1]^2
// coordinates into world space, where the whole map spans [0,1]^2 at zoom
// zero and each zoom level halves a tile's extent.
func (t TileId) Matrix() Mat4 {
	scale := 1.0
	for i := 0; i < t.Zoom; i++ {
		scale *= 0.5
	}
	m := Identity4()
	m.M[0] = scale
	m.M[5] = scale
	m.M[12] = float64(t.X) * scale
	m.M[13] = float64(t.Y) * scale
	return m
}

// Less orders tiles by zoom, then x, then y — a total order suitable for use
// as a stable sort key or a map iteration tiebreaker.
func (t TileId) Less(other TileId) bool {
	if t.Zoom != other.Zoom {
		return t.Zoom < other.Zoom
	}
	if t.X != other.X {
		return t.X < other.X
	}
	return t.Y < other.Y
}

func floorDiv2(v int) int {
	if v < 0 {
		return (v - 1) / 2
	}
	return v / 2
}
