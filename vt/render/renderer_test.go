package render

import (
	"math"
	"testing"

	"github.com/cartogl/carto/vt"
)

func polygonTile(id vt.TileId, featureID int64, ring []vt.Vec2) *vt.Tile {
	b := vt.NewTileLayerBuilder(0, "poly", vt.ConstFunction[float32, vt.ViewState](1), nil)
	b.AddPolygons(vt.PolygonStyle{
		ColorFunc: vt.ConstFunction[vt.Color, vt.ViewState](vt.Color{R: 1, A: 1}),
	}, func(yield func(id int64, rings [][]vt.Vec2) bool) {
		yield(featureID, [][]vt.Vec2{ring})
	})
	return &vt.Tile{ID: id, Layers: []*vt.TileLayer{b.Build()}}
}

func labelTile(id vt.TileId, label *vt.TileLabel) *vt.Tile {
	return &vt.Tile{ID: id, Layers: []*vt.TileLayer{{
		LayerIndex: label.LayerIndex,
		Labels:     []*vt.TileLabel{label},
	}}}
}

func testView() vt.ViewState {
	return vt.NewViewState(vt.Identity4(), vt.Identity4(), 0, 1, 0.01)
}

func TestFrameDrawsPolygonThroughSoftwareRecorder(t *testing.T) {
	rec := NewSoftwareRecorder()
	r := NewTileRenderer(rec)
	r.SetViewState(testView())
	r.SetBackgroundColor(vt.Color{R: 1, G: 1, B: 1, A: 1})

	tile := polygonTile(vt.NewTileId(0, 0, 0), 11, []vt.Vec2{
		{X: -0.3, Y: -0.1}, {X: 0.3, Y: -0.1}, {X: 0.3, Y: 0.2}, {X: -0.3, Y: 0.2},
	})
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)

	r.StartFrame(0.1, 256, 256)
	if still := r.RenderGeometry2D(); still {
		t.Error("blend=false tiles should not request further animation frames")
	}
	r.EndFrame()

	// The polygon spans NDC x in [-0.3, 0.3]: sample a pixel near its
	// center and one in the untouched background.
	inside := rec.Target().At(128, 120)
	if inside.R < 0.5 || inside.G > 0.5 {
		t.Errorf("covered pixel = %+v, want the polygon's red fill", inside)
	}
	bg := rec.Target().At(10, 10)
	if bg.R != 1 || bg.G != 1 || bg.B != 1 {
		t.Errorf("background pixel = %+v, want the uniform white background", bg)
	}
}

func TestFindGeometryIntersectionsRayHitsPolygon(t *testing.T) {
	r := NewTileRenderer(NewSoftwareRecorder())
	r.SetViewState(testView())

	tile := polygonTile(vt.NewTileId(0, 0, 0), 11, []vt.Vec2{
		{X: -0.3, Y: -0.1}, {X: 0.3, Y: -0.1}, {X: 0.3, Y: 0.2}, {X: -0.3, Y: 0.2},
	})
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)
	r.StartFrame(0.1, 256, 256)

	hits := r.FindGeometryIntersections(Ray{
		Origin:    vt.V3(0, 0, 1),
		Direction: vt.V3(0, 0, -1),
	}, 0)
	if len(hits) == 0 {
		t.Fatal("expected the downward ray through the polygon to hit")
	}
	hit := hits[0]
	if math.Abs(hit.RayParam-1) > 1e-5 {
		t.Errorf("ray param = %v, want ~1", hit.RayParam)
	}
	if hit.FeatureID != 11 {
		t.Errorf("feature id = %d, want 11", hit.FeatureID)
	}
	if hit.TileID != tile.ID {
		t.Errorf("tile id = %v, want %v", hit.TileID, tile.ID)
	}
}

func TestFindGeometryIntersectionsMissReturnsNothing(t *testing.T) {
	r := NewTileRenderer(NewSoftwareRecorder())
	r.SetViewState(testView())

	tile := polygonTile(vt.NewTileId(0, 0, 0), 11, []vt.Vec2{
		{X: -0.3, Y: -0.1}, {X: 0.3, Y: -0.1}, {X: 0.3, Y: 0.2}, {X: -0.3, Y: 0.2},
	})
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)
	r.StartFrame(0.1, 256, 256)

	hits := r.FindGeometryIntersections(Ray{
		Origin:    vt.V3(5, 5, 1),
		Direction: vt.V3(0, 0, -1),
	}, 0)
	if len(hits) != 0 {
		t.Fatalf("expected no hits away from the polygon, got %d", len(hits))
	}
}

func TestBlendingTilesRequestAnotherFrame(t *testing.T) {
	r := NewTileRenderer(NewSoftwareRecorder())
	r.SetViewState(testView())

	tile := polygonTile(vt.NewTileId(0, 0, 0), 1, []vt.Vec2{
		{X: 0.1, Y: 0.1}, {X: 0.4, Y: 0.1}, {X: 0.4, Y: 0.4},
	})
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, true)

	r.StartFrame(0.05, 128, 128)
	if still := r.RenderGeometry2D(); !still {
		t.Error("a tile mid fade-in should request another frame")
	}

	// After enough frames the fade completes and the request stops.
	for i := 0; i < 20; i++ {
		r.StartFrame(0.1, 128, 128)
	}
	if still := r.RenderGeometry2D(); still {
		t.Error("a fully faded-in tile should not request another frame")
	}
}

func TestLabelOpacityPersistsAndRises(t *testing.T) {
	r := NewTileRenderer(NewSoftwareRecorder())
	r.SetViewState(testView())

	label := &vt.TileLabel{
		TileID:      vt.NewTileId(0, 0, 0),
		GlobalID:    7,
		Orientation: vt.LabelOrientationPoint,
		Anchor:      vt.Vec2{X: 0.5, Y: 0.5},
		HasAnchor:   true,
		Glyphs: []vt.LabelGlyph{
			{GlyphID: 1, CodePoint: 'a', Width: 8, Height: 8, Advance: 8},
		},
	}
	tile := labelTile(label.TileID, label)
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)

	var last float32 = -1
	for frame := 0; frame < 4; frame++ {
		r.StartFrame(0.1, 256, 256)
		r.RenderLabels(true, false)
		r.EndFrame()

		state, ok := r.labelStates[label.Key()]
		if !ok {
			t.Fatalf("frame %d: label state missing", frame)
		}
		if !state.Visible {
			t.Fatalf("frame %d: label should be accepted by the culler", frame)
		}
		if state.Opacity < last {
			t.Fatalf("frame %d: opacity %v dropped below previous %v", frame, state.Opacity, last)
		}
		last = state.Opacity
	}
	if last <= 0 {
		t.Error("opacity should have risen above zero across visible frames")
	}
}

func TestLabelStateDiscardedAfterFadeOut(t *testing.T) {
	r := NewTileRenderer(NewSoftwareRecorder())
	r.SetViewState(testView())

	label := &vt.TileLabel{
		TileID:      vt.NewTileId(0, 0, 0),
		GlobalID:    7,
		Orientation: vt.LabelOrientationPoint,
		Anchor:      vt.Vec2{X: 0.5, Y: 0.5},
		HasAnchor:   true,
		Glyphs:      []vt.LabelGlyph{{GlyphID: 1, CodePoint: 'a', Width: 8, Height: 8, Advance: 8}},
	}
	tile := labelTile(label.TileID, label)
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)
	for frame := 0; frame < 3; frame++ {
		r.StartFrame(0.1, 256, 256)
		r.RenderLabels(true, false)
	}
	if _, ok := r.labelStates[label.Key()]; !ok {
		t.Fatal("label state should exist while visible")
	}

	// Remove the tile; the state fades out and is then forgotten.
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{}, false)
	for frame := 0; frame < 10; frame++ {
		r.StartFrame(0.1, 256, 256)
	}
	if _, ok := r.labelStates[label.Key()]; ok {
		t.Error("fully faded-out label state should be discarded")
	}
}

func TestFindLabelIntersectionsHitsPlacedLabel(t *testing.T) {
	r := NewTileRenderer(NewSoftwareRecorder())
	r.SetViewState(testView())

	label := &vt.TileLabel{
		TileID:      vt.NewTileId(0, 0, 0),
		GlobalID:    9,
		Orientation: vt.LabelOrientationPoint,
		Anchor:      vt.Vec2{X: 0.5, Y: 0.5},
		HasAnchor:   true,
		Glyphs:      []vt.LabelGlyph{{GlyphID: 1, CodePoint: 'a', Width: 8, Height: 8, Advance: 8}},
	}
	tile := labelTile(label.TileID, label)
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)

	// Two frames so the label is placed and has nonzero opacity.
	for frame := 0; frame < 2; frame++ {
		r.StartFrame(0.1, 256, 256)
		r.RenderLabels(true, false)
	}

	hits := r.FindLabelIntersections(Ray{
		Origin:    vt.V3(0.52, 0.52, 1),
		Direction: vt.V3(0, 0, -1),
	}, 0.5)
	if len(hits) == 0 {
		t.Fatal("expected the ray through the label anchor to hit")
	}
	if hits[0].FeatureID != 9 {
		t.Errorf("feature id = %d, want 9", hits[0].FeatureID)
	}
}

func TestLayerCompOpRoutesThroughOffscreenFBO(t *testing.T) {
	rec := NewSoftwareRecorder()
	r := NewTileRenderer(rec)
	r.SetViewState(testView())
	r.SetBackgroundColor(vt.Color{R: 1, G: 1, B: 1, A: 1})

	op := vt.CompOpMultiply
	b := vt.NewTileLayerBuilder(0, "tinted", vt.ConstFunction[float32, vt.ViewState](1), &op)
	b.AddPolygons(vt.PolygonStyle{
		ColorFunc: vt.ConstFunction[vt.Color, vt.ViewState](vt.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}),
	}, func(yield func(id int64, rings [][]vt.Vec2) bool) {
		yield(1, [][]vt.Vec2{{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5}}})
	})
	tile := &vt.Tile{ID: vt.NewTileId(0, 0, 0), Layers: []*vt.TileLayer{b.Build()}}
	r.SetVisibleTiles(map[vt.TileId]*vt.Tile{tile.ID: tile}, false)

	r.StartFrame(0.1, 64, 64)
	r.RenderGeometry2D()
	r.EndFrame()

	// Multiply over a white background leaves the layer's own gray.
	c := rec.Target().At(32, 32)
	if c.R == 1 && c.G == 1 && c.B == 1 {
		t.Errorf("comp-op layer left the background untouched: %+v", c)
	}
}
