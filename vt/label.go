package vt

// Code points with special layout behavior in a glyph run: a carriage
// return resets the pen to the line start, a space advances it without
// emitting a quad.
const (
	crCodePoint    = '\r'
	spaceCodePoint = ' '
)

// LabelGlyph is one precomputed glyph in a TileLabel's run: its atlas id
// and rectangle plus the shaping offset/size/advance needed to lay it out
// relative to the current pen position.
type LabelGlyph struct {
	GlyphID   GlyphId
	CodePoint rune
	OffsetX   float32
	OffsetY   float32
	Width     float32
	Height    float32
	Advance   float32

	// AtlasX/AtlasY locate the packed glyph bitmap inside its GlyphMap,
	// emitted as integer texture coordinates alongside each quad.
	AtlasX int
	AtlasY int
}

// TileLabel is a placeable, cullable label: immutable identity plus
// precomputed glyph list, an anchor point and/or polyline it must follow,
// and its style. Mutable placement state (§4.10) lives separately in
// LabelPlacementState, owned by the renderer and keyed by
// (LayerIndex, GlobalID) rather than embedded here, matching §3.4's
// ownership split and §9's "avoid back-pointers" guidance.
type TileLabel struct {
	TileID     TileId
	LocalID    int64
	GlobalID   int64
	GroupID    int64
	LayerIndex int // priority: the enclosing layer's index, set by TileLayerBuilder.Build

	Glyphs []LabelGlyph

	Anchor    Vec2   // tile-local [0,1]^2 position, for Point-family orientations
	Polyline  []Vec2 // tile-local vertices, for Line orientation
	HasAnchor bool
	HasLine   bool

	Orientation LabelOrientation
	ColorFunc   ColorFunction
	SizeFunc    FloatFunction
	Transform   *Transform2D

	// Scale/Ascent/Descent come from the label's font: Scale converts
	// glyph-local units to tile units at unit size, Ascent feeds the line
	// placement's pen rotation across edge transitions.
	Scale   float32
	Ascent  float32
	Descent float32

	// MinimumGroupDistance is the minimum world-space separation (§4.10)
	// required between any two visible labels sharing GroupID > 0.
	MinimumGroupDistance float32

	// World-space geometry derived from Anchor/Polyline by
	// TransformGeometry; empty until a tile transform has been applied.
	worldPositions []Vec3
	worldVertices  [][]Vec3
}

// LabelKey identifies a label's persistent placement/opacity state across
// frames, independent of which tile currently supplies its geometry.
type LabelKey struct {
	LayerIndex int
	GlobalID   int64
}

func (l *TileLabel) Key() LabelKey { return LabelKey{LayerIndex: l.LayerIndex, GlobalID: l.GlobalID} }

// PlacementEdge is one polyline segment of a line placement, expressed
// relative to the placement's position: endpoints, the per-endpoint
// binormals (averaged across joints so adjacent edges share one miter
// direction), and the edge-local x/y axes glyph quads are laid out along.
type PlacementEdge struct {
	Pos0, Pos1           Vec2
	Binormal0, Binormal1 Vec2
	XAxis, YAxis         Vec2
	Length               float32
}

func newPlacementEdge(p0, p1, origin Vec3) PlacementEdge {
	e := PlacementEdge{
		Pos0: Vec2{float32(p0.X - origin.X), float32(p0.Y - origin.Y)},
		Pos1: Vec2{float32(p1.X - origin.X), float32(p1.Y - origin.Y)},
	}
	e.Length = e.Pos1.Sub(e.Pos0).Length()
	if e.Length > 0 {
		e.XAxis = e.Pos1.Sub(e.Pos0).Mul(1 / e.Length)
	}
	e.YAxis = Vec2{-e.XAxis.Y, e.XAxis.X}
	e.Binormal0 = e.YAxis
	e.Binormal1 = e.YAxis
	return e
}

func (e *PlacementEdge) reverse() {
	e.Pos0, e.Pos1 = e.Pos1, e.Pos0
	e.Binormal0, e.Binormal1 = e.Binormal1.Mul(-1), e.Binormal0.Mul(-1)
	e.XAxis = e.XAxis.Mul(-1)
	e.YAxis = e.YAxis.Mul(-1)
}

// Placement is a label's resolved placement: its world position and, for
// line placements, the edge run the glyph string follows together with the
// index of the edge containing that position. Point placements carry no
// edges.
type Placement struct {
	Edges []PlacementEdge
	Index int
	Pos   Vec3
}

// newPlacement joins consecutive edges' binormals into shared miter
// binormals so glyph quads meet cleanly at joints.
func newPlacement(edges []PlacementEdge, index int, pos Vec3) *Placement {
	for i := 1; i < len(edges); i++ {
		binormal := edges[i-1].YAxis.Add(edges[i].YAxis)
		if binormal.Length() != 0 {
			binormal = binormal.Mul(1 / binormal.Length())
			scaled := binormal.Mul(1 / edges[i-1].YAxis.Dot(binormal))
			edges[i-1].Binormal1 = scaled
			edges[i].Binormal0 = scaled
		}
	}
	return &Placement{Edges: edges, Index: index, Pos: pos}
}

// Reverse returns the same placement traversed in the opposite direction,
// used to flip line labels so text reads left-to-right under the current
// camera orientation.
func (p *Placement) Reverse() *Placement {
	if p == nil {
		return nil
	}
	edges := make([]PlacementEdge, len(p.Edges))
	for i := range p.Edges {
		edges[i] = p.Edges[len(p.Edges)-1-i]
		edges[i].reverse()
	}
	return &Placement{Edges: edges, Index: len(p.Edges) - 1 - p.Index, Pos: p.Pos}
}

// LabelPlacementState is the renderer-owned, per-(layer,id) mutable state
// that persists a label's placement and fade opacity across frames (§3.4,
// §4.10), plus the per-label vertex cache keyed by (scale, placement). A
// zero value represents a label that has never been placed.
type LabelPlacementState struct {
	Placement        *Placement
	FlippedPlacement *Placement

	// Label is the TileLabel the current Placement was computed against;
	// when a newly arrived tile supplies a different TileLabel for the
	// same key, the renderer snaps the old placement onto the new
	// geometry instead of recomputing from scratch.
	Label *TileLabel

	Opacity float32 // in [0,1]; advances toward 1 (visible) or 0 (hidden/gone) each frame

	// Visible records the culler's most recent accept/reject decision;
	// the next frame's opacity advance fades toward it.
	Visible bool

	// Vertex cache, valid while (scale, placement) are unchanged.
	cachedScale     float32
	cachedPlacement *Placement
	cachedValid     bool
	cachedVertices  []Vec2
	cachedTexCoords [][2]int16
	cachedAttribs   [][4]int8
	cachedIndices   []uint16
}

func (s *LabelPlacementState) invalidateCache() {
	s.cachedValid = false
	s.cachedPlacement = nil
	s.cachedVertices = s.cachedVertices[:0]
	s.cachedTexCoords = s.cachedTexCoords[:0]
	s.cachedAttribs = s.cachedAttribs[:0]
	s.cachedIndices = s.cachedIndices[:0]
}

// FadeRate is the per-second opacity change applied to a label's visible
// state in LabelPlacementState.Advance; chosen, like BlendRate, so a full
// fade takes a perceptible but brief fraction of a second.
const FadeRate = 4.0 // full fade (0->1) in 0.25s

// Advance moves a label's opacity toward 1 (visible) or 0 (not), clamped to
// [0,1], by dt seconds at FadeRate.
func (s *LabelPlacementState) Advance(dt float32, visible bool) {
	delta := FadeRate * dt
	if visible {
		s.Opacity += delta
		if s.Opacity > 1 {
			s.Opacity = 1
		}
	} else {
		s.Opacity -= delta
		if s.Opacity < 0 {
			s.Opacity = 0
		}
	}
}

// LabelVertexArrays accumulates the glyph-quad streams CalculateVertexData
// appends to: camera-relative positions, integer atlas texture coordinates,
// per-vertex attribs (style index, sdf flag, opacity) and a 16-bit index
// list.
type LabelVertexArrays struct {
	Vertices  []Vec3
	TexCoords [][2]int16
	Attribs   [][4]int8
	Indices   []uint16
}
