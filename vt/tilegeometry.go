package vt

// MaxVertexIndex is the number of vertices a 16-bit index buffer can
// address (indices 0..MaxVertexIndex-1); a TileGeometry always carries
// fewer distinct vertices than this (§8
// "vertex budget" invariant). TileLayerBuilder splits oversized batches
// rather than ever emitting a geometry that violates it.
const MaxVertexIndex = 1 << 16

// MaxStyleSlots is the number of per-style-index parameter slots a
// StyleParameters bundle carries; builders fold compatible draw calls into
// one TileGeometry only while this budget is not exceeded.
const MaxStyleSlots = 16

// GeometryKind discriminates the four primitive families a TileGeometry can
// hold; each has a distinct packed-vertex layout (see GeometryLayoutParameters).
type GeometryKind int

const (
	GeometryPoint GeometryKind = iota
	GeometryLine
	GeometryPolygon
	GeometryPolygon3D
)

// IDRun is one entry of a TileGeometry's run-length id lookup table: the
// next TriangleCount triangles (in index-buffer order) belong to feature
// FeatureID. Runs are consumed in order by pick queries.
type IDRun struct {
	TriangleCount int
	FeatureID     int64
}

// StyleParameters bundles everything a draw call needs beyond raw geometry:
// up to MaxStyleSlots per-style-index color/opacity/width functions (each a
// function of ViewState), an optional pattern bitmap, an optional 2D
// transform, a composition operator and a point-orientation mode. "Style
// index" lets one TileGeometry batch features that differ only in which of
// up to 16 concrete style evaluations applies to them (e.g. class-dependent
// color), selected per-vertex via the Attribs style-index byte.
type StyleParameters struct {
	CompOp        CompOp
	Orientation   PointOrientation
	Transform     *Transform2D
	Pattern       *BitmapPattern
	ColorFuncs    [MaxStyleSlots]ColorFunction
	OpacityFuncs  [MaxStyleSlots]FloatFunction
	WidthFuncs    [MaxStyleSlots]FloatFunction
	NumStyleSlots int
}

// compatible reports whether two StyleParameters can share one TileGeometry:
// same CompOp, orientation, atlas image (Pattern identity) and transform,
// and the merged slot count still fits MaxStyleSlots.
func (sp *StyleParameters) compatible(other *StyleParameters) bool {
	if sp.CompOp != other.CompOp || sp.Orientation != other.Orientation {
		return false
	}
	if sp.Pattern != other.Pattern {
		return false
	}
	if (sp.Transform == nil) != (other.Transform == nil) {
		return false
	}
	if sp.Transform != nil && *sp.Transform != *other.Transform {
		return false
	}
	return sp.NumStyleSlots+other.NumStyleSlots <= MaxStyleSlots || sp.NumStyleSlots == other.NumStyleSlots
}

// GeometryLayoutParameters records the byte offsets and per-component scale
// factors a shader needs to decode a TileGeometry's packed vertex buffer.
// Offsets are -1 for components the geometry's kind does not carry.
type GeometryLayoutParameters struct {
	Stride          int
	PositionOffset  int
	AttribsOffset   int
	TexCoordOffset  int
	BinormalOffset  int
	HeightOffset    int
	VertexScale     float32
	BinormalScale   float32
	TexCoordScale   float32
}

// TileGeometry is one tessellated, packed batch of same-kind, same-style
// features. Vertices is the interleaved buffer described by Layout;
// Indices addresses it (every index value < MaxVertexIndex). IDs maps triangle
// runs back to feature ids for pick queries.
type TileGeometry struct {
	Kind     GeometryKind
	Layout   GeometryLayoutParameters
	Style    StyleParameters
	Vertices []byte
	Indices  []uint16
	IDs      []IDRun

	// vertexCount is not set or read by TileLayerBuilder: splitAndPack
	// decides splits from the builder's own vertex list, and NumVertices
	// derives the count from Vertices.
	vertexCount int
}

// NumVertices returns the number of packed vertices currently stored.
func (g *TileGeometry) NumVertices() int {
	if g.Layout.Stride == 0 {
		return 0
	}
	return len(g.Vertices) / g.Layout.Stride
}

// FeatureForTriangle looks up the feature id owning triangle index
// triIndex (0-based, in Indices/3 units) by walking the run-length table.
func (g *TileGeometry) FeatureForTriangle(triIndex int) (int64, bool) {
	remaining := triIndex
	for _, run := range g.IDs {
		if remaining < run.TriangleCount {
			return run.FeatureID, true
		}
		remaining -= run.TriangleCount
	}
	return 0, false
}

// PackedVertex is the decoded, float-valued form of one interleaved vertex
// (render.LabelVertexBatch carries label vertices in this form; the layer
// builder writes its byte buffer directly) in §6's byte-exact layout:
// position:short[2], attribs:sbyte[4], then optional texCoord:short[2],
// binormal:short[2], height:float.
type PackedVertex struct {
	Position [2]float32
	Attribs  [4]int8
	TexCoord [2]float32
	Binormal [2]float32
	Height   float32

	HasTexCoord bool
	HasBinormal bool
	HasHeight   bool
}

// layoutFor computes the GeometryLayoutParameters for a kind given whether
// texcoord/binormal/height components are present, and the largest
// magnitude observed for each scaled component (used to pick the
// power-of-two scale that keeps every packed value within int16 range).
func layoutFor(kind GeometryKind, hasTexCoord, hasBinormal, hasHeight bool, maxPos, maxTexCoord, maxBinormal float32) GeometryLayoutParameters {
	offset := 0
	l := GeometryLayoutParameters{PositionOffset: -1, AttribsOffset: -1, TexCoordOffset: -1, BinormalOffset: -1, HeightOffset: -1}

	l.PositionOffset = offset
	offset += 2 * 2 // short[2]
	l.AttribsOffset = offset
	offset += 4 // sbyte[4]

	if hasTexCoord {
		l.TexCoordOffset = offset
		offset += 2 * 2
	}
	if hasBinormal {
		l.BinormalOffset = offset
		offset += 2 * 2
	}
	if hasHeight {
		l.HeightOffset = offset
		offset += 4
	}
	l.Stride = offset
	l.VertexScale = powerOfTwoScale(maxPos)
	l.TexCoordScale = powerOfTwoScale(maxTexCoord)
	l.BinormalScale = powerOfTwoScale(maxBinormal)
	return l
}

// powerOfTwoScale returns the smallest power-of-two divisor (fractional
// powers included, so sub-unit coordinates keep their precision) for which
// maxAbs/scale still fits the signed 16-bit range. A zero or negative
// maxAbs yields scale 1 (nothing to pack).
func powerOfTwoScale(maxAbs float32) float32 {
	if maxAbs <= 0 {
		return 1
	}
	scale := float32(1)
	for maxAbs/scale > 32767 {
		scale *= 2
	}
	for maxAbs/(scale*0.5) <= 32767 {
		scale *= 0.5
	}
	return scale
}

func packInt16(v float32, scale float32) int16 {
	scaled := v / scale
	if scaled > 32767 {
		scaled = 32767
	}
	if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}
