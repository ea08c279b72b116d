package vt

import (
	"encoding/binary"
	"math"
)

// MiterCosineThreshold is the cosine of the turning angle between two line
// segments below which a miter join is replaced by a bevel split. The
// threshold of cos(theta) < -0.8 (~143 degrees) is generous and may
// produce visible artifacts on very sharp turns; it must not be tuned
// without revisiting every style that depends on the current joins.
const MiterCosineThreshold = -0.8

// rawVertex is the float-valued, unpacked form of one vertex accumulated
// while building; packVertices converts a batch of these into the final
// byte-exact interleaved layout described by §6.
type rawVertex struct {
	Position [2]float32
	Attribs  [4]int8
	TexCoord [2]float32
	Binormal [2]float32
	Height   float32
}

// inProgressGeometry accumulates raw vertices/indices for one run of
// style-compatible add* calls before being flushed into a finished
// TileGeometry.
type inProgressGeometry struct {
	kind        GeometryKind
	style       StyleParameters
	hasTexCoord bool
	hasBinormal bool
	hasHeight   bool

	vertices []rawVertex
	indices  []uint32 // widened during accumulation; narrowed+split at flush
	idRuns   []IDRun
	curRunID int64
	curRunN  int
	haveRun  bool
}

// TileLayerBuilder tessellates decoded features into packed TileGeometry
// batches for one compiled layer, following §4.8's compatible-batching and
// vertex-budget-splitting contracts.
type TileLayerBuilder struct {
	layerIndex  int
	name        string
	opacityFunc FloatFunction
	compOp      *CompOp

	bitmaps    []*TileBitmap
	geometries []*TileGeometry
	labels     []*TileLabel

	current *inProgressGeometry
}

// NewTileLayerBuilder starts a builder for layerIndex/name with the given
// layer-level opacity function and optional composition operator.
func NewTileLayerBuilder(layerIndex int, name string, opacityFunc FloatFunction, compOp *CompOp) *TileLayerBuilder {
	return &TileLayerBuilder{layerIndex: layerIndex, name: name, opacityFunc: opacityFunc, compOp: compOp}
}

// AddBitmap appends a decoded raster feature directly (bitmaps are not
// tessellated or batched).
func (b *TileLayerBuilder) AddBitmap(bmp *TileBitmap) { b.bitmaps = append(b.bitmaps, bmp) }

// AddLabel appends a precomputed label directly; its LayerIndex is set to
// this builder's index so priority matches the enclosing layer, per
// §4.8's "assigns each label a priority equal to the enclosing layer
// index".
func (b *TileLayerBuilder) AddLabel(label *TileLabel) {
	label.LayerIndex = b.layerIndex
	b.labels = append(b.labels, label)
}

// beginOrReuse ensures b.current is a geometry accepting kind/style,
// flushing the previous one first if incompatible.
func (b *TileLayerBuilder) beginOrReuse(kind GeometryKind, style StyleParameters, hasTexCoord, hasBinormal, hasHeight bool) *inProgressGeometry {
	if b.current != nil {
		sameShape := b.current.kind == kind && b.current.hasTexCoord == hasTexCoord &&
			b.current.hasBinormal == hasBinormal && b.current.hasHeight == hasHeight
		if sameShape && b.current.style.compatible(&style) {
			return b.current
		}
		b.flush()
	}
	b.current = &inProgressGeometry{kind: kind, style: style, hasTexCoord: hasTexCoord, hasBinormal: hasBinormal, hasHeight: hasHeight}
	return b.current
}

func (g *inProgressGeometry) addTriangle(v0, v1, v2 rawVertex, featureID int64) {
	base := uint32(len(g.vertices))
	g.vertices = append(g.vertices, v0, v1, v2)
	g.indices = append(g.indices, base, base+1, base+2)
	g.recordTriangle(featureID)
}

func (g *inProgressGeometry) recordTriangle(featureID int64) {
	if g.haveRun && g.curRunID == featureID {
		g.curRunN++
		return
	}
	if g.haveRun {
		g.idRuns = append(g.idRuns, IDRun{TriangleCount: g.curRunN, FeatureID: g.curRunID})
	}
	g.curRunID, g.curRunN, g.haveRun = featureID, 1, true
}

func (g *inProgressGeometry) finalizeRuns() []IDRun {
	if g.haveRun {
		g.idRuns = append(g.idRuns, IDRun{TriangleCount: g.curRunN, FeatureID: g.curRunID})
		g.haveRun = false
	}
	return g.idRuns
}

// flush finalizes b.current into one or more TileGeometry batches
// (splitting at MaxVertexIndex) and appends them to b.geometries.
func (b *TileLayerBuilder) flush() {
	if b.current == nil || len(b.current.vertices) == 0 {
		b.current = nil
		return
	}
	g := b.current
	runs := g.finalizeRuns()
	b.geometries = append(b.geometries, splitAndPack(g, runs)...)
	b.current = nil
}

// splitAndPack packs g's accumulated vertices into one or more
// TileGeometry values. When there are MaxVertexIndex vertices or more, the
// triangle list is split into consecutive chunks, each referencing fewer
// than MaxVertexIndex distinct vertices; it is not bisected.
func splitAndPack(g *inProgressGeometry, runs []IDRun) []*TileGeometry {
	if len(g.vertices) < MaxVertexIndex {
		return []*TileGeometry{packOne(g.kind, g.style, g.hasTexCoord, g.hasBinormal, g.hasHeight, g.vertices, g.indices, runs)}
	}

	var out []*TileGeometry
	triCount := len(g.indices) / 3
	// Map each triangle to the feature id owning it, in order, so split
	// batches keep correct IDRun tables.
	triFeature := make([]int64, triCount)
	{
		idx := 0
		for _, r := range runs {
			for i := 0; i < r.TriangleCount; i++ {
				triFeature[idx] = r.FeatureID
				idx++
			}
		}
	}

	start := 0
	for start < triCount {
		end := start
		remap := make(map[uint32]uint32)
		var subVerts []rawVertex
		var subIdx []uint32
		var subRuns []IDRun
		haveRun := false
		var curID int64
		var curN int
		for end < triCount {
			base := end * 3
			i0, i1, i2 := g.indices[base], g.indices[base+1], g.indices[base+2]
			need := 0
			for _, idx := range [3]uint32{i0, i1, i2} {
				if _, ok := remap[idx]; !ok {
					need++
				}
			}
			if len(subVerts)+need >= MaxVertexIndex {
				break
			}
			for _, idx := range [3]uint32{i0, i1, i2} {
				if _, ok := remap[idx]; !ok {
					remap[idx] = uint32(len(subVerts))
					subVerts = append(subVerts, g.vertices[idx])
				}
			}
			subIdx = append(subIdx, remap[i0], remap[i1], remap[i2])
			fid := triFeature[end]
			if haveRun && curID == fid {
				curN++
			} else {
				if haveRun {
					subRuns = append(subRuns, IDRun{TriangleCount: curN, FeatureID: curID})
				}
				curID, curN, haveRun = fid, 1, true
			}
			end++
		}
		if haveRun {
			subRuns = append(subRuns, IDRun{TriangleCount: curN, FeatureID: curID})
		}
		if end == start {
			// A single triangle alone needs >MaxVertexIndex new vertices,
			// which cannot happen (a triangle has 3), so this is
			// unreachable; guard against an infinite loop regardless.
			end++
		}
		out = append(out, packOne(g.kind, g.style, g.hasTexCoord, g.hasBinormal, g.hasHeight, subVerts, subIdx, subRuns))
		start = end
	}
	return out
}

func packOne(kind GeometryKind, style StyleParameters, hasTexCoord, hasBinormal, hasHeight bool, verts []rawVertex, indices []uint32, runs []IDRun) *TileGeometry {
	var maxPos, maxTex, maxBi float32
	for _, v := range verts {
		maxPos = maxf(maxPos, maxf(absf(v.Position[0]), absf(v.Position[1])))
		if hasTexCoord {
			maxTex = maxf(maxTex, maxf(absf(v.TexCoord[0]), absf(v.TexCoord[1])))
		}
		if hasBinormal {
			maxBi = maxf(maxBi, maxf(absf(v.Binormal[0]), absf(v.Binormal[1])))
		}
	}
	layout := layoutFor(kind, hasTexCoord, hasBinormal, hasHeight, maxPos, maxTex, maxBi)

	buf := make([]byte, layout.Stride*len(verts))
	for i, v := range verts {
		o := i * layout.Stride
		putInt16(buf, o+layout.PositionOffset, packInt16(v.Position[0], layout.VertexScale))
		putInt16(buf, o+layout.PositionOffset+2, packInt16(v.Position[1], layout.VertexScale))
		copy(buf[o+layout.AttribsOffset:o+layout.AttribsOffset+4], []byte{byte(v.Attribs[0]), byte(v.Attribs[1]), byte(v.Attribs[2]), byte(v.Attribs[3])})
		if hasTexCoord {
			putInt16(buf, o+layout.TexCoordOffset, packInt16(v.TexCoord[0], layout.TexCoordScale))
			putInt16(buf, o+layout.TexCoordOffset+2, packInt16(v.TexCoord[1], layout.TexCoordScale))
		}
		if hasBinormal {
			putInt16(buf, o+layout.BinormalOffset, packInt16(v.Binormal[0], layout.BinormalScale))
			putInt16(buf, o+layout.BinormalOffset+2, packInt16(v.Binormal[1], layout.BinormalScale))
		}
		if hasHeight {
			binary.LittleEndian.PutUint32(buf[o+layout.HeightOffset:], math.Float32bits(v.Height))
		}
	}

	idx16 := make([]uint16, len(indices))
	for i, v := range indices {
		idx16[i] = uint16(v)
	}

	return &TileGeometry{Kind: kind, Layout: layout, Style: style, Vertices: buf, Indices: idx16, IDs: runs}
}

func putInt16(buf []byte, off int, v int16) {
	binary.LittleEndian.PutUint16(buf[off:], uint16(v))
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// --- Points ---------------------------------------------------------------

// AddPoints tessellates each (id, position) yielded by seq into a
// four-vertex quad (±1 attrib corners) for bitmap/glyph rendering,
// batching compatible calls into one TileGeometry per §4.8.
func (b *TileLayerBuilder) AddPoints(style PointStyle, halfExtent float32, seq func(yield func(id int64, pos Vec2) bool)) {
	sp := StyleParameters{CompOp: style.CompOp, Orientation: style.Orientation, Transform: style.Transform, NumStyleSlots: 1}
	sp.ColorFuncs[0] = style.ColorFunc
	sp.WidthFuncs[0] = style.SizeFunc
	g := b.beginOrReuse(GeometryPoint, sp, true, false, false)

	seq(func(id int64, pos Vec2) bool {
		corners := [4][2]int8{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		texCorners := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		var quad [4]rawVertex
		for i := 0; i < 4; i++ {
			quad[i] = rawVertex{
				Position: [2]float32{pos.X, pos.Y},
				Attribs:  [4]int8{corners[i][0], corners[i][1], 0, 0},
				TexCoord: texCorners[i],
			}
		}
		g.addTriangle(quad[0], quad[1], quad[2], id)
		g.addTriangle(quad[0], quad[2], quad[3], id)
		return true
	})
}

// --- Lines ------------------------------------------------------------------

// AddLines tessellates each polyline yielded by seq into a stroked ribbon:
// two vertices per sample with a signed binormal and a distance-from-center
// attrib for analytic anti-aliasing, miter joins when the turning-angle
// cosine exceeds MiterCosineThreshold and bevel-split joins otherwise, and
// square caps (LineCapSquare extends both end segments by halfWidth); no
// rounded end geometry is emitted for LineCapRound. A line with fewer than two distinct
// points yields zero geometry (§8 boundary behavior).
func (b *TileLayerBuilder) AddLines(style LineStyle, halfWidth float32, seq func(yield func(id int64, pts []Vec2) bool)) {
	sp := StyleParameters{CompOp: style.CompOp, Transform: style.Transform, NumStyleSlots: 1}
	sp.ColorFuncs[0] = style.ColorFunc
	sp.WidthFuncs[0] = style.WidthFunc
	hasDash := style.StrokePattern != nil
	if hasDash {
		sp.Pattern = style.StrokePattern
	}
	g := b.beginOrReuse(GeometryLine, sp, hasDash, true, false)

	seq(func(id int64, pts []Vec2) bool {
		pts = dedupPoints(pts)
		if len(pts) < 2 {
			return true
		}
		emitLine(g, pts, halfWidth, style.CapMode, hasDash, id)
		return true
	})
}

func dedupPoints(pts []Vec2) []Vec2 {
	out := pts[:0:0]
	for i, p := range pts {
		if i == 0 || p.Sub(pts[i-1]).Length() > 1e-9 {
			out = append(out, p)
		}
	}
	return out
}

func emitLine(g *inProgressGeometry, pts []Vec2, halfWidth float32, capMode LineCapMode, hasDash bool, id int64) {
	n := len(pts)
	dist := float32(0)
	for i := 0; i < n-1; i++ {
		p0, p1 := pts[i], pts[i+1]
		edge := p1.Sub(p0)
		length := edge.Length()
		if length == 0 {
			continue
		}
		dir := edge.Mul(1 / length)
		normal := Vec2{X: -dir.Y, Y: dir.X}

		u0, u1 := dist, dist+length
		dist = u1

		capExtend0, capExtend1 := float32(0), float32(0)
		if capMode == LineCapSquare {
			if i == 0 {
				capExtend0 = halfWidth
			}
			if i == n-2 {
				capExtend1 = halfWidth
			}
		}
		a0 := p0.Sub(dir.Mul(capExtend0))
		a1 := p1.Add(dir.Mul(capExtend1))

		mk := func(p Vec2, side float32, u float32) rawVertex {
			v := rawVertex{
				Position: [2]float32{p.X, p.Y},
				Attribs:  [4]int8{int8(side), 0, 0, 0},
				Binormal: [2]float32{normal.X * side, normal.Y * side},
			}
			if hasDash {
				v.TexCoord = [2]float32{u, (side + 1) / 2}
			}
			return v
		}

		v0 := mk(a0, 1, u0)
		v1 := mk(a0, -1, u0)
		v2 := mk(a1, 1, u1)
		v3 := mk(a1, -1, u1)
		g.addTriangle(v0, v1, v2, id)
		g.addTriangle(v1, v3, v2, id)

		if i < n-2 {
			emitJoin(g, pts[i], pts[i+1], pts[i+2], halfWidth, hasDash, u1, id)
		}
	}
}

// emitJoin fills the gap at the joint between segment (p0,p1) and (p1,p2):
// a miter (single quad extending to the miter point) when the turning
// angle's cosine exceeds MiterCosineThreshold, otherwise a bevel triangle.
func emitJoin(g *inProgressGeometry, p0, p1, p2 Vec2, halfWidth float32, hasDash bool, u float32, id int64) {
	d0 := p1.Sub(p0)
	d1 := p2.Sub(p1)
	if d0.Length() == 0 || d1.Length() == 0 {
		return
	}
	d0 = d0.Mul(1 / d0.Length())
	d1 = d1.Mul(1 / d1.Length())
	cosTheta := d0.Dot(d1)

	n0 := Vec2{X: -d0.Y, Y: d0.X}
	n1 := Vec2{X: -d1.Y, Y: d1.X}

	mk := func(p Vec2, side float32) rawVertex {
		v := rawVertex{Position: [2]float32{p.X, p.Y}, Attribs: [4]int8{int8(side), 0, 0, 0}}
		if hasDash {
			v.TexCoord = [2]float32{u, (side + 1) / 2}
		}
		return v
	}

	// Determine which side is the outer (convex) side of the turn.
	cross := d0.X*d1.Y - d0.Y*d1.X
	side := float32(1)
	if cross > 0 {
		side = -1
	}

	if cosTheta > MiterCosineThreshold {
		// Miter: bisector direction, length scaled by 1/cos(half-angle).
		bis := n0.Add(n1)
		if bis.Length() > 1e-6 {
			bis = bis.Mul(1 / bis.Length())
			cosHalf := bis.Dot(n0)
			if cosHalf > 1e-3 {
				miterLen := halfWidth / cosHalf
				miterPoint := p1.Add(bis.Mul(miterLen * side))
				v0 := mk(p1.Add(n0.Mul(halfWidth*side)), side)
				v1 := mk(miterPoint, side)
				v2 := mk(p1.Add(n1.Mul(halfWidth*side)), side)
				vc := mk(p1, -side)
				g.addTriangle(vc, v0, v1, id)
				g.addTriangle(vc, v1, v2, id)
				return
			}
		}
	}

	// Bevel: a single triangle fanning the joint vertex to the two edge
	// corners on the outer side.
	v0 := mk(p1.Add(n0.Mul(halfWidth*side)), side)
	v1 := mk(p1.Add(n1.Mul(halfWidth*side)), side)
	vc := mk(p1, -side)
	g.addTriangle(vc, v0, v1, id)
}

// --- Polygons ---------------------------------------------------------------

// AddPolygons tessellates each ring set yielded by seq via ear-clipping on
// the exterior ring (odd-winding tessellation in the spirit of §4.8; holes
// are a documented simplification, see DESIGN.md). A ring of fewer than
// three points, or one whose points are collinear, yields zero triangles
// rather than degenerate geometry (§8 boundary behavior).
func (b *TileLayerBuilder) AddPolygons(style PolygonStyle, seq func(yield func(id int64, rings [][]Vec2) bool)) {
	sp := StyleParameters{CompOp: style.CompOp, Transform: style.Transform, NumStyleSlots: 1}
	sp.ColorFuncs[0] = style.ColorFunc
	hasTex := style.Pattern != nil
	if hasTex {
		sp.Pattern = style.Pattern
	}
	g := b.beginOrReuse(GeometryPolygon, sp, hasTex, false, false)

	seq(func(id int64, rings [][]Vec2) bool {
		if len(rings) == 0 {
			return true
		}
		tris := earClipTriangles(rings[0])
		for _, t := range tris {
			mk := func(p Vec2) rawVertex {
				v := rawVertex{Position: [2]float32{p.X, p.Y}}
				if hasTex {
					v.TexCoord = [2]float32{p.X, p.Y}
				}
				return v
			}
			g.addTriangle(mk(t[0]), mk(t[1]), mk(t[2]), id)
		}
		return true
	})
}

// AddPolygons3D extrudes each polygon's exterior ring edges into wall
// triangles (binormal = outward edge normal, for lighting) and caps the
// top with the same ear-clipped tessellation used by AddPolygons, shifted
// to the given extrusion height.
func (b *TileLayerBuilder) AddPolygons3D(style Polygon3DStyle, height float32, seq func(yield func(id int64, rings [][]Vec2) bool)) {
	sp := StyleParameters{Transform: style.Transform, NumStyleSlots: 1}
	sp.ColorFuncs[0] = style.ColorFunc
	g := b.beginOrReuse(GeometryPolygon3D, sp, false, true, true)

	seq(func(id int64, rings [][]Vec2) bool {
		if len(rings) == 0 {
			return true
		}
		ring := rings[0]
		n := len(ring)
		for i := 0; i < n; i++ {
			p0 := ring[i]
			p1 := ring[(i+1)%n]
			edge := p1.Sub(p0)
			if edge.Length() == 0 {
				continue
			}
			dir := edge.Mul(1 / edge.Length())
			outward := Vec2{X: dir.Y, Y: -dir.X}

			mk := func(p Vec2, h float32) rawVertex {
				return rawVertex{
					Position: [2]float32{p.X, p.Y},
					Binormal: [2]float32{outward.X, outward.Y},
					Height:   h,
				}
			}
			bl := mk(p0, 0)
			br := mk(p1, 0)
			tl := mk(p0, height)
			tr := mk(p1, height)
			g.addTriangle(bl, br, tr, id)
			g.addTriangle(bl, tr, tl, id)
		}

		tris := earClipTriangles(ring)
		for _, t := range tris {
			mk := func(p Vec2) rawVertex {
				return rawVertex{Position: [2]float32{p.X, p.Y}, Height: height}
			}
			g.addTriangle(mk(t[0]), mk(t[1]), mk(t[2]), id)
		}
		return true
	})
}

// earClipTriangles triangulates a simple polygon ring via ear clipping.
// Degenerate rings (fewer than 3 points, or zero signed area) yield no
// triangles.
func earClipTriangles(ring []Vec2) [][3]Vec2 {
	pts := dedupPoints(ring)
	if len(pts) >= 2 && pts[0].Sub(pts[len(pts)-1]).Length() < 1e-9 {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil
	}
	if signedArea(pts) == 0 {
		return nil
	}
	if signedArea(pts) < 0 {
		reverse(pts)
	}

	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}

	var tris [][3]Vec2
	guard := 0
	for len(idx) > 2 && guard < 10000 {
		guard++
		earFound := false
		for i := 0; i < len(idx); i++ {
			i0 := idx[(i-1+len(idx))%len(idx)]
			i1 := idx[i]
			i2 := idx[(i+1)%len(idx)]
			a, bpt, c := pts[i0], pts[i1], pts[i2]
			if triArea(a, bpt, c) <= 1e-12 {
				continue
			}
			isEar := true
			for _, j := range idx {
				if j == i0 || j == i1 || j == i2 {
					continue
				}
				if pointInTriangle(pts[j], a, bpt, c) {
					isEar = false
					break
				}
			}
			if !isEar {
				continue
			}
			tris = append(tris, [3]Vec2{a, bpt, c})
			idx = append(idx[:i], idx[i+1:]...)
			earFound = true
			break
		}
		if !earFound {
			break
		}
	}
	return tris
}

func signedArea(pts []Vec2) float32 {
	var sum float32
	n := len(pts)
	for i := 0; i < n; i++ {
		p0, p1 := pts[i], pts[(i+1)%n]
		sum += p0.X*p1.Y - p1.X*p0.Y
	}
	return sum / 2
}

func reverse(pts []Vec2) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

func triArea(a, b, c Vec2) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

func pointInTriangle(p, a, b, c Vec2) bool {
	d1 := triArea(p, a, b)
	d2 := triArea(p, b, c)
	d3 := triArea(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// Build finalizes any in-progress geometry and returns the completed
// TileLayer.
func (b *TileLayerBuilder) Build() *TileLayer {
	b.flush()
	return &TileLayer{
		LayerIndex:  b.layerIndex,
		Name:        b.name,
		OpacityFunc: b.opacityFunc,
		CompOp:      b.compOp,
		Bitmaps:     b.bitmaps,
		Geometries:  b.geometries,
		Labels:      b.labels,
	}
}
