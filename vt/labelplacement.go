package vt

import "math"

// Placement bounds for line-following labels: a run of edges is usable
// while no single joint turns more than MaxSingleSegmentAngle and the
// accumulated turning stays below MaxSummedSegmentAngle; a line placement
// additionally requires ExtraPlacementPixels of clipped polyline beyond
// the glyph string itself.
const (
	ExtraPlacementPixels  = 30.0
	MaxSingleSegmentAngle = 1.0472 // 60 degrees, radians
	MaxSummedSegmentAngle = 2.0944 // 120 degrees, radians
)

// TransformGeometry projects the label's tile-local anchor/polyline into
// world space through the given tile transform. Must be applied before the
// label can be placed; reapplying replaces previous world geometry.
func (l *TileLabel) TransformGeometry(transform Mat4) {
	if l.HasAnchor {
		p := transform.TransformPoint(Vec3{X: float64(l.Anchor.X), Y: float64(l.Anchor.Y)})
		l.worldPositions = []Vec3{p}
	} else {
		l.worldPositions = nil
	}

	if l.HasLine && len(l.Polyline) >= 2 {
		vertices := make([]Vec3, len(l.Polyline))
		for i, v := range l.Polyline {
			vertices[i] = transform.TransformPoint(Vec3{X: float64(v.X), Y: float64(v.Y)})
		}
		l.worldVertices = [][]Vec3{vertices}
	} else {
		l.worldVertices = nil
	}
}

// HasWorldGeometry reports whether TransformGeometry has produced anything
// placeable for this label.
func (l *TileLabel) HasWorldGeometry() bool {
	return len(l.worldPositions) > 0 || len(l.worldVertices) > 0
}

// MergeGeometries folds another label's world geometry into this one,
// used when the same global label arrives through multiple tiles (a road
// crossing a tile boundary) so placement can consider every fragment.
func (l *TileLabel) MergeGeometries(other *TileLabel) {
	for _, pos := range other.worldPositions {
		found := false
		for _, existing := range l.worldPositions {
			if existing == pos {
				found = true
				break
			}
		}
		if !found {
			l.worldPositions = append(l.worldPositions, pos)
		}
	}
	for _, vertices := range other.worldVertices {
		found := false
		for _, existing := range l.worldVertices {
			if vec3SlicesEqual(existing, vertices) {
				found = true
				break
			}
		}
		if !found {
			l.worldVertices = append(l.worldVertices, vertices)
		}
	}
}

func vec3SlicesEqual(a, b []Vec3) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (l *TileLabel) styleScale() float32 {
	if l.Scale == 0 {
		return 1
	}
	return l.Scale
}

// EvalSize evaluates the label's size function; a label built without one
// defaults to unit size rather than collapsing to nothing.
func (l *TileLabel) EvalSize(view ViewState) float32 {
	size := l.SizeFunc.Eval(view)
	if size == 0 && !l.SizeFunc.IsDynamic() {
		return 1
	}
	return size
}

// glyphBounds walks the glyph run with a pen and returns the local-space
// bounding box of every glyph quad.
func (l *TileLabel) glyphBounds() (bmin, bmax Vec2) {
	bmin = Vec2{float32(math.Inf(1)), float32(math.Inf(1))}
	bmax = Vec2{float32(math.Inf(-1)), float32(math.Inf(-1))}
	pen := Vec2{}
	any := false
	for _, g := range l.Glyphs {
		if g.CodePoint == crCodePoint {
			pen = Vec2{}
		} else {
			p0 := pen.Add(Vec2{g.OffsetX, g.OffsetY})
			p1 := p0.Add(Vec2{g.Width, g.Height})
			bmin = Vec2{minf(bmin.X, p0.X), minf(bmin.Y, p0.Y)}
			bmax = Vec2{maxf(bmax.X, p1.X), maxf(bmax.Y, p1.Y)}
			any = true
		}
		pen.X += g.Advance
	}
	if !any {
		return Vec2{}, Vec2{}
	}
	return bmin, bmax
}

// transformedBounds applies the label's optional 2D transform to its glyph
// bounding box.
func (l *TileLabel) transformedBounds() (bmin, bmax Vec2) {
	bmin, bmax = l.glyphBounds()
	if l.Transform == nil {
		return bmin, bmax
	}
	corners := [4]Vec2{
		transformPoint2D(l.Transform, bmin),
		transformPoint2D(l.Transform, Vec2{bmax.X, bmin.Y}),
		transformPoint2D(l.Transform, bmax),
		transformPoint2D(l.Transform, Vec2{bmin.X, bmax.Y}),
	}
	tmin, tmax := corners[0], corners[0]
	for _, c := range corners[1:] {
		tmin = Vec2{minf(tmin.X, c.X), minf(tmin.Y, c.Y)}
		tmax = Vec2{maxf(tmax.X, c.X), maxf(tmax.Y, c.Y)}
	}
	return tmin, tmax
}

func transformPoint2D(t *Transform2D, v Vec2) Vec2 {
	return Vec2{t.A*v.X + t.B*v.Y, t.C*v.X + t.D*v.Y}
}

// SnapPlacement re-derives the state's previous placement onto this
// label's (possibly new) world geometry: the closest anchor point or the
// closest polyline position, weighted to favor positions away from
// endpoints so placements stay stable across tile reloads.
func (l *TileLabel) SnapPlacement(state *LabelPlacementState) {
	if state.Placement == nil {
		return
	}
	state.invalidateCache()

	if len(l.worldPositions) > 0 {
		p := l.findSnappedPointPlacement(state.Placement.Pos, state.Placement)
		state.Placement, state.FlippedPlacement = p, p
		if p != nil && len(l.worldVertices) > 0 {
			state.Placement = l.findSnappedLinePlacement(p.Pos, state.Placement)
			state.FlippedPlacement = state.Placement.Reverse()
		}
		return
	}

	state.Placement = l.findSnappedLinePlacement(state.Placement.Pos, state.Placement)
	state.FlippedPlacement = state.Placement.Reverse()
}

// UpdatePlacement recomputes the label's placement unless the previous
// placement's envelope is still at least partly inside the view frustum. Reports
// whether the placement changed.
func (l *TileLabel) UpdatePlacement(view ViewState, state *LabelPlacementState) bool {
	if state.Placement != nil {
		envelope, _ := l.CalculateEnvelope(l.EvalSize(view), view, state)
		bmin := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		bmax := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		for _, corner := range envelope {
			world := view.Origin.Add(corner)
			bmin = Vec3{math.Min(bmin.X, world.X), math.Min(bmin.Y, world.Y), math.Min(bmin.Z, world.Z)}
			bmax = Vec3{math.Max(bmax.X, world.X), math.Max(bmax.Y, world.Y), math.Max(bmax.Z, world.Z)}
		}
		if view.Frustum.IntersectsBounds(bmin, bmax) {
			return false
		}
	}

	state.invalidateCache()
	if len(l.worldPositions) > 0 {
		p := l.findClippedPointPlacement(view)
		state.Placement, state.FlippedPlacement = p, p
		if p != nil && len(l.worldVertices) > 0 {
			state.Placement = l.findSnappedLinePlacement(p.Pos, state.Placement)
			state.FlippedPlacement = state.Placement.Reverse()
		}
		return true
	}

	state.Placement = l.findClippedLinePlacement(view)
	state.FlippedPlacement = state.Placement.Reverse()
	return true
}

// getPlacement picks the placement to render with: for line labels the
// original or the flipped run, whichever reads left-to-right under the
// current camera orientation.
func (l *TileLabel) getPlacement(view ViewState, state *LabelPlacementState) *Placement {
	if l.Orientation != LabelOrientationLine {
		return state.Placement
	}
	if state.Placement == nil || len(state.Placement.Edges) == 0 {
		return nil
	}
	camRight := Vec2{float32(view.Orientation[0].X), float32(view.Orientation[0].Y)}
	if state.Placement.Edges[state.Placement.Index].XAxis.Dot(camRight) > 0 {
		return state.Placement
	}
	if state.FlippedPlacement == nil || len(state.FlippedPlacement.Edges) == 0 {
		return nil
	}
	return state.FlippedPlacement
}

// setupCoordinateSystem derives the camera-relative origin and the local
// x/y axes glyph quads are expanded along for the given placement.
func (l *TileLabel) setupCoordinateSystem(view ViewState, placement *Placement) (origin, xAxis, yAxis Vec3) {
	origin = placement.Pos.Sub(view.Origin)
	switch l.Orientation {
	case LabelOrientationBillboard2D:
		xAxis = view.Orientation[0]
		yAxis = Vec3{Z: 1}.Cross(xAxis)
	case LabelOrientationBillboard3D:
		xAxis = view.Orientation[0]
		yAxis = view.Orientation[1]
	case LabelOrientationPoint:
		xAxis = Vec3{X: 1}
		yAxis = Vec3{Y: 1}
	case LabelOrientationPointFlipping:
		s := float64(1)
		if l.Transform != nil {
			dir := Vec3{X: float64(l.Transform.A), Y: float64(l.Transform.C)}
			if dir.Dot(view.Orientation[0]) < 0 {
				s = -1
			}
		} else if view.Orientation[0].X < 0 {
			s = -1
		}
		xAxis = Vec3{X: s}
		yAxis = Vec3{Y: s}
	default: // LabelOrientationLine
		edge := placement.Edges[placement.Index]
		xAxis = Vec3{X: float64(edge.XAxis.X), Y: float64(edge.XAxis.Y)}
		yAxis = Vec3{X: float64(edge.YAxis.X), Y: float64(edge.YAxis.Y)}
	}
	return origin, xAxis, yAxis
}

// CalculateEnvelope computes the label's world-space (camera-relative)
// envelope quad for culling. Line labels derive it from their cached
// vertex data projected onto the placement's principal axes; point-family
// labels expand their glyph bounding box along the placement axes.
func (l *TileLabel) CalculateEnvelope(size float32, view ViewState, state *LabelPlacementState) (envelope [4]Vec3, ok bool) {
	placement := l.getPlacement(view, state)
	scale := size * view.Scale * l.styleScale()
	if placement == nil || scale <= 0 {
		origin := Vec3{Z: -view.Origin.Z}
		for i := range envelope {
			envelope[i] = origin
		}
		return envelope, false
	}

	origin, xAxis, yAxis := l.setupCoordinateSystem(view, placement)

	if l.Orientation == LabelOrientationLine {
		l.ensureLineCache(state, placement, scale)

		minX, maxX := math.Inf(1), math.Inf(-1)
		minY, maxY := math.Inf(1), math.Inf(-1)
		for _, v := range state.cachedVertices {
			pos := origin.Add(Vec3{X: float64(v.X), Y: float64(v.Y)})
			x := xAxis.Dot(pos)
			y := yAxis.Dot(pos)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
		if len(state.cachedVertices) == 0 {
			minX, maxX, minY, maxY = 0, 0, 0, 0
		}

		zAxis := xAxis.Cross(yAxis)
		zOrigin := zAxis.Mul(origin.Dot(zAxis))
		envelope[0] = zOrigin.Add(xAxis.Mul(minX)).Add(yAxis.Mul(minY))
		envelope[1] = zOrigin.Add(xAxis.Mul(maxX)).Add(yAxis.Mul(minY))
		envelope[2] = zOrigin.Add(xAxis.Mul(maxX)).Add(yAxis.Mul(maxY))
		envelope[3] = zOrigin.Add(xAxis.Mul(minX)).Add(yAxis.Mul(maxY))
		return envelope, state.cachedValid
	}

	xAxis = xAxis.Mul(float64(scale))
	yAxis = yAxis.Mul(float64(scale))

	bmin, bmax := l.glyphBounds()
	if l.Transform != nil {
		p00 := transformPoint2D(l.Transform, bmin)
		p10 := transformPoint2D(l.Transform, Vec2{bmax.X, bmin.Y})
		p11 := transformPoint2D(l.Transform, bmax)
		p01 := transformPoint2D(l.Transform, Vec2{bmin.X, bmax.Y})
		envelope[0] = origin.Add(xAxis.Mul(float64(p00.X))).Add(yAxis.Mul(float64(p00.Y)))
		envelope[1] = origin.Add(xAxis.Mul(float64(p10.X))).Add(yAxis.Mul(float64(p10.Y)))
		envelope[2] = origin.Add(xAxis.Mul(float64(p11.X))).Add(yAxis.Mul(float64(p11.Y)))
		envelope[3] = origin.Add(xAxis.Mul(float64(p01.X))).Add(yAxis.Mul(float64(p01.Y)))
	} else {
		envelope[0] = origin.Add(xAxis.Mul(float64(bmin.X))).Add(yAxis.Mul(float64(bmin.Y)))
		envelope[1] = origin.Add(xAxis.Mul(float64(bmax.X))).Add(yAxis.Mul(float64(bmin.Y)))
		envelope[2] = origin.Add(xAxis.Mul(float64(bmax.X))).Add(yAxis.Mul(float64(bmax.Y)))
		envelope[3] = origin.Add(xAxis.Mul(float64(bmin.X))).Add(yAxis.Mul(float64(bmax.Y)))
	}
	return envelope, true
}

// CalculateVertexData appends the label's glyph quads (camera-relative
// positions, atlas texture coordinates, attribs carrying the style index
// and quantized opacity, and offset-adjusted indices) to arrays, rebuilding
// the per-label cache only when (scale, placement) changed.
func (l *TileLabel) CalculateVertexData(size float32, view ViewState, state *LabelPlacementState, styleIndex int, opacity float32, arrays *LabelVertexArrays) bool {
	placement := l.getPlacement(view, state)
	scale := size * view.Scale * l.styleScale()
	if placement == nil || scale <= 0 {
		return false
	}

	offset := uint16(len(arrays.Vertices))
	if l.Orientation == LabelOrientationLine {
		l.ensureLineCache(state, placement, scale)

		origin := placement.Pos.Sub(view.Origin)
		for _, v := range state.cachedVertices {
			arrays.Vertices = append(arrays.Vertices, origin.Add(Vec3{X: float64(v.X), Y: float64(v.Y)}))
		}
	} else {
		if !state.cachedValid {
			l.buildPointVertexData(state)
			state.cachedValid = true
		}

		origin, xAxis, yAxis := l.setupCoordinateSystem(view, placement)
		for _, v := range state.cachedVertices {
			arrays.Vertices = append(arrays.Vertices,
				origin.Add(xAxis.Mul(float64(v.X*scale))).Add(yAxis.Mul(float64(v.Y*scale))))
		}
	}

	arrays.TexCoords = append(arrays.TexCoords, state.cachedTexCoords...)

	quantized := int8(opacity * 127)
	for _, attrib := range state.cachedAttribs {
		arrays.Attribs = append(arrays.Attribs, [4]int8{int8(styleIndex), attrib[1], quantized, 0})
	}

	for _, index := range state.cachedIndices {
		arrays.Indices = append(arrays.Indices, index+offset)
	}

	return state.cachedValid
}

func (l *TileLabel) ensureLineCache(state *LabelPlacementState, placement *Placement, scale float32) {
	if scale == state.cachedScale && placement == state.cachedPlacement {
		return
	}
	state.invalidateCache()
	state.cachedValid = l.buildLineVertexData(state, placement, scale)
	state.cachedScale = scale
	state.cachedPlacement = placement
}

// buildPointVertexData lays out glyph quads in label-local units with a
// simple pen walk; the result is placement-independent and scaled at
// emission time.
func (l *TileLabel) buildPointVertexData(state *LabelPlacementState) {
	pen := Vec2{}
	for _, g := range l.Glyphs {
		if g.CodePoint == crCodePoint {
			pen = Vec2{}
		} else if g.CodePoint != spaceCodePoint {
			l.appendGlyphQuad(state, g)

			p0 := pen.Add(Vec2{g.OffsetX, g.OffsetY})
			p2 := p0.Add(Vec2{g.Width, g.Height})
			if l.Transform != nil {
				state.cachedVertices = append(state.cachedVertices,
					transformPoint2D(l.Transform, p0),
					transformPoint2D(l.Transform, Vec2{p2.X, p0.Y}),
					transformPoint2D(l.Transform, p2),
					transformPoint2D(l.Transform, Vec2{p0.X, p2.Y}))
			} else {
				state.cachedVertices = append(state.cachedVertices,
					p0, Vec2{p2.X, p0.Y}, p2, Vec2{p0.X, p2.Y})
			}
		}

		pen.X += g.Advance
	}
}

// buildLineVertexData lays the glyph string along the placement's edge run:
// the pen advances along the current edge in scaled units and, when it
// crosses an edge boundary, rotates by the cosine/sine of the edge
// transition so the next glyph sits on the next segment. Returns false if
// the pen runs off either end of the run.
func (l *TileLabel) buildLineVertexData(state *LabelPlacementState, placement *Placement, scale float32) bool {
	edges := placement.Edges
	edgeIndex := placement.Index
	edgePos := Vec2{}
	edgeLen := edges[edgeIndex].Pos1.Sub(edgePos).Length() / scale

	valid := true
	pen := Vec2{}
	for _, g := range l.Glyphs {
		if g.CodePoint == crCodePoint {
			pen = Vec2{}
			edgeIndex = placement.Index
			edgePos = Vec2{}
			edgeLen = edges[edgeIndex].Pos1.Sub(edgePos).Length() / scale
		} else if g.CodePoint != spaceCodePoint {
			l.appendGlyphQuad(state, g)

			xAxis := edges[edgeIndex].XAxis
			yAxis := edges[edgeIndex].YAxis
			if l.Transform != nil {
				p0 := transformPoint2D(l.Transform, pen.Add(Vec2{g.OffsetX, g.OffsetY})).Mul(scale)
				p1 := transformPoint2D(l.Transform, pen.Add(Vec2{g.OffsetX + g.Width, g.OffsetY})).Mul(scale)
				p2 := transformPoint2D(l.Transform, pen.Add(Vec2{g.OffsetX + g.Width, g.OffsetY + g.Height})).Mul(scale)
				p3 := transformPoint2D(l.Transform, pen.Add(Vec2{g.OffsetX, g.OffsetY + g.Height})).Mul(scale)
				state.cachedVertices = append(state.cachedVertices,
					edgePos.Add(xAxis.Mul(p0.X)).Add(yAxis.Mul(p0.Y)),
					edgePos.Add(xAxis.Mul(p1.X)).Add(yAxis.Mul(p1.Y)),
					edgePos.Add(xAxis.Mul(p2.X)).Add(yAxis.Mul(p2.Y)),
					edgePos.Add(xAxis.Mul(p3.X)).Add(yAxis.Mul(p3.Y)))
			} else {
				p0 := pen.Add(Vec2{g.OffsetX, g.OffsetY}).Mul(scale)
				p3 := pen.Add(Vec2{g.OffsetX + g.Width, g.OffsetY + g.Height}).Mul(scale)
				state.cachedVertices = append(state.cachedVertices,
					edgePos.Add(xAxis.Mul(p0.X)).Add(yAxis.Mul(p0.Y)),
					edgePos.Add(xAxis.Mul(p3.X)).Add(yAxis.Mul(p0.Y)),
					edgePos.Add(xAxis.Mul(p3.X)).Add(yAxis.Mul(p3.Y)),
					edgePos.Add(xAxis.Mul(p0.X)).Add(yAxis.Mul(p3.Y)))
			}
		}

		pen.X += g.Advance

		edgeDir := 0
		if g.CodePoint != spaceCodePoint && g.CodePoint != crCodePoint {
			if g.Advance > 0 {
				edgeDir = 1
			} else {
				edgeDir = -1
			}
		}

		if edgeDir <= 0 && pen.X < 0 {
			for {
				p0 := edges[edgeIndex].Pos0
				length := edgePos.Sub(p0).Length() / scale
				pen.X += length
				edgePos = p0
				if pen.X >= 0 {
					break
				}
				if edgeIndex == 0 {
					valid = false
					break
				}
				edgeIndex--

				if edgeDir < 0 {
					cos := edges[edgeIndex].XAxis.Dot(edges[edgeIndex+1].XAxis)
					sin := edges[edgeIndex].XAxis.Dot(edges[edgeIndex+1].YAxis)
					extra := float32(0)
					if sin < 0 {
						extra = pen.Y + l.Ascent*0.5
					}
					pen.X = cos*pen.X - sin*extra
				}
			}

			edgeLen = edges[edgeIndex].Pos1.Sub(edgePos).Length() / scale
		} else if edgeDir >= 0 && pen.X >= edgeLen {
			for {
				p1 := edges[edgeIndex].Pos1
				length := p1.Sub(edgePos).Length() / scale
				if pen.X < length {
					break
				}
				pen.X -= length
				edgePos = p1
				if edgeIndex+1 >= len(edges) {
					valid = false
					break
				}
				edgeIndex++

				if edgeDir > 0 {
					cos := edges[edgeIndex-1].XAxis.Dot(edges[edgeIndex].XAxis)
					sin := edges[edgeIndex-1].XAxis.Dot(edges[edgeIndex].YAxis)
					extra := float32(0)
					if sin > 0 {
						extra = pen.Y + l.Ascent*0.5
					}
					pen.X = cos*pen.X + sin*extra
				}
			}

			edgeLen = edges[edgeIndex].Pos1.Sub(edgePos).Length() / scale
		}
	}

	return valid
}

// appendGlyphQuad appends the quad's shared texcoords, attribs and indices
// (vertices differ per layout path and are appended by the caller).
func (l *TileLabel) appendGlyphQuad(state *LabelPlacementState, g LabelGlyph) {
	i0 := uint16(len(state.cachedVertices))
	state.cachedIndices = append(state.cachedIndices,
		i0, i0+1, i0+2,
		i0, i0+2, i0+3)

	u0, u1 := int16(g.AtlasX), int16(g.AtlasX+int(g.Width))
	v0, v1 := int16(g.AtlasY), int16(g.AtlasY+int(g.Height))
	state.cachedTexCoords = append(state.cachedTexCoords,
		[2]int16{u0, v1}, [2]int16{u1, v1}, [2]int16{u1, v0}, [2]int16{u0, v0})

	attrib := [4]int8{0, 1, 0, 0}
	state.cachedAttribs = append(state.cachedAttribs, attrib, attrib, attrib, attrib)
}

func (l *TileLabel) findSnappedPointPlacement(position Vec3, prev *Placement) *Placement {
	bestPos := position
	bestDist := math.Inf(1)
	for _, vertex := range l.worldPositions {
		dist := vertex.Sub(position).Length()
		if dist < bestDist {
			bestPos = vertex
			bestDist = dist
		}
	}

	if prev != nil && prev.Pos == bestPos && len(prev.Edges) == 0 {
		return prev
	}
	return &Placement{Pos: bestPos}
}

func (l *TileLabel) findSnappedLinePlacement(position Vec3, prev *Placement) *Placement {
	bestIndex := 0
	var bestVertices []Vec3
	bestPos := position
	bestDist := math.Inf(1)
	for _, vertices := range l.worldVertices {
		for j := 1; j < len(vertices); j++ {
			edgeVec := vertices[j].Sub(vertices[j-1])
			edgeLen2 := edgeVec.Dot(edgeVec)
			if edgeLen2 == 0 {
				continue
			}
			t := edgeVec.Dot(position.Sub(vertices[j-1])) / edgeLen2
			edgePos := vertices[j-1].Add(edgeVec.Mul(math.Max(0, math.Min(1, t))))
			weight := 1.0/float64(j) + 1.0/float64(len(vertices)-j) // favor positions far from endpoints, will result in more stable placements
			dist := edgePos.Sub(position).Length() * weight
			if dist < bestDist {
				bestIndex = j - 1
				bestVertices = vertices
				bestPos = edgePos
				bestDist = dist
			}
		}
	}
	if bestVertices == nil {
		return nil
	}

	edges := make([]PlacementEdge, 0, len(bestVertices)-1)
	for j := 1; j < len(bestVertices); j++ {
		edges = append(edges, newPlacementEdge(bestVertices[j-1], bestVertices[j], bestPos))
	}

	// Keep only the relatively straight part around the snapped position,
	// to avoid distorted glyph runs.
	summedAngle := float64(0)
	j0, j1 := bestIndex, bestIndex+1
	for {
		r0 := false
		if j0 > 0 {
			angle := edgeAngle(edges[j0-1], edges[j0])
			if angle < MaxSingleSegmentAngle && angle+summedAngle < MaxSummedSegmentAngle {
				summedAngle += angle
				j0--
				r0 = true
			}
		}

		r1 := false
		if j1 < len(edges) {
			angle := edgeAngle(edges[j1-1], edges[j1])
			if angle < MaxSingleSegmentAngle && angle+summedAngle < MaxSummedSegmentAngle {
				summedAngle += angle
				j1++
				r1 = true
			}
		}

		if !r0 && !r1 {
			edges = edges[j0:j1]
			bestIndex -= j0
			break
		}
	}

	if prev != nil && prev.Index == bestIndex && prev.Pos == bestPos && len(prev.Edges) == len(edges) {
		return prev
	}
	return newPlacement(edges, bestIndex, bestPos)
}

func edgeAngle(e1, e2 PlacementEdge) float64 {
	cos := float64(e1.XAxis.Dot(e2.XAxis))
	return math.Acos(math.Min(1, math.Max(-1, cos)))
}

func (l *TileLabel) findClippedPointPlacement(view ViewState) *Placement {
	bmin, bmax := l.transformedBounds()
	scale := l.styleScale() * view.Scale

	for _, vertex := range l.worldPositions {
		// Expand each frustum plane by the glyph bounding box scaled to
		// world units, so a label pokes into view slightly before its
		// anchor itself does.
		inside := true
		for plane := 0; plane < 6; plane++ {
			var size float32
			switch plane {
			case frustumPlaneLeft:
				size = -bmin.X / view.aspectOrOne()
			case frustumPlaneRight:
				size = bmax.X / view.aspectOrOne()
			case frustumPlaneBottom:
				size = -bmin.Y
			case frustumPlaneTop:
				size = bmax.Y
			}
			if view.Frustum.PlaneDistance(plane, vertex) < -float64(size*scale) {
				inside = false
				break
			}
		}
		if inside {
			return &Placement{Pos: vertex}
		}
	}
	return nil
}

// polylineCut is a clip position along a polyline: segment index plus a
// fractional offset inside it, ordered lexicographically.
type polylineCut struct {
	index int
	frac  float64
}

func (c polylineCut) less(other polylineCut) bool {
	if c.index != other.index {
		return c.index < other.index
	}
	return c.frac < other.frac
}

func maxCut(a, b polylineCut) polylineCut {
	if a.less(b) {
		return b
	}
	return a
}

func minCut(a, b polylineCut) polylineCut {
	if b.less(a) {
		return b
	}
	return a
}

func (l *TileLabel) findClippedLinePlacement(view ViewState) *Placement {
	// Split each polyline into relatively straight runs.
	var splitVerticesList [][]Vec3
	for _, vertices := range l.worldVertices {
		i0 := 0
		summedAngle := float64(0)
		lastEdgeVec := Vec3{}
		for i := 1; i < len(vertices); i++ {
			edgeVec := vertices[i].Sub(vertices[i-1]).Normalize()
			if lastEdgeVec != (Vec3{}) {
				cos := edgeVec.Dot(lastEdgeVec)
				angle := math.Acos(math.Min(1, math.Max(-1, cos)))
				summedAngle += angle
				if angle > MaxSingleSegmentAngle || summedAngle > MaxSummedSegmentAngle {
					splitVerticesList = append(splitVerticesList, vertices[i0:i])
					i0 = i - 1
					summedAngle = 0
				}
			}
			lastEdgeVec = edgeVec
		}
		splitVerticesList = append(splitVerticesList, vertices[i0:])
	}

	// Clip each run against the frustum; among runs long enough to fit
	// the glyph string plus the extra placement margin, keep the longest
	// and center the label on it.
	bestLen := float64(0)
	if l.Orientation == LabelOrientationLine {
		bmin, bmax := l.glyphBounds()
		bestLen = float64((bmax.X - bmin.X + ExtraPlacementPixels) * l.styleScale() * view.Scale)
	}
	var bestPlacement *Placement
	for _, vertices := range splitVerticesList {
		if len(vertices) < 2 {
			continue
		}

		t0 := polylineCut{0, 0}
		t1 := polylineCut{len(vertices) - 2, 1}
		for plane := 0; plane < 6; plane++ {
			if t1.less(t0) {
				break
			}
			prevDist := view.Frustum.PlaneDistance(plane, vertices[t0.index])
			for i := t0.index; i <= t1.index; i++ {
				nextDist := view.Frustum.PlaneDistance(plane, vertices[i+1])
				if nextDist > 0 && prevDist < 0 {
					t0 = maxCut(t0, polylineCut{i, 1 - nextDist/(nextDist-prevDist)})
				} else if nextDist < 0 && prevDist > 0 {
					t1 = minCut(t1, polylineCut{i, 1 - nextDist/(nextDist-prevDist)})
				} else if nextDist < 0 && prevDist < 0 {
					t0 = maxCut(t0, polylineCut{i + 1, 0})
				}
				prevDist = nextDist
			}
		}
		if !t0.less(t1) {
			continue
		}

		clippedEndpoint := func(i int) (Vec3, Vec3) {
			p0 := vertices[i]
			if i == t0.index {
				p0 = vertices[i].Mul(1 - t0.frac).Add(vertices[i+1].Mul(t0.frac))
			}
			p1 := vertices[i+1]
			if i == t1.index {
				p1 = vertices[i].Mul(1 - t1.frac).Add(vertices[i+1].Mul(t1.frac))
			}
			return p0, p1
		}

		length := float64(0)
		for i := t0.index; i <= t1.index; i++ {
			p0, p1 := clippedEndpoint(i)
			length += p1.Sub(p0).Length()
		}
		if length <= bestLen {
			continue
		}

		// Walk to the clipped run's midpoint so the glyph string is
		// centered between the two clipped endpoints.
		ofs := length * 0.5
		for i := t0.index; i <= t1.index; i++ {
			p0, p1 := clippedEndpoint(i)
			diff := p1.Sub(p0).Length()
			if ofs < diff {
				pos := p0.Add(p1.Sub(p0).Mul(ofs / diff))
				edges := make([]PlacementEdge, 0, len(vertices)-1)
				for j := 1; j < len(vertices); j++ {
					edges = append(edges, newPlacementEdge(vertices[j-1], vertices[j], pos))
				}
				bestPlacement = newPlacement(edges, i, pos)
				bestLen = length
				break
			}
			ofs -= diff
		}
	}
	return bestPlacement
}
