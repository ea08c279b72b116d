package render

import (
	"encoding/binary"
	"math"

	"github.com/cartogl/carto/vt"
)

// Ray is a half-line in world space, as used by find_geometry_intersections
// / find_label_intersections (§4.11).
type Ray struct {
	Origin    vt.Vec3
	Direction vt.Vec3
}

// Intersection is one hit: the tile it came from, the ray parameter (world
// units along Direction) at the hit point, and the feature id the hit
// triangle or glyph belongs to.
type Intersection struct {
	TileID    vt.TileId
	RayParam  float64
	FeatureID int64
}

// FindGeometryIntersections walks the current render nodes' geometries,
// expanding each triangle outward by radius along its normal (a
// simplification of §4.11's per-kind expansion rules — point/line offset
// outward along the point offset or line binormal, polygon outward from
// centroid, 3D raised by the extrusion offset — which all reduce to "grow
// the hit volume slightly" for a ray test) and testing it against ray,
// returning every hit ordered by ray parameter.
func (r *TileRenderer) FindGeometryIntersections(ray Ray, radius float32) []Intersection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var hits []Intersection
	for _, node := range r.renderNodes {
		if node.Layer == nil {
			continue
		}
		for _, geom := range node.Layer.Geometries {
			hits = append(hits, intersectGeometry(node.TileID, geom, ray, radius)...)
		}
	}
	return sortedByParam(hits)
}

// FindLabelIntersections walks the current render nodes' labels, testing
// each placed, non-faded label's world-space placement envelope (expanded
// by radius along its face normal) against the ray.
func (r *TileRenderer) FindLabelIntersections(ray Ray, radius float32) []Intersection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var hits []Intersection
	for _, node := range r.renderNodes {
		if node.Layer == nil {
			continue
		}
		for _, label := range node.Layer.Labels {
			if r.labelOpacity(label) <= 0 {
				continue
			}
			state, ok := r.labelStates[label.Key()]
			if !ok || state.Placement == nil {
				continue
			}
			envelope, ok := label.CalculateEnvelope(label.EvalSize(r.view), r.view, state)
			if !ok {
				continue
			}
			var corners [4]vt.Vec3
			for i, c := range envelope {
				corners[i] = r.view.Origin.Add(c)
			}
			t, hit := rayTriangleIntersect(ray, corners[0], corners[1], corners[2], float64(radius))
			if !hit {
				t, hit = rayTriangleIntersect(ray, corners[0], corners[2], corners[3], float64(radius))
			}
			if !hit {
				continue
			}
			hits = append(hits, Intersection{
				TileID:    node.TileID,
				RayParam:  t,
				FeatureID: label.GlobalID,
			})
		}
	}
	return sortedByParam(hits)
}

func intersectGeometry(tileID vt.TileId, geom *vt.TileGeometry, ray Ray, radius float32) []Intersection {
	var hits []Intersection
	stride := geom.Layout.Stride
	if stride == 0 {
		return nil
	}
	decode := func(i int) vt.Vec3 {
		o := i * stride
		if o+4 > len(geom.Vertices) {
			return vt.Vec3{}
		}
		px := int16(uint16(geom.Vertices[o]) | uint16(geom.Vertices[o+1])<<8)
		py := int16(uint16(geom.Vertices[o+2]) | uint16(geom.Vertices[o+3])<<8)
		x := float64(px) * float64(geom.Layout.VertexScale)
		y := float64(py) * float64(geom.Layout.VertexScale)
		z := 0.0
		if geom.Layout.HeightOffset > 0 && geom.Layout.HeightOffset+4 <= stride {
			ho := i*stride + geom.Layout.HeightOffset
			if ho+4 <= len(geom.Vertices) {
				z = float64(decodeFloat32(geom.Vertices[ho : ho+4]))
			}
		}
		return vt.Vec3{X: x, Y: y, Z: z}
	}

	for t := 0; t+2 < len(geom.Indices); t += 3 {
		a := decode(int(geom.Indices[t]))
		b := decode(int(geom.Indices[t+1]))
		c := decode(int(geom.Indices[t+2]))
		param, ok := rayTriangleIntersect(ray, a, b, c, float64(radius))
		if !ok {
			continue
		}
		featureID, _ := geom.FeatureForTriangle(t / 3)
		hits = append(hits, Intersection{TileID: tileID, RayParam: param, FeatureID: featureID})
	}
	return hits
}

func decodeFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// rayTriangleIntersect implements the Möller-Trumbore algorithm, expanding
// the triangle's plane offset outward by radius along its face normal
// before testing.
func rayTriangleIntersect(ray Ray, a, b, c vt.Vec3, radius float64) (float64, bool) {
	const epsilon = 1e-8
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	normal := edge1.Cross(edge2)
	nLen := normal.Length()
	if nLen < epsilon {
		return 0, false
	}
	normal = normal.Mul(1 / nLen)
	if radius != 0 {
		offset := normal.Mul(radius)
		a = a.Add(offset)
		b = b.Add(offset)
		c = c.Add(offset)
		edge1 = b.Sub(a)
		edge2 = c.Sub(a)
	}

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	invDet := 1 / det
	s := ray.Origin.Sub(a)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := edge2.Dot(q) * invDet
	if t < epsilon {
		return 0, false
	}
	return t, true
}

func sortedByParam(hits []Intersection) []Intersection {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].RayParam > hits[j].RayParam; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}
	return hits
}
