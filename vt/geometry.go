package vt

import "math"

// Vec2 is a 2D displacement vector in tile-local or screen units.
type Vec2 struct {
	X, Y float32
}

func V2(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(w Vec2) Vec2    { return Vec2{v.X + w.X, v.Y + w.Y} }
func (v Vec2) Sub(w Vec2) Vec2    { return Vec2{v.X - w.X, v.Y - w.Y} }
func (v Vec2) Mul(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(w Vec2) float32 { return v.X*w.X + v.Y*w.Y }
func (v Vec2) Length() float32    { return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y))) }

// Vec3 is a 3D vector used for camera-space positions and ray directions.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{v.Y*w.Z - v.Z*w.Y, v.Z*w.X - v.X*w.Z, v.X*w.Y - v.Y*w.X}
}
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

func (v Vec3) ToFloat32() [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Mat4 is a column-major 4x4 matrix, the layout expected by
// gputypes-style GPU uniform buffers.
type Mat4 struct {
	M [16]float64
}

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	m := Mat4{}
	m.M[0], m.M[5], m.M[10], m.M[15] = 1, 1, 1, 1
	return m
}

// Mul multiplies two column-major matrices, m * other.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.M[k*4+row] * other.M[col*4+k]
			}
			out.M[col*4+row] = sum
		}
	}
	return out
}

// TransformPoint applies the matrix to a homogeneous point (w=1) and
// performs the perspective divide.
func (m Mat4) TransformPoint(v Vec3) Vec3 {
	x := m.M[0]*v.X + m.M[4]*v.Y + m.M[8]*v.Z + m.M[12]
	y := m.M[1]*v.X + m.M[5]*v.Y + m.M[9]*v.Z + m.M[13]
	z := m.M[2]*v.X + m.M[6]*v.Y + m.M[10]*v.Z + m.M[14]
	w := m.M[3]*v.X + m.M[7]*v.Y + m.M[11]*v.Z + m.M[15]
	if w != 0 && w != 1 {
		return Vec3{x / w, y / w, z / w}
	}
	return Vec3{x, y, z}
}

// TransformVector applies only the matrix's linear part (no translation,
// no perspective divide) — used to rotate camera-orientation basis vectors.
func (m Mat4) TransformVector(v Vec3) Vec3 {
	return Vec3{
		m.M[0]*v.X + m.M[4]*v.Y + m.M[8]*v.Z,
		m.M[1]*v.X + m.M[5]*v.Y + m.M[9]*v.Z,
		m.M[2]*v.X + m.M[6]*v.Y + m.M[10]*v.Z,
	}
}

// Inverse returns the inverse of an affine transform matrix (the last row
// assumed to be 0,0,0,1), computed by inverting the 3x3 linear part and
// the translation. This covers every camera matrix ViewState builds from.
func (m Mat4) Inverse() Mat4 {
	a, b, c := m.M[0], m.M[4], m.M[8]
	d, e, f := m.M[1], m.M[5], m.M[9]
	g, h, i := m.M[2], m.M[6], m.M[10]
	tx, ty, tz := m.M[12], m.M[13], m.M[14]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return Identity4()
	}
	invDet := 1 / det

	r := Mat4{}
	r.M[0] = (e*i - f*h) * invDet
	r.M[4] = (c*h - b*i) * invDet
	r.M[8] = (b*f - c*e) * invDet
	r.M[1] = (f*g - d*i) * invDet
	r.M[5] = (a*i - c*g) * invDet
	r.M[9] = (c*d - a*f) * invDet
	r.M[2] = (d*h - e*g) * invDet
	r.M[6] = (b*g - a*h) * invDet
	r.M[10] = (a*e - b*d) * invDet
	r.M[15] = 1

	r.M[12] = -(r.M[0]*tx + r.M[4]*ty + r.M[8]*tz)
	r.M[13] = -(r.M[1]*tx + r.M[5]*ty + r.M[9]*tz)
	r.M[14] = -(r.M[2]*tx + r.M[6]*ty + r.M[10]*tz)
	return r
}

// Frustum holds the six half-spaces of a view frustum, each as a plane
// (normal, distance) in world space with the normal pointing inward.
// Plane order is left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices, matching the extraction order in
// frustumFromMatrix.
const (
	frustumPlaneLeft = iota
	frustumPlaneRight
	frustumPlaneBottom
	frustumPlaneTop
	frustumPlaneNear
	frustumPlaneFar
)

// PlaneDistance returns the signed distance of p from plane index i;
// positive means inside the half-space.
func (f Frustum) PlaneDistance(i int, p Vec3) float64 {
	return f.Planes[i].Normal.Dot(p) + f.Planes[i].D
}

// Plane is the half-space Normal.Dot(p) + D >= 0.
type Plane struct {
	Normal Vec3
	D      float64
}

// ContainsPoint reports whether p lies inside (or on) every frustum plane.
func (f Frustum) ContainsPoint(p Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Normal.Dot(p)+pl.D < 0 {
			return false
		}
	}
	return true
}

// IntersectsBounds reports whether an axis-aligned box defined by its 8
// corners could be at least partially visible: conservative (errs toward
// "visible") the way GL frustum culling typically does, using the
// box corner most aligned with each plane's normal.
func (f Frustum) IntersectsBounds(min, max Vec3) bool {
	for _, pl := range f.Planes {
		var px, py, pz float64
		if pl.Normal.X >= 0 {
			px = max.X
		} else {
			px = min.X
		}
		if pl.Normal.Y >= 0 {
			py = max.Y
		} else {
			py = min.Y
		}
		if pl.Normal.Z >= 0 {
			pz = max.Z
		} else {
			pz = min.Z
		}
		if pl.Normal.Dot(Vec3{px, py, pz})+pl.D < 0 {
			return false
		}
	}
	return true
}

// frustumFromMatrix extracts the six clip planes of a combined
// projection*view matrix using the standard Gribb/Hartmann row extraction.
func frustumFromMatrix(m Mat4) Frustum {
	row := func(i int) [4]float64 { return [4]float64{m.M[i], m.M[4+i], m.M[8+i], m.M[12+i]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	add := func(a, b [4]float64) [4]float64 {
		return [4]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
	}
	sub := func(a, b [4]float64) [4]float64 {
		return [4]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
	}
	normalize := func(p [4]float64) Plane {
		n := Vec3{p[0], p[1], p[2]}
		l := n.Length()
		if l == 0 {
			return Plane{}
		}
		return Plane{Normal: n.Mul(1 / l), D: p[3] / l}
	}

	var f Frustum
	f.Planes[0] = normalize(add(r3, r0))  // left
	f.Planes[1] = normalize(sub(r3, r0))  // right
	f.Planes[2] = normalize(add(r3, r1))  // bottom
	f.Planes[3] = normalize(sub(r3, r1))  // top
	f.Planes[4] = normalize(add(r3, r2))  // near
	f.Planes[5] = normalize(sub(r3, r2))  // far
	return f
}
