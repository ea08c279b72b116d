package vt

import "math"

// ViewState snapshots everything a style's UnaryFunction evaluators and the
// label culler need to know about the current camera: the fractional zoom
// level, the derived tile-to-pixel scale, the aspect ratio, the camera's
// world-space origin, its view frustum, and its orientation basis.
type ViewState struct {
	Zoom        float32
	Scale       float32
	Aspect      float32
	Origin      Vec3
	Frustum     Frustum
	Orientation [3]Vec3

	// ViewProj is the combined projection*camera matrix used to project
	// world positions to normalized device coordinates. A zero value is
	// treated as identity so hand-built view states stay usable.
	ViewProj Mat4
}

// aspectOrOne guards divisions for view states built without an aspect.
func (vs ViewState) aspectOrOne() float32 {
	if vs.Aspect == 0 {
		return 1
	}
	return vs.Aspect
}

// WorldToNDC projects a world position through the combined view
// projection, falling back to identity when none was set.
func (vs ViewState) WorldToNDC(p Vec3) Vec3 {
	if vs.ViewProj == (Mat4{}) {
		return p
	}
	return vs.ViewProj.TransformPoint(p)
}

// NewViewState derives a ViewState from a projection matrix, a camera
// (view) matrix, the fractional zoom level, the viewport aspect ratio and
// an additional scale factor applied on top of the zoom-derived scale
// (used to account for display DPI).
func NewViewState(projection, camera Mat4, zoom, aspect, scaleFactor float32) ViewState {
	invCamera := camera.Inverse()
	origin := invCamera.TransformPoint(Vec3{})

	var orientation [3]Vec3
	for i := 0; i < 3; i++ {
		axis := Vec3{}
		switch i {
		case 0:
			axis = Vec3{X: 1}
		case 1:
			axis = Vec3{Y: 1}
		case 2:
			axis = Vec3{Z: 1}
		}
		orientation[i] = invCamera.TransformVector(axis)
	}

	viewProj := projection.Mul(camera)
	return ViewState{
		Zoom:        zoom,
		Scale:       float32(math.Pow(2, float64(-zoom))) * scaleFactor,
		Aspect:      aspect,
		Origin:      origin,
		Frustum:     frustumFromMatrix(viewProj),
		Orientation: orientation,
		ViewProj:    viewProj,
	}
}
