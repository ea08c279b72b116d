package vt

// LabelOrientation controls how a placed label follows the camera: fully
// screen-aligned, aligned but foreshortened in 3D, pinned to its anchor
// point, flipping to stay upright, or following its source line's tangent.
type LabelOrientation int

const (
	LabelOrientationBillboard2D LabelOrientation = iota
	LabelOrientationBillboard3D
	LabelOrientationPoint
	LabelOrientationPointFlipping
	LabelOrientationLine
)

// PointOrientation controls how a plain (non-label) point marker follows
// the camera.
type PointOrientation int

const (
	PointOrientationBillboard2D PointOrientation = iota
	PointOrientationBillboard3D
	PointOrientationPoint
)

// LineJoinMode selects the geometry generated where two line segments meet.
type LineJoinMode int

const (
	LineJoinNone LineJoinMode = iota
	LineJoinBevel
	LineJoinMiter
	LineJoinRound
)

// LineCapMode selects the geometry generated at a line's open ends.
type LineCapMode int

const (
	LineCapNone LineCapMode = iota
	LineCapSquare
	LineCapRound
)

// Transform2D is an optional 2D affine transform (rotation/skew/scale)
// applied to a style's local geometry before placement, carried as a
// pointer so "no transform" (the common case) costs nothing beyond a nil
// check.
type Transform2D struct {
	A, B, C, D float32
}

// PointStyle renders a bitmap marker at each point feature.
type PointStyle struct {
	CompOp      CompOp
	Orientation PointOrientation
	ColorFunc   ColorFunction
	SizeFunc    FloatFunction
	Image       *BitmapImage
	Transform   *Transform2D
}

// TextStyle renders shaped glyph runs (and an optional background image)
// at each labeled feature, drawn inline rather than placed/culled as a
// label (used for e.g. polygon-interior annotations that don't compete for
// label space).
type TextStyle struct {
	CompOp          CompOp
	Orientation     PointOrientation
	ColorFunc       ColorFunction
	SizeFunc        FloatFunction
	HaloColorFunc   ColorFunction
	HaloRadiusFunc  FloatFunction
	Angle           float32
	BackgroundScale float32
	BackgroundOffset Vec2
	BackgroundImage *BitmapImage
	Transform       *Transform2D
}

// LineStyle renders stroked line geometry, optionally textured with a
// repeating stroke pattern (dashes, railway hatching).
type LineStyle struct {
	CompOp         CompOp
	JoinMode       LineJoinMode
	CapMode        LineCapMode
	ColorFunc      ColorFunction
	WidthFunc      FloatFunction
	StrokePattern  *BitmapPattern
	Transform      *Transform2D
}

// PolygonStyle renders filled polygon geometry, optionally textured with a
// tiling fill pattern.
type PolygonStyle struct {
	CompOp    CompOp
	ColorFunc ColorFunction
	Pattern   *BitmapPattern
	Transform *Transform2D
}

// Polygon3DStyle renders extruded (building) polygon geometry.
type Polygon3DStyle struct {
	ColorFunc ColorFunction
	Transform *Transform2D
}

// BitmapLabelStyle places a bitmap marker as a culled, non-overlapping
// label rather than drawing it unconditionally like PointStyle.
type BitmapLabelStyle struct {
	Orientation LabelOrientation
	ColorFunc   ColorFunction
	SizeFunc    FloatFunction
	Image       *BitmapImage
	Transform   Transform2D
}

// TextLabelStyle places a shaped glyph run as a culled, non-overlapping
// label.
type TextLabelStyle struct {
	Orientation      LabelOrientation
	ColorFunc        ColorFunction
	SizeFunc         FloatFunction
	HaloColorFunc    ColorFunction
	HaloRadiusFunc   FloatFunction
	Angle            float32
	BackgroundScale  float32
	BackgroundOffset Vec2
	BackgroundImage  *BitmapImage
}
