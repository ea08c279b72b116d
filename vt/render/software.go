package render

import (
	"math"

	"github.com/cartogl/carto/vt"
)

// SoftwareRecorder is a CPU Recorder implementation drawing into a
// Framebuffer, used for the test path and for hosts with no GPU device. It
// rasterizes triangles with an edge-function fill rather than going
// through a shader, and implements layer comp-ops with
// Framebuffer.Composite, the CPU mirror of the §4.12 blend-state table a
// GPU backend programs from CompOp.Blend.
type SoftwareRecorder struct {
	target        *Framebuffer
	fboStack      []*Framebuffer
	width, height int
}

// NewSoftwareRecorder constructs a recorder; the target is allocated per
// frame in BeginFrame.
func NewSoftwareRecorder() *SoftwareRecorder {
	return &SoftwareRecorder{}
}

func (s *SoftwareRecorder) BeginFrame(width, height int) {
	s.width, s.height = width, height
	s.target = NewFramebuffer(width, height)
	s.fboStack = nil
}

// Target returns the current frame's main framebuffer, valid after
// EndFrame.
func (s *SoftwareRecorder) Target() *Framebuffer { return s.target }

func (s *SoftwareRecorder) current() *Framebuffer {
	if len(s.fboStack) > 0 {
		return s.fboStack[len(s.fboStack)-1]
	}
	return s.target
}

func (s *SoftwareRecorder) ClearBackground(c vt.Color) {
	s.target.Fill(c)
}

func (s *SoftwareRecorder) DrawBackgroundPattern(pattern *vt.BitmapPattern) {
	if pattern == nil || pattern.Bitmap == nil {
		return
	}
	bmp := pattern.Bitmap
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			px := bmp.At(x%bmp.Width, y%bmp.Height)
			s.target.BlendPixel(x, y, unpackBitmapColor(px))
		}
	}
}

func (s *SoftwareRecorder) BeginLayerFBO(op vt.CompOp) {
	// §4.12: a subset of operators can draw into an empty accumulator
	// without a preceding clear; everything else must start transparent
	// black, which a fresh Framebuffer already guarantees, so no extra
	// branching is required here beyond documenting the contract.
	s.fboStack = append(s.fboStack, NewFramebuffer(s.width, s.height))
}

func (s *SoftwareRecorder) EndLayerFBO(op vt.CompOp) {
	if len(s.fboStack) == 0 {
		return
	}
	fbo := s.fboStack[len(s.fboStack)-1]
	s.fboStack = s.fboStack[:len(s.fboStack)-1]
	s.current().Composite(fbo, op)
}

func (s *SoftwareRecorder) WriteStencilForTile(id vt.TileId) {
	// The software path has no stencil buffer; per §4.11 this is optional
	// and callers must not rely on it for correctness beyond the clip
	// already implied by per-tile draw order.
}

func (s *SoftwareRecorder) DrawBitmap(bmp *vt.TileBitmap, view vt.ViewState, blendFactor float32) {
	target := s.current()
	x0 := int(bmp.Position.X * float32(s.width))
	y0 := int(bmp.Position.Y * float32(s.height))
	w := int(bmp.Size.X * float32(s.width))
	h := int(bmp.Size.Y * float32(s.height))
	if w <= 0 || h <= 0 {
		return
	}
	bpp := bmp.Format.BytesPerPixel()
	for y := 0; y < h; y++ {
		sy := y * bmp.Height / h
		for x := 0; x < w; x++ {
			sx := x * bmp.Width / w
			off := (sy*bmp.Width + sx) * bpp
			if off+bpp > len(bmp.Pixels) {
				continue
			}
			c := decodePixel(bmp.Format, bmp.Pixels[off:off+bpp])
			c.A *= float64(blendFactor)
			target.BlendPixel(x0+x, y0+y, c)
		}
	}
}

func (s *SoftwareRecorder) DrawGeometry(geom *vt.TileGeometry, view vt.ViewState, blendFactor float32) {
	target := s.current()
	stride := geom.Layout.Stride
	if stride == 0 {
		return
	}
	decode := func(i int) (x, y float32) {
		o := i * stride
		if o+4 > len(geom.Vertices) {
			return 0, 0
		}
		px := int16(uint16(geom.Vertices[o]) | uint16(geom.Vertices[o+1])<<8)
		py := int16(uint16(geom.Vertices[o+2]) | uint16(geom.Vertices[o+3])<<8)
		return float32(px) * geom.Layout.VertexScale, float32(py) * geom.Layout.VertexScale
	}

	col := vt.Color{A: 1}
	if geom.Style.NumStyleSlots > 0 {
		col = geom.Style.ColorFuncs[0].Eval(view)
	}
	col.A *= float64(blendFactor)

	for t := 0; t+2 < len(geom.Indices); t += 3 {
		x0, y0 := decode(int(geom.Indices[t]))
		x1, y1 := decode(int(geom.Indices[t+1]))
		x2, y2 := decode(int(geom.Indices[t+2]))
		sx0, sy0 := toScreen(x0, y0, s.width, s.height)
		sx1, sy1 := toScreen(x1, y1, s.width, s.height)
		sx2, sy2 := toScreen(x2, y2, s.width, s.height)
		rasterTriangle(target, sx0, sy0, sx1, sy1, sx2, sy2, col)
	}
}

func (s *SoftwareRecorder) DrawLabelBatch(batch LabelVertexBatch, view vt.ViewState) {
	target := s.current()
	for t := 0; t+2 < len(batch.Indices); t += 3 {
		v0 := batch.Vertices[batch.Indices[t]]
		v1 := batch.Vertices[batch.Indices[t+1]]
		v2 := batch.Vertices[batch.Indices[t+2]]
		sx0, sy0 := toScreen(v0.Position[0], v0.Position[1], s.width, s.height)
		sx1, sy1 := toScreen(v1.Position[0], v1.Position[1], s.width, s.height)
		sx2, sy2 := toScreen(v2.Position[0], v2.Position[1], s.width, s.height)
		col := vt.Color{A: 1}
		idx := batch.Indices[t] / 4
		if int(idx) < len(batch.Colors) {
			col = batch.Colors[idx]
		}
		rasterTriangle(target, sx0, sy0, sx1, sy1, sx2, sy2, col)
	}
}

func (s *SoftwareRecorder) EndFrame() {}

func toScreen(x, y float32, w, h int) (float32, float32) {
	return (x + 1) * 0.5 * float32(w), (1 - (y+1)*0.5) * float32(h)
}

func rasterTriangle(target *Framebuffer, x0, y0, x1, y1, x2, y2 float32, c vt.Color) {
	minX := int(math.Floor(float64(minf3(x0, x1, x2))))
	maxX := int(math.Ceil(float64(maxf3(x0, x1, x2))))
	minY := int(math.Floor(float64(minf3(y0, y1, y2))))
	maxY := int(math.Ceil(float64(maxf3(y0, y1, y2))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	edge := func(ax, ay, bx, by, px, py float32) float32 {
		return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
	}
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx, fy := float32(px)+0.5, float32(py)+0.5
			w0 := edge(x1, y1, x2, y2, fx, fy)
			w1 := edge(x2, y2, x0, y0, fx, fy)
			w2 := edge(x0, y0, x1, y1, fx, fy)
			if (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0) {
				target.BlendPixel(px, py, c)
			}
		}
	}
}

func minf3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxf3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
