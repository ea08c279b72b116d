package render

import (
	"github.com/cartogl/carto/vt"
	"github.com/gogpu/gputypes"
)

// Framebuffer is the CPU-side render accumulator the software Recorder
// draws into: the frame's main target, and the per-layer offscreen FBOs
// §4.11 composites through when a layer carries a comp-op. Pixels are
// premultiplied RGBA8 so Composite can apply §4.12's blend-factor algebra
// directly, the same convention a GPU backend's render attachment uses.
type Framebuffer struct {
	width, height int
	pix           []uint8 // premultiplied RGBA, 4 bytes per pixel
}

// NewFramebuffer allocates a transparent-black accumulator, the state the
// §4.12 clear-requiring operators depend on.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{width: width, height: height, pix: make([]uint8, width*height*4)}
}

func (f *Framebuffer) Width() int  { return f.width }
func (f *Framebuffer) Height() int { return f.height }

// Format reports the equivalent GPU texture format, so a host uploading
// the frame as a texture can describe it without guessing.
func (f *Framebuffer) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// Pixels exposes the raw premultiplied RGBA bytes, row-major, for upload.
func (f *Framebuffer) Pixels() []uint8 { return f.pix }

// Fill replaces every pixel with c.
func (f *Framebuffer) Fill(c vt.Color) {
	r, g, b, a := premultiply(c)
	for o := 0; o < len(f.pix); o += 4 {
		f.pix[o], f.pix[o+1], f.pix[o+2], f.pix[o+3] = r, g, b, a
	}
}

// BlendPixel source-over composites a straight-alpha color onto (x, y);
// out-of-bounds coordinates are ignored.
func (f *Framebuffer) BlendPixel(x, y int, c vt.Color) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	sr, sg, sb, sa := premultiply(c)
	if sa == 0 && sr == 0 && sg == 0 && sb == 0 {
		return
	}
	o := (y*f.width + x) * 4
	inv := 255 - uint32(sa)
	f.pix[o] = sat8(uint32(sr) + uint32(f.pix[o])*inv/255)
	f.pix[o+1] = sat8(uint32(sg) + uint32(f.pix[o+1])*inv/255)
	f.pix[o+2] = sat8(uint32(sb) + uint32(f.pix[o+2])*inv/255)
	f.pix[o+3] = sat8(uint32(sa) + uint32(f.pix[o+3])*inv/255)
}

// At returns the straight-alpha color at (x, y); transparent black outside
// the framebuffer bounds.
func (f *Framebuffer) At(x, y int) vt.Color {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return vt.Color{}
	}
	o := (y*f.width + x) * 4
	a := float64(f.pix[o+3]) / 255
	if a == 0 {
		return vt.Color{}
	}
	return vt.Color{
		R: float64(f.pix[o]) / 255 / a,
		G: float64(f.pix[o+1]) / 255 / a,
		B: float64(f.pix[o+2]) / 255 / a,
		A: a,
	}
}

// Composite applies src onto f with the given composition operator. The
// fixed-function operators run the (blend equation, src factor, dst factor)
// triple from CompOp.Blend; the four NeedsShaderBlend operators apply the
// separable blend-mode equation the shader library implements for GPU
// backends.
func (f *Framebuffer) Composite(src *Framebuffer, op vt.CompOp) {
	n := len(f.pix)
	if len(src.pix) < n {
		n = len(src.pix)
	}
	shaderBlend := op.NeedsShaderBlend()
	state := op.Blend()
	for o := 0; o < n; o += 4 {
		s := [4]float64{
			float64(src.pix[o]) / 255,
			float64(src.pix[o+1]) / 255,
			float64(src.pix[o+2]) / 255,
			float64(src.pix[o+3]) / 255,
		}
		d := [4]float64{
			float64(f.pix[o]) / 255,
			float64(f.pix[o+1]) / 255,
			float64(f.pix[o+2]) / 255,
			float64(f.pix[o+3]) / 255,
		}

		var out [4]float64
		if shaderBlend {
			out = blendModePixel(op, s, d)
		} else {
			fs := blendFactorValue(state.SrcFactor, s[3], d[3])
			fd := blendFactorValue(state.DstFactor, s[3], d[3])
			for i := 0; i < 4; i++ {
				if state.Subtract {
					out[i] = d[i]*fd - s[i]*fs
				} else {
					out[i] = s[i]*fs + d[i]*fd
				}
			}
		}

		for i := 0; i < 4; i++ {
			v := out[i]
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			f.pix[o+i] = uint8(v*255 + 0.5)
		}
	}
}

func blendFactorValue(factor vt.BlendFactor, sa, da float64) float64 {
	switch factor {
	case vt.BlendZero:
		return 0
	case vt.BlendOne:
		return 1
	case vt.BlendSrcAlpha:
		return sa
	case vt.BlendOneMinusSrcAlpha:
		return 1 - sa
	case vt.BlendDstAlpha:
		return da
	case vt.BlendOneMinusDstAlpha:
		return 1 - da
	default:
		return 1
	}
}

// blendModePixel implements the four separable blend modes on premultiplied
// channels: the blended term where source and destination overlap, plus the
// usual src-over terms where only one of them covers the pixel.
func blendModePixel(op vt.CompOp, s, d [4]float64) [4]float64 {
	sa, da := s[3], d[3]
	var out [4]float64
	for i := 0; i < 3; i++ {
		var blended float64
		switch op {
		case vt.CompOpMultiply:
			blended = s[i] * d[i]
		case vt.CompOpScreen:
			blended = s[i]*da + d[i]*sa - s[i]*d[i]
		case vt.CompOpDarken:
			blended = minf64(s[i]*da, d[i]*sa)
		case vt.CompOpLighten:
			blended = maxf64(s[i]*da, d[i]*sa)
		}
		out[i] = blended + s[i]*(1-da) + d[i]*(1-sa)
	}
	out[3] = sa + da - sa*da
	return out
}

func premultiply(c vt.Color) (r, g, b, a uint8) {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	ca := clamp(c.A)
	return uint8(clamp(c.R)*ca*255 + 0.5),
		uint8(clamp(c.G)*ca*255 + 0.5),
		uint8(clamp(c.B)*ca*255 + 0.5),
		uint8(ca*255 + 0.5)
}

func sat8(v uint32) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func minf64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
