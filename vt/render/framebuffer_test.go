package render

import (
	"math"
	"testing"

	"github.com/cartogl/carto/vt"
	"github.com/gogpu/gputypes"
)

func approxColor(got, want vt.Color, tol float64) bool {
	return math.Abs(got.R-want.R) <= tol &&
		math.Abs(got.G-want.G) <= tol &&
		math.Abs(got.B-want.B) <= tol &&
		math.Abs(got.A-want.A) <= tol
}

func TestFramebufferFillAtRoundTrip(t *testing.T) {
	f := NewFramebuffer(4, 4)
	want := vt.Color{R: 0.25, G: 0.5, B: 0.75, A: 1}
	f.Fill(want)
	if got := f.At(2, 2); !approxColor(got, want, 1.0/255) {
		t.Errorf("At = %+v, want %+v", got, want)
	}
	if f.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v, want RGBA8Unorm", f.Format())
	}
}

func TestFramebufferBlendPixelSourceOver(t *testing.T) {
	f := NewFramebuffer(2, 2)
	f.Fill(vt.Color{R: 1, G: 1, B: 1, A: 1})
	f.BlendPixel(0, 0, vt.Color{R: 1, A: 0.5})

	got := f.At(0, 0)
	want := vt.Color{R: 1, G: 0.5, B: 0.5, A: 1}
	if !approxColor(got, want, 2.0/255) {
		t.Errorf("half-alpha red over white = %+v, want %+v", got, want)
	}
}

func TestFramebufferBoundsAreSafe(t *testing.T) {
	f := NewFramebuffer(2, 2)
	f.BlendPixel(-1, 0, vt.Color{R: 1, A: 1})
	f.BlendPixel(0, 5, vt.Color{R: 1, A: 1})
	if got := f.At(-1, 0); got != (vt.Color{}) {
		t.Errorf("out-of-bounds At = %+v, want transparent black", got)
	}
}

func TestCompositeSrcOver(t *testing.T) {
	dst := NewFramebuffer(1, 1)
	dst.Fill(vt.Color{R: 1, G: 1, B: 1, A: 1})
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{B: 1, A: 1})

	dst.Composite(src, vt.CompOpSrcOver)
	if got := dst.At(0, 0); !approxColor(got, vt.Color{B: 1, A: 1}, 1.0/255) {
		t.Errorf("opaque src-over = %+v, want the source color", got)
	}
}

func TestCompositeSrcInWithTransparentDst(t *testing.T) {
	dst := NewFramebuffer(1, 1) // transparent black
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 1, A: 1})

	dst.Composite(src, vt.CompOpSrcIn)
	if got := dst.At(0, 0); got != (vt.Color{}) {
		t.Errorf("src-in over transparent dst = %+v, want transparent", got)
	}
}

func TestCompositeMultiplyDarkensAgainstWhite(t *testing.T) {
	dst := NewFramebuffer(1, 1)
	dst.Fill(vt.Color{R: 1, G: 1, B: 1, A: 1})
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 0.5, G: 0.5, B: 0.5, A: 1})

	dst.Composite(src, vt.CompOpMultiply)
	got := dst.At(0, 0)
	want := vt.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	if !approxColor(got, want, 2.0/255) {
		t.Errorf("multiply gray x white = %+v, want %+v", got, want)
	}
}

func TestCompositeScreenLightens(t *testing.T) {
	dst := NewFramebuffer(1, 1)
	dst.Fill(vt.Color{R: 0.5, G: 0.5, B: 0.5, A: 1})
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 0.5, G: 0.5, B: 0.5, A: 1})

	dst.Composite(src, vt.CompOpScreen)
	got := dst.At(0, 0)
	want := vt.Color{R: 0.75, G: 0.75, B: 0.75, A: 1}
	if !approxColor(got, want, 2.0/255) {
		t.Errorf("screen gray over gray = %+v, want %+v", got, want)
	}
}

func TestCompositeDarkenLightenPickExtremes(t *testing.T) {
	base := func() *Framebuffer {
		f := NewFramebuffer(1, 1)
		f.Fill(vt.Color{R: 0.25, G: 0.75, B: 0.5, A: 1})
		return f
	}
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 0.75, G: 0.25, B: 0.5, A: 1})

	dark := base()
	dark.Composite(src, vt.CompOpDarken)
	if got := dark.At(0, 0); !approxColor(got, vt.Color{R: 0.25, G: 0.25, B: 0.5, A: 1}, 2.0/255) {
		t.Errorf("darken = %+v, want per-channel minimum", got)
	}

	light := base()
	light.Composite(src, vt.CompOpLighten)
	if got := light.At(0, 0); !approxColor(got, vt.Color{R: 0.75, G: 0.75, B: 0.5, A: 1}, 2.0/255) {
		t.Errorf("lighten = %+v, want per-channel maximum", got)
	}
}

func TestCompositePlusSaturates(t *testing.T) {
	dst := NewFramebuffer(1, 1)
	dst.Fill(vt.Color{R: 0.75, G: 0.75, B: 0.75, A: 1})
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 0.75, G: 0.75, B: 0.75, A: 1})

	dst.Composite(src, vt.CompOpPlus)
	if got := dst.At(0, 0); !approxColor(got, vt.Color{R: 1, G: 1, B: 1, A: 1}, 1.0/255) {
		t.Errorf("plus = %+v, want clamped to white", got)
	}
}

func TestCompositeMinusSubtracts(t *testing.T) {
	dst := NewFramebuffer(1, 1)
	dst.Fill(vt.Color{R: 1, G: 1, B: 1, A: 1})
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 0.5, G: 0.5, B: 0.5, A: 0})

	dst.Composite(src, vt.CompOpMinus)
	pix := dst.Pixels()
	for i := 0; i < 3; i++ {
		if pix[i] != 255 {
			t.Errorf("channel %d = %d, want untouched 255 when subtracting zero-alpha src", i, pix[i])
		}
	}
}

func TestCompositeZeroClears(t *testing.T) {
	dst := NewFramebuffer(1, 1)
	dst.Fill(vt.Color{R: 1, G: 1, B: 1, A: 1})
	src := NewFramebuffer(1, 1)
	src.Fill(vt.Color{R: 1, A: 1})

	dst.Composite(src, vt.CompOpZero)
	if got := dst.At(0, 0); got != (vt.Color{}) {
		t.Errorf("zero op = %+v, want transparent black", got)
	}
}
