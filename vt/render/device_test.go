package render

import (
	"testing"

	"github.com/cartogl/carto/vt"
	"github.com/gogpu/gputypes"
)

func TestNullDeviceHandleRoutesToSoftware(t *testing.T) {
	var h DeviceHandle = NullDeviceHandle{}
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("null handle must expose no device, queue or adapter")
	}
	if h.SurfaceFormat() != gputypes.TextureFormatUndefined {
		t.Errorf("surface format = %v, want undefined", h.SurfaceFormat())
	}
}

func TestTextureSpecHelpers(t *testing.T) {
	atlas := AtlasTextureSpec("glyph-atlas", 2048, 2048)
	if atlas.Format != gputypes.TextureFormatR8Unorm || atlas.RenderTarget {
		t.Errorf("atlas spec = %+v, want single-channel, not a render target", atlas)
	}

	fbo := LayerFBOSpec(1280, 720)
	if fbo.Format != gputypes.TextureFormatRGBA8Unorm || !fbo.RenderTarget {
		t.Errorf("layer FBO spec = %+v, want RGBA render attachment", fbo)
	}

	gray := TileBitmapSpec(&vt.TileBitmap{Format: vt.TileBitmapGray, Width: 256, Height: 256})
	if gray.Format != gputypes.TextureFormatR8Unorm {
		t.Errorf("gray bitmap spec format = %v, want R8Unorm", gray.Format)
	}
	rgb := TileBitmapSpec(&vt.TileBitmap{Format: vt.TileBitmapRGB, Width: 256, Height: 256})
	if rgb.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("rgb bitmap spec format = %v, want RGBA8Unorm (widened at upload)", rgb.Format)
	}
}
