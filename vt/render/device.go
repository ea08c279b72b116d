package render

import (
	"github.com/cartogl/carto/vt"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle is the GPU device seam between the tile renderer and its
// host: the host owns the device/queue and hands them in, the renderer
// never creates one (§5 "GPU objects are owned by the renderer" refers to
// textures and buffers, not the device itself). gpucontext.DeviceProvider
// is the ecosystem interface hosts already implement, so it is adopted
// directly rather than wrapped.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is the DeviceHandle for CPU-only hosts: every accessor
// returns nil and the surface format is undefined, which routes the
// renderer onto the software path.
type NullDeviceHandle struct{}

func (NullDeviceHandle) Device() gpucontext.Device   { return nil }
func (NullDeviceHandle) Queue() gpucontext.Queue     { return nil }
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeSoftware}
}

var _ DeviceHandle = NullDeviceHandle{}

// TextureSpec describes one of the textures the tile renderer allocates on
// a GPU backend: glyph/stroke atlases, per-layer offscreen accumulators and
// decoded raster tile bitmaps. It carries exactly what a wgpu-style
// texture descriptor needs for those three cases.
type TextureSpec struct {
	Label        string
	Width        int
	Height       int
	Format       gputypes.TextureFormat
	RenderTarget bool // usable as a render attachment (layer FBOs)
}

// AtlasTextureSpec describes a single-channel alpha atlas texture (glyph
// or stroke atlas rows are coverage values, not colors).
func AtlasTextureSpec(label string, width, height int) TextureSpec {
	return TextureSpec{
		Label:  label,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatR8Unorm,
	}
}

// LayerFBOSpec describes a per-layer offscreen accumulator matching the
// main target's size, always RGBA since composition operators need full
// color plus alpha.
func LayerFBOSpec(width, height int) TextureSpec {
	return TextureSpec{
		Label:        "layer-fbo",
		Width:        width,
		Height:       height,
		Format:       gputypes.TextureFormatRGBA8Unorm,
		RenderTarget: true,
	}
}

// TileBitmapSpec describes the upload texture for a decoded raster tile or
// marker bitmap. Gray bitmaps upload as single-channel; RGB is widened to
// RGBA at upload since packed 24-bit textures are not portably supported.
func TileBitmapSpec(bmp *vt.TileBitmap) TextureSpec {
	format := gputypes.TextureFormatRGBA8Unorm
	if bmp.Format == vt.TileBitmapGray {
		format = gputypes.TextureFormatR8Unorm
	}
	return TextureSpec{
		Label:  "tile-bitmap",
		Width:  bmp.Width,
		Height: bmp.Height,
		Format: format,
	}
}
