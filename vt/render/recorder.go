package render

import (
	"github.com/cartogl/carto/vt"
)

// Recorder is the abstract GPU command recorder §4.11 specifies the
// renderer against: buffers, textures, FBOs and a small fixed shader
// library, without committing to a concrete GPU API. TileRenderer calls
// these methods in draw order; a Recorder implementation translates them
// into whatever the backing device actually understands (immediate-mode
// rasterization for the software path, command-buffer recording for a
// real GPU backend).
type Recorder interface {
	// BeginFrame prepares the recorder for a new frame of the given pixel
	// size.
	BeginFrame(width, height int)

	// ClearBackground fills the entire target with a flat color.
	ClearBackground(c vt.Color)

	// DrawBackgroundPattern tiles a pattern bitmap across the entire
	// target.
	DrawBackgroundPattern(pattern *vt.BitmapPattern)

	// BeginLayerFBO switches drawing to an offscreen accumulator for a
	// layer with a composition operator, clearing it first unless op is
	// one of the no-clear-required operators (§4.12).
	BeginLayerFBO(op vt.CompOp)

	// EndLayerFBO composites the current offscreen accumulator onto the
	// main target using op, then restores drawing to the main target.
	EndLayerFBO(op vt.CompOp)

	// WriteStencilForTile confines subsequent geometry draws to the given
	// tile's screen-space footprint, preventing child-tile geometry from
	// leaking across a parent's clip (§4.11). A no-op recorder is
	// permitted to ignore this (stencil is optional per §4.11).
	WriteStencilForTile(id vt.TileId)

	// DrawBitmap draws a textured quad for a decoded raster tile/marker.
	DrawBitmap(bmp *vt.TileBitmap, view vt.ViewState, blend float32)

	// DrawGeometry draws one packed TileGeometry batch with the given
	// view state and effective cross-zoom blend factor.
	DrawGeometry(geom *vt.TileGeometry, view vt.ViewState, blend float32)

	// DrawLabelBatch draws a batch of cached per-label vertex/index
	// arrays sharing one font/bitmap bucket; TileRenderer has already split
	// the batches at MaxLabelBatchVertices (§4.11).
	DrawLabelBatch(batch LabelVertexBatch, view vt.ViewState)

	// EndFrame finalizes the frame; implementations may use this to
	// submit a GPU command buffer.
	EndFrame()
}

// LabelVertexBatch is one flushable chunk of packed label glyph-quad
// vertices sharing an atlas, built by TileRenderer.drawLabelBatches.
type LabelVertexBatch struct {
	AtlasGeneration int
	Vertices        []vt.PackedVertex
	Indices         []uint16
	Colors          []vt.Color
}

// MaxLabelBatchVertices is the flush threshold named in §4.11 ("flushing
// every 32k vertices").
const MaxLabelBatchVertices = 32768
