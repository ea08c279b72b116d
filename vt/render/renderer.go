package render

import (
	"sync"

	"github.com/cartogl/carto/vt"
)

// TileRenderer drives the per-frame draw passes (§4.11) against a Recorder,
// holding the blend tree, the glyph/stroke/bitmap atlases and the label
// placement state across frames. It is explicitly single-threaded on the
// GPU command thread (§5): every public method takes renderer.mu for its
// duration, so set_visible_tiles may be called from a worker thread between
// frames without external synchronization.
type TileRenderer struct {
	mu sync.Mutex

	recorder Recorder

	blendTree *vt.BlendTree
	glyphs    *vt.GlyphMap
	strokes   *vt.StrokeMap
	bitmaps   *vt.BitmapManager
	culler    *vt.TileLabelCuller

	view            vt.ViewState
	lightDir        vt.Vec3
	backgroundColor vt.Color
	backgroundPat   *vt.BitmapPattern

	width, height int

	// renderNodes is the snapshot taken at the top of startFrame; an
	// in-progress frame never observes a set_visible_tiles call that
	// lands after this snapshot.
	renderNodes []vt.RenderNode

	labelStates map[vt.LabelKey]*vt.LabelPlacementState
}

// NewTileRenderer constructs a renderer drawing through recorder, with
// glyph/stroke atlases at their default sizes.
func NewTileRenderer(recorder Recorder) *TileRenderer {
	return &TileRenderer{
		recorder:    recorder,
		blendTree:   vt.NewBlendTree(),
		glyphs:      vt.NewGlyphMap(2048, 2048),
		strokes:     vt.NewStrokeMap(256, 2048),
		bitmaps:     vt.NewBitmapManager(),
		labelStates: make(map[vt.LabelKey]*vt.LabelPlacementState),
	}
}

// SetViewState updates the camera state used by the next startFrame's
// render nodes and by CandidateLabel placement.
func (r *TileRenderer) SetViewState(vs vt.ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view = vs
}

// SetLightDir sets the directional light used when shading 3D extrusions.
func (r *TileRenderer) SetLightDir(dir vt.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lightDir = dir
}

// SetBackgroundColor sets the flat color drawn as the base of every frame.
func (r *TileRenderer) SetBackgroundColor(c vt.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backgroundColor = c
}

// SetBackgroundPattern sets (or clears, with nil) a tiling background
// pattern drawn over the background color.
func (r *TileRenderer) SetBackgroundPattern(p *vt.BitmapPattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backgroundPat = p
}

// SetVisibleTiles updates the blend tree's visible-tile set; safe to call
// from a worker thread between frames (§5).
func (r *TileRenderer) SetVisibleTiles(tiles map[vt.TileId]*vt.Tile, blend bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blendTree.SetVisibleTiles(tiles, blend)
}

// StartFrame advances blend-node blends and label opacities by dt, reacts
// to a viewport resize by discarding layer FBOs (the software Recorder does
// this implicitly by allocating a fresh accumulator per BeginLayerFBO call,
// so only the recorder's frame size needs updating here), and snapshots the
// blend tree into the render-node list this frame will draw from.
func (r *TileRenderer) StartFrame(dt float32, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blendTree.Advance(dt)

	r.width, r.height = width, height
	r.recorder.BeginFrame(width, height)

	r.renderNodes = vt.BuildRenderNodes(r.blendTree.Snapshot())
	r.advanceLabelOpacities(dt)
}

// advanceLabelOpacities applies this frame's dt to every label's persisted
// fade state exactly once: labels present in this frame's render nodes
// fade toward the culler's last visibility decision for them, every other
// tracked label fades toward invisible and is forgotten once fully faded
// (§4.10 "visibility fades").
func (r *TileRenderer) advanceLabelOpacities(dt float32) {
	seen := make(map[vt.LabelKey]bool)
	for _, node := range r.renderNodes {
		if node.Layer == nil {
			continue
		}
		for _, label := range node.Layer.Labels {
			key := label.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			state := r.labelState(key)
			state.Advance(dt, state.Visible)
		}
	}
	for key, state := range r.labelStates {
		if seen[key] {
			continue
		}
		state.Advance(dt, false)
		if state.Opacity == 0 {
			delete(r.labelStates, key)
		}
	}
}

// RenderGeometry2D draws the background then each 2D render node in layer
// order, binding a per-layer offscreen FBO for any layer with a CompOp
// (§4.11 step 2). It reports whether any render node is still mid cross-
// zoom blend, which the caller should use to schedule another frame.
func (r *TileRenderer) RenderGeometry2D() (stillBlending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recorder.ClearBackground(r.backgroundColor)
	if r.backgroundPat != nil {
		r.recorder.DrawBackgroundPattern(r.backgroundPat)
	}

	for _, node := range r.renderNodes {
		if node.Layer == nil {
			continue
		}
		r.drawRenderNode(node, false)
		if node.InitialBlend < 1 {
			stillBlending = true
		}
	}
	return stillBlending
}

// RenderGeometry3D draws extrusion geometry into an overlay FBO, then
// blends it over the main target (§4.11 step 3). The software Recorder has
// no depth buffer, so extrusions are simply drawn back-to-front in layer
// order; a GPU Recorder is expected to enable a depth test for this pass.
// Reports whether any render node is still mid cross-zoom blend.
func (r *TileRenderer) RenderGeometry3D() (stillBlending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op := vt.CompOpSrcOver
	r.recorder.BeginLayerFBO(op)
	for _, node := range r.renderNodes {
		if node.Layer == nil {
			continue
		}
		r.drawRenderNode(node, true)
		if node.InitialBlend < 1 {
			stillBlending = true
		}
	}
	r.recorder.EndLayerFBO(op)
	return stillBlending
}

func (r *TileRenderer) drawRenderNode(node vt.RenderNode, only3D bool) {
	layer := node.Layer
	op := vt.CompOpSrcOver
	usesFBO := layer.CompOp != nil
	if usesFBO {
		op = *layer.CompOp
		r.recorder.BeginLayerFBO(op)
	} else {
		r.recorder.WriteStencilForTile(node.TileID)
	}

	for _, bmp := range layer.Bitmaps {
		r.recorder.DrawBitmap(bmp, r.view, node.EffectiveBlend)
	}
	for _, geom := range layer.Geometries {
		is3D := geom.Kind == vt.GeometryPolygon3D
		if is3D != only3D {
			continue
		}
		r.recorder.DrawGeometry(geom, r.view, node.EffectiveBlend)
	}

	if usesFBO {
		r.recorder.EndLayerFBO(op)
	}
}

// RenderLabels builds batched vertex streams per font/bitmap bucket from
// every label's cached per-label arrays, culls overlapping labels, and
// draws the survivors, flushing at MaxLabelBatchVertices (§4.11 step 4).
// render2D/render3D select which orientation of label to draw this pass.
// Reports whether any label fade is still in progress.
func (r *TileRenderer) RenderLabels(render2D, render3D bool) (stillFading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := r.buildLabelCandidates(render2D, render3D)
	culler := vt.NewTileLabelCuller(float32(r.width), float32(r.height))
	r.culler = culler

	accepted := culler.Cull(candidates, func(l *vt.TileLabel) float32 {
		return r.labelOpacity(l)
	})

	acceptedKeys := make(map[vt.LabelKey]bool, len(accepted))
	for _, cand := range accepted {
		acceptedKeys[cand.Label.Key()] = true
	}
	for _, cand := range candidates {
		r.labelState(cand.Label.Key()).Visible = acceptedKeys[cand.Label.Key()]
	}

	for _, state := range r.labelStates {
		if (state.Visible && state.Opacity < 1) || (!state.Visible && state.Opacity > 0) {
			stillFading = true
			break
		}
	}

	r.drawLabelBatches(accepted)
	return stillFading
}

func (r *TileRenderer) labelState(key vt.LabelKey) *vt.LabelPlacementState {
	state, ok := r.labelStates[key]
	if !ok {
		state = &vt.LabelPlacementState{}
		r.labelStates[key] = state
	}
	return state
}

func (r *TileRenderer) labelOpacity(l *vt.TileLabel) float32 {
	if state, ok := r.labelStates[l.Key()]; ok {
		return state.Opacity
	}
	return 0
}

// EndFrame finalizes the frame (§4.11 step 5). GPU resource reclamation is
// the Recorder's responsibility; the software Recorder has nothing to
// release since it allocates per-frame targets.
func (r *TileRenderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder.EndFrame()
}
