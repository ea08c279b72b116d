package render

import "github.com/cartogl/carto/vt"

// drawLabelBatches turns the culler's accepted candidates into batched
// glyph-quad vertex streams and draws them, flushing whenever a batch
// would exceed MaxLabelBatchVertices (§4.11 step 4). Each label appends
// its cached per-glyph arrays (camera-relative positions, atlas texture
// coordinates, style/opacity attribs) via CalculateVertexData; positions
// are projected to normalized device coordinates here so the Recorder
// stays projection-agnostic.
func (r *TileRenderer) drawLabelBatches(accepted []vt.CandidateLabel) {
	batch := LabelVertexBatch{AtlasGeneration: r.glyphs.Generation()}
	flush := func() {
		if len(batch.Vertices) > 0 {
			r.recorder.DrawLabelBatch(batch, r.view)
		}
		batch = LabelVertexBatch{AtlasGeneration: r.glyphs.Generation()}
	}

	var arrays vt.LabelVertexArrays
	for _, cand := range accepted {
		state := r.labelState(cand.Label.Key())
		opacity := state.Opacity
		size := cand.Label.EvalSize(r.view)

		arrays = vt.LabelVertexArrays{
			Vertices:  arrays.Vertices[:0],
			TexCoords: arrays.TexCoords[:0],
			Attribs:   arrays.Attribs[:0],
			Indices:   arrays.Indices[:0],
		}
		if !cand.Label.CalculateVertexData(size, r.view, state, 0, opacity, &arrays) {
			continue
		}
		if len(arrays.Vertices) == 0 {
			continue
		}

		if len(batch.Vertices)+len(arrays.Vertices) > MaxLabelBatchVertices {
			flush()
		}

		base := uint16(len(batch.Vertices))
		for i, v := range arrays.Vertices {
			ndc := r.view.WorldToNDC(r.view.Origin.Add(v))
			batch.Vertices = append(batch.Vertices, vt.PackedVertex{
				Position:    [2]float32{float32(ndc.X), float32(ndc.Y)},
				Attribs:     arrays.Attribs[i],
				TexCoord:    [2]float32{float32(arrays.TexCoords[i][0]), float32(arrays.TexCoords[i][1])},
				HasTexCoord: true,
			})
		}

		col := cand.Label.ColorFunc.Eval(r.view)
		if col == (vt.Color{}) && !cand.Label.ColorFunc.IsDynamic() {
			col = vt.Color{A: 1}
		}
		col.A *= float64(opacity)
		for q := 0; q < len(arrays.Vertices)/4; q++ {
			batch.Colors = append(batch.Colors, col)
		}

		for _, index := range arrays.Indices {
			batch.Indices = append(batch.Indices, index+base)
		}
	}
	flush()
}
