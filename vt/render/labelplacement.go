package render

import "github.com/cartogl/carto/vt"

// buildLabelCandidates walks this frame's render nodes and produces one
// culling candidate per distinct label key: world geometry is derived from
// the label's tile transform on first sight, placement state is snapped
// onto replacement labels arriving through new tiles, placement is
// refreshed against the current view, and the placement envelope is
// projected to a screen-space quad for the culler's SAT test. A label whose
// key already produced a candidate this frame contributes its geometry
// (via MergeGeometries) instead of a second candidate.
func (r *TileRenderer) buildLabelCandidates(render2D, render3D bool) []vt.CandidateLabel {
	var out []vt.CandidateLabel
	first := make(map[vt.LabelKey]*vt.TileLabel)
	for _, node := range r.renderNodes {
		if node.Layer == nil {
			continue
		}
		for _, label := range node.Layer.Labels {
			is3D := label.Orientation == vt.LabelOrientationBillboard3D
			if is3D && !render3D {
				continue
			}
			if !is3D && !render2D {
				continue
			}

			if !label.HasWorldGeometry() {
				label.TransformGeometry(label.TileID.Matrix())
			}

			key := label.Key()
			if prior, ok := first[key]; ok {
				prior.MergeGeometries(label)
				continue
			}
			first[key] = label

			state := r.labelState(key)
			if state.Label != label {
				if state.Label != nil && state.Placement != nil {
					label.SnapPlacement(state)
				}
				state.Label = label
			}
			label.UpdatePlacement(r.view, state)

			size := label.EvalSize(r.view)
			envelope, ok := label.CalculateEnvelope(size, r.view, state)
			inView := ok && state.Placement != nil

			var worldXY vt.Vec2
			if state.Placement != nil {
				worldXY = vt.Vec2{X: float32(state.Placement.Pos.X), Y: float32(state.Placement.Pos.Y)}
			}

			out = append(out, vt.CandidateLabel{
				Label:   label,
				Quad:    r.envelopeToScreenQuad(envelope),
				WorldXY: worldXY,
				InView:  inView,
			})
		}
	}
	return out
}

// envelopeToScreenQuad projects a camera-relative envelope through the
// view projection into screen pixels.
func (r *TileRenderer) envelopeToScreenQuad(envelope [4]vt.Vec3) vt.ScreenQuad {
	var quad vt.ScreenQuad
	for i, corner := range envelope {
		ndc := r.view.WorldToNDC(r.view.Origin.Add(corner))
		quad.Corners[i] = vt.Vec2{
			X: (float32(ndc.X) + 1) * 0.5 * float32(r.width),
			Y: (1 - (float32(ndc.Y)+1)*0.5) * float32(r.height),
		}
	}
	return quad
}
