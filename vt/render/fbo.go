package render

import "github.com/cartogl/carto/vt"

// RequiresClear reports whether a layer's offscreen accumulator FBO must be
// cleared to transparent black before compositing begins. A real GPU
// backend can skip the clear pass for the exempt operators as a bandwidth
// optimization; the software Recorder always allocates a fresh (already
// zeroed) accumulator, so the distinction is moot there, but backends
// reusing a pooled FBO must honor this list (§4.12).
func RequiresClear(op vt.CompOp) bool {
	switch op {
	case vt.CompOpSrc, vt.CompOpSrcOver, vt.CompOpDstOver, vt.CompOpDstAtop,
		vt.CompOpPlus, vt.CompOpMinus, vt.CompOpLighten:
		return false
	default:
		return true
	}
}
