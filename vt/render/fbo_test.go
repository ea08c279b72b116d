package render

import (
	"testing"

	"github.com/cartogl/carto/vt"
)

func TestRequiresClearSubset(t *testing.T) {
	// §4.12: these operators can draw into an empty accumulator without a
	// preceding clear; everything else needs the accumulator zeroed first.
	noClear := map[vt.CompOp]bool{
		vt.CompOpSrc: true, vt.CompOpSrcOver: true, vt.CompOpDstOver: true,
		vt.CompOpDstAtop: true, vt.CompOpPlus: true, vt.CompOpMinus: true, vt.CompOpLighten: true,
	}
	all := []vt.CompOp{
		vt.CompOpSrc, vt.CompOpSrcOver, vt.CompOpSrcIn, vt.CompOpSrcAtop, vt.CompOpDst,
		vt.CompOpDstOver, vt.CompOpDstIn, vt.CompOpDstAtop, vt.CompOpZero, vt.CompOpPlus,
		vt.CompOpMinus, vt.CompOpMultiply, vt.CompOpScreen, vt.CompOpDarken, vt.CompOpLighten,
	}
	for _, op := range all {
		if got := RequiresClear(op); got == noClear[op] {
			t.Errorf("op %v: RequiresClear = %v, want %v", op, got, !noClear[op])
		}
	}
}
