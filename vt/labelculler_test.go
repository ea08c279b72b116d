package vt

import "testing"

func quadAt(x, y, halfW, halfH float32) ScreenQuad {
	return ScreenQuad{Corners: [4]Vec2{
		{x - halfW, y - halfH},
		{x + halfW, y - halfH},
		{x + halfW, y + halfH},
		{x - halfW, y + halfH},
	}}
}

func candidate(id int64, layer int, quad ScreenQuad) CandidateLabel {
	return CandidateLabel{
		Label:  &TileLabel{GlobalID: id, LayerIndex: layer},
		Quad:   quad,
		InView: true,
	}
}

func fullOpacity(*TileLabel) float32 { return 1 }

func TestCullAcceptsNonOverlapping(t *testing.T) {
	culler := NewTileLabelCuller(800, 600)
	accepted := culler.Cull([]CandidateLabel{
		candidate(1, 0, quadAt(100, 100, 20, 10)),
		candidate(2, 0, quadAt(300, 300, 20, 10)),
	}, fullOpacity)
	if len(accepted) != 2 {
		t.Fatalf("accepted %d labels, want 2", len(accepted))
	}
}

func TestCullRejectsOverlapAgainstHigherPriority(t *testing.T) {
	culler := NewTileLabelCuller(800, 600)
	accepted := culler.Cull([]CandidateLabel{
		candidate(1, 0, quadAt(100, 100, 20, 10)),
		candidate(2, 5, quadAt(110, 100, 20, 10)), // overlaps, higher layer priority
	}, fullOpacity)
	if len(accepted) != 1 {
		t.Fatalf("accepted %d labels, want 1", len(accepted))
	}
	if accepted[0].Label.GlobalID != 2 {
		t.Errorf("surviving label = %d, want the higher-priority 2", accepted[0].Label.GlobalID)
	}
}

func TestCullRotatedQuadsSeparatedBySAT(t *testing.T) {
	// Two diamonds whose axis-aligned bounding boxes overlap but which a
	// separating axis cleanly divides.
	diamond := func(cx, cy, r float32) ScreenQuad {
		return ScreenQuad{Corners: [4]Vec2{
			{cx, cy - r}, {cx + r, cy}, {cx, cy + r}, {cx - r, cy},
		}}
	}
	culler := NewTileLabelCuller(800, 600)
	accepted := culler.Cull([]CandidateLabel{
		candidate(1, 0, diamond(100, 100, 20)),
		candidate(2, 0, diamond(130, 130, 20)),
	}, fullOpacity)
	if len(accepted) != 2 {
		t.Fatalf("accepted %d labels, want 2: diagonal diamonds do not overlap", len(accepted))
	}
}

func TestCullIgnoresOutOfViewCandidates(t *testing.T) {
	culler := NewTileLabelCuller(800, 600)
	out := candidate(1, 0, quadAt(100, 100, 20, 10))
	out.InView = false
	accepted := culler.Cull([]CandidateLabel{out}, fullOpacity)
	if len(accepted) != 0 {
		t.Fatalf("accepted %d labels, want 0 for out-of-view candidates", len(accepted))
	}
}

func TestCullGroupDistanceSuppression(t *testing.T) {
	// Two same-group labels 80 world units apart with a 100-unit minimum:
	// exactly one survives, even though their screen quads do not overlap.
	a := candidate(1, 0, quadAt(100, 100, 10, 5))
	a.Label.GroupID = 42
	a.Label.MinimumGroupDistance = 100
	a.WorldXY = Vec2{0, 0}

	b := candidate(2, 0, quadAt(400, 400, 10, 5))
	b.Label.GroupID = 42
	b.Label.MinimumGroupDistance = 100
	b.WorldXY = Vec2{80, 0}

	culler := NewTileLabelCuller(800, 600)
	accepted := culler.Cull([]CandidateLabel{a, b}, fullOpacity)
	if len(accepted) != 1 {
		t.Fatalf("accepted %d labels, want exactly 1 under group-distance suppression", len(accepted))
	}
}

func TestCullDifferentGroupsUnaffectedByDistance(t *testing.T) {
	a := candidate(1, 0, quadAt(100, 100, 10, 5))
	a.Label.GroupID = 42
	a.Label.MinimumGroupDistance = 100
	a.WorldXY = Vec2{0, 0}

	b := candidate(2, 0, quadAt(400, 400, 10, 5))
	b.Label.GroupID = 43
	b.Label.MinimumGroupDistance = 100
	b.WorldXY = Vec2{80, 0}

	culler := NewTileLabelCuller(800, 600)
	accepted := culler.Cull([]CandidateLabel{a, b}, fullOpacity)
	if len(accepted) != 2 {
		t.Fatalf("accepted %d labels, want 2 for distinct groups", len(accepted))
	}
}
