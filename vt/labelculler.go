package vt

import "sort"

// GridResolution is the number of buckets per axis the label culler hashes
// screen-space envelopes into (§4.10).
const GridResolution = 64

// ScreenQuad is a label's screen-space envelope: four corners in
// clockwise order, used by the SAT overlap test.
type ScreenQuad struct {
	Corners [4]Vec2
}

// CandidateLabel is everything the culler needs about one label for this
// frame: its identity/priority, its placement-derived screen envelope, its
// world position (for group-distance checks) and whether it is currently
// within the view (a label outside the view is never placed at all).
type CandidateLabel struct {
	Label   *TileLabel
	Quad    ScreenQuad
	WorldXY Vec2
	InView  bool
}

// TileLabelCuller rejects labels that collide with a higher-priority
// neighbor already accepted this frame, using a screen-space bucket grid
// to bound the number of pairwise SAT tests, plus a same-group minimum
// world-space distance rule (§4.10).
type TileLabelCuller struct {
	screenWidth, screenHeight float32
	grid                      [][]int // GridResolution*GridResolution buckets of accepted-label indices
	accepted                  []CandidateLabel
}

// NewTileLabelCuller prepares a culler for a screenWidth x screenHeight
// viewport.
func NewTileLabelCuller(screenWidth, screenHeight float32) *TileLabelCuller {
	return &TileLabelCuller{
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		grid:         make([][]int, GridResolution*GridResolution),
	}
}

// Cull sorts candidates by (priority desc, opacity desc) and inserts them
// one by one, accepting each unless it overlaps (via SAT) an already
// accepted label, or violates the minimum group distance against an
// already-accepted same-group label. Returns the accepted subset, in
// insertion order.
func (c *TileLabelCuller) Cull(candidates []CandidateLabel, opacity func(*TileLabel) float32) []CandidateLabel {
	c.grid = make([][]int, GridResolution*GridResolution)
	c.accepted = c.accepted[:0]

	sorted := make([]CandidateLabel, 0, len(candidates))
	for _, cand := range candidates {
		if cand.InView {
			sorted = append(sorted, cand)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Label.LayerIndex, sorted[j].Label.LayerIndex
		if pi != pj {
			return pi > pj
		}
		return opacity(sorted[i].Label) > opacity(sorted[j].Label)
	})

	for _, cand := range sorted {
		if c.collides(cand) {
			continue
		}
		if c.violatesGroupDistance(cand) {
			continue
		}
		idx := len(c.accepted)
		c.accepted = append(c.accepted, cand)
		c.insertIntoGrid(cand.Quad, idx)
	}
	return c.accepted
}

func (c *TileLabelCuller) bucketsFor(q ScreenQuad) (minBX, minBY, maxBX, maxBY int) {
	minX, minY := q.Corners[0].X, q.Corners[0].Y
	maxX, maxY := minX, minY
	for _, p := range q.Corners[1:] {
		minX, maxX = minf(minX, p.X), maxf(maxX, p.X)
		minY, maxY = minf(minY, p.Y), maxf(maxY, p.Y)
	}
	toBucket := func(v, size float32) int {
		if size <= 0 {
			return 0
		}
		b := int(v / size * GridResolution)
		if b < 0 {
			b = 0
		}
		if b >= GridResolution {
			b = GridResolution - 1
		}
		return b
	}
	minBX, maxBX = toBucket(minX, c.screenWidth), toBucket(maxX, c.screenWidth)
	minBY, maxBY = toBucket(minY, c.screenHeight), toBucket(maxY, c.screenHeight)
	return
}

func (c *TileLabelCuller) insertIntoGrid(q ScreenQuad, idx int) {
	minBX, minBY, maxBX, maxBY := c.bucketsFor(q)
	for by := minBY; by <= maxBY; by++ {
		for bx := minBX; bx <= maxBX; bx++ {
			b := by*GridResolution + bx
			c.grid[b] = append(c.grid[b], idx)
		}
	}
}

func (c *TileLabelCuller) collides(cand CandidateLabel) bool {
	minBX, minBY, maxBX, maxBY := c.bucketsFor(cand.Quad)
	seen := make(map[int]bool)
	for by := minBY; by <= maxBY; by++ {
		for bx := minBX; bx <= maxBX; bx++ {
			b := by*GridResolution + bx
			for _, idx := range c.grid[b] {
				if seen[idx] {
					continue
				}
				seen[idx] = true
				if quadsOverlapSAT(cand.Quad, c.accepted[idx].Quad) {
					return true
				}
			}
		}
	}
	return false
}

func (c *TileLabelCuller) violatesGroupDistance(cand CandidateLabel) bool {
	if cand.Label.GroupID <= 0 {
		return false
	}
	minDist := cand.Label.MinimumGroupDistance
	for _, a := range c.accepted {
		if a.Label.GroupID != cand.Label.GroupID {
			continue
		}
		d := cand.WorldXY.Sub(a.WorldXY).Length()
		if d < minDist {
			return true
		}
	}
	return false
}

// quadsOverlapSAT implements the Separating-Axis Test for two convex
// (here: quad) polygons: they overlap iff no edge normal of either polygon
// separates their projected extents.
func quadsOverlapSAT(a, b ScreenQuad) bool {
	for _, poly := range [2]ScreenQuad{a, b} {
		for i := 0; i < 4; i++ {
			p1, p2 := poly.Corners[i], poly.Corners[(i+1)%4]
			edge := p2.Sub(p1)
			axis := Vec2{X: -edge.Y, Y: edge.X}
			if axis.Length() == 0 {
				continue
			}
			aMin, aMax := projectQuad(a, axis)
			bMin, bMax := projectQuad(b, axis)
			if aMax < bMin || bMax < aMin {
				return false
			}
		}
	}
	return true
}

func projectQuad(q ScreenQuad, axis Vec2) (min, max float32) {
	min = q.Corners[0].Dot(axis)
	max = min
	for _, c := range q.Corners[1:] {
		v := c.Dot(axis)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}
