package vt

// BlendRate is the per-second increment applied to every BlendNode's blend
// value each frame, chosen so a full fade takes about 0.4s (§4.9).
const BlendRate = 1.0 / 0.4

// BlendNode records a tile's current fade state and the subtree of tiles it
// is replacing: children fade out as the parent fades in. Parent/child
// pointers form a forest (each tile appears at most once per frame, per
// §9), so no back-pointers are needed.
type BlendNode struct {
	TileID   TileId
	Tile     *Tile
	Blend    float32 // 0 = fully transparent (just appeared), 1 = fully opaque
	Children []*BlendNode
}

// BlendTree owns the forest of BlendNodes for one renderer; SetVisibleTiles
// replaces the visible set (from any caller, including a worker thread
// between frames per §5); Advance and Snapshot are called from the render
// thread only.
type BlendTree struct {
	roots []*BlendNode
}

// NewBlendTree constructs an empty tree.
func NewBlendTree() *BlendTree { return &BlendTree{} }

// SetVisibleTiles replaces the visible set. If blend is false the new tiles
// snap directly to fully opaque (no cross-fade); otherwise they start
// transparent and fade in over BlendRate. Existing nodes whose tileId
// intersects a new tile's id (and which are not the same tile) are
// attached as children of the new node, their own subtree collapsed into a
// single effective-opacity blend value — §4.9's subtree-depth cap.
func (t *BlendTree) SetVisibleTiles(tiles map[TileId]*Tile, blend bool) {
	oldRoots := t.roots
	newRoots := make([]*BlendNode, 0, len(tiles))

	findExisting := func(id TileId, tile *Tile) *BlendNode {
		for _, n := range oldRoots {
			if n.TileID == id && n.Tile == tile {
				return n
			}
		}
		return nil
	}

	used := make(map[*BlendNode]bool)
	for id, tile := range tiles {
		node := findExisting(id, tile)
		if node != nil {
			used[node] = true
		} else {
			initialBlend := float32(1)
			if blend {
				initialBlend = 0
			}
			node = &BlendNode{TileID: id, Tile: tile, Blend: initialBlend}
		}

		for _, old := range oldRoots {
			if used[old] || old.Tile == tile {
				continue
			}
			if old.TileID.Intersects(id) {
				collapsed := &BlendNode{
					TileID: old.TileID,
					Tile:   old.Tile,
					Blend:  calculateBlendNodeOpacity(old, 1),
				}
				node.Children = append(node.Children, collapsed)
				used[old] = true
			}
		}
		newRoots = append(newRoots, node)
	}

	t.roots = newRoots
}

// calculateBlendNodeOpacity computes the effective opacity of node's
// subtree under an incoming weight w, per §4.9:
//
//	opacity(n, w) = min(1, w*n.Blend + sum(opacity(child, w*(1-n.Blend))))
func calculateBlendNodeOpacity(n *BlendNode, w float32) float32 {
	total := w * n.Blend
	childWeight := w * (1 - n.Blend)
	for _, c := range n.Children {
		total += calculateBlendNodeOpacity(c, childWeight)
	}
	if total > 1 {
		total = 1
	}
	return total
}

// Advance increments every node's blend by dt*BlendRate and discards
// children whose parent has fully reached blend 1.
func (t *BlendTree) Advance(dt float32) {
	for _, n := range t.roots {
		advanceNode(n, dt)
	}
}

func advanceNode(n *BlendNode, dt float32) {
	n.Blend += dt * BlendRate
	if n.Blend > 1 {
		n.Blend = 1
	}
	if n.Blend >= 1 {
		n.Children = nil
		return
	}
	for _, c := range n.Children {
		advanceNode(c, dt)
	}
}

// Snapshot returns a copy of the root slice, so a later SetVisibleTiles
// call does not change which roots the copy lists. The BlendNodes
// themselves are shared, not deep copied: SetVisibleTiles can append
// children to a reused root and Advance updates blends in place, so callers
// reading a snapshot hold the same lock that guards those calls (as
// TileRenderer does).
func (t *BlendTree) Snapshot() []*BlendNode {
	out := make([]*BlendNode, len(t.roots))
	copy(out, t.roots)
	return out
}

// RenderNode is a flattened (tileId, layer, effectiveBlend) triple
// produced by BuildRenderNodes (§4.9, §4.11).
type RenderNode struct {
	TileID        TileId
	Layer         *TileLayer
	InitialBlend  float32
	EffectiveBlend float32
}

// BuildRenderNodes flattens a snapshot of BlendNodes into per-layer render
// nodes ready for drawing. Nodes are combined additively (capped at 1) when
// the same layer index appears in more than one ancestor at intersecting
// tile ids, per §4.9.
func BuildRenderNodes(roots []*BlendNode) []RenderNode {
	var out []RenderNode
	for _, root := range roots {
		collectRenderNodes(root, 1, &out)
	}
	combineOverlapping(out)
	return out
}

func collectRenderNodes(n *BlendNode, w float32, out *[]RenderNode) {
	effective := calculateBlendNodeOpacity(n, w)
	if n.Tile != nil {
		for _, layer := range n.Tile.Layers {
			*out = append(*out, RenderNode{TileID: n.TileID, Layer: layer, InitialBlend: n.Blend, EffectiveBlend: effective})
		}
	}
	childWeight := w * (1 - n.Blend)
	for _, c := range n.Children {
		collectRenderNodes(c, childWeight, out)
	}
}

// combineOverlapping caps the effective blend of render nodes that share a
// layer index and whose tile ids intersect, so a feature visible through
// both a parent and a still-fading child layer is never drawn brighter
// than fully opaque.
func combineOverlapping(nodes []RenderNode) {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].Layer.LayerIndex != nodes[j].Layer.LayerIndex {
				continue
			}
			if !nodes[i].TileID.Intersects(nodes[j].TileID) {
				continue
			}
			sum := nodes[i].EffectiveBlend + nodes[j].EffectiveBlend
			if sum > 1 {
				scale := 1 / sum
				nodes[i].EffectiveBlend *= scale
				nodes[j].EffectiveBlend *= scale
			}
		}
	}
}
