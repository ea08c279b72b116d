package vt

// GlyphId identifies a packed glyph within a GlyphMap atlas. Zero is
// reserved for "not packed" (AtlasFull, §7): callers substitute a blank
// glyph rather than treating zero as an error.
type GlyphId uint32

// Glyph is the packed rectangle and shaping metrics for one loaded glyph.
type Glyph struct {
	ID       GlyphId
	CodePoint rune
	X, Y     int // top-left in atlas pixels
	Width    int
	Height   int
	OffsetX  float32 // shaping offset, relative to pen position
	OffsetY  float32
	Advance  float32
}

// shelf tracks one horizontal row of a shelf-packed atlas: its top y, its
// height (the tallest glyph placed in it so far) and the next free x.
type shelf struct {
	y, height, nextX int
}

// GlyphMap is a shelf-packed 2D atlas of bounded size. Load appends into
// the current shelf, wrapping to a new shelf when the next glyph would
// overflow the row, and fails (returns glyph id 0) once the atlas is full
// (§4.7, §7 AtlasFull). Shelf packing keeps allocation O(shelves) with no
// per-glyph free lists, which is all a monotonically growing glyph atlas
// needs.
type GlyphMap struct {
	width, height int
	pixels        []uint8 // single-channel alpha, width*height

	shelves    []shelf
	glyphs     map[GlyphId]*Glyph
	byCode     map[rune]GlyphId
	nextID     GlyphId
	generation int
	loggedFull bool

	pattern *BitmapPattern // lazily (re)built; nil after any change
}

// NewGlyphMap constructs an empty atlas of the given bounded size.
func NewGlyphMap(width, height int) *GlyphMap {
	return &GlyphMap{
		width:  width,
		height: height,
		pixels: make([]uint8, width*height),
		glyphs: make(map[GlyphId]*Glyph),
		byCode: make(map[rune]GlyphId),
		nextID: 1,
	}
}

// Load packs bitmap (a single-channel alpha coverage image) into the atlas
// under codePoint, with shaping offset and advance, and returns its
// GlyphId. Returns 0 if the atlas cannot fit it.
func (g *GlyphMap) Load(bitmap *Bitmap, codePoint rune, offsetX, offsetY, advance float32) GlyphId {
	w, h := bitmap.Width, bitmap.Height
	if w > g.width {
		g.logFullOnce()
		return 0
	}

	x, y, ok := g.allocate(w, h)
	if !ok {
		g.logFullOnce()
		return 0
	}

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			// bitmap.Data is packed 0xAABBGGRR words; use the alpha channel as
			// the coverage value stored in this single-channel atlas.
			px := bitmap.At(col, row)
			alpha := uint8(px >> 24)
			g.pixels[(y+row)*g.width+(x+col)] = alpha
		}
	}

	id := g.nextID
	g.nextID++
	gl := &Glyph{ID: id, CodePoint: codePoint, X: x, Y: y, Width: w, Height: h, OffsetX: offsetX, OffsetY: offsetY, Advance: advance}
	g.glyphs[id] = gl
	g.byCode[codePoint] = id
	g.generation++
	g.pattern = nil
	g.loggedFull = false
	return id
}

// allocate finds room for a w x h rectangle, opening a new shelf if needed.
func (g *GlyphMap) allocate(w, h int) (x, y int, ok bool) {
	for i := range g.shelves {
		s := &g.shelves[i]
		if s.nextX+w <= g.width && h <= s.height {
			x, y = s.nextX, s.y
			s.nextX += w
			return x, y, true
		}
	}
	// Start a new shelf below the last one.
	nextY := 0
	if n := len(g.shelves); n > 0 {
		last := g.shelves[n-1]
		nextY = last.y + last.height
	}
	if nextY+h > g.height {
		return 0, 0, false
	}
	g.shelves = append(g.shelves, shelf{y: nextY, height: h, nextX: w})
	return 0, nextY, true
}

// Get returns the packed rectangle and metrics for id.
func (g *GlyphMap) Get(id GlyphId) (Glyph, bool) {
	gl, ok := g.glyphs[id]
	if !ok {
		return Glyph{}, false
	}
	return *gl, true
}

// Lookup finds a previously loaded glyph by code point, returning 0 if
// none has been packed yet.
func (g *GlyphMap) Lookup(codePoint rune) GlyphId {
	return g.byCode[codePoint]
}

// Bounds returns the atlas's current pixel dimensions, used by the "atlas
// containment" testable property (§8).
func (g *GlyphMap) Bounds() (width, height int) { return g.width, g.height }

// Generation returns the number of glyphs packed so far; a renderer caches
// label batches keyed by this value and rebuilds them when it changes.
func (g *GlyphMap) Generation() int { return g.generation }

// Pattern returns a POT-rounded BitmapPattern view of the atlas, rebuilding
// it lazily whenever the atlas has changed since the last call.
func (g *GlyphMap) Pattern() *BitmapPattern {
	if g.pattern != nil {
		return g.pattern
	}
	potW, potH := nextPowerOfTwo(g.width), nextPowerOfTwo(g.height)
	words := make([]uint32, potW*potH)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			a := g.pixels[y*g.width+x]
			words[y*potW+x] = uint32(a) << 24
		}
	}
	bmp := NewBitmap(potW, potH, words)
	g.pattern = &BitmapPattern{WidthScale: float32(potW) / float32(g.width), HeightScale: float32(potH) / float32(g.height), Bitmap: bmp}
	return g.pattern
}

func (g *GlyphMap) logFullOnce() {
	if g.loggedFull {
		return
	}
	g.loggedFull = true
	Logger().Warn("vt: glyph atlas full, substituting blank glyph", "width", g.width, "height", g.height)
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}
