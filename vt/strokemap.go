package vt

// StrokeRow describes one packed stroke pattern's placement within a
// StrokeMap: the atlas row's vertical extent and the along-line scale
// factor needed to convert tile-space distance into the pattern's U
// coordinate.
type StrokeRow struct {
	Y0, Y1         int
	ScaleAlongLine float32
}

// StrokeId identifies a packed row in a StrokeMap. Zero means "not
// packed" (AtlasFull).
type StrokeId uint32

// StrokeMap is a fixed-width atlas of line dash/texture patterns (§4.7):
// each submitted pattern is tiled horizontally up to the atlas width, then
// bilinearly resampled down to exactly that width, so every stroke shares
// one common U range regardless of its native repeat length. Rows stack
// vertically like GlyphMap's shelves, but each row has a single known
// height (the stroke's thickness) rather than being shelf-packed.
type StrokeMap struct {
	width int
	rows  []strokeEntry
	nextY int
	maxY  int

	pixels     []uint8 // RGBA8, width * totalHeight, grown as rows are added
	loggedFull bool
}

type strokeEntry struct {
	id  StrokeId
	row StrokeRow
}

// NewStrokeMap constructs an atlas of fixed width and bounded total height.
func NewStrokeMap(width, maxHeight int) *StrokeMap {
	return &StrokeMap{width: width, maxY: maxHeight}
}

// Submit packs a dash/texture pattern (native width x height RGBA pixels,
// one or more source repeats) into a new row, tiling it to the atlas width
// and bilinearly resampling to fit, returning the new row's StrokeId.
// Returns 0 if the atlas has no room left.
func (m *StrokeMap) Submit(nativeWidth, nativeHeight int, source []uint32, repeats int) StrokeId {
	if repeats < 1 {
		repeats = 1
	}
	h := nativeHeight
	if m.nextY+h > m.maxY {
		m.logFullOnce()
		return 0
	}

	resampled := make([]uint32, m.width*h)
	totalSourceWidth := float32(nativeWidth * repeats)
	for x := 0; x < m.width; x++ {
		// Map destination column x to a position in the tiled source,
		// then bilinearly interpolate between the two nearest source
		// texels (wrapping within one repeat).
		srcPos := (float32(x) + 0.5) / float32(m.width) * totalSourceWidth
		srcPos = mod32(srcPos, float32(nativeWidth))
		x0 := int(srcPos)
		x1 := (x0 + 1) % nativeWidth
		frac := srcPos - float32(x0)
		for y := 0; y < h; y++ {
			c0 := source[y*nativeWidth+x0]
			c1 := source[y*nativeWidth+x1]
			resampled[y*m.width+x] = lerpARGB(c0, c1, frac)
		}
	}

	m.pixels = append(m.pixels, packRows(resampled, m.width, h)...)
	id := StrokeId(len(m.rows) + 1)
	row := StrokeRow{Y0: m.nextY, Y1: m.nextY + h, ScaleAlongLine: totalSourceWidth / float32(nativeWidth*repeats)}
	m.rows = append(m.rows, strokeEntry{id: id, row: row})
	m.nextY += h
	m.loggedFull = false
	return id
}

// Row returns the packed row for id.
func (m *StrokeMap) Row(id StrokeId) (StrokeRow, bool) {
	for _, e := range m.rows {
		if e.id == id {
			return e.row, true
		}
	}
	return StrokeRow{}, false
}

// Width returns the atlas's fixed pixel width.
func (m *StrokeMap) Width() int { return m.width }

func (m *StrokeMap) logFullOnce() {
	if m.loggedFull {
		return
	}
	m.loggedFull = true
	Logger().Warn("vt: stroke atlas full", "width", m.width, "maxHeight", m.maxY)
}

func mod32(v, m float32) float32 {
	for v < 0 {
		v += m
	}
	for v >= m {
		v -= m
	}
	return v
}

func lerpARGB(c0, c1 uint32, t float32) uint32 {
	lerpByte := func(shift uint) uint32 {
		a := float32((c0 >> shift) & 0xff)
		b := float32((c1 >> shift) & 0xff)
		return uint32(a+(b-a)*t) & 0xff
	}
	return lerpByte(24)<<24 | lerpByte(16)<<16 | lerpByte(8)<<8 | lerpByte(0)
}

func packRows(words []uint32, width, height int) []byte {
	out := make([]byte, 0, width*height*4)
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}
