package vt

import (
	"bytes"
	"image"
	"sync"

	"github.com/go-text/typesetting/di"
	gotextfont "github.com/go-text/typesetting/font"
	gotextlanguage "github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontSource is a parsed font file shared across every label shaped from it.
// One FontSource backs many sizes and many ShapeLabel calls; the opentype
// font (used for rasterization) and the go-text font (used for shaping) are
// each parsed once and cached, so repeated labels in the same typeface pay
// the parse cost only once.
//
// FontSource is safe for concurrent use.
type FontSource struct {
	data []byte
	name string

	mu        sync.RWMutex
	otFont    *opentype.Font
	hbFont    *gotextfont.Font
	faceCache map[float64]font.Face
}

// NewFontSource parses a TTF/OTF font file. The data slice is copied
// internally and can be reused after this call returns.
func NewFontSource(data []byte, name string) *FontSource {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &FontSource{data: buf, name: name, faceCache: map[float64]font.Face{}}
}

// Name returns the caller-supplied name for this font source (e.g. the
// family name used in a text-face-name stylesheet property).
func (s *FontSource) Name() string { return s.name }

func (s *FontSource) opentypeFont() (*opentype.Font, error) {
	s.mu.RLock()
	if s.otFont != nil {
		defer s.mu.RUnlock()
		return s.otFont, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.otFont != nil {
		return s.otFont, nil
	}
	f, err := opentype.Parse(s.data)
	if err != nil {
		return nil, err
	}
	s.otFont = f
	return f, nil
}

func (s *FontSource) harfbuzzFont() (*gotextfont.Font, error) {
	s.mu.RLock()
	if s.hbFont != nil {
		defer s.mu.RUnlock()
		return s.hbFont, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hbFont != nil {
		return s.hbFont, nil
	}
	face, err := gotextfont.ParseTTF(bytes.NewReader(s.data))
	if err != nil {
		return nil, err
	}
	s.hbFont = face.Font
	return s.hbFont, nil
}

func (s *FontSource) face(size float64) (font.Face, error) {
	s.mu.RLock()
	f, ok := s.faceCache[size]
	s.mu.RUnlock()
	if ok {
		return f, nil
	}
	otFont, err := s.opentypeFont()
	if err != nil {
		return nil, err
	}
	newFace, err := opentype.NewFace(otFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.faceCache[size] = newFace
	s.mu.Unlock()
	return newFace, nil
}

// labelShaperPool pools HarfbuzzShaper instances: shaping.HarfbuzzShaper
// keeps a mutable internal buffer and is not safe for concurrent use, but
// cheap to reuse sequentially once its buffer has grown to a typical
// label's size.
var labelShaperPool = sync.Pool{
	New: func() any { return &shaping.HarfbuzzShaper{} },
}

// ShapeLabel turns a run of text into positioned, atlas-packed glyphs ready
// to attach to a TileLabel. Shaping goes through go-text/typesetting's
// HarfBuzz-compatible shaper for ligatures and kerning, with every run
// shaped left to right (di.DirectionLTR); each
// shaped glyph is then rasterized to an alpha mask with
// golang.org/x/image/font and packed into the given GlyphMap atlas.
//
// Glyphs already present in the atlas (same code point) are reused rather
// than re-rasterized; a label whose text is identical to one already built
// this session pays only the shaping cost, not the rasterization cost.
func ShapeLabel(source *FontSource, size float64, str string, atlas *GlyphMap) []LabelGlyph {
	if source == nil || str == "" {
		return nil
	}
	hbFont, err := source.harfbuzzFont()
	if err != nil {
		Logger().Warn("vt: font shaping unavailable", "font", source.Name(), "error", err)
		return nil
	}
	xFace, err := source.face(size)
	if err != nil {
		Logger().Warn("vt: font rasterization unavailable", "font", source.Name(), "error", err)
		return nil
	}

	runes := []rune(str)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gotextfont.NewFace(hbFont),
		Size:      fixed.Int26_6(size * 64),
		Script:    detectLabelScript(runes),
		Language:  gotextlanguage.NewLanguage("en"),
	}

	shaper := labelShaperPool.Get().(*shaping.HarfbuzzShaper)
	output := shaper.Shape(input)
	labelShaperPool.Put(shaper)

	out := make([]LabelGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		cluster := g.TextIndex()
		var codePoint rune
		if cluster >= 0 && cluster < len(runes) {
			codePoint = runes[cluster]
		}
		xOff := fixedToFloat(g.XOffset)
		yOff := fixedToFloat(g.YOffset)
		advance := fixedToFloat(g.Advance)

		id := atlas.Lookup(codePoint)
		if id == 0 {
			img := rasterizeLabelGlyph(xFace, codePoint)
			if img == nil {
				continue
			}
			bmp := bitmapFromAlphaMask(img.mask)
			id = atlas.Load(bmp, codePoint, float32(img.mask.Bounds().Min.X), float32(img.mask.Bounds().Min.Y), float32(img.advance))
			if id == 0 {
				continue
			}
		}
		glyph, ok := atlas.Get(id)
		if !ok {
			continue
		}
		out = append(out, LabelGlyph{
			GlyphID:   id,
			CodePoint: codePoint,
			OffsetX:   float32(xOff) + glyph.OffsetX,
			OffsetY:   float32(yOff) + glyph.OffsetY,
			Width:     float32(glyph.Width),
			Height:    float32(glyph.Height),
			Advance:   float32(advance),
			AtlasX:    glyph.X,
			AtlasY:    glyph.Y,
		})
	}
	return out
}

type rasterizedGlyph struct {
	mask    *image.Alpha
	advance float64
}

// rasterizeLabelGlyph renders one rune to an alpha mask via
// golang.org/x/image/font's Drawer against an opentype.Face; a tile
// renderer only ever needs this one concrete rasterization path.
func rasterizeLabelGlyph(face font.Face, r rune) *rasterizedGlyph {
	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return nil
	}
	minX := int(bounds.Min.X) >> 6
	minY := int(bounds.Min.Y) >> 6
	maxX := int(bounds.Max.X+63) >> 6
	maxY := int(bounds.Max.Y+63) >> 6
	rect := image.Rect(minX, minY, maxX, maxY)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return &rasterizedGlyph{mask: image.NewAlpha(image.Rect(0, 0, 1, 1)), advance: fixedToFloat(advance)}
	}

	mask := image.NewAlpha(rect)
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	drawer.DrawString(string(r))
	return &rasterizedGlyph{mask: mask, advance: fixedToFloat(advance)}
}

// bitmapFromAlphaMask packs a rasterized glyph's single-channel alpha mask
// into the packed (0xAABBGGRR) Bitmap GlyphMap.Load expects, with white RGB (only
// the alpha channel is read when loading into a coverage-only atlas).
func bitmapFromAlphaMask(mask *image.Alpha) *Bitmap {
	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return &Bitmap{Width: 1, Height: 1, Data: []uint32{0}}
	}
	data := make([]uint32, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			a := mask.AlphaAt(bounds.Min.X+col, bounds.Min.Y+row).A
			data[row*w+col] = uint32(a)<<24 | 0x00FFFFFF
		}
	}
	return &Bitmap{Width: w, Height: h, Data: data}
}

// detectLabelScript inspects the runes and returns the script of the first
// non-space character. Mixed-script labels are rare enough in map styling
// (place names are authored per-locale) that per-run script splitting is
// not worth the complexity here.
func detectLabelScript(runes []rune) gotextlanguage.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return gotextlanguage.LookupScript(r)
	}
	return gotextlanguage.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
