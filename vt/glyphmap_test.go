package vt

import "testing"

func solidBitmap(w, h int, alpha uint32) *Bitmap {
	data := make([]uint32, w*h)
	for i := range data {
		data[i] = alpha << 24
	}
	return &Bitmap{Width: w, Height: h, Data: data}
}

// TestGlyphMapPackingStaysWithinBounds is the §8 "atlas containment"
// property: every glyph rectangle Load places must lie entirely inside the
// atlas's own Bounds(), no matter how many glyphs get packed.
func TestGlyphMapPackingStaysWithinBounds(t *testing.T) {
	atlas := NewGlyphMap(64, 64)
	w, h := atlas.Bounds()

	var loaded int
	for i := 0; i < 200; i++ {
		id := atlas.Load(solidBitmap(5, 7, 0xFF), rune('a'+i%26)+rune(i/26*1000), 0, 0, 6)
		if id == 0 {
			continue
		}
		loaded++
		gl, ok := atlas.Get(id)
		if !ok {
			t.Fatalf("Get(%d) failed right after Load", id)
		}
		if gl.X < 0 || gl.Y < 0 || gl.X+gl.Width > w || gl.Y+gl.Height > h {
			t.Errorf("glyph %+v escapes atlas bounds %dx%d", gl, w, h)
		}
	}
	if loaded == 0 {
		t.Fatal("expected at least one glyph to pack into a 64x64 atlas")
	}
}

func TestGlyphMapOversizedGlyphRejected(t *testing.T) {
	atlas := NewGlyphMap(16, 16)
	id := atlas.Load(solidBitmap(32, 4, 0xFF), 'x', 0, 0, 0)
	if id != 0 {
		t.Errorf("Load should reject a glyph wider than the atlas, got id %d", id)
	}
}

func TestGlyphMapFullAtlasReturnsZero(t *testing.T) {
	atlas := NewGlyphMap(8, 8)
	var gotZero bool
	for i := 0; i < 100; i++ {
		id := atlas.Load(solidBitmap(8, 8, 0xFF), rune(i), 0, 0, 0)
		if id == 0 {
			gotZero = true
			break
		}
	}
	if !gotZero {
		t.Error("expected Load to eventually return 0 once the atlas is full")
	}
}

func TestGlyphMapLookupReusesExistingGlyph(t *testing.T) {
	atlas := NewGlyphMap(32, 32)
	id1 := atlas.Load(solidBitmap(4, 4, 0xFF), 'q', 1, 2, 3)
	if id1 == 0 {
		t.Fatal("expected first load to succeed")
	}
	if got := atlas.Lookup('q'); got != id1 {
		t.Errorf("Lookup('q') = %d, want %d", got, id1)
	}
	if got := atlas.Lookup('z'); got != 0 {
		t.Errorf("Lookup of unloaded rune should be 0, got %d", got)
	}
}

func TestGlyphMapGenerationIncrementsOnLoad(t *testing.T) {
	atlas := NewGlyphMap(32, 32)
	if atlas.Generation() != 0 {
		t.Fatalf("fresh atlas should have generation 0, got %d", atlas.Generation())
	}
	atlas.Load(solidBitmap(4, 4, 0xFF), 'a', 0, 0, 0)
	if atlas.Generation() != 1 {
		t.Errorf("generation should increment after a successful Load, got %d", atlas.Generation())
	}
}

func TestGlyphMapPatternStaysWithinPowerOfTwoBounds(t *testing.T) {
	atlas := NewGlyphMap(20, 10)
	atlas.Load(solidBitmap(4, 4, 0xFF), 'a', 0, 0, 0)
	pat := atlas.Pattern()
	if pat.Bitmap.Width < 20 || pat.Bitmap.Height < 10 {
		t.Errorf("pattern bitmap %dx%d smaller than atlas %dx%d", pat.Bitmap.Width, pat.Bitmap.Height, 20, 10)
	}
	if pat.Bitmap.Width&(pat.Bitmap.Width-1) != 0 {
		t.Errorf("pattern width %d is not a power of two", pat.Bitmap.Width)
	}
	if pat.Bitmap.Height&(pat.Bitmap.Height-1) != 0 {
		t.Errorf("pattern height %d is not a power of two", pat.Bitmap.Height)
	}
}
