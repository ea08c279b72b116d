package vt

import "testing"

func TestEllipseCoverageCenterAndExterior(t *testing.T) {
	if c := ellipseCoverage(0, 0, 8, 8); c != 1 {
		t.Errorf("coverage at ellipse center = %v, want 1", c)
	}
	if c := ellipseCoverage(16, 0, 8, 8); c != 0 {
		t.Errorf("coverage far outside = %v, want 0", c)
	}
	// On the rim the quadratic term vanishes and coverage is the 0.5
	// midpoint of the analytic anti-aliasing ramp.
	if c := ellipseCoverage(8, 0, 8, 8); c != 0.5 {
		t.Errorf("coverage on the rim = %v, want 0.5", c)
	}
}

func TestDrawEllipseFillsCenter(t *testing.T) {
	c := NewBitmapCanvas(16, 16)
	c.SetColor(Color{R: 1, A: 1})
	c.SetOpacity(1)
	c.DrawEllipse(8, 8, 6, 6)

	bmp := c.Bitmap()
	if a := bmp.At(8, 8) >> 24; a != 0xff {
		t.Errorf("center alpha = %#x, want 0xff", a)
	}
	if a := bmp.At(0, 0) >> 24; a != 0 {
		t.Errorf("corner alpha = %#x, want 0", a)
	}
}

func TestDrawRectangleSharpEdges(t *testing.T) {
	c := NewBitmapCanvas(16, 16)
	c.SetColor(Color{G: 1, A: 1})
	c.SetOpacity(1)
	c.DrawRectangle(4, 4, 12, 12, 0)

	bmp := c.Bitmap()
	if a := bmp.At(8, 8) >> 24; a != 0xff {
		t.Errorf("interior alpha = %#x, want 0xff", a)
	}
	if a := bmp.At(1, 1) >> 24; a != 0 {
		t.Errorf("exterior alpha = %#x, want 0", a)
	}
}

func TestBitmapManagerCachesMarkers(t *testing.T) {
	m := NewBitmapManager()
	key := MarkerKey{Shape: "disk", Width: 16, Height: 16, FillColor: Color{R: 1, A: 1}}
	first := m.GetOrCreateMarker(key)
	second := m.GetOrCreateMarker(key)
	if first == nil {
		t.Fatal("expected a synthesized marker bitmap")
	}
	if first != second {
		t.Error("identical marker keys should share one cached bitmap")
	}
	other := m.GetOrCreateMarker(MarkerKey{Shape: "rounded-rect", Width: 16, Height: 16, FillColor: Color{R: 1, A: 1}})
	if other == first {
		t.Error("distinct marker keys must not collide in the cache")
	}
}
