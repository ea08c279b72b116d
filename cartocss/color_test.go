package cartocss

import "testing"

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestHSLARoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    Color
	}{
		{"red", Opaque(1, 0, 0)},
		{"green", Opaque(0, 1, 0)},
		{"blue", Opaque(0, 0, 1)},
		{"gray", Opaque(0.5, 0.5, 0.5)},
		{"white", Opaque(1, 1, 1)},
		{"black", Opaque(0, 0, 0)},
		{"translucent orange", Color{R: 1, G: 0.5, B: 0, A: 0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsla := tt.c.HSLA()
			got := FromHSLA(hsla.H, hsla.S, hsla.L, hsla.A)
			if !almostEqual(got.R, tt.c.R, 1e-6) || !almostEqual(got.G, tt.c.G, 1e-6) || !almostEqual(got.B, tt.c.B, 1e-6) {
				t.Errorf("round trip mismatch: got %+v, want %+v (via %+v)", got, tt.c, hsla)
			}
		})
	}
}

func TestLightenDarken(t *testing.T) {
	base := Opaque(0.5, 0.5, 0.5)
	lighter := Lighten(base, 0.2)
	darker := Darken(base, 0.2)
	if lighter.HSLA().L <= base.HSLA().L {
		t.Errorf("Lighten did not increase lightness: %v -> %v", base.HSLA().L, lighter.HSLA().L)
	}
	if darker.HSLA().L >= base.HSLA().L {
		t.Errorf("Darken did not decrease lightness: %v -> %v", base.HSLA().L, darker.HSLA().L)
	}
	// Saturating past the bounds clamps rather than wrapping.
	clamped := Lighten(Opaque(1, 1, 1), 0.5)
	if clamped.HSLA().L > 1.0001 {
		t.Errorf("Lighten did not clamp: %v", clamped.HSLA().L)
	}
}

func TestSaturateDesaturate(t *testing.T) {
	base := Opaque(0.8, 0.2, 0.2)
	desat := Desaturate(base, 1.0)
	if desat.HSLA().S > 1e-6 {
		t.Errorf("Desaturate(1.0) should fully gray out, got S=%v", desat.HSLA().S)
	}
}

func TestFadeInOut(t *testing.T) {
	base := Color{R: 1, G: 0, B: 0, A: 0.5}
	out := FadeOut(base, 0.3)
	in := FadeIn(base, 0.3)
	if !almostEqual(out.A, 0.2, 1e-6) {
		t.Errorf("FadeOut: got alpha %v, want 0.2", out.A)
	}
	if !almostEqual(in.A, 0.8, 1e-6) {
		t.Errorf("FadeIn: got alpha %v, want 0.8", in.A)
	}
}

func TestMixColors(t *testing.T) {
	black := Opaque(0, 0, 0)
	white := Opaque(1, 1, 1)
	mid := MixColors(white, black, 0.5)
	if !almostEqual(mid.R, 0.5, 1e-6) {
		t.Errorf("MixColors(white, black, 0.5).R = %v, want 0.5", mid.R)
	}
	allWhite := MixColors(white, black, 1.0)
	if !almostEqual(allWhite.R, 1.0, 1e-6) {
		t.Errorf("MixColors(white, black, 1.0).R = %v, want 1.0 (fully first color)", allWhite.R)
	}
}

func TestHexRoundTrip(t *testing.T) {
	tests := []struct {
		hex       string
		r, g, b, a uint8
	}{
		{"#fff", 255, 255, 255, 255},
		{"#000000", 0, 0, 0, 255},
		{"#ff8000ff", 255, 128, 0, 255},
	}
	for _, tt := range tests {
		c := parseHexColor(tt.hex)
		r, g, b, a := c.RGBA8()
		if r != tt.r || g != tt.g || b != tt.b || a != tt.a {
			t.Errorf("parseHexColor(%q) = (%d,%d,%d,%d), want (%d,%d,%d,%d)", tt.hex, r, g, b, a, tt.r, tt.g, tt.b, tt.a)
		}
	}
}

func TestValuePacking(t *testing.T) {
	c := FromRGBA8(10, 20, 30, 255)
	v := c.Value()
	got := FromValue(v)
	if got != c {
		t.Errorf("FromValue(Value()) = %+v, want %+v", got, c)
	}
}

func TestColorString(t *testing.T) {
	opaque := Opaque(1, 0, 0)
	if got := opaque.String(); got != "rgb(255,0,0)" {
		t.Errorf("opaque.String() = %q, want rgb(255,0,0)", got)
	}
	translucent := Color{R: 1, G: 0, B: 0, A: 0.5}
	if got := translucent.String(); got == "rgb(255,0,0)" {
		t.Errorf("translucent color rendered as opaque: %q", got)
	}
}
