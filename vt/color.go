package vt

import "github.com/cartogl/carto/cartocss"

// Color reuses the cascade compiler's color representation directly: by the
// time a stylesheet reaches the tile renderer every color has already been
// evaluated out of CartoCSS expressions into cartocss.Color, so there is no
// reason to round-trip through a second color type.
type Color = cartocss.Color

// Premultiplied returns the color with RGB channels scaled by alpha, the
// form the GPU blend equations in compop.go expect.
func Premultiplied(c Color) [4]float32 {
	return [4]float32{
		float32(c.R * c.A),
		float32(c.G * c.A),
		float32(c.B * c.A),
		float32(c.A),
	}
}
