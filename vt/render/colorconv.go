package render

import "github.com/cartogl/carto/vt"

// unpackBitmapColor decodes one packed 0xAABBGGRR vt.Bitmap pixel (the
// layout BitmapManager's bitmaps use) into a straight-alpha vt.Color.
func unpackBitmapColor(px uint32) vt.Color {
	return vt.Color{
		A: float64((px>>24)&0xFF) / 255,
		B: float64((px>>16)&0xFF) / 255,
		G: float64((px>>8)&0xFF) / 255,
		R: float64(px&0xFF) / 255,
	}
}

// decodePixel reads one pixel of the given format from a raw byte slice
// into a vt.Color, matching the channel orders TileBitmapFormat documents.
func decodePixel(format vt.TileBitmapFormat, px []byte) vt.Color {
	switch format {
	case vt.TileBitmapGray:
		g := float64(px[0]) / 255
		return vt.Color{R: g, G: g, B: g, A: 1}
	case vt.TileBitmapRGB:
		return vt.Color{
			R: float64(px[0]) / 255,
			G: float64(px[1]) / 255,
			B: float64(px[2]) / 255,
			A: 1,
		}
	case vt.TileBitmapRGBA:
		return vt.Color{
			R: float64(px[0]) / 255,
			G: float64(px[1]) / 255,
			B: float64(px[2]) / 255,
			A: float64(px[3]) / 255,
		}
	default:
		return vt.Color{A: 1}
	}
}
