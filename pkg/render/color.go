// Package render is the software rasterizer behind every fireball host:
// a perspective camera, an RGBA framebuffer with depth, alpha-blended
// marker impostors and 3D lines, and a half-block terminal blitter.
package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA(c).RGBA()
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b, 255}
}

// FromRGBA converts a standard library color.
func FromRGBA(c color.RGBA) Color {
	return Color(c)
}

// ColorBlack is the default framebuffer background.
var ColorBlack = RGB(0, 0, 0)

// Blend composites src over dst with the given opacity.
func Blend(dst, src Color, alpha float64) Color {
	switch {
	case alpha >= 1:
		return Color{src.R, src.G, src.B, 255}
	case alpha <= 0:
		return dst
	}
	d := colorful.Color{R: float64(dst.R) / 255, G: float64(dst.G) / 255, B: float64(dst.B) / 255}
	s := colorful.Color{R: float64(src.R) / 255, G: float64(src.G) / 255, B: float64(src.B) / 255}
	r, g, b := d.BlendRgb(s, alpha).Clamped().RGB255()
	return RGB(r, g, b)
}
