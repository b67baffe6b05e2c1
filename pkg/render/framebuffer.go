package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

// MaxSize bounds each framebuffer dimension.
const MaxSize = 8192

// Framebuffer is a width x height color buffer with a depth buffer.
type Framebuffer struct {
	Width, Height int
	Pixels        []Color
	Depth         []float64
	BG            Color
}

// NewFramebuffer allocates a cleared framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{BG: ColorBlack}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the buffers when the size changes and clears them.
// Negative sizes and sizes above MaxSize give an empty buffer.
func (fb *Framebuffer) Resize(width, height int) {
	if width <= 0 || height <= 0 || width > MaxSize || height > MaxSize {
		width, height = 0, 0
	}
	if width != fb.Width || height != fb.Height || fb.Pixels == nil {
		fb.Width, fb.Height = width, height
		fb.Pixels = make([]Color, width*height)
		fb.Depth = make([]float64, width*height)
	}
	fb.Clear()
}

// Empty reports a zero-sized buffer.
func (fb *Framebuffer) Empty() bool {
	return fb.Width == 0 || fb.Height == 0
}

// Clear fills with BG and resets depth.
func (fb *Framebuffer) Clear() {
	for i := range fb.Pixels {
		fb.Pixels[i] = fb.BG
	}
	fb.ClearDepth()
}

// ClearDepth resets the depth buffer to +Inf.
func (fb *Framebuffer) ClearDepth() {
	inf := math.Inf(1)
	for i := range fb.Depth {
		fb.Depth[i] = inf
	}
}

func (fb *Framebuffer) inside(x, y int) bool {
	return x >= 0 && x < fb.Width && y >= 0 && y < fb.Height
}

// SetPixel writes an opaque pixel, ignoring out-of-range coordinates.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if fb.inside(x, y) {
		fb.Pixels[y*fb.Width+x] = c
	}
}

// GetPixel returns the pixel at (x, y), or BG outside the buffer.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if !fb.inside(x, y) {
		return fb.BG
	}
	return fb.Pixels[y*fb.Width+x]
}

// BlendPixel composites c over the pixel at (x, y).
func (fb *Framebuffer) BlendPixel(x, y int, c Color, alpha float64) {
	if fb.inside(x, y) {
		i := y*fb.Width + x
		fb.Pixels[i] = Blend(fb.Pixels[i], c, alpha)
	}
}

// DrawLine draws an opaque line with Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c Color) {
	fb.DrawLineAlpha(x0, y0, x1, y1, c, 1)
}

// DrawLineAlpha draws a blended line.
func (fb *Framebuffer) DrawLineAlpha(x0, y0, x1, y1 int, c Color, alpha float64) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	// bound the walk so wild projections cannot stall a frame
	for steps := 0; steps <= 4*(fb.Width+fb.Height); steps++ {
		fb.BlendPixel(x0, y0, c, alpha)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// FillCircle blends a filled circle. Pixels already holding a nearer
// opaque fragment are skipped; opaque fills record their depth.
func (fb *Framebuffer) FillCircle(cx, cy, r float64, depth float64, c Color, alpha float64) {
	fb.FillEllipse(cx, cy, r, r, 1, 0, depth, c, alpha)
}

// FillEllipse blends a filled ellipse with semi-axis b along the unit
// direction (ux, uy) and semi-axis a across it.
func (fb *Framebuffer) FillEllipse(cx, cy, a, b, ux, uy float64, depth float64, c Color, alpha float64) {
	if a <= 0 || b <= 0 {
		return
	}
	ext := math.Max(a, b)
	x0, x1 := max(int(math.Floor(cx-ext)), 0), min(int(math.Ceil(cx+ext)), fb.Width-1)
	y0, y1 := max(int(math.Floor(cy-ext)), 0), min(int(math.Ceil(cy+ext)), fb.Height-1)
	for y := y0; y <= y1; y++ {
		py := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			px := float64(x) + 0.5 - cx
			along := (px*ux + py*uy) / b
			across := (py*ux - px*uy) / a
			if along*along+across*across > 1 {
				continue
			}
			i := y*fb.Width + x
			if depth > fb.Depth[i] {
				continue
			}
			fb.Pixels[i] = Blend(fb.Pixels[i], c, alpha)
			if alpha >= 1 {
				fb.Depth[i] = depth
			}
		}
	}
}

// ToImage copies the buffer into an image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		for x := range fb.Width {
			img.SetRGBA(x, y, color.RGBA(fb.Pixels[y*fb.Width+x]))
		}
	}
	return img
}

// SavePNG writes the buffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
