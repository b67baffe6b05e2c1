package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// upperHalf draws the top pixel as foreground and the bottom as background.
const upperHalf = "▀"

// TerminalRenderer blits a framebuffer onto a terminal screen, two pixel
// rows per cell.
type TerminalRenderer struct {
	scr           uv.Screen
	width, height int // cells
}

// NewTerminalRenderer creates a renderer for a width x height cell area.
func NewTerminalRenderer(scr uv.Screen, width, height int) *TerminalRenderer {
	return &TerminalRenderer{
		scr:    scr,
		width:  max(width, 0),
		height: max(height, 0),
	}
}

// FramebufferSize returns the pixel size matching the cell area.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.width, t.height * 2
}

// Render copies fb into the screen cells. fb should have the size from
// FramebufferSize; pixels outside it read as fb.BG.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	for y := range t.height {
		for x := range t.width {
			top := fb.GetPixel(x, y*2)
			bottom := fb.GetPixel(x, y*2+1)
			t.scr.SetCell(x, y, &uv.Cell{
				Content: upperHalf,
				Width:   1,
				Style: uv.Style{
					Fg: color.RGBA(top),
					Bg: color.RGBA(bottom),
				},
			})
		}
	}
}
