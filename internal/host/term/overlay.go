package term

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/fireball/pkg/view"
)

var (
	accent = lipgloss.Color("#d82d33")
	muted  = lipgloss.Color("#aaaaaa")
	ink    = lipgloss.Color("#ffffff")

	hudStyle   = lipgloss.NewStyle().Foreground(ink).Background(lipgloss.Color("#320a32"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle  = lipgloss.NewStyle().Foreground(muted)
)

var modalStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(accent).
	Background(lipgloss.Color("#1e0a1e")).
	Foreground(ink).
	Padding(1, 3)

// HUD renders the status overlay: frame rate, wave cursor and hover.
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD.
func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 {
	return h.fps
}

// Draw writes the top and bottom status lines onto scr.
func (h *HUD) Draw(scr uv.Screen, width, height int, st view.Status) {
	if width <= 0 || height <= 0 {
		return
	}
	dir := "▲"
	if !st.Up {
		dir = "▼"
	}
	top := fmt.Sprintf(" %.0f FPS  layer %d %s  steps %d ", h.fps, st.Layer, dir, st.WaveSteps)
	drawLine(scr, 0, width, hudStyle.Render(top))

	if height < 2 {
		return
	}
	bottom := " drag: orbit  wheel: zoom  r: reset  ?: hud  q: quit "
	if st.Hovering {
		bottom = fmt.Sprintf(" active point %d: click for details ", st.HoverKey)
	}
	drawLine(scr, height-1, width, hudStyle.Render(bottom))
}

// RenderModal returns the detail dialog for d.
func RenderModal(d view.Detail) string {
	body := strings.Join([]string{
		titleStyle.Render(fmt.Sprintf("Active point %d", d.Key)),
		"",
		fmt.Sprintf("position  %7.1f %7.1f %7.1f", d.Position.X, d.Position.Y, d.Position.Z),
		fmt.Sprintf("glow      %d layers", d.Layers),
		fmt.Sprintf("core      %d markers", d.Cores),
		"",
		hintStyle.Render("click or esc to close"),
	}, "\n")
	return modalStyle.Render(body)
}

// DrawModal centers the detail dialog on scr.
func DrawModal(scr uv.Screen, width, height int, d view.Detail) {
	box := RenderModal(d)
	w, h := lipgloss.Width(box), lipgloss.Height(box)
	x := max((width-w)/2, 0)
	y := max((height-h)/2, 0)
	uv.NewStyledString(box).Draw(scr, uv.Rect(x, y, min(w, width), min(h, height)))
}

func drawLine(scr uv.Screen, y, width int, s string) {
	uv.NewStyledString(s).Draw(scr, uv.Rect(0, y, width, 1))
}
