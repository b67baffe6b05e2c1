// Package term hosts a fireball view in the terminal: half-block pixels on
// an ultraviolet screen, mouse picking and a lipgloss detail dialog.
package term

import (
	"context"
	"fmt"
	"io"
	"os"

	"fortio.org/log"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/fireball/pkg/render"
	"github.com/taigrr/fireball/pkg/view"
)

const (
	mouseOn  = "\x1b[?1003h\x1b[?1006h" // any-event tracking, SGR coordinates
	mouseOff = "\x1b[?1003l\x1b[?1006l"
)

// Options configure the terminal host.
type Options struct {
	FPS     int
	ShowHUD bool
	// Events carries view events from other sources, such as config
	// reloads. It may be nil.
	Events <-chan view.Event
}

// Host owns the terminal side of one view. Its fields are only touched on
// the view loop goroutine.
type Host struct {
	scr      uv.Screen
	renderer *render.TerminalRenderer
	hud      *HUD
	showHUD  bool
	modal    *view.Detail
	cols     int
	rows     int
	cancel   context.CancelFunc
}

// NewHost prepares a host drawing on scr, a cols x rows cell area.
func NewHost(scr uv.Screen, cols, rows int, opts Options) *Host {
	h := &Host{
		scr:     scr,
		hud:     NewHUD(),
		showHUD: opts.ShowHUD,
	}
	h.setSize(cols, rows)
	return h
}

func (h *Host) setSize(cols, rows int) {
	h.cols, h.rows = cols, rows
	h.renderer = render.NewTerminalRenderer(h.scr, cols, rows)
}

// Attach wires the view callbacks to the host and mounts the view on the
// current cell area.
func (h *Host) Attach(v *view.View) error {
	v.OnOpenDetail = func(d view.Detail) {
		h.modal = &d
	}
	fbW, fbH := h.renderer.FramebufferSize()
	return v.Mount(fbW, fbH)
}

// Present draws the frame, then the HUD and the dialog on top.
func (h *Host) Present(fb *render.Framebuffer, v *view.View) error {
	h.renderer.Render(fb)
	h.hud.UpdateFPS()
	if h.showHUD {
		h.hud.Draw(h.scr, h.cols, h.rows, v.Status())
	}
	if h.modal != nil {
		DrawModal(h.scr, h.cols, h.rows, *h.modal)
	}
	if d, ok := h.scr.(interface{ Display() error }); ok {
		if err := d.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}
	return nil
}

// Modal returns the open dialog, if any.
func (h *Host) Modal() *view.Detail {
	return h.modal
}

func (h *Host) resize(v *view.View, cols, rows int) error {
	if t, ok := h.scr.(*uv.Terminal); ok {
		t.Erase()
		if err := t.Resize(cols, rows); err != nil {
			return fmt.Errorf("resize terminal: %w", err)
		}
	}
	h.setSize(cols, rows)
	v.Resize(h.renderer.FramebufferSize())
	return nil
}

// release closes the dialog or forwards the click to the picker.
func (h *Host) release(v *view.View) error {
	if h.modal != nil {
		h.modal = nil
		return nil
	}
	v.PointerUp()
	return nil
}

// escape closes the dialog, or quits when none is open.
func (h *Host) escape(*view.View) error {
	if h.modal != nil {
		h.modal = nil
		return nil
	}
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

func (h *Host) toggleHUD(*view.View) error {
	h.showHUD = !h.showHUD
	return nil
}

// Run shows v in the terminal until ctx is done or the user quits.
func Run(ctx context.Context, v *view.View, opts Options) (err error) {
	t := uv.DefaultTerminal()
	cols, rows, err := t.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := t.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	t.EnterAltScreen()
	t.HideCursor()
	if err := t.Resize(cols, rows); err != nil {
		log.Warnf("Resize terminal: %v", err)
	}
	writeRaw(os.Stdout, mouseOn)
	defer func() {
		writeRaw(os.Stdout, mouseOff)
		t.ExitAltScreen()
		t.ShowCursor()
		if serr := t.Shutdown(context.Background()); serr != nil && err == nil {
			err = fmt.Errorf("shutdown terminal: %w", serr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := NewHost(t, cols, rows, opts)
	h.cancel = cancel
	if err := h.Attach(v); err != nil {
		log.Warnf("Mount: %v", err)
	}

	events := make(chan view.Event, 64)
	go func() {
		in := &input{host: h}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-t.Events():
				if !ok {
					cancel()
					return
				}
				out, quit := in.translate(ev)
				if quit {
					cancel()
					return
				}
				for _, e := range out {
					select {
					case events <- e:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	if opts.Events != nil {
		go forward(ctx, opts.Events, events)
	}

	log.Infof("Terminal viewer started: %dx%d cells", cols, rows)
	return view.Run(ctx, v, opts.FPS, events, h.Present)
}

func forward(ctx context.Context, from <-chan view.Event, to chan<- view.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-from:
			if !ok {
				return
			}
			select {
			case to <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func writeRaw(w io.Writer, s string) {
	if _, err := io.WriteString(w, s); err != nil {
		log.Debugf("write terminal mode: %v", err)
	}
}
