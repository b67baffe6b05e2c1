// Package web hosts fireball views in a browser. Every websocket
// connection gets its own view; frames go out as PNG binary messages and
// the page reports pointer input back as JSON.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"fortio.org/log"
	"github.com/gorilla/websocket"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/pick"
	"github.com/taigrr/fireball/pkg/render"
	"github.com/taigrr/fireball/pkg/view"
)

//go:embed static
var static embed.FS

const (
	writeWait = 5 * time.Second
	// maxMessageSize bounds one client message; input messages are small JSON.
	maxMessageSize = 4096
)

// Options configure the browser host.
type Options struct {
	FPS  int
	Seed int64
}

// Server serves the viewer page and its websocket endpoint.
type Server struct {
	opts     Options
	upgrader websocket.Upgrader

	mu       sync.Mutex
	cfg      config.Config
	sessions map[*session]struct{}
}

// NewServer validates cfg and returns a server that builds every new
// view from it.
func NewServer(cfg config.Config, opts Options) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	return &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
		cfg:      cfg,
		sessions: make(map[*session]struct{}),
	}, nil
}

// Handler returns the page at / and the websocket at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	sub, _ := fs.Sub(static, "static")
	mux.Handle("/", http.FileServer(http.FS(sub)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("Serving on http://%s", displayAddr(addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Rebuild swaps the configuration for new connections and asks every
// open view to rebuild. Requests for a busy view coalesce: the view
// eventually rebuilds from the latest config.
func (s *Server) Rebuild(cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	for sess := range s.sessions {
		sess.requestRebuild(cfg)
	}
	log.Infof("Rebuilding %d open views", len(s.sessions))
}

// Sessions returns the number of open connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// drop detaches a finished session from its view and the server. It runs
// after the view loop has returned.
func (s *Server) drop(sess *session) {
	sess.view.Unmount()
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	v, err := view.New(s.config(), view.Options{FPS: s.opts.FPS, Seed: s.opts.Seed})
	if err != nil {
		log.Errf("Build view: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sess := newSession(conn, v, cancel)

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	defer s.drop(sess)

	log.Infof("Viewer connected from %s", r.RemoteAddr)
	go sess.readLoop(ctx)
	go sess.rebuildLoop(ctx)
	if err := view.Run(ctx, v, s.opts.FPS, sess.events, sess.present); err != nil {
		log.Infof("Viewer %s closed: %v", r.RemoteAddr, err)
		return
	}
	log.Infof("Viewer %s disconnected", r.RemoteAddr)
}

// session is one connected page. Writes only happen on the view loop
// goroutine: frames from present, dialogs and cursors from the view
// callbacks.
type session struct {
	conn     *websocket.Conn
	view     *view.View
	events   chan view.Event
	rebuilds chan config.Config // latest pending rebuild, at most one
	cancel   context.CancelFunc
	buf      bytes.Buffer
	enc      png.Encoder
}

func newSession(conn *websocket.Conn, v *view.View, cancel context.CancelFunc) *session {
	sess := &session{
		conn:     conn,
		view:     v,
		events:   make(chan view.Event, 64),
		rebuilds: make(chan config.Config, 1),
		cancel:   cancel,
		enc:      png.Encoder{CompressionLevel: png.BestSpeed},
	}
	v.OnOpenDetail = func(d view.Detail) {
		sess.writeJSON(detailMessage{Type: "openDetail", Detail: d})
	}
	v.OnCursor = func(c pick.Cursor) {
		sess.writeJSON(cursorMessage{Type: "cursor", Cursor: c.String()})
	}
	return sess
}

// requestRebuild replaces any pending rebuild with cfg. Callers hold the
// server lock, so the slot is free once drained.
func (sess *session) requestRebuild(cfg config.Config) {
	select {
	case <-sess.rebuilds:
		log.Debugf("Replacing a pending rebuild for a busy viewer")
	default:
	}
	sess.rebuilds <- cfg
}

// rebuildLoop hands pending rebuilds to the view loop, waiting for room
// in the event queue.
func (sess *session) rebuildLoop(ctx context.Context) {
	for {
		select {
		case cfg := <-sess.rebuilds:
			select {
			case sess.events <- view.RebuildEvent{Config: cfg}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (sess *session) readLoop(ctx context.Context) {
	defer sess.cancel()
	for {
		var msg clientMessage
		if err := sess.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("WebSocket read error: %v", err)
			}
			return
		}
		ev, ok := msg.event()
		if !ok {
			log.Debugf("Ignoring message type %q", msg.Type)
			continue
		}
		select {
		case sess.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (sess *session) present(fb *render.Framebuffer, _ *view.View) error {
	sess.buf.Reset()
	if err := sess.enc.Encode(&sess.buf, fb.ToImage()); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := sess.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := sess.conn.WriteMessage(websocket.BinaryMessage, sess.buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (sess *session) writeJSON(msg any) {
	if err := sess.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Debugf("set write deadline: %v", err)
	}
	if err := sess.conn.WriteJSON(msg); err != nil {
		log.Debugf("WebSocket write error: %v", err)
		sess.cancel()
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
