package web

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/view"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(config.Default(), Options{FPS: 60, Seed: 3})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// nextFrame skips text messages until a binary frame arrives.
func nextFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind == websocket.BinaryMessage {
			return data
		}
	}
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Layers = 0
	_, err := NewServer(cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestServesPage(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>fireball</title>")
	assert.Contains(t, string(body), "/ws")
}

func TestStreamsFramesAfterMount(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "hello"}))
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "mount", Width: 32, Height: 24}))
	img, err := png.Decode(bytes.NewReader(nextFrame(t, conn)))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
	assert.Equal(t, 1, s.Sessions())

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "resize", Width: 16, Height: 8}))
	resized := false
	for range 100 {
		img, err := png.Decode(bytes.NewReader(nextFrame(t, conn)))
		require.NoError(t, err)
		if img.Bounds().Dx() == 16 && img.Bounds().Dy() == 8 {
			resized = true
			break
		}
	}
	assert.True(t, resized, "frames follow the resize")

	cfg := config.Default()
	cfg.Actives.Count = 4
	s.Rebuild(cfg)
	nextFrame(t, conn)
}

// onlySession returns the single open session.
func onlySession(t *testing.T, s *Server) *session {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.sessions, 1)
	for sess := range s.sessions {
		return sess
	}
	return nil
}

func TestSessionEndsOnClose(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "mount", Width: 8, Height: 8}))
	nextFrame(t, conn)
	sess := onlySession(t, s)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	assert.Eventually(t, func() bool { return s.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)

	// the view loop is gone and the surface was detached
	_, err := sess.view.FrameTick(time.Now())
	assert.ErrorIs(t, err, view.ErrSurfaceUnavailable)
}

func TestOversizeMessageEndsSession(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "mount", Width: 8, Height: 8}))
	nextFrame(t, conn)

	big := `{"type":"wheel","pad":"` + strings.Repeat("x", 2*maxMessageSize) + `"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))
	assert.Eventually(t, func() bool { return s.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRebuildCoalescesForBusyViewer(t *testing.T) {
	sess := &session{
		events:   make(chan view.Event),
		rebuilds: make(chan config.Config, 1),
	}
	// the view loop is not reading, so every request but the last is replaced
	for layers := 1; layers <= 5; layers++ {
		cfg := config.Default()
		cfg.Layers = layers
		sess.requestRebuild(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.rebuildLoop(ctx)

	select {
	case ev := <-sess.events:
		rebuild, ok := ev.(view.RebuildEvent)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, 5, rebuild.Config.Layers)
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild was never delivered")
	}
	select {
	case ev := <-sess.events:
		t.Fatalf("stale rebuild delivered: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRebuildReachesFullQueue(t *testing.T) {
	sess := &session{
		events:   make(chan view.Event, 1),
		rebuilds: make(chan config.Config, 1),
	}
	sess.events <- view.WheelEvent{Delta: 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.rebuildLoop(ctx)

	cfg := config.Default()
	cfg.Layers = 7
	sess.requestRebuild(cfg)

	// the rebuild waits for room instead of being dropped
	assert.Equal(t, view.WheelEvent{Delta: 1}, <-sess.events)
	select {
	case ev := <-sess.events:
		rebuild, ok := ev.(view.RebuildEvent)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, 7, rebuild.Config.Layers)
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild was dropped")
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(config.Default(), Options{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestClientMessageEvents(t *testing.T) {
	tests := []struct {
		msg  clientMessage
		want view.Event
	}{
		{clientMessage{Type: "mount", Width: 4, Height: 3}, view.MountEvent{Width: 4, Height: 3}},
		{clientMessage{Type: "resize", Width: 5, Height: 6}, view.ResizeEvent{Width: 5, Height: 6}},
		{clientMessage{Type: "pointermove", X: 1.5, Y: 2}, view.PointerMoveEvent{X: 1.5, Y: 2}},
		{clientMessage{Type: "pointerup"}, view.PointerUpEvent{}},
		{clientMessage{Type: "wheel", Delta: -1}, view.WheelEvent{Delta: -1}},
		{clientMessage{Type: "drag", DX: 3, DY: -4}, view.DragEvent{DX: 3, DY: -4}},
	}
	for _, tt := range tests {
		got, ok := tt.msg.event()
		if !ok {
			t.Errorf("%s: not recognized", tt.msg.Type)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %#v, want %#v", tt.msg.Type, got, tt.want)
		}
	}

	ev, ok := clientMessage{Type: "reset"}.event()
	assert.True(t, ok)
	assert.IsType(t, view.CallEvent(nil), ev)

	_, ok = clientMessage{Type: "bogus"}.event()
	assert.False(t, ok)
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "0.0.0.0:80", displayAddr("0.0.0.0:80"))
}
