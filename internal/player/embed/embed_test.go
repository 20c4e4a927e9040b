package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vannyda/melo/internal/player"
	"github.com/vannyda/melo/internal/song"
)

// dialHost serves the host's websocket handler and returns a connected
// page-side connection.
func dialHost(t *testing.T, h *Host) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.handleWS))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// handleWS registers the connection before entering its read loop,
	// but give it a moment to get there.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		ok := h.conn != nil
		h.mu.Unlock()
		if ok {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("page connection never registered")
	return nil
}

func readCommand(t *testing.T, conn *websocket.Conn) command {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var c command
	if err := conn.ReadJSON(&c); err != nil {
		t.Fatalf("read command: %v", err)
	}
	return c
}

func TestBackendCommands(t *testing.T) {
	h := NewHost("127.0.0.1:0")
	b := NewBackend(h)
	conn := dialHost(t, h)

	if err := b.Load(context.Background(), song.Song{ID: "abc123"}, ""); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c := readCommand(t, conn); c.Cmd != "load" || c.VideoID != "abc123" {
		t.Errorf("command = %+v, want load abc123", c)
	}

	b.Play()
	if c := readCommand(t, conn); c.Cmd != "play" {
		t.Errorf("command = %+v, want play", c)
	}

	b.SeekTo(90 * time.Second)
	if c := readCommand(t, conn); c.Cmd != "seek" || c.Seconds != 90 {
		t.Errorf("command = %+v, want seek 90", c)
	}

	b.SetVolume(0.5)
	if c := readCommand(t, conn); c.Cmd != "volume" || c.Value != 50 {
		t.Errorf("command = %+v, want volume 50", c)
	}

	b.SetMuted(true)
	if c := readCommand(t, conn); c.Cmd != "mute" || !c.On {
		t.Errorf("command = %+v, want mute on", c)
	}
}

func TestBackendNotices(t *testing.T) {
	h := NewHost("127.0.0.1:0")
	b := NewBackend(h)
	conn := dialHost(t, h)

	writeNotice := func(n notice) {
		t.Helper()
		data, _ := json.Marshal(n)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			t.Fatalf("write notice: %v", err)
		}
	}
	nextEvent := func() player.Event {
		t.Helper()
		select {
		case ev := <-b.Events():
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return player.Event{}
		}
	}

	writeNotice(notice{Event: "ready", Duration: 215})
	if ev := nextEvent(); ev.Kind != player.EventReady {
		t.Errorf("event = %+v, want ready", ev)
	}
	if got := b.Duration(); got != 215*time.Second {
		t.Errorf("Duration() = %v, want 3m35s", got)
	}

	writeNotice(notice{Event: "time", Position: 12.5})
	writeNotice(notice{Event: "state", Playing: true})
	if ev := nextEvent(); ev.Kind != player.EventStateChanged || !ev.Playing {
		t.Errorf("event = %+v, want playing state change", ev)
	}
	if got := b.Position(); got != 12500*time.Millisecond {
		t.Errorf("Position() = %v, want 12.5s", got)
	}

	writeNotice(notice{Event: "error", Code: 150})
	if ev := nextEvent(); ev.Kind != player.EventError || ev.Code != 150 {
		t.Errorf("event = %+v, want error code 150", ev)
	}

	writeNotice(notice{Event: "ended"})
	if ev := nextEvent(); ev.Kind != player.EventEnded {
		t.Errorf("event = %+v, want ended", ev)
	}
}

func TestSendWithoutConnection(t *testing.T) {
	h := NewHost("127.0.0.1:0")
	b := NewBackend(h)

	err := b.Load(context.Background(), song.Song{ID: "x"}, "")
	if err != ErrNotConnected {
		t.Errorf("Load() error = %v, want ErrNotConnected", err)
	}
}
