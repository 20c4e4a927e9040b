// Package embed serves the embedded web player and drives it over a
// websocket, exposing it as a playback backend.
package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
)

// ErrNotConnected is returned when a command is sent before the page has
// attached.
var ErrNotConnected = errors.New("embed: player page not connected")

// command goes host -> page.
type command struct {
	Cmd     string  `json:"cmd"`
	VideoID string  `json:"videoId,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
	Value   int     `json:"value,omitempty"`
	On      bool    `json:"on,omitempty"`
}

// notice goes page -> host.
type notice struct {
	Event    string  `json:"event"`
	Duration float64 `json:"duration,omitempty"`
	Position float64 `json:"position,omitempty"`
	Playing  bool    `json:"playing,omitempty"`
	Code     int     `json:"code,omitempty"`
}

// Host owns the local HTTP endpoint the embedded player page connects
// back to. One page connection at a time; a new connection replaces the
// old one.
type Host struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server

	mu       sync.Mutex
	conn     *websocket.Conn
	onNotice func(notice)
}

// NewHost creates a host bound to the given address.
func NewHost(addr string) *Host {
	return &Host{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Start serves the player page and its websocket until the context ends.
func (h *Host) Start(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/", h.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.handleWS)

	h.server = &http.Server{
		Addr:              h.addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.server.Shutdown(shutdownCtx)
	}()

	logging.L().Info("embed host listening", zap.String("addr", h.addr))
	err := h.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// URL returns the address a browser should open.
func (h *Host) URL() string {
	return "http://" + h.addr + "/"
}

func (h *Host) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(playerPage))
}

func (h *Host) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.conn != nil {
		h.conn.Close()
	}
	h.conn = conn
	h.mu.Unlock()

	logging.L().Info("embed player connected", zap.String("remote", conn.RemoteAddr().String()))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var n notice
		if err := json.Unmarshal(data, &n); err != nil {
			continue
		}
		h.mu.Lock()
		fn := h.onNotice
		h.mu.Unlock()
		if fn != nil {
			fn(n)
		}
	}

	h.mu.Lock()
	if h.conn == conn {
		h.conn = nil
	}
	h.mu.Unlock()
	conn.Close()
}

// setNoticeHandler registers the consumer of page events.
func (h *Host) setNoticeHandler(fn func(notice)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onNotice = fn
}

// send delivers a command to the connected page.
func (h *Host) send(c command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return ErrNotConnected
	}
	return h.conn.WriteJSON(c)
}
