package embed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vannyda/melo/internal/player"
	"github.com/vannyda/melo/internal/song"
)

// Backend drives the embedded web player through the host's websocket.
// The page reports position and duration in float seconds; they are
// cached here so Position and Duration stay cheap synchronous calls.
type Backend struct {
	host *Host

	mu       sync.Mutex
	position time.Duration
	duration time.Duration

	events chan player.Event
}

// NewBackend creates a backend over the given host and wires itself as
// the consumer of page events.
func NewBackend(host *Host) *Backend {
	b := &Backend{
		host:   host,
		events: make(chan player.Event, 16),
	}
	host.setNoticeHandler(b.handleNotice)
	return b
}

// Load points the page at a new video. The page answers with a ready
// event carrying the duration once playback starts.
func (b *Backend) Load(_ context.Context, s song.Song, _ string) error {
	b.mu.Lock()
	b.position = 0
	b.duration = 0
	b.mu.Unlock()
	return b.host.send(command{Cmd: "load", VideoID: s.ID})
}

func (b *Backend) Play() {
	_ = b.host.send(command{Cmd: "play"})
}

func (b *Backend) Pause() {
	_ = b.host.send(command{Cmd: "pause"})
}

func (b *Backend) SeekTo(pos time.Duration) {
	_ = b.host.send(command{Cmd: "seek", Seconds: pos.Seconds()})
}

// SetVolume converts the engine's 0.0-1.0 level to the page's 0-100
// integer scale.
func (b *Backend) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	_ = b.host.send(command{Cmd: "volume", Value: int(level * 100)})
}

func (b *Backend) SetMuted(muted bool) {
	_ = b.host.send(command{Cmd: "mute", On: muted})
}

func (b *Backend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

func (b *Backend) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration
}

func (b *Backend) Events() <-chan player.Event {
	return b.events
}

func (b *Backend) Close() error {
	b.host.setNoticeHandler(nil)
	return nil
}

func (b *Backend) handleNotice(n notice) {
	switch n.Event {
	case "ready":
		b.mu.Lock()
		b.duration = secs(n.Duration)
		b.mu.Unlock()
		b.emit(player.Event{Kind: player.EventReady})
	case "time":
		b.mu.Lock()
		b.position = secs(n.Position)
		b.mu.Unlock()
	case "state":
		b.emit(player.Event{Kind: player.EventStateChanged, Playing: n.Playing})
	case "ended":
		b.emit(player.Event{Kind: player.EventEnded})
	case "error":
		b.emit(player.Event{Kind: player.EventError, Code: n.Code, Err: errors.New("embedded player error")})
	}
}

func (b *Backend) emit(ev player.Event) {
	select {
	case b.events <- ev:
	default:
	}
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Verify Backend implements the player contract at compile time.
var _ player.Backend = (*Backend)(nil)
