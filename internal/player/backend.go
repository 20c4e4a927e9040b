// Package player provides playback backends: a native decoder pipeline
// and a remote-controlled embedded player. The playback engine drives
// whichever backend fits the current song.
package player

import (
	"context"
	"time"

	"github.com/vannyda/melo/internal/song"
)

// EventKind classifies backend events.
type EventKind int

const (
	// EventReady fires once the loaded stream is decodable and duration
	// is known (zero for radio).
	EventReady EventKind = iota
	// EventStateChanged fires on play/pause flips initiated by the
	// backend itself.
	EventStateChanged
	// EventEnded fires when the stream plays to completion.
	EventEnded
	// EventError fires when the stream cannot be loaded or dies
	// mid-play. Code carries a backend-specific error code when one
	// exists, zero otherwise.
	EventError
)

// Event is a backend notification.
type Event struct {
	Kind    EventKind
	Code    int
	Playing bool
	Err     error
}

// eventBufferSize bounds each backend's event channel. Sends never
// block; an event is dropped if the consumer lags this far behind.
const eventBufferSize = 16

// Backend is the contract between the playback engine and an audio
// output. Load replaces whatever was playing. All other calls are no-ops
// until a Load has succeeded.
type Backend interface {
	Load(ctx context.Context, s song.Song, streamURL string) error
	Play()
	Pause()
	SeekTo(pos time.Duration)
	SetVolume(level float64)
	SetMuted(muted bool)
	Position() time.Duration
	Duration() time.Duration
	Events() <-chan Event
	Close() error
}

// Verify implementations at compile time.
var (
	_ Backend = (*Native)(nil)
	_ Backend = (*Mock)(nil)
)
