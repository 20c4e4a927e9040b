// Package playback drives songs through a backend: resolving streams,
// advancing the queue, skipping sponsored segments, and publishing
// events to subscribers.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/vannyda/melo/internal/player"
	"github.com/vannyda/melo/internal/queue"
	"github.com/vannyda/melo/internal/song"
	"github.com/vannyda/melo/internal/sponsorblock"
)

// User-facing error strings. Resolution failures and playback-time
// failures read differently so the listener knows whether the song ever
// started.
const (
	ErrResolveMessage  = "Stream not available."
	ErrPlaybackMessage = "Playback error. Stream may be offline or blocked."
)

// Codes the embedded player reports for unplayable videos. They mean
// the video itself is bad, so the engine advances instead of erroring.
const (
	embedErrInvalidParam  = 101
	embedErrNotEmbeddable = 150
)

// StreamResolver turns a song ID into a playable audio URL.
type StreamResolver interface {
	Resolve(ctx context.Context, videoID string) (string, error)
}

// SegmentAdvisor lists the segments to skip for a song. Implementations
// fail open: an empty list on any error.
type SegmentAdvisor interface {
	Get(ctx context.Context, videoID string) []sponsorblock.Segment
}

// RelatedSource supplies follow-up songs for auto-advance.
type RelatedSource interface {
	Related(ctx context.Context, videoID, artistHint string) []song.Song
}

// PlayLogger records started songs.
type PlayLogger interface {
	LogPlay(s song.Song) error
}

// Options configures an Engine. Native is required; everything else is
// optional and degrades gracefully when absent.
type Options struct {
	Native  player.Backend
	Embed   player.Backend
	Desktop bool

	Resolver StreamResolver
	Segments SegmentAdvisor
	Related  RelatedSource
	Log      PlayLogger

	// AudioRelayURL, when set, is prepended to the escaped stream URL
	// for one retry after a native stream error.
	AudioRelayURL string
}

// Engine is the playback core. All exported methods are safe for
// concurrent use.
type Engine struct {
	mu   sync.Mutex
	opts Options

	// loadMu serializes backend.Load calls so a slow load for an
	// abandoned generation cannot land after the current one.
	loadMu sync.Mutex

	state     State
	current   *song.Song
	backend   player.Backend
	segments  []sponsorblock.Segment
	streamURL string

	relayTried  bool
	pendingSeek *time.Duration

	gen       int
	watchStop chan struct{}
	watchDone chan struct{}

	queue   *queue.Queue
	history *queue.History

	volumeLevel float64
	muted       bool

	subsMu sync.RWMutex
	subs   []*Subscription

	closed bool
}

// New creates an engine.
func New(opts Options) *Engine {
	return &Engine{
		opts:        opts,
		state:       StateIdle,
		queue:       queue.NewQueue(),
		history:     queue.NewHistory(),
		volumeLevel: 1,
	}
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the song the engine is on, or nil.
func (e *Engine) Current() *song.Song {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	s := *e.current
	return &s
}

// Position returns the playback position of the active backend.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	b := e.backend
	e.mu.Unlock()
	if b == nil {
		return 0
	}
	return b.Position()
}

// Duration returns the duration of the loaded stream, zero when unknown.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	b := e.backend
	e.mu.Unlock()
	if b == nil {
		return 0
	}
	return b.Duration()
}

// Volume returns the stored volume level (0.0 to 1.0).
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volumeLevel
}

// SetVolume stores the level and applies it to the active backend.
func (e *Engine) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.mu.Lock()
	e.volumeLevel = level
	b := e.backend
	e.mu.Unlock()
	if b != nil {
		b.SetVolume(level)
	}
}

// Muted returns the stored mute state.
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// SetMuted stores the mute state and applies it to the active backend.
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	b := e.backend
	e.mu.Unlock()
	if b != nil {
		b.SetMuted(muted)
	}
}

// AddToQueue appends a song to the upcoming queue.
func (e *Engine) AddToQueue(s song.Song) {
	e.mu.Lock()
	e.queue.Add(s)
	songs := e.queue.Songs()
	e.mu.Unlock()
	e.emitQueue(songs)
}

// RemoveFromQueue removes the queued song at the given index.
func (e *Engine) RemoveFromQueue(index int) bool {
	e.mu.Lock()
	ok := e.queue.RemoveAt(index)
	songs := e.queue.Songs()
	e.mu.Unlock()
	if ok {
		e.emitQueue(songs)
	}
	return ok
}

// ClearQueue empties the upcoming queue.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	e.queue.Clear()
	e.mu.Unlock()
	e.emitQueue(nil)
}

// QueueSongs returns the upcoming queue in play order.
func (e *Engine) QueueSongs() []song.Song {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Songs()
}

// HasNext reports whether Next would find something to play.
func (e *Engine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.queue.IsEmpty() || (e.current != nil && e.opts.Related != nil)
}

// HasPrevious reports whether Previous would find something to play.
func (e *Engine) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.history.IsEmpty()
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close shuts down the engine. It does not close the backends, which
// the caller owns.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.gen++
	stop, done := e.watchStop, e.watchDone
	e.watchStop, e.watchDone = nil, nil
	e.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	return nil
}

// setStateLocked transitions the state and notifies subscribers. Caller
// holds e.mu.
func (e *Engine) setStateLocked(next State) {
	if e.state == next {
		return
	}
	prev := e.state
	e.state = next
	e.emitState(StateChange{Previous: prev, Current: next})
}

func (e *Engine) emitState(ev StateChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendState(ev)
	}
}

func (e *Engine) emitSong(ev SongChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendSong(ev)
	}
}

func (e *Engine) emitProgress(ev Progress) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendProgress(ev)
	}
}

func (e *Engine) emitQueue(songs []song.Song) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendQueue(QueueChange{Songs: songs})
	}
}

func (e *Engine) emitError(ev ErrorEvent) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendError(ev)
	}
}
