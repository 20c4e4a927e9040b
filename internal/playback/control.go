package playback

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/player"
	"github.com/vannyda/melo/internal/song"
)

// PlaySong starts playback of a song. Calling it with the song already
// loaded toggles play/pause instead of restarting, except for radio
// streams, which always reconnect.
func (e *Engine) PlaySong(s song.Song) {
	e.mu.Lock()
	sameSong := e.current != nil && e.current.ID == s.ID && !s.IsRadio && e.state.IsActive()
	e.mu.Unlock()

	if sameSong {
		e.TogglePlay()
		return
	}
	e.start(s, true)
}

// TogglePlay flips between playing and paused. From Ended it replays
// the current song.
func (e *Engine) TogglePlay() {
	e.mu.Lock()
	switch e.state {
	case StatePlaying:
		e.backend.Pause()
		e.setStateLocked(StatePaused)
	case StatePaused, StateReady:
		e.backend.Play()
		e.setStateLocked(StatePlaying)
	case StateEnded:
		cur := e.current
		e.mu.Unlock()
		if cur != nil {
			e.start(*cur, false)
		}
		return
	default:
	}
	e.mu.Unlock()
}

// Next plays the queue head, or the first related song when the queue
// is empty. It does nothing when neither exists.
func (e *Engine) Next() {
	e.mu.Lock()
	cur := e.current
	next, ok := e.queue.Pop()
	songs := e.queue.Songs()
	e.mu.Unlock()

	if ok {
		e.emitQueue(songs)
		e.start(next, true)
		return
	}

	if cur == nil || e.opts.Related == nil {
		return
	}
	related := e.opts.Related.Related(context.Background(), cur.ID, cur.Artist)
	if len(related) == 0 {
		return
	}
	e.start(related[0], true)
}

// Previous replays the most recent song from the session history. The
// song being left goes back onto the queue head, so Next returns to it.
func (e *Engine) Previous() {
	e.mu.Lock()
	prev, ok := e.history.Pop()
	if !ok {
		e.mu.Unlock()
		return
	}
	var songs []song.Song
	if e.current != nil {
		e.queue.PushFront(*e.current)
		songs = e.queue.Songs()
	}
	e.mu.Unlock()

	if songs != nil {
		e.emitQueue(songs)
	}
	e.start(prev, false)
}

// SeekTo jumps to an absolute position. While the stream's duration is
// still unknown the seek is parked (one slot, newest wins) and applied
// once duration arrives. Radio ignores seeks entirely.
func (e *Engine) SeekTo(pos time.Duration) {
	e.mu.Lock()
	if e.current == nil || e.current.IsRadio || e.backend == nil {
		e.mu.Unlock()
		return
	}
	b := e.backend
	if b.Duration() > 0 {
		e.mu.Unlock()
		b.SeekTo(pos)
		return
	}
	p := pos
	e.pendingSeek = &p
	e.mu.Unlock()
}

// start launches playback of a song: pick the backend, bump the
// generation so in-flight work for the old song goes stale, and kick
// off resolution.
func (e *Engine) start(s song.Song, pushHistory bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.gen++
	gen := e.gen

	prev := e.current
	if pushHistory && prev != nil {
		e.history.Push(*prev)
	}

	cur := s
	e.current = &cur
	e.relayTried = false
	e.pendingSeek = nil
	e.segments = nil
	e.streamURL = ""

	// Backend choice is sticky for the song's lifetime.
	backend := e.opts.Native
	if !e.opts.Desktop && !s.IsRadio && e.opts.Embed != nil {
		backend = e.opts.Embed
	}
	e.backend = backend

	oldStop, oldDone := e.watchStop, e.watchDone
	stop := make(chan struct{})
	done := make(chan struct{})
	e.watchStop, e.watchDone = stop, done

	e.setStateLocked(StateResolving)
	e.mu.Unlock()

	e.emitSong(SongChange{Previous: prev, Current: &cur})

	if oldStop != nil {
		close(oldStop)
		<-oldDone
	}

	go e.watch(gen, backend, stop, done)
	go e.load(gen, cur, backend)
}

// load resolves the stream and hands it to the backend. Every step
// re-checks the generation so an abandoned song never touches state.
func (e *Engine) load(gen int, s song.Song, backend player.Backend) {
	ctx := context.Background()
	log := logging.L()

	streamURL := s.AudioURL
	needResolve := backend == e.opts.Native && !s.IsRadio && !s.IsLocal && !s.HasDirectAudio()
	if needResolve {
		if e.opts.Resolver == nil {
			e.fail(gen, ErrResolveMessage, nil)
			return
		}
		resolved, err := e.opts.Resolver.Resolve(ctx, s.ID)
		if err != nil {
			log.Warn("stream resolution failed", zap.String("song_id", s.ID), zap.Error(err))
			e.fail(gen, ErrResolveMessage, err)
			return
		}
		streamURL = resolved
	}

	if !s.IsRadio && !s.IsLocal && e.opts.Segments != nil {
		got := e.opts.Segments.Get(ctx, s.ID)
		e.mu.Lock()
		if gen != e.gen {
			e.mu.Unlock()
			return
		}
		e.segments = got
		e.mu.Unlock()
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.streamURL = streamURL
	e.mu.Unlock()

	if err := backend.Load(ctx, s, streamURL); err != nil {
		log.Warn("stream load failed", zap.String("song_id", s.ID), zap.Error(err))
		e.handleStreamError(gen, s, backend, err)
		return
	}
	if e.staleAfterLoad(gen) {
		backend.Pause()
	}
}

// staleAfterLoad reports whether the generation changed while a
// backend.Load was in flight. A stale load must not keep playing.
func (e *Engine) staleAfterLoad(gen int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen != e.gen
}

// watch consumes backend events and drives the progress tick for one
// song generation.
func (e *Engine) watch(gen int, backend player.Backend, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case ev := <-backend.Events():
			if !e.handleEvent(gen, backend, ev) {
				return
			}
		case <-ticker.C:
			e.tick(gen, backend)
		}
	}
}

// handleEvent processes one backend event. Returning false ends the
// watcher; advancing or failing hands control to a new generation.
func (e *Engine) handleEvent(gen int, backend player.Backend, ev player.Event) bool {
	e.mu.Lock()
	if gen != e.gen || e.closed {
		e.mu.Unlock()
		return false
	}

	switch ev.Kind {
	case player.EventReady:
		cur := e.current
		e.setStateLocked(StateReady)
		e.setStateLocked(StatePlaying)
		level, muted := e.volumeLevel, e.muted
		e.mu.Unlock()

		backend.SetVolume(level)
		backend.SetMuted(muted)
		if e.opts.Log != nil && cur != nil {
			if err := e.opts.Log.LogPlay(*cur); err != nil {
				logging.L().Warn("recent play log failed", zap.Error(err))
			}
		}
		return true

	case player.EventStateChanged:
		if ev.Playing {
			e.setStateLocked(StatePlaying)
		} else if e.state == StatePlaying {
			e.setStateLocked(StatePaused)
		}
		e.mu.Unlock()
		return true

	case player.EventEnded:
		e.setStateLocked(StateEnded)
		e.mu.Unlock()
		go e.Next()
		return false

	case player.EventError:
		cur := e.current
		e.mu.Unlock()

		if backend == e.opts.Embed && (ev.Code == embedErrInvalidParam || ev.Code == embedErrNotEmbeddable) {
			logging.L().Info("unplayable embedded video, advancing", zap.Int("code", ev.Code))
			go e.Next()
			return false
		}
		if cur != nil {
			e.handleStreamError(gen, *cur, backend, ev.Err)
		}
		return true
	}

	e.mu.Unlock()
	return true
}

// handleStreamError retries a failed native stream once through the
// audio relay, then gives up with the sticky playback error.
func (e *Engine) handleStreamError(gen int, s song.Song, backend player.Backend, cause error) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}

	canRelay := backend == e.opts.Native &&
		!s.IsRadio && !s.IsLocal &&
		e.opts.AudioRelayURL != "" &&
		e.streamURL != "" &&
		!e.relayTried
	if !canRelay {
		e.failLocked(ErrPlaybackMessage, cause)
		e.mu.Unlock()
		return
	}

	e.relayTried = true
	relayURL := e.opts.AudioRelayURL + url.QueryEscape(e.streamURL)
	e.mu.Unlock()

	// The retry runs off the caller's goroutine so the watcher is
	// never stuck inside a Load while a new song waits for it to exit.
	go func() {
		e.loadMu.Lock()
		defer e.loadMu.Unlock()

		e.mu.Lock()
		if gen != e.gen {
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		logging.L().Info("retrying stream through relay", zap.String("song_id", s.ID))
		if err := backend.Load(context.Background(), s, relayURL); err != nil {
			e.fail(gen, ErrPlaybackMessage, err)
			return
		}
		if e.staleAfterLoad(gen) {
			backend.Pause()
		}
	}()
}

// tick emits progress and applies deferred seeks and segment skips.
func (e *Engine) tick(gen int, backend player.Backend) {
	e.mu.Lock()
	if gen != e.gen || e.state != StatePlaying {
		e.mu.Unlock()
		return
	}

	pos := backend.Position()
	dur := backend.Duration()

	if e.pendingSeek != nil && dur > 0 {
		target := *e.pendingSeek
		e.pendingSeek = nil
		e.mu.Unlock()
		backend.SeekTo(target)
		e.emitProgress(Progress{Position: target, Duration: dur})
		return
	}

	for _, seg := range e.segments {
		if seg.Contains(pos.Seconds()) {
			end := time.Duration(seg.End() * float64(time.Second))
			e.mu.Unlock()
			logging.L().Debug("skipping segment",
				zap.String("category", seg.Category),
				zap.Duration("to", end))
			backend.SeekTo(end)
			e.emitProgress(Progress{Position: end, Duration: dur})
			return
		}
	}
	e.mu.Unlock()

	e.emitProgress(Progress{Position: pos, Duration: dur})
}

// fail moves the engine to Errored for the given generation.
func (e *Engine) fail(gen int, message string, cause error) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.failLocked(message, cause)
	e.mu.Unlock()
}

func (e *Engine) failLocked(message string, cause error) {
	e.setStateLocked(StateErrored)
	e.emitError(ErrorEvent{Message: message, Err: cause})
}
