package playback

import (
	"time"

	"github.com/vannyda/melo/internal/song"
)

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// SongChange is emitted when the engine starts working on a different
// song. It fires at the start of resolution, not when audio begins, so
// the UI can show the new song immediately.
type SongChange struct {
	Previous *song.Song
	Current  *song.Song
}

// Progress is emitted roughly once a second while playing. Duration is
// zero for radio streams.
type Progress struct {
	Position time.Duration
	Duration time.Duration
}

// QueueChange is emitted when the upcoming queue changes.
type QueueChange struct {
	Songs []song.Song
}

// ErrorEvent is emitted when playback fails for good. Message is safe to
// show to the user.
type ErrorEvent struct {
	Message string
	Err     error
}
