package playback

// State represents the engine's playback state machine.
//
// Valid transitions:
//   - Idle      → Resolving (via PlaySong)
//   - Resolving → Ready     (stream resolved and loaded)
//   - Resolving → Errored   (resolution or load failed)
//   - Ready     → Playing   (backend starts)
//   - Playing   → Paused    (via TogglePlay)
//   - Paused    → Playing   (via TogglePlay)
//   - Playing   → Ended     (stream finished)
//   - Playing   → Errored   (stream died and relay retry failed)
//   - Ended     → Resolving (auto-advance or replay)
//   - Errored   → Resolving (via PlaySong on any song)
//
// A new PlaySong is legal from every state; it abandons whatever the
// engine was doing. In-flight async work from the abandoned song is
// detected by generation counter and discarded.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateErrored
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateResolving:
		return "Resolving"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateEnded:
		return "Ended"
	case StateErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a song is loaded and playable.
func (s State) IsActive() bool {
	return s == StateReady || s == StatePlaying || s == StatePaused
}
