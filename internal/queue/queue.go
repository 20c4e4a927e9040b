// Package queue holds the session's upcoming-songs queue and back-history.
package queue

import "github.com/vannyda/melo/internal/song"

// maxLen caps both the queue and the history. Oldest entries are evicted
// first when the cap is hit.
const maxLen = 100

// Queue is the FIFO list of songs to play after the current one.
type Queue struct {
	songs []song.Song
}

// NewQueue creates a new empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends a song to the end of the queue.
func (q *Queue) Add(s song.Song) {
	q.songs = append(q.songs, s)
	if len(q.songs) > maxLen {
		q.songs = q.songs[len(q.songs)-maxLen:]
	}
}

// PushFront puts a song at the head of the queue, so it plays next.
// When the queue is full the entry furthest from playing is dropped.
func (q *Queue) PushFront(s song.Song) {
	q.songs = append([]song.Song{s}, q.songs...)
	if len(q.songs) > maxLen {
		q.songs = q.songs[:maxLen]
	}
}

// Pop removes and returns the song at the head of the queue.
// The second return is false if the queue is empty.
func (q *Queue) Pop() (song.Song, bool) {
	if len(q.songs) == 0 {
		return song.Song{}, false
	}
	head := q.songs[0]
	q.songs = q.songs[1:]
	return head, true
}

// Peek returns the song at the head without removing it.
func (q *Queue) Peek() (song.Song, bool) {
	if len(q.songs) == 0 {
		return song.Song{}, false
	}
	return q.songs[0], true
}

// RemoveAt removes the song at the given index.
func (q *Queue) RemoveAt(index int) bool {
	if index < 0 || index >= len(q.songs) {
		return false
	}
	q.songs = append(q.songs[:index], q.songs[index+1:]...)
	return true
}

// Clear removes all songs.
func (q *Queue) Clear() {
	q.songs = nil
}

// Songs returns a copy of the queued songs in play order.
func (q *Queue) Songs() []song.Song {
	out := make([]song.Song, len(q.songs))
	copy(out, q.songs)
	return out
}

// Len returns the number of queued songs.
func (q *Queue) Len() int {
	return len(q.songs)
}

// IsEmpty returns true if nothing is queued.
func (q *Queue) IsEmpty() bool {
	return len(q.songs) == 0
}

// History is the LIFO stack of songs already played this session, used by
// the previous-song control.
type History struct {
	songs []song.Song
}

// NewHistory creates a new empty history.
func NewHistory() *History {
	return &History{}
}

// Push records a song as played. The oldest entry is evicted past the cap.
func (h *History) Push(s song.Song) {
	h.songs = append(h.songs, s)
	if len(h.songs) > maxLen {
		h.songs = h.songs[len(h.songs)-maxLen:]
	}
}

// Pop removes and returns the most recently played song.
// The second return is false if the history is empty.
func (h *History) Pop() (song.Song, bool) {
	if len(h.songs) == 0 {
		return song.Song{}, false
	}
	last := h.songs[len(h.songs)-1]
	h.songs = h.songs[:len(h.songs)-1]
	return last, true
}

// Len returns the number of remembered songs.
func (h *History) Len() int {
	return len(h.songs)
}

// IsEmpty returns true if nothing has been played yet.
func (h *History) IsEmpty() bool {
	return len(h.songs) == 0
}
