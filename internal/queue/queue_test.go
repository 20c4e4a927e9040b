package queue

import (
	"fmt"
	"testing"

	"github.com/vannyda/melo/internal/song"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Add(song.Song{ID: "a"})
	q.Add(song.Song{ID: "b"})
	q.Add(song.Song{ID: "c"})

	first, ok := q.Pop()
	if !ok || first.ID != "a" {
		t.Errorf("Pop() = %q, want a", first.ID)
	}
	second, ok := q.Pop()
	if !ok || second.ID != "b" {
		t.Errorf("Pop() = %q, want b", second.ID)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestQueue_PushFront(t *testing.T) {
	q := NewQueue()
	q.Add(song.Song{ID: "a"})
	q.PushFront(song.Song{ID: "front"})

	head, ok := q.Peek()
	if !ok || head.ID != "front" {
		t.Errorf("Peek() = %q, want front", head.ID)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestQueue_PushFrontFullDropsBack(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 100; i++ {
		q.Add(song.Song{ID: fmt.Sprintf("s%d", i)})
	}
	q.PushFront(song.Song{ID: "front"})

	if q.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", q.Len())
	}
	head, _ := q.Peek()
	if head.ID != "front" {
		t.Errorf("Peek() = %q, want front", head.ID)
	}
	songs := q.Songs()
	if songs[len(songs)-1].ID != "s98" {
		t.Errorf("tail = %q, want s98 (s99 dropped)", songs[len(songs)-1].ID)
	}
}

func TestQueue_PopEmpty(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue should report false")
	}
}

func TestQueue_CapEvictsOldest(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 150; i++ {
		q.Add(song.Song{ID: fmt.Sprintf("s%d", i)})
	}

	if q.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", q.Len())
	}
	head, _ := q.Peek()
	if head.ID != "s50" {
		t.Errorf("Peek() = %q, want s50 (oldest evicted)", head.ID)
	}
}

func TestQueue_RemoveAt(t *testing.T) {
	q := NewQueue()
	q.Add(song.Song{ID: "a"})
	q.Add(song.Song{ID: "b"})
	q.Add(song.Song{ID: "c"})

	if !q.RemoveAt(1) {
		t.Fatal("RemoveAt(1) should succeed")
	}
	songs := q.Songs()
	if len(songs) != 2 || songs[0].ID != "a" || songs[1].ID != "c" {
		t.Errorf("Songs() = %v, want [a c]", songs)
	}

	if q.RemoveAt(5) {
		t.Error("RemoveAt(5) out of range should report false")
	}
}

func TestQueue_SongsIsCopy(t *testing.T) {
	q := NewQueue()
	q.Add(song.Song{ID: "a"})

	songs := q.Songs()
	songs[0].ID = "mutated"

	head, _ := q.Peek()
	if head.ID != "a" {
		t.Error("mutating Songs() result should not affect the queue")
	}
}

func TestHistory_LIFO(t *testing.T) {
	h := NewHistory()
	h.Push(song.Song{ID: "a"})
	h.Push(song.Song{ID: "b"})

	last, ok := h.Pop()
	if !ok || last.ID != "b" {
		t.Errorf("Pop() = %q, want b", last.ID)
	}
	last, ok = h.Pop()
	if !ok || last.ID != "a" {
		t.Errorf("Pop() = %q, want a", last.ID)
	}
	if _, ok := h.Pop(); ok {
		t.Error("Pop() on empty history should report false")
	}
}

func TestHistory_CapEvictsOldest(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 150; i++ {
		h.Push(song.Song{ID: fmt.Sprintf("s%d", i)})
	}

	if h.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", h.Len())
	}
	for i := 149; i >= 50; i-- {
		s, ok := h.Pop()
		if !ok {
			t.Fatalf("Pop() ran dry at %d", i)
		}
		if want := fmt.Sprintf("s%d", i); s.ID != want {
			t.Fatalf("Pop() = %q, want %q", s.ID, want)
		}
	}
	if !h.IsEmpty() {
		t.Error("history should be empty after draining")
	}
}
