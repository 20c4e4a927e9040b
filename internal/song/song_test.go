package song

import "testing"

func TestHasDirectAudio(t *testing.T) {
	if (Song{ID: "a"}).HasDirectAudio() {
		t.Error("HasDirectAudio() = true without AudioURL")
	}
	if !(Song{ID: "a", AudioURL: "http://x"}).HasDirectAudio() {
		t.Error("HasDirectAudio() = false with AudioURL")
	}
}

func TestIsZero(t *testing.T) {
	if !(Song{}).IsZero() {
		t.Error("IsZero() = false for empty song")
	}
	if !(Song{Title: "only a title"}).IsZero() {
		t.Error("IsZero() = false for a song with no ID or source")
	}
	tests := []Song{
		{ID: "a"},
		{AudioURL: "http://x"},
		{LocalPath: "/music/a.mp3"},
	}
	for _, s := range tests {
		if s.IsZero() {
			t.Errorf("IsZero() = true for %+v", s)
		}
	}
}
