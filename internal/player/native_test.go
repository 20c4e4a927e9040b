package player

import (
	"bytes"
	"io"
	"math"
	"testing"
)

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0, -10},
		{-0.5, -10},
		{1, 0},
		{1.5, 0},
		{0.5, -1},
		{0.25, -2},
	}
	for _, tt := range tests {
		if got := levelToVolume(tt.level); got != tt.want {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}

	// Intermediate levels follow log2.
	if got := levelToVolume(0.37); math.Abs(got-math.Log2(0.37)) > 1e-9 {
		t.Errorf("levelToVolume(0.37) = %v, want log2(0.37)", got)
	}
}

func TestExtFor(t *testing.T) {
	tests := []struct {
		contentType string
		url         string
		want        string
	}{
		{"audio/mpeg", "http://x/stream", ".mp3"},
		{"audio/mpeg; charset=utf-8", "http://x/stream", ".mp3"},
		{"audio/mp4", "http://x/stream", ".m4a"},
		{"audio/aac", "http://x/stream", ".m4a"},
		{"audio/x-flac", "http://x/stream", ".flac"},
		{"", "http://x/song.MP3?sig=abc", ".mp3"},
		{"", "http://x/track.m4a", ".m4a"},
		{"application/octet-stream", "http://x/track.flac", ".flac"},
		{"", "http://x/stream", ""},
	}
	for _, tt := range tests {
		if got := extFor(tt.contentType, tt.url); got != tt.want {
			t.Errorf("extFor(%q, %q) = %q, want %q", tt.contentType, tt.url, got, tt.want)
		}
	}
}

func TestSkipID3v2(t *testing.T) {
	// 10-byte header followed by a 64-byte tag body, then audio data.
	tag := []byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 64}
	data := append(tag, make([]byte, 64)...)
	data = append(data, []byte("AUDIO")...)

	r := bytes.NewReader(data)
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}

	rest, _ := io.ReadAll(r)
	if string(rest) != "AUDIO" {
		t.Errorf("after skip got %q, want AUDIO", rest)
	}
}

func TestSkipID3v2_NoTag(t *testing.T) {
	r := bytes.NewReader([]byte("plain mp3 frame data"))
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "plain mp3 frame data" {
		t.Errorf("untagged data should rewind to start, got %q", rest)
	}
}

func TestSkipID3v2_SyncsafeSize(t *testing.T) {
	// Size bytes 0x00 0x00 0x01 0x7f = 255 in syncsafe encoding.
	tag := []byte{'I', 'D', '3', 4, 0, 0, 0x00, 0x00, 0x01, 0x7f}
	data := append(tag, make([]byte, 255)...)
	data = append(data, 'X')

	r := bytes.NewReader(data)
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}
	b := make([]byte, 1)
	if _, err := r.Read(b); err != nil || b[0] != 'X' {
		t.Errorf("read after skip = %q, %v; want X", b, err)
	}
}
