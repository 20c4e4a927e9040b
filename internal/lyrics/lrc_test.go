package lyrics

import (
	"strings"
	"testing"
	"time"
)

func TestParseLRC_Timestamps(t *testing.T) {
	input := `[ti:Song Title]
[ar:The Artist]
[00:12.34]First line
[00:45.67]Second line
[01:30]Third line
`
	lyrics, err := ParseLRC(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseLRC() error = %v", err)
	}

	if lyrics.Title != "Song Title" {
		t.Errorf("Title = %q, want Song Title", lyrics.Title)
	}
	if lyrics.Artist != "The Artist" {
		t.Errorf("Artist = %q, want The Artist", lyrics.Artist)
	}
	if len(lyrics.Lines) != 3 {
		t.Fatalf("len(Lines) = %d, want 3", len(lyrics.Lines))
	}

	want := 12*time.Second + 340*time.Millisecond
	if lyrics.Lines[0].Time != want {
		t.Errorf("Lines[0].Time = %v, want %v", lyrics.Lines[0].Time, want)
	}
	if lyrics.Lines[2].Time != 90*time.Second {
		t.Errorf("Lines[2].Time = %v, want 1m30s", lyrics.Lines[2].Time)
	}
}

func TestParseLRC_MultipleTimestampsPerLine(t *testing.T) {
	input := "[00:10.00][00:50.00]Repeated chorus\n"

	lyrics, err := ParseLRC(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseLRC() error = %v", err)
	}
	if len(lyrics.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(lyrics.Lines))
	}
	for _, line := range lyrics.Lines {
		if line.Text != "Repeated chorus" {
			t.Errorf("Text = %q, want Repeated chorus", line.Text)
		}
	}
	if lyrics.Lines[0].Time >= lyrics.Lines[1].Time {
		t.Error("lines should be sorted by timestamp")
	}
}

func TestLineAt(t *testing.T) {
	lyrics := &Lyrics{Lines: []Line{
		{Time: 10 * time.Second, Text: "one"},
		{Time: 20 * time.Second, Text: "two"},
		{Time: 30 * time.Second, Text: "three"},
	}}

	tests := []struct {
		pos  time.Duration
		want int
	}{
		{5 * time.Second, -1},
		{10 * time.Second, 0},
		{25 * time.Second, 1},
		{99 * time.Second, 2},
	}
	for _, tt := range tests {
		if got := lyrics.LineAt(tt.pos); got != tt.want {
			t.Errorf("LineAt(%v) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestLineAt_Unsynced(t *testing.T) {
	lyrics := &Lyrics{Lines: []Line{{Time: 0, Text: "plain"}}}
	if got := lyrics.LineAt(time.Minute); got != -1 {
		t.Errorf("LineAt() on unsynced lyrics = %d, want -1", got)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Song Name (Official Video)", "Song Name"},
		{"Song Name [Official Audio]", "Song Name"},
		{"Song Name (Lyrics)", "Song Name"},
		{"Song Name ft. Someone Else", "Song Name"},
		{"Song Name feat. A & B", "Song Name"},
		{"Song Name (Remastered 2019)", "Song Name"},
		{"Plain Song Name", "Plain Song Name"},
		{"Song (Acoustic)", "Song (Acoustic)"},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
