// Package song defines the track descriptor shared by every component.
package song

// Song describes a playable track. It is a value object: build it once,
// pass it by value, never mutate it afterwards.
type Song struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration,omitempty"`

	// AudioURL is a directly playable stream URL. Required for radio
	// stations and local files; optional otherwise.
	AudioURL string `json:"audioUrl,omitempty"`

	IsLocal   bool   `json:"isLocal,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
	IsRadio   bool   `json:"isRadio,omitempty"`
}

// HasDirectAudio reports whether the song carries its own stream URL and
// needs no resolution step.
func (s Song) HasDirectAudio() bool {
	return s.AudioURL != ""
}

// IsZero reports whether the song is the empty value.
func (s Song) IsZero() bool {
	return s.ID == "" && s.AudioURL == "" && s.LocalPath == ""
}
