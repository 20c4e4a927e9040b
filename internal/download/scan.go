package download

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/vannyda/melo/internal/song"
)

// List returns the downloaded songs found in the download directory,
// with titles and artists read from their tags. Files without readable
// tags fall back to the file name.
func (m *Manager) List() ([]song.Song, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var songs []song.Song
	for _, entry := range entries {
		if entry.IsDir() || !isMusicFile(entry.Name()) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		songs = append(songs, readLocalSong(path))
	}
	return songs, nil
}

func readLocalSong(path string) song.Song {
	s := song.Song{
		ID:        "local:" + filepath.Base(path),
		Title:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		IsLocal:   true,
		LocalPath: path,
	}

	f, err := os.Open(path)
	if err != nil {
		return s
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return s
	}
	if t := meta.Title(); t != "" {
		s.Title = t
	}
	s.Artist = meta.Artist()
	return s
}

func isMusicFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".flac", ".m4a", ".mp4", ".aac":
		return true
	}
	return false
}
