package library

import (
	"time"

	"github.com/vannyda/melo/internal/song"
)

// maxRecent caps the recently played log.
const maxRecent = 100

// LogPlay records a song as played. Playing a song already in the log
// moves it to the front. The log keeps at most maxRecent entries.
func (s *Store) LogPlay(sng song.Song) error {
	_, err := s.db.Exec(`
		INSERT INTO recent_plays (song_id, title, artist, thumbnail, duration, is_radio, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(song_id) DO UPDATE SET played_at = excluded.played_at
	`, sng.ID, sng.Title, sng.Artist, sng.Thumbnail, sng.Duration, sng.IsRadio, time.Now().UnixNano())
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		DELETE FROM recent_plays WHERE song_id NOT IN (
			SELECT song_id FROM recent_plays ORDER BY played_at DESC LIMIT ?
		)
	`, maxRecent)
	return err
}

// RecentPlays returns the recently played songs, newest first.
func (s *Store) RecentPlays() ([]song.Song, error) {
	rows, err := s.db.Query(`
		SELECT song_id, title, artist, thumbnail, duration, is_radio
		FROM recent_plays
		ORDER BY played_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSongs(rows)
}
