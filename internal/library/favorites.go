package library

import (
	"database/sql"
	"time"

	"github.com/vannyda/melo/internal/song"
)

// Favorites returns all favorited songs, most recently added first.
func (s *Store) Favorites() ([]song.Song, error) {
	return listFavorites(s.db)
}

// IsFavorite reports whether the song is favorited.
func (s *Store) IsFavorite(songID string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM favorites WHERE song_id = ?", songID).Scan(&n)
	return n > 0, err
}

// ToggleFavorite adds the song to favorites, or removes it if already
// present. Returns the new favorite state.
func (s *Store) ToggleFavorite(sng song.Song) (bool, error) {
	fav, err := s.IsFavorite(sng.ID)
	if err != nil {
		return false, err
	}
	if fav {
		_, err = s.db.Exec("DELETE FROM favorites WHERE song_id = ?", sng.ID)
		return false, err
	}
	_, err = s.db.Exec(`
		INSERT INTO favorites (song_id, title, artist, thumbnail, duration, is_radio, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sng.ID, sng.Title, sng.Artist, sng.Thumbnail, sng.Duration, sng.IsRadio, time.Now().Unix())
	return true, err
}

func listFavorites(db *sql.DB) ([]song.Song, error) {
	rows, err := db.Query(`
		SELECT song_id, title, artist, thumbnail, duration, is_radio
		FROM favorites
		ORDER BY added_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSongs(rows)
}

func scanSongs(rows *sql.Rows) ([]song.Song, error) {
	var songs []song.Song
	for rows.Next() {
		var sng song.Song
		var artist, thumbnail, duration sql.NullString
		if err := rows.Scan(&sng.ID, &sng.Title, &artist, &thumbnail, &duration, &sng.IsRadio); err != nil {
			return nil, err
		}
		sng.Artist = artist.String
		sng.Thumbnail = thumbnail.String
		sng.Duration = duration.String
		songs = append(songs, sng)
	}
	return songs, rows.Err()
}
