package library

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vannyda/melo/internal/song"
)

// ErrPlaylistNotFound is returned for operations on an unknown playlist.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Playlist is a named ordered list of songs, optionally inside a folder.
type Playlist struct {
	ID       string
	Name     string
	FolderID string // empty when top-level
	Songs    []song.Song
}

// Folder groups playlists.
type Folder struct {
	ID   string
	Name string
}

// CreateFolder creates a playlist folder and returns it.
func (s *Store) CreateFolder(name string) (Folder, error) {
	f := Folder{ID: uuid.NewString(), Name: name}
	_, err := s.db.Exec(`
		INSERT INTO folders (id, name, created_at) VALUES (?, ?, ?)
	`, f.ID, f.Name, time.Now().Unix())
	return f, err
}

// DeleteFolder removes a folder. Its playlists survive and become
// top-level.
func (s *Store) DeleteFolder(id string) error {
	_, err := s.db.Exec("DELETE FROM folders WHERE id = ?", id)
	return err
}

// Folders returns all folders by name.
func (s *Store) Folders() ([]Folder, error) {
	rows, err := s.db.Query("SELECT id, name FROM folders ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// CreatePlaylist creates an empty playlist, optionally inside a folder.
func (s *Store) CreatePlaylist(name, folderID string) (Playlist, error) {
	p := Playlist{ID: uuid.NewString(), Name: name, FolderID: folderID}
	_, err := s.db.Exec(`
		INSERT INTO playlists (id, name, folder_id, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Name, nullable(folderID), time.Now().Unix())
	return p, err
}

// DeletePlaylist removes a playlist and its songs.
func (s *Store) DeletePlaylist(id string) error {
	_, err := s.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	return err
}

// RenamePlaylist changes a playlist's name.
func (s *Store) RenamePlaylist(id, name string) error {
	res, err := s.db.Exec("UPDATE playlists SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// MovePlaylist puts a playlist into a folder, or makes it top-level when
// folderID is empty.
func (s *Store) MovePlaylist(id, folderID string) error {
	res, err := s.db.Exec("UPDATE playlists SET folder_id = ? WHERE id = ?", nullable(folderID), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// AddToPlaylist appends a song to a playlist. Adding a song already in
// the playlist is a no-op.
func (s *Store) AddToPlaylist(playlistID string, sng song.Song) error {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM playlists WHERE id = ?", playlistID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrPlaylistNotFound
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO playlist_songs
			(playlist_id, position, song_id, title, artist, thumbnail, duration, is_radio)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_songs WHERE playlist_id = ?), ?, ?, ?, ?, ?, ?)
	`, playlistID, playlistID, sng.ID, sng.Title, sng.Artist, sng.Thumbnail, sng.Duration, sng.IsRadio)
	return err
}

// RemoveFromPlaylist removes a song from a playlist.
func (s *Store) RemoveFromPlaylist(playlistID, songID string) error {
	_, err := s.db.Exec(`
		DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?
	`, playlistID, songID)
	return err
}

// Playlists returns all playlists with their songs, by name.
func (s *Store) Playlists() ([]Playlist, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(folder_id, '') FROM playlists ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.FolderID); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		songs, err := playlistSongs(s.db, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Songs = songs
	}
	return playlists, nil
}

func playlistSongs(db *sql.DB, playlistID string) ([]song.Song, error) {
	rows, err := db.Query(`
		SELECT song_id, title, artist, thumbnail, duration, is_radio
		FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSongs(rows)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
