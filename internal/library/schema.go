package library

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS favorites (
			song_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT,
			thumbnail TEXT,
			duration TEXT,
			is_radio INTEGER NOT NULL DEFAULT 0,
			added_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_favorites_added_at ON favorites(added_at DESC);

		CREATE TABLE IF NOT EXISTS folders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			folder_id TEXT REFERENCES folders(id) ON DELETE SET NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_songs (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			song_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			thumbnail TEXT,
			duration TEXT,
			is_radio INTEGER NOT NULL DEFAULT 0,
			UNIQUE(playlist_id, song_id),
			UNIQUE(playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_songs ON playlist_songs(playlist_id, position);

		CREATE TABLE IF NOT EXISTS recent_plays (
			song_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT,
			thumbnail TEXT,
			duration TEXT,
			is_radio INTEGER NOT NULL DEFAULT 0,
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_recent_played_at ON recent_plays(played_at DESC);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
