// Package download saves songs to local files and tags them.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/song"
	"github.com/vannyda/melo/internal/ytdlp"
)

// Manager downloads songs through the yt-dlp helper and writes ID3 tags
// to the result.
type Manager struct {
	ytdlp      *ytdlp.Client
	dir        string
	httpClient *http.Client
}

// New creates a manager that saves into dir.
func New(ydl *ytdlp.Client, dir string) *Manager {
	return &Manager{
		ytdlp:      ydl,
		dir:        dir,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Download saves a song's audio and returns the final file path.
// Progress lines from the helper are forwarded to fn when non-nil.
func (m *Manager) Download(ctx context.Context, s song.Song, fn func(ytdlp.Progress)) (string, error) {
	if s.IsRadio {
		return "", fmt.Errorf("radio streams cannot be downloaded")
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download dir: %w", err)
	}

	out := filepath.Join(m.dir, fileName(s))
	path, err := m.ytdlp.Download(ctx, s.ID, out, s.Artist, s.Title, fn)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = out
	}

	if err := m.tag(ctx, path, s); err != nil {
		// A missing tag is not worth failing the download over.
		logging.L().Warn("tagging failed", zap.String("path", path), zap.Error(err))
	}

	if info, err := os.Stat(path); err == nil {
		logging.L().Info("download complete",
			zap.String("path", path),
			zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	return path, nil
}

// tag writes title, artist, and cover art ID3 frames.
func (m *Manager) tag(ctx context.Context, path string, s song.Song) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening tag: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(s.Title)
	tag.SetArtist(s.Artist)

	if art, mime, err := m.fetchArt(ctx, s.Thumbnail); err == nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Picture:     art,
		})
	}

	return tag.Save()
}

func (m *Manager) fetchArt(ctx context.Context, thumbURL string) ([]byte, string, error) {
	if thumbURL == "" {
		return nil, "", fmt.Errorf("no thumbnail")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, http.NoBody)
	if err != nil {
		return nil, "", err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("thumbnail returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

var invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// fileName builds "Artist - Title.mp3" with filesystem-hostile
// characters replaced.
func fileName(s song.Song) string {
	name := s.Title
	if s.Artist != "" {
		name = s.Artist + " - " + name
	}
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		name = s.ID
	}
	return name + ".mp3"
}
