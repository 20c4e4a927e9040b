package lyrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/vannyda/melo/internal/lrclib"
	"github.com/vannyda/melo/internal/song"
)

// Source provides lyrics from the on-disk cache or the lrclib API.
//
// Streamed titles are rarely clean "Artist - Title" pairs, so lookup is
// layered: exact get, get with a cleaned-up title, then free-text search.
type Source struct {
	client   *lrclib.Client
	cacheDir string
}

// NewSource creates a new lyrics source.
func NewSource() *Source {
	return &Source{
		client:   lrclib.New(),
		cacheDir: filepath.Join(xdg.CacheHome, "melo", "lyrics"),
	}
}

// NewSourceWithClient creates a source over a custom client, without a
// cache directory.
func NewSourceWithClient(client *lrclib.Client) *Source {
	return &Source{client: client}
}

// FetchResult contains the result of a lyrics fetch.
type FetchResult struct {
	Lyrics *Lyrics
	Source string // "cache", "api", "search", or "not_found"
	Err    error
}

// Fetch retrieves lyrics for a song.
func (s *Source) Fetch(ctx context.Context, sng song.Song, duration time.Duration) FetchResult {
	if sng.Artist == "" || sng.Title == "" {
		return FetchResult{Source: "not_found"}
	}

	title := CleanTitle(sng.Title)

	if lyrics, err := s.loadFromCache(sng.Artist, title); err == nil && lyrics != nil {
		return FetchResult{Lyrics: lyrics, Source: "cache"}
	}

	// Exact lookup with the raw title first, then the cleaned one.
	for _, t := range candidateTitles(sng.Title, title) {
		result, err := s.client.Get(ctx, sng.Artist, t, duration)
		if err != nil {
			if errors.Is(err, lrclib.ErrNotFound) {
				continue
			}
			return FetchResult{Source: "not_found", Err: err}
		}
		if r := s.finish(sng.Artist, title, result, "api"); r != nil {
			return *r
		}
	}

	return s.search(ctx, sng.Artist, title)
}

func (s *Source) search(ctx context.Context, artist, title string) FetchResult {
	results, err := s.client.Search(ctx, artist+" "+title)
	if err != nil {
		return FetchResult{Source: "not_found", Err: err}
	}
	for i := range results {
		if r := s.finish(artist, title, &results[i], "search"); r != nil {
			return *r
		}
	}
	return FetchResult{Source: "not_found"}
}

// finish parses an API result into lyrics, caching synced ones. Returns
// nil when the result has nothing usable.
func (s *Source) finish(artist, title string, result *lrclib.LyricsResult, source string) *FetchResult {
	lyrics := parseLyricsResult(result)
	if lyrics == nil || len(lyrics.Lines) == 0 {
		return nil
	}
	if result.HasSyncedLyrics() {
		_ = s.saveToCache(artist, title, result.SyncedLyrics)
	}
	return &FetchResult{Lyrics: lyrics, Source: source}
}

// parseLyricsResult parses the API result into a Lyrics struct.
func parseLyricsResult(result *lrclib.LyricsResult) *Lyrics {
	var lyrics *Lyrics
	if result.HasSyncedLyrics() {
		var err error
		lyrics, err = ParseLRC(strings.NewReader(result.SyncedLyrics))
		if err != nil {
			return nil
		}
	} else if result.HasPlainLyrics() {
		// Unsynced: every line at time zero.
		lyrics = &Lyrics{}
		for line := range strings.SplitSeq(result.PlainLyrics, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lyrics.Lines = append(lyrics.Lines, Line{Time: 0, Text: line})
			}
		}
	}

	if lyrics == nil {
		return nil
	}

	if lyrics.Artist == "" {
		lyrics.Artist = result.ArtistName
	}
	if lyrics.Title == "" {
		lyrics.Title = result.TrackName
	}
	if lyrics.Album == "" {
		lyrics.Album = result.AlbumName
	}

	return lyrics
}

func candidateTitles(raw, cleaned string) []string {
	if cleaned == raw || cleaned == "" {
		return []string{raw}
	}
	return []string{raw, cleaned}
}

// Qualifiers that video titles carry but lyrics databases do not.
var (
	bracketedRe = regexp.MustCompile(`(?i)[(\[][^)\]]*(official|video|audio|lyric|lyrics|visuali[sz]er|remaster|hd|hq|mv|4k)[^)\]]*[)\]]`)
	featRe      = regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring)\s+.*$`)
)

// CleanTitle strips video-title noise like "(Official Video)" or a
// trailing "ft. Someone" so exact lyric lookup has a chance.
func CleanTitle(title string) string {
	title = bracketedRe.ReplaceAllString(title, "")
	title = featRe.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(title), " ")
}

// loadFromCache loads previously fetched lyrics for a track.
func (s *Source) loadFromCache(artist, title string) (*Lyrics, error) {
	path := s.cachePath(artist, title)
	if path == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLRC(f)
}

// cachePath returns the cache file path for a track.
func (s *Source) cachePath(artist, title string) string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, sanitizeFilename(artist), sanitizeFilename(title)+".lrc")
}

// saveToCache saves LRC content to the cache directory.
func (s *Source) saveToCache(artist, title, content string) error {
	path := s.cachePath(artist, title)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

func sanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "_"
	}
	return name
}
