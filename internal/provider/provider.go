package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/song"
	"github.com/vannyda/melo/internal/ytdlp"
)

const (
	searchMaxResults  = 12
	relatedMaxResults = 10
)

// placeholderSongs is the floor under search: when both the Data API and
// yt-dlp fail, these are returned so the catalogue is never empty. The
// audio URL is a free sample track that always resolves.
var placeholderSongs = []song.Song{
	{
		ID:        "MQn7Kw6v93Y",
		Title:     "Lofi Hip Hop Radio - Beats to Relax/Study to",
		Artist:    "Lofi Girl",
		Thumbnail: "https://i.ytimg.com/vi/MQn7Kw6v93Y/hqdefault.jpg",
		AudioURL:  "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3",
	},
	{
		ID:        "5qap5aO4i9A",
		Title:     "Chillhop Radio - Jazzy & Lofi Hip Hop Beats",
		Artist:    "Chillhop Music",
		Thumbnail: "https://i.ytimg.com/vi/5qap5aO4i9A/hqdefault.jpg",
		AudioURL:  "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-2.mp3",
	},
}

// Provider answers search and related-songs queries against the YouTube
// Data API, rotating through the credential pool, with yt-dlp as the
// keyless fallback and a fixed placeholder set as the floor.
type Provider struct {
	pool  *Pool
	ytdlp *ytdlp.Client
	opts  []option.ClientOption

	mu       sync.Mutex
	services map[string]*youtube.Service
}

// New builds a provider over the given pool. Extra client options are
// appended to every service, after the per-key credential.
func New(pool *Pool, ydl *ytdlp.Client, opts ...option.ClientOption) *Provider {
	return &Provider{
		pool:     pool,
		ytdlp:    ydl,
		opts:     opts,
		services: make(map[string]*youtube.Service),
	}
}

// Exhausted is closed once every credential in the pool has hit its
// quota. Callers can surface a banner off it.
func (p *Provider) Exhausted() <-chan struct{} {
	return p.pool.Exhausted()
}

// service returns a cached Data API client bound to the given key.
func (p *Provider) service(ctx context.Context, key string) (*youtube.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if svc, ok := p.services[key]; ok {
		return svc, nil
	}
	opts := append([]option.ClientOption{option.WithAPIKey(key)}, p.opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	p.services[key] = svc
	return svc, nil
}

// SearchPage is one page of search results. NextPageToken is empty on
// the last page and on the fallback paths, which do not paginate.
type SearchPage struct {
	Songs         []song.Song
	NextPageToken string
}

// Search looks up songs for a free-text query. An empty pageToken asks
// for the first page. It never returns an empty result set: the Data API
// is tried first across the key pool, then yt-dlp, then the placeholder
// set.
func (p *Provider) Search(ctx context.Context, query, pageToken string) SearchPage {
	songs, next, err := p.apiSearch(ctx, query, searchMaxResults, pageToken)
	if err == nil && len(songs) > 0 {
		return SearchPage{Songs: songs, NextPageToken: next}
	}
	if err != nil {
		logging.L().Warn("api search failed", zap.String("query", query), zap.Error(err))
	}

	if p.ytdlp.Available() {
		songs, err = p.ytdlp.Search(ctx, query, searchMaxResults)
		if err == nil && len(songs) > 0 {
			return SearchPage{Songs: songs}
		}
		if err != nil {
			logging.L().Warn("ytdlp search failed", zap.String("query", query), zap.Error(err))
		}
	}

	logging.L().Info("search falling back to placeholders", zap.String("query", query))
	return SearchPage{Songs: placeholderSongs}
}

// Related returns up to ten songs related to the given one. The artist
// is recovered via Videos.List when the caller has no hint. Results never
// include the origin song itself.
func (p *Provider) Related(ctx context.Context, videoID, artistHint string) []song.Song {
	if videoID == "" && artistHint == "" {
		return nil
	}
	if p.pool.Len() == 0 {
		return nil
	}

	query := artistHint
	if query == "" {
		query = p.channelTitle(ctx, videoID)
	}
	if query == "" {
		return nil
	}

	songs, _, err := p.apiSearch(ctx, query, relatedMaxResults+1, "")
	if err != nil {
		logging.L().Warn("related search failed", zap.String("video_id", videoID), zap.Error(err))
		return placeholderRelated()
	}

	songs = lo.Filter(songs, func(s song.Song, _ int) bool { return s.ID != videoID })
	if len(songs) > relatedMaxResults {
		songs = songs[:relatedMaxResults]
	}
	return songs
}

// channelTitle fetches the uploader name for a video. Failures are
// tolerated; related lookup just degrades to nothing.
func (p *Provider) channelTitle(ctx context.Context, videoID string) string {
	var title string
	err := p.pool.Do(func(key string) error {
		svc, err := p.service(ctx, key)
		if err != nil {
			return err
		}
		resp, err := svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
			title = resp.Items[0].Snippet.ChannelTitle
		}
		return nil
	})
	if err != nil {
		logging.L().Debug("channel title lookup failed", zap.String("video_id", videoID), zap.Error(err))
	}
	return title
}

func (p *Provider) apiSearch(ctx context.Context, query string, max int64, pageToken string) ([]song.Song, string, error) {
	var (
		songs []song.Song
		next  string
	)
	err := p.pool.Do(func(key string) error {
		svc, err := p.service(ctx, key)
		if err != nil {
			return err
		}
		call := svc.Search.List([]string{"snippet"}).
			Q(query).
			Type("video").
			VideoCategoryId("10").
			MaxResults(max)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return err
		}
		next = resp.NextPageToken
		songs = songs[:0]
		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
				continue
			}
			songs = append(songs, song.Song{
				ID:        item.Id.VideoId,
				Title:     item.Snippet.Title,
				Artist:    item.Snippet.ChannelTitle,
				Thumbnail: thumbnailURL(item.Snippet.Thumbnails),
			})
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return songs, next, nil
}

func placeholderRelated() []song.Song {
	return lo.Map(placeholderSongs, func(s song.Song, _ int) song.Song {
		s.Title = "Related: " + s.Title
		return s
	})
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.High != nil:
		return t.High.Url
	case t.Medium != nil:
		return t.Medium.Url
	case t.Default != nil:
		return t.Default.Url
	}
	return ""
}
