// Package resolver turns a video id into a playable audio stream URL.
//
// Resolution order: the local yt-dlp helper when configured, then each
// public mirror in turn (direct request first, then through the CORS
// relay), extracting the best audio-only stream. Every step failure falls
// through to the next; only full exhaustion yields ErrNoStream.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/config"
	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/ytdlp"
)

// ErrNoStream is returned when every resolution step failed. Callers must
// surface it rather than substituting placeholder audio.
var ErrNoStream = errors.New("resolver: no playable stream found")

const (
	directTimeout = 3 * time.Second
	relayTimeout  = 5 * time.Second
)

// Resolver resolves stream URLs. Zero caching: every call re-resolves.
type Resolver struct {
	ytdlp   *ytdlp.Client
	mirrors []config.Mirror
	relay   string

	directClient *http.Client
	relayClient  *http.Client
}

// New builds a resolver. ydl may be nil or unconfigured; the native step
// is skipped in that case.
func New(ydl *ytdlp.Client, mirrors []config.Mirror, relayURL string) *Resolver {
	return &Resolver{
		ytdlp:        ydl,
		mirrors:      mirrors,
		relay:        relayURL,
		directClient: &http.Client{Timeout: directTimeout},
		relayClient:  &http.Client{Timeout: relayTimeout},
	}
}

// Resolve returns a direct audio URL for the given video id, or ErrNoStream.
// It never returns any other error: every failure mode is a fall-through.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (string, error) {
	log := logging.L()

	// 1. Local yt-dlp, the most reliable source when present.
	if r.ytdlp.Available() {
		u, err := r.ytdlp.GetURL(ctx, videoID)
		if err == nil && u != "" {
			return u, nil
		}
		log.Warn("local resolver failed, trying mirrors", zap.String("video", videoID), zap.Error(err))
	}

	// 2. Public mirrors: direct fetch first, relay on failure.
	for _, m := range r.mirrors {
		target := mirrorEndpoint(m, videoID)
		if target == "" {
			continue
		}

		body, err := r.fetch(ctx, r.directClient, target)
		if err != nil {
			log.Debug("direct mirror fetch failed, trying relay",
				zap.String("mirror", m.URL), zap.Error(err))
			body, err = r.fetch(ctx, r.relayClient, r.relay+url.QueryEscape(target))
			if err != nil {
				log.Debug("relayed mirror fetch failed",
					zap.String("mirror", m.URL), zap.Error(err))
				continue
			}
		}

		u, err := extractAudioURL(m.Kind, body)
		if err != nil {
			log.Debug("mirror response unusable", zap.String("mirror", m.URL), zap.Error(err))
			continue
		}
		return u, nil
	}

	log.Warn("all stream providers failed", zap.String("video", videoID))
	return "", ErrNoStream
}

func (r *Resolver) fetch(ctx context.Context, client *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func mirrorEndpoint(m config.Mirror, videoID string) string {
	switch m.Kind {
	case "piped":
		return m.URL + "/streams/" + videoID
	case "invidious":
		return m.URL + "/api/v1/videos/" + videoID
	default:
		return ""
	}
}

// pipedResponse and invidiousResponse match the two mirror wire formats.
type pipedResponse struct {
	AudioStreams []pipedStream `json:"audioStreams"`
}

type pipedStream struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

type invidiousResponse struct {
	AdaptiveFormats []invidiousFormat `json:"adaptiveFormats"`
}

type invidiousFormat struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// extractAudioURL picks the best audio-only stream: audio/mp4 preferred,
// audio/webm as fallback.
func extractAudioURL(kind string, body []byte) (string, error) {
	switch kind {
	case "piped":
		var pr pipedResponse
		if err := json.Unmarshal(body, &pr); err != nil {
			return "", fmt.Errorf("decode piped response: %w", err)
		}
		for _, mime := range []string{"audio/mp4", "audio/webm"} {
			for _, s := range pr.AudioStreams {
				if s.MimeType == mime && s.URL != "" {
					return s.URL, nil
				}
			}
		}
		return "", errors.New("no audio stream in piped response")

	case "invidious":
		var ir invidiousResponse
		if err := json.Unmarshal(body, &ir); err != nil {
			return "", fmt.Errorf("decode invidious response: %w", err)
		}
		for _, mime := range []string{"audio/mp4", "audio/webm"} {
			for _, f := range ir.AdaptiveFormats {
				if strings.Contains(f.Type, mime) && f.URL != "" {
					return f.URL, nil
				}
			}
		}
		return "", errors.New("no audio format in invidious response")

	default:
		return "", fmt.Errorf("unknown mirror kind %q", kind)
	}
}
