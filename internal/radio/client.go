// Package radio looks up internet radio stations on radio-browser.info.
package radio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/vannyda/melo/internal/song"
)

const (
	defaultBaseURL = "https://de1.api.radio-browser.info/json"
	userAgent      = "melo/1.0 (https://github.com/vannyda/melo)"
)

// Station is one directory entry.
type Station struct {
	StationUUID string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	URLResolved string `json:"url_resolved"`
	Favicon     string `json:"favicon"`
	Country     string `json:"country"`
	CountryCode string `json:"countrycode"`
	Tags        string `json:"tags"`
	Codec       string `json:"codec"`
	Bitrate     int    `json:"bitrate"`
}

// StreamURL returns the playable URL, preferring the resolved one.
func (s Station) StreamURL() string {
	if s.URLResolved != "" {
		return s.URLResolved
	}
	return s.URL
}

// Song converts a station into a playable radio song. Stations without a
// UUID get a generated one so queue and history bookkeeping still work.
func (s Station) Song() song.Song {
	id := s.StationUUID
	if id == "" {
		id = uuid.NewString()
	}
	return song.Song{
		ID:        id,
		Title:     s.Name,
		Artist:    s.Country,
		Thumbnail: s.Favicon,
		AudioURL:  s.StreamURL(),
		IsRadio:   true,
	}
}

// Client is a radio-browser.info API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new directory client.
func New() *Client {
	return NewWithBaseURL(defaultBaseURL)
}

// NewWithBaseURL creates a client against a custom endpoint.
func NewWithBaseURL(base string) *Client {
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Top returns the most clicked stations.
func (c *Client) Top(ctx context.Context, limit int) ([]Station, error) {
	return c.get(ctx, fmt.Sprintf("stations/topclick/%d", limit), nil)
}

// ByCountry returns stations for an ISO 3166-1 alpha-2 country code.
func (c *Client) ByCountry(ctx context.Context, code string, limit int) ([]Station, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(limit))
	params.Set("order", "clickcount")
	params.Set("reverse", "true")
	return c.get(ctx, "stations/bycountrycodeexact/"+url.PathEscape(code), params)
}

// Search queries the directory by name and by tag, merging the two result
// sets and dropping duplicate stations.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Station, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(limit))
	params.Set("order", "clickcount")
	params.Set("reverse", "true")

	var merged []Station
	var firstErr error
	for _, field := range []string{"name", "tag"} {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set(field, query)
		stations, err := c.get(ctx, "stations/search", p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		merged = append(merged, stations...)
	}

	if len(merged) == 0 && firstErr != nil {
		return nil, firstErr
	}

	merged = lo.UniqBy(merged, func(s Station) string { return s.StationUUID })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]Station, error) {
	reqURL := c.baseURL + "/" + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var stations []Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return stations, nil
}
