// Package sponsorblock looks up community-flagged skippable segments.
package sponsorblock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
)

const defaultBaseURL = "https://sponsor.ajay.app/api/skipSegments"

// Categories requested on every lookup; only "skip"-type actions apply.
var defaultCategories = []string{
	"sponsor",
	"selfpromo",
	"interaction",
	"intro",
	"outro",
	"music_offtopic",
}

// Segment is one skippable time range.
type Segment struct {
	Category   string     `json:"category"`
	ActionType string     `json:"actionType"`
	Segment    [2]float64 `json:"segment"` // [start, end] in seconds
	UUID       string     `json:"UUID"`
}

// Start returns the segment start in seconds.
func (s Segment) Start() float64 { return s.Segment[0] }

// End returns the segment end in seconds.
func (s Segment) End() float64 { return s.Segment[1] }

// Contains reports whether t falls within [start, end).
func (s Segment) Contains(t float64) bool {
	return t >= s.Segment[0] && t < s.Segment[1]
}

// Client is a SponsorBlock API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client against the public API.
func New() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithBaseURL creates a client against a specific endpoint (tests).
func NewWithBaseURL(baseURL string) *Client {
	c := New()
	c.baseURL = baseURL
	return c
}

// Get fetches skip segments for a video. It fails open: 404 means no
// segments, and any other failure is logged and reported as no segments.
// Playback is never blocked by this call.
func (c *Client) Get(ctx context.Context, videoID string) []Segment {
	segments, err := c.get(ctx, videoID)
	if err != nil {
		logging.L().Warn("skip segment lookup failed",
			zap.String("video", videoID), zap.Error(err))
		return nil
	}
	return segments
}

func (c *Client) get(ctx context.Context, videoID string) ([]Segment, error) {
	categories, err := json.Marshal(defaultCategories)
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}
	actionTypes, err := json.Marshal([]string{"skip"})
	if err != nil {
		return nil, fmt.Errorf("encode action types: %w", err)
	}

	params := url.Values{}
	params.Set("videoID", videoID)
	params.Set("categories", string(categories))
	params.Set("actionTypes", string(actionTypes))

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	// 404 is the normal "no segments for this video" answer.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var segments []Segment
	if err := json.NewDecoder(resp.Body).Decode(&segments); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return segments, nil
}
