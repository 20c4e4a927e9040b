// Package ytdlp drives the local yt-dlp helper script over its
// line-oriented JSON protocol.
//
// The helper is invoked as:
//
//	python3 <script> get_url <videoID>
//	python3 <script> search <query> <limit>
//	python3 <script> download <videoID> <outputPath> <artist> <title>
//
// and emits one JSON object per stdout line with a "status" field
// (progress, converting, downloading, installing, success, error).
// Non-JSON lines are ignored.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/song"
)

const (
	defaultURLTimeout    = 30 * time.Second
	defaultSearchTimeout = 45 * time.Second
)

// ErrUnavailable is returned when no helper script is configured.
var ErrUnavailable = errors.New("ytdlp: not configured")

// Client runs the helper script as a subprocess.
type Client struct {
	// Python is the interpreter to invoke. Defaults to "python3".
	Python string

	// Script is the helper script path. Required.
	Script string

	// URLTimeout bounds get_url calls; SearchTimeout bounds search calls.
	// Downloads take their deadline from the caller's context.
	URLTimeout    time.Duration
	SearchTimeout time.Duration
}

// New creates a client for the given script path. An empty path yields a
// client whose calls all fail with ErrUnavailable.
func New(python, script string) *Client {
	if python == "" {
		python = "python3"
	}
	return &Client{
		Python:        python,
		Script:        script,
		URLTimeout:    defaultURLTimeout,
		SearchTimeout: defaultSearchTimeout,
	}
}

// Available reports whether the helper script is configured.
func (c *Client) Available() bool {
	return c != nil && c.Script != ""
}

// message is one line of helper output.
type message struct {
	Status   string         `json:"status"`
	Message  string         `json:"message"`
	Progress string         `json:"progress"`
	URL      string         `json:"url"`
	File     string         `json:"file"`
	Results  []searchResult `json:"results"`
}

type searchResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
}

// GetURL extracts a direct audio stream URL for the given video id.
func (c *Client) GetURL(ctx context.Context, videoID string) (string, error) {
	msgs, err := c.run(ctx, c.URLTimeout, "get_url", videoID)
	if err != nil {
		return "", err
	}
	for _, m := range msgs {
		if m.Status == "success" && m.URL != "" {
			return m.URL, nil
		}
	}
	return "", fmt.Errorf("ytdlp: no stream url in output%s", lastError(msgs))
}

// Search performs a keyword search and returns up to limit songs.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]song.Song, error) {
	if limit <= 0 {
		limit = 10
	}
	msgs, err := c.run(ctx, c.SearchTimeout, "search", query, strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.Status != "success" {
			continue
		}
		songs := make([]song.Song, 0, len(m.Results))
		for _, r := range m.Results {
			if r.ID == "" || r.Title == "" {
				continue
			}
			songs = append(songs, song.Song{
				ID:        r.ID,
				Title:     r.Title,
				Artist:    r.Artist,
				Thumbnail: r.Thumbnail,
			})
		}
		return songs, nil
	}
	return nil, fmt.Errorf("ytdlp: search failed%s", lastError(msgs))
}

// Progress is a download progress report.
type Progress struct {
	Percent string
	Message string
}

// Download fetches the audio of videoID to outputPath, reporting progress
// through fn (which may be nil). It returns the path reported by the
// helper on success.
func (c *Client) Download(ctx context.Context, videoID, outputPath, artist, title string, fn func(Progress)) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, c.Python, c.Script, "download", videoID, outputPath, artist, title)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("ytdlp: stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("ytdlp: start: %w", err)
	}

	var (
		file    string
		lastMsg string
	)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		switch m.Status {
		case "progress", "downloading", "converting", "installing":
			if fn != nil {
				fn(Progress{Percent: m.Progress, Message: m.Message})
			}
		case "success":
			file = m.File
		case "error":
			lastMsg = m.Message
		}
	}

	if err := cmd.Wait(); err != nil {
		if lastMsg == "" {
			lastMsg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("ytdlp: download failed: %w: %s", err, lastMsg)
	}
	if file == "" {
		if lastMsg != "" {
			return "", fmt.Errorf("ytdlp: download failed: %s", lastMsg)
		}
		return "", errors.New("ytdlp: download produced no file")
	}
	return file, nil
}

// run executes the helper and collects all JSON messages from stdout.
// A non-zero exit with no parseable success line surfaces as an error.
func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) ([]message, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := append([]string{c.Script}, args...)
	cmd := exec.CommandContext(cmdCtx, c.Python, argv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	msgs := parseOutput(stdout.Bytes())

	if runErr != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ytdlp: %s timed out: %w", args[0], cmdCtx.Err())
		}
		// The helper exits non-zero after printing a JSON error line;
		// surface that message when we have it.
		if msg := lastError(msgs); msg != "" {
			return nil, fmt.Errorf("ytdlp: %s failed:%s", args[0], msg)
		}
		return nil, fmt.Errorf("ytdlp: %s failed: %w: %s", args[0], runErr, strings.TrimSpace(stderr.String()))
	}

	if len(msgs) == 0 {
		logging.L().Warn("ytdlp produced no parseable output", zap.String("command", args[0]))
	}
	return msgs, nil
}

func parseOutput(out []byte) []message {
	var msgs []message
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if m, ok := parseLine(scanner.Text()); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func parseLine(line string) (message, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return message{}, false
	}
	var m message
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return message{}, false
	}
	return m, true
}

func lastError(msgs []message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Status == "error" && msgs[i].Message != "" {
			return " " + msgs[i].Message
		}
	}
	return ""
}
