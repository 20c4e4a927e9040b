package player

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/vannyda/melo/internal/logging"
	"github.com/vannyda/melo/internal/song"
)

var (
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// Native plays audio through the local sound device. Remote files are
// spooled to a temp file before decoding so the stream is seekable;
// radio streams decode straight off the socket and never seek.
type Native struct {
	mu sync.Mutex

	ctrl     *beep.Ctrl
	volume   *effects.Volume
	streamer beep.StreamSeekCloser
	format   beep.Format
	cleanup  func()
	radio    bool
	playing  bool
	gen      int

	volumeLevel float64
	muted       bool

	events     chan Event
	httpClient *http.Client
}

// NewNative creates a native backend.
func NewNative() *Native {
	return &Native{
		volumeLevel: 1,
		events:      make(chan Event, eventBufferSize),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Load fetches and starts the stream. Playback begins immediately;
// EventReady follows a successful load.
func (n *Native) Load(ctx context.Context, s song.Song, streamURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()
	gen := n.gen

	src, cleanup, ext, err := n.open(ctx, s, streamURL)
	if err != nil {
		return err
	}

	streamer, format, err := decode(src, ext, s.IsRadio)
	if err != nil {
		cleanup()
		return err
	}

	if !speakerInitialized {
		speakerSampleRate = format.SampleRate
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			cleanup()
			return err
		}
		speakerInitialized = true
	}

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}

	n.streamer = streamer
	n.format = format
	n.cleanup = cleanup
	n.radio = s.IsRadio
	n.playing = true
	n.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: false}
	n.volume = &effects.Volume{Streamer: n.ctrl, Base: 2, Volume: levelToVolume(n.volumeLevel), Silent: n.muted}

	speaker.Play(beep.Seq(n.volume, beep.Callback(func() {
		n.mu.Lock()
		stale := gen != n.gen
		n.mu.Unlock()
		if stale {
			return
		}
		// A decode error also terminates the sequence; tell them apart.
		if err := streamer.Err(); err != nil {
			n.emit(Event{Kind: EventError, Err: err})
			return
		}
		n.emit(Event{Kind: EventEnded})
	})))

	n.emit(Event{Kind: EventReady})
	return nil
}

// open produces the decodable byte source for a song: local file, live
// radio socket, or a temp-file spool of the remote stream.
func (n *Native) open(ctx context.Context, s song.Song, streamURL string) (io.ReadSeekCloser, func(), string, error) {
	if s.IsLocal {
		f, err := os.Open(s.LocalPath)
		if err != nil {
			return nil, nil, "", err
		}
		return f, func() { f.Close() }, strings.ToLower(filepath.Ext(s.LocalPath)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, http.NoBody)
	if err != nil {
		return nil, nil, "", err
	}

	if s.IsRadio {
		// No per-request timeout: the stream stays open for the whole
		// listening session.
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, nil, "", err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, nil, "", fmt.Errorf("stream returned %s", resp.Status)
		}
		return &noSeek{resp.Body}, func() { resp.Body.Close() }, extFor(resp.Header.Get("Content-Type"), streamURL), nil
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, "", fmt.Errorf("stream returned %s", resp.Status)
	}

	ext := extFor(resp.Header.Get("Content-Type"), streamURL)
	tmp, err := os.CreateTemp("", "melo-*"+ext)
	if err != nil {
		return nil, nil, "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, "", err
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}
	return tmp, cleanup, ext, nil
}

func decode(src io.ReadSeekCloser, ext string, radio bool) (beep.StreamSeekCloser, beep.Format, error) {
	if radio {
		// Radio directories overwhelmingly serve mp3; anything else is
		// surfaced as an error rather than decoded blind.
		if ext != ".mp3" && ext != "" {
			return nil, beep.Format{}, fmt.Errorf("unsupported radio format: %s", ext)
		}
		return decodeMP3(src)
	}

	switch ext {
	case ".mp3":
		return decodeMP3(src)
	case ".flac":
		if err := skipID3v2(src); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(src)
	case ".m4a", ".mp4", ".aac":
		return decodeAAC(src)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported format: %s", ext)
	}
}

// extFor maps a Content-Type header to a decoder extension, with a URL
// path fallback.
func extFor(contentType, streamURL string) string {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mt {
			case "audio/mpeg", "audio/mp3":
				return ".mp3"
			case "audio/mp4", "audio/aac", "audio/x-m4a":
				return ".m4a"
			case "audio/flac", "audio/x-flac":
				return ".flac"
			}
		}
	}
	if u, err := url.Parse(streamURL); err == nil {
		if ext := strings.ToLower(filepath.Ext(u.Path)); ext != "" {
			return ext
		}
	}
	return ""
}

func (n *Native) Play() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ctrl == nil || n.playing {
		return
	}
	speaker.Lock()
	n.ctrl.Paused = false
	speaker.Unlock()
	n.playing = true
}

func (n *Native) Pause() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ctrl == nil || !n.playing {
		return
	}
	speaker.Lock()
	n.ctrl.Paused = true
	speaker.Unlock()
	n.playing = false
}

// SeekTo jumps to an absolute position. Radio and not-yet-loaded
// streams ignore it.
func (n *Native) SeekTo(pos time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.streamer == nil || n.radio {
		return
	}
	speaker.Lock()
	err := n.streamer.Seek(n.format.SampleRate.N(pos))
	speaker.Unlock()
	if err != nil {
		logging.L().Warn("seek failed", zap.Duration("pos", pos), zap.Error(err))
	}
}

// SetVolume sets the volume level (0.0 to 1.0).
func (n *Native) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.volumeLevel = level
	if n.volume != nil && !n.muted {
		speaker.Lock()
		n.volume.Volume = levelToVolume(level)
		speaker.Unlock()
	}
}

// SetMuted silences output without losing the volume level.
func (n *Native) SetMuted(muted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.muted = muted
	if n.volume != nil {
		speaker.Lock()
		n.volume.Silent = muted
		speaker.Unlock()
	}
}

func (n *Native) Position() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.streamer == nil || n.radio {
		return 0
	}
	speaker.Lock()
	pos := n.format.SampleRate.D(n.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the stream length, zero while nothing is loaded and
// for radio.
func (n *Native) Duration() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.streamer == nil || n.radio {
		return 0
	}
	return n.format.SampleRate.D(n.streamer.Len())
}

func (n *Native) Events() <-chan Event {
	return n.events
}

func (n *Native) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
	return nil
}

func (n *Native) stopLocked() {
	n.gen++
	if n.streamer == nil {
		return
	}
	speaker.Clear()
	n.streamer.Close()
	n.streamer = nil
	if n.cleanup != nil {
		n.cleanup()
		n.cleanup = nil
	}
	n.ctrl = nil
	n.volume = nil
	n.playing = false
}

func (n *Native) emit(ev Event) {
	select {
	case n.events <- ev:
	default:
	}
}

// noSeek adapts a plain reader to ReadSeekCloser for the decode path.
// Seeks fail, which is correct for live streams.
type noSeek struct {
	io.ReadCloser
}

func (noSeek) Seek(int64, int) (int64, error) {
	return 0, fmt.Errorf("stream is not seekable")
}

// skipID3v2 skips an ID3v2 tag if present at the start. Some taggers
// prepend them to FLAC files, which the FLAC decoder rejects.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := r.Read(header)
	if err != nil {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe integer in bytes 6-9, 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
