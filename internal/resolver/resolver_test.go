package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/vannyda/melo/internal/config"
)

func TestResolve_PipedPrefersMP4(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/streams/") {
			t.Errorf("path = %q, want /streams/...", r.URL.Path)
		}
		w.Write([]byte(`{"audioStreams":[
			{"url":"https://cdn/webm","mimeType":"audio/webm"},
			{"url":"https://cdn/mp4","mimeType":"audio/mp4"}
		]}`))
	}))
	defer srv.Close()

	r := New(nil, []config.Mirror{{URL: srv.URL, Kind: "piped"}}, "")
	got, err := r.Resolve(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn/mp4" {
		t.Errorf("Resolve() = %q, want the audio/mp4 stream", got)
	}
}

func TestResolve_PipedFallsBackToWebM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"audioStreams":[{"url":"https://cdn/webm","mimeType":"audio/webm"}]}`))
	}))
	defer srv.Close()

	r := New(nil, []config.Mirror{{URL: srv.URL, Kind: "piped"}}, "")
	got, err := r.Resolve(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn/webm" {
		t.Errorf("Resolve() = %q, want the audio/webm stream", got)
	}
}

func TestResolve_InvidiousTypeMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/videos/") {
			t.Errorf("path = %q, want /api/v1/videos/...", r.URL.Path)
		}
		w.Write([]byte(`{"adaptiveFormats":[
			{"url":"https://cdn/video","type":"video/mp4; codecs=\"avc1\""},
			{"url":"https://cdn/audio","type":"audio/mp4; codecs=\"mp4a.40.2\""}
		]}`))
	}))
	defer srv.Close()

	r := New(nil, []config.Mirror{{URL: srv.URL, Kind: "invidious"}}, "")
	got, err := r.Resolve(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn/audio" {
		t.Errorf("Resolve() = %q, want the audio format", got)
	}
}

func TestResolve_FallsThroughDeadMirror(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"audioStreams":[{"url":"https://cdn/ok","mimeType":"audio/mp4"}]}`))
	}))
	defer alive.Close()

	r := New(nil, []config.Mirror{
		{URL: dead.URL, Kind: "piped"},
		{URL: alive.URL, Kind: "piped"},
	}, "")
	got, err := r.Resolve(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn/ok" {
		t.Errorf("Resolve() = %q, want the second mirror's stream", got)
	}
}

func TestResolve_RelayAfterDirectFailure(t *testing.T) {
	var relayed string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = r.URL.RawQuery
		w.Write([]byte(`{"audioStreams":[{"url":"https://cdn/relayed","mimeType":"audio/mp4"}]}`))
	}))
	defer relay.Close()

	// The mirror host does not exist; only the relay answers.
	mirror := config.Mirror{URL: "http://127.0.0.1:1", Kind: "piped"}
	r := New(nil, []config.Mirror{mirror}, relay.URL+"/?u=")

	got, err := r.Resolve(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn/relayed" {
		t.Errorf("Resolve() = %q, want the relayed stream", got)
	}
	wantTarget := url.QueryEscape(mirror.URL + "/streams/vid1")
	if !strings.Contains(relayed, wantTarget) {
		t.Errorf("relay query = %q, want escaped mirror target %q", relayed, wantTarget)
	}
}

func TestResolve_ExhaustionYieldsErrNoStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	r := New(nil, []config.Mirror{{URL: srv.URL, Kind: "piped"}}, srv.URL+"/?u=")
	_, err := r.Resolve(context.Background(), "vid1")
	if !errors.Is(err, ErrNoStream) {
		t.Errorf("Resolve() error = %v, want ErrNoStream", err)
	}
}

func TestResolve_UnusableBodyFallsThrough(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"audioStreams":[]}`))
	}))
	defer empty.Close()

	r := New(nil, []config.Mirror{{URL: empty.URL, Kind: "piped"}}, "")
	_, err := r.Resolve(context.Background(), "vid1")
	if !errors.Is(err, ErrNoStream) {
		t.Errorf("Resolve() error = %v, want ErrNoStream", err)
	}
}
