package radio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func stationServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithBaseURL(srv.URL)
}

func TestTop(t *testing.T) {
	client := stationServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stations/topclick/5" {
			t.Errorf("path = %q, want /stations/topclick/5", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Station{
			{StationUUID: "a", Name: "First"},
			{StationUUID: "b", Name: "Second"},
		})
	})

	stations, err := client.Top(context.Background(), 5)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("len(stations) = %d, want 2", len(stations))
	}
	if stations[0].Name != "First" {
		t.Errorf("stations[0].Name = %q, want First", stations[0].Name)
	}
}

func TestByCountry(t *testing.T) {
	client := stationServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bycountrycodeexact/FR") {
			t.Errorf("path = %q, want .../bycountrycodeexact/FR", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("order") != "clickcount" || q.Get("reverse") != "true" {
			t.Errorf("query = %v, want clickcount order reversed", q)
		}
		json.NewEncoder(w).Encode([]Station{{StationUUID: "fr1"}})
	})

	stations, err := client.ByCountry(context.Background(), "FR", 10)
	if err != nil {
		t.Fatalf("ByCountry() error = %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("len(stations) = %d, want 1", len(stations))
	}
}

func TestSearch_MergesAndDedupes(t *testing.T) {
	client := stationServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("name") != "":
			json.NewEncoder(w).Encode([]Station{
				{StationUUID: "a", Name: "Jazz FM"},
				{StationUUID: "b", Name: "Jazz 24"},
			})
		case q.Get("tag") != "":
			json.NewEncoder(w).Encode([]Station{
				{StationUUID: "b", Name: "Jazz 24"},
				{StationUUID: "c", Name: "Smooth"},
			})
		default:
			t.Errorf("query carries neither name nor tag: %v", q)
		}
	})

	stations, err := client.Search(context.Background(), "jazz", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(stations) != 3 {
		t.Fatalf("len(stations) = %d, want 3 after dedup", len(stations))
	}
	seen := map[string]bool{}
	for _, s := range stations {
		if seen[s.StationUUID] {
			t.Errorf("duplicate station %q survived dedup", s.StationUUID)
		}
		seen[s.StationUUID] = true
	}
}

func TestSearch_CapsResults(t *testing.T) {
	client := stationServer(t, func(w http.ResponseWriter, r *http.Request) {
		stations := make([]Station, 4)
		prefix := "n"
		if r.URL.Query().Get("tag") != "" {
			prefix = "t"
		}
		for i := range stations {
			stations[i] = Station{StationUUID: prefix + string(rune('0'+i))}
		}
		json.NewEncoder(w).Encode(stations)
	})

	stations, err := client.Search(context.Background(), "rock", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(stations) != 5 {
		t.Errorf("len(stations) = %d, want 5", len(stations))
	}
}

func TestSearch_OneLegFailing(t *testing.T) {
	client := stationServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]Station{{StationUUID: "x"}})
	})

	stations, err := client.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil when one leg succeeds", err)
	}
	if len(stations) != 1 {
		t.Errorf("len(stations) = %d, want 1", len(stations))
	}
}

func TestSearch_AllFailing(t *testing.T) {
	client := stationServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Search(context.Background(), "q", 10); err == nil {
		t.Fatal("Search() error = nil, want error when both legs fail")
	}
}

func TestStationStreamURL(t *testing.T) {
	s := Station{URL: "http://plain", URLResolved: "http://resolved"}
	if got := s.StreamURL(); got != "http://resolved" {
		t.Errorf("StreamURL() = %q, want resolved URL", got)
	}
	s.URLResolved = ""
	if got := s.StreamURL(); got != "http://plain" {
		t.Errorf("StreamURL() = %q, want plain URL", got)
	}
}

func TestStationSong(t *testing.T) {
	s := Station{StationUUID: "uuid-1", Name: "Station", Country: "France", URL: "http://stream"}
	sng := s.Song()
	if sng.ID != "uuid-1" || sng.Title != "Station" || sng.Artist != "France" {
		t.Errorf("Song() = %+v, want station fields mapped", sng)
	}
	if !sng.IsRadio {
		t.Error("IsRadio = false, want true")
	}
	if sng.AudioURL != "http://stream" {
		t.Errorf("AudioURL = %q, want http://stream", sng.AudioURL)
	}

	anon := Station{Name: "No UUID"}.Song()
	if anon.ID == "" {
		t.Error("Song() without UUID should generate an ID")
	}
}
