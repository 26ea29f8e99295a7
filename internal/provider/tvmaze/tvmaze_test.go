package tvmaze

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"whendropped/internal/dates"
)

func TestSchedule_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if d := r.URL.Query().Get("date"); d != "1999-01-10" {
			t.Errorf("date = %q", d)
		}
		if c := r.URL.Query().Get("country"); c != "US" {
			t.Errorf("country = %q", c)
		}
		w.Write([]byte(`[{
			"name": "Pilot",
			"season": 1,
			"number": 1,
			"airdate": "1999-01-10",
			"show": {
				"name": "The Sopranos",
				"url": "https://www.tvmaze.com/shows/527",
				"genres": ["Drama", "Crime"],
				"network": {"name": "HBO"},
				"image": {"medium": "https://static.example/sopranos.jpg"}
			}
		}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	episodes, err := c.Schedule(context.Background(), "1999-01-10", "US")
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(episodes))
	}

	ep := episodes[0]
	if ep.Show.Name != "The Sopranos" || ep.Season != 1 || ep.Number != 1 {
		t.Errorf("episode = %+v", ep)
	}
	if ep.Show.NetworkName() != "HBO" {
		t.Errorf("NetworkName() = %q, want HBO", ep.Show.NetworkName())
	}
	if ep.Show.ImageURL() == "" {
		t.Error("expected image URL")
	}
}

func TestShow_NetworkFallsBackToWebChannel(t *testing.T) {
	var s Show
	if s.NetworkName() != "" {
		t.Errorf("NetworkName() = %q, want empty", s.NetworkName())
	}

	s.WebChannel = &struct {
		Name string `json:"name"`
	}{Name: "Netflix"}
	if s.NetworkName() != "Netflix" {
		t.Errorf("NetworkName() = %q, want Netflix", s.NetworkName())
	}
}

func TestPremiereWindow_CoversBothCountries(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int) // country -> distinct day count

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Query().Get("country")]++
		mu.Unlock()
		fmt.Fprintf(w, `[{"name": "ep", "season": 1, "number": 1, "airdate": %q, "show": {"name": "show"}}]`,
			r.URL.Query().Get("date"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	pd, _ := dates.ParseISO("1999-01-10")
	episodes, err := c.PremiereWindow(context.Background(), pd)
	if err != nil {
		t.Fatalf("PremiereWindow() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen["US"] != 61 || seen["GB"] != 61 {
		t.Errorf("schedule fetches: US=%d GB=%d, want 61 each", seen["US"], seen["GB"])
	}
	if len(episodes) != 122 {
		t.Errorf("pooled %d episodes, want 122", len(episodes))
	}
}

func TestPremiereWindow_ToleratesFailedDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("country") == "GB" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"name": "ep", "season": 1, "number": 1, "show": {"name": "show"}}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	pd, _ := dates.ParseISO("1999-01-10")
	episodes, err := c.PremiereWindow(context.Background(), pd)
	if err != nil {
		t.Fatalf("PremiereWindow() error: %v", err)
	}
	if len(episodes) != 61 {
		t.Errorf("pooled %d episodes, want 61 (US only)", len(episodes))
	}
}
