package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
)

func page(title, pageType, extract string) string {
	return fmt.Sprintf(`{
		"title": %q,
		"type": %q,
		"extract": %q,
		"thumbnail": {"source": "https://upload.example/thumb.jpg"},
		"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/x"}}
	}`, title, pageType, extract)
}

func TestSummary_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page/summary/News_of_the_World" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(page("News of the World", "standard", "A 1977 album.")))
	}))
	defer srv.Close()

	c := New(srv.URL)
	s, err := c.Summary(context.Background(), "News of the World")
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if s.Title != "News of the World" || s.Extract != "A 1977 album." {
		t.Errorf("summary = %+v", s)
	}
	if s.ThumbnailURL == "" || s.PageURL == "" {
		t.Errorf("missing thumbnail or page URL: %+v", s)
	}
}

func TestSongSummary_VariantLadder(t *testing.T) {
	// "Yellow (Coldplay song)" is a 404, "Yellow (song)" is a disambiguation
	// page, the bare title is the color article. The ladder must settle on
	// the bare title only after rejecting the disambiguation page.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug, _ := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/page/summary/"))
		switch slug {
		case "Yellow_(Coldplay_song)":
			http.NotFound(w, r)
		case "Yellow_(song)":
			w.Write([]byte(page("Yellow (song)", "disambiguation", "May refer to:")))
		case "Yellow":
			w.Write([]byte(page("Yellow", "standard", "Yellow is a color.")))
		default:
			t.Errorf("unexpected slug %q", slug)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	s, err := c.SongSummary(context.Background(), "Yellow", "Coldplay")
	if err != nil {
		t.Fatalf("SongSummary() error: %v", err)
	}
	if s.Title != "Yellow" {
		t.Errorf("Title = %q, want the bare-title fallback", s.Title)
	}
}

func TestSongSummary_PrefersQualifiedVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug, _ := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/page/summary/"))
		if slug == "Yellow_(Coldplay_song)" {
			w.Write([]byte(page("Yellow (Coldplay song)", "standard", "A single by Coldplay.")))
			return
		}
		t.Errorf("ladder should have stopped at the first variant, got %q", slug)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL)
	s, err := c.SongSummary(context.Background(), "Yellow", "Coldplay")
	if err != nil {
		t.Fatalf("SongSummary() error: %v", err)
	}
	if s.Title != "Yellow (Coldplay song)" {
		t.Errorf("Title = %q", s.Title)
	}
}

func TestSongSummary_RejectsExtractless(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.SongSummary(context.Background(), "Nothing", "Nobody"); err == nil {
		t.Fatal("expected error when no variant resolves")
	}
}

func TestArtistSummary_RejectsDisambiguation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("Queen", "disambiguation", "May refer to:")))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ArtistSummary(context.Background(), "Queen"); err == nil {
		t.Fatal("expected disambiguation page to be rejected")
	}
}

func TestWeekInHistory_PoolsNineDays(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Every day contributes one event tagged with its path, so the pool
		// size proves all nine days were fetched.
		fmt.Fprintf(w, `{"events": [{"year": 1977, "text": %q}], "births": [], "deaths": []}`, r.URL.Path)
	}))
	defer srv.Close()

	c := New(srv.URL)
	pool, err := c.WeekInHistory(context.Background(), 1977, 10, 28)
	if err != nil {
		t.Fatalf("WeekInHistory() error: %v", err)
	}
	if got := calls.Load(); got != 9 {
		t.Errorf("expected 9 feed fetches, got %d", got)
	}
	if len(pool.Events) != 9 {
		t.Errorf("expected 9 pooled events, got %d", len(pool.Events))
	}
}

func TestWeekInHistory_SkipsFailedDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The window crosses from October into November; fail October days.
		if strings.Contains(r.URL.Path, "/10/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"events": [{"year": 1977, "text": "survived"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	pool, err := c.WeekInHistory(context.Background(), 1977, 10, 31)
	if err != nil {
		t.Fatalf("WeekInHistory() error: %v", err)
	}
	// Oct 27-31 fail, Nov 1-4 survive.
	if len(pool.Events) != 4 {
		t.Errorf("expected 4 surviving events, got %d", len(pool.Events))
	}
}
