package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"whendropped/internal/dates"
)

func newTestClient(url string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiURL:     url,
		userAgent:  "whendropped-test/1.0",
		limiter:    rate.NewLimiter(rate.Inf, 1), // no rate limiting in tests
	}
}

func TestSearchRecordings_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recording" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent header")
		}
		q := r.URL.Query().Get("query")
		want := `recording:"Bohemian Rhapsody" AND artist:"Queen" AND status:Official`
		if q != want {
			t.Errorf("query = %q, want %q", q, want)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"recordings": [{
				"id": "rec-1",
				"title": "Bohemian Rhapsody",
				"length": 354000,
				"score": 100,
				"artist-credit": [{"artist": {"id": "a1", "name": "Queen"}}],
				"releases": [{
					"id": "rel-1",
					"title": "A Night at the Opera",
					"status": "Official",
					"date": "1975-10-31",
					"country": "GB",
					"artist-credit": [{"artist": {"id": "a1", "name": "Queen"}}],
					"release-group": {"id": "rg-1", "primary-type": "Album"}
				}]
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	recs, err := c.SearchRecordings(context.Background(), "Bohemian Rhapsody", "Queen")
	if err != nil {
		t.Fatalf("SearchRecordings() error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Title != "Bohemian Rhapsody" {
		t.Errorf("Title = %q, want %q", rec.Title, "Bohemian Rhapsody")
	}
	if rec.Artist.Name != "Queen" || rec.Artist.ID != "a1" {
		t.Errorf("Artist = %+v", rec.Artist)
	}
	if rec.Length != 354000 {
		t.Errorf("Length = %d, want 354000", rec.Length)
	}
	if len(rec.Releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(rec.Releases))
	}

	rel := rec.Releases[0]
	if rel.Title != "A Night at the Opera" {
		t.Errorf("release Title = %q", rel.Title)
	}
	if rel.Date.Raw != "1975-10-31" || rel.Date.Year != 1975 {
		t.Errorf("release Date = %+v", rel.Date)
	}
	if rel.ReleaseGroupID != "rg-1" {
		t.Errorf("ReleaseGroupID = %q, want rg-1", rel.ReleaseGroupID)
	}
	if rel.PrimaryType != "Album" {
		t.Errorf("PrimaryType = %q, want Album", rel.PrimaryType)
	}
}

func TestSearchRecordings_StripsEmbeddedQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		want := `recording:"Say Anything" AND status:Official`
		if q != want {
			t.Errorf("query = %q, want %q", q, want)
		}
		w.Write([]byte(`{"recordings": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.SearchRecordings(context.Background(), `Say "Anything"`, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchReleaseGroups_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release-group" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"release-groups": [{
				"id": "rg-1",
				"title": "Rumours",
				"primary-type": "Album",
				"first-release-date": "1977-02-04",
				"score": 98,
				"artist-credit": [{"artist": {"id": "a2", "name": "Fleetwood Mac"}}]
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	groups, err := c.SearchReleaseGroups(context.Background(), "Rumours", "Fleetwood Mac")
	if err != nil {
		t.Fatalf("SearchReleaseGroups() error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	rg := groups[0]
	if rg.Title != "Rumours" || rg.Artist.Name != "Fleetwood Mac" {
		t.Errorf("group = %+v", rg)
	}
	if rg.FirstReleaseDate.Raw != "1977-02-04" {
		t.Errorf("FirstReleaseDate = %+v", rg.FirstReleaseDate)
	}
}

func TestLookupRecording_IncludesSecondaryTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recording/rec-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if inc := r.URL.Query().Get("inc"); inc != "releases+artist-credits+release-groups" {
			t.Errorf("inc = %q", inc)
		}
		w.Write([]byte(`{
			"id": "rec-1",
			"title": "Go Your Own Way",
			"artist-credit": [{"artist": {"id": "a2", "name": "Fleetwood Mac"}}],
			"releases": [{
				"id": "rel-live",
				"title": "The Dance",
				"status": "Official",
				"date": "1997-08-19",
				"release-group": {"id": "rg-2", "primary-type": "Album", "secondary-types": ["Live"]}
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	rec, err := c.LookupRecording(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("LookupRecording() error: %v", err)
	}
	if len(rec.Releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(rec.Releases))
	}
	st := rec.Releases[0].SecondaryTypes
	if len(st) != 1 || st[0] != "Live" {
		t.Errorf("SecondaryTypes = %v, want [Live]", st)
	}
}

func TestLookupArtist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "a1",
			"name": "Queen",
			"area": {"name": "United Kingdom"},
			"begin-area": {"name": "London"},
			"life-span": {"begin": "1970-06-27"}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	artist, err := c.LookupArtist(context.Background(), "a1")
	if err != nil {
		t.Fatalf("LookupArtist() error: %v", err)
	}
	if artist.Name != "Queen" {
		t.Errorf("Name = %q", artist.Name)
	}
	if artist.Area != "United Kingdom" {
		t.Errorf("Area = %q, want United Kingdom", artist.Area)
	}
	if artist.ActiveFrom != "1970" {
		t.Errorf("ActiveFrom = %q, want 1970", artist.ActiveFrom)
	}
}

func TestReleasesOnDate_BuildsExactDateQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		if q != "date:1977-10-28 AND status:Official" {
			t.Errorf("query = %q", q)
		}
		w.Write([]byte(`{"releases": [{"id": "rel-2", "title": "News of the World", "date": "1977-10-28", "score": 90, "artist-credit": [{"artist": {"name": "Queen"}}]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	pd, _ := dates.ParseISO("1977-10-28")
	releases, err := c.ReleasesOnDate(context.Background(), pd)
	if err != nil {
		t.Fatalf("ReleasesOnDate() error: %v", err)
	}
	if len(releases) != 1 || releases[0].Title != "News of the World" {
		t.Errorf("releases = %+v", releases)
	}
}

func TestGet_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.SearchRecordings(context.Background(), "anything", ""); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
