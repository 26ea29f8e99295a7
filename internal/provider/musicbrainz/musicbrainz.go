// Package musicbrainz is a MusicBrainz Web Service API client covering the
// lookups the aggregation flow needs: recording and release-group search,
// full recording and artist lookups, and releases issued on an exact date.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"whendropped/internal/catalog"
	"whendropped/internal/dates"
)

const defaultAPIURL = "https://musicbrainz.org/ws/2"

// Client is a MusicBrainz Web API client. All calls share one rate limiter
// honoring the service's 1 request/second policy.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
	limiter    *rate.Limiter
}

// New creates a MusicBrainz client. apiURL falls back to the public API when
// empty. userAgent is required by the service's usage policy.
func New(apiURL, userAgent string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SearchRecordings queries the recording search index with an exact-phrase
// title match, optionally constrained to an artist, restricted to official
// releases. Returns an empty slice when nothing matches.
func (c *Client) SearchRecordings(ctx context.Context, title, artist string) ([]catalog.Recording, error) {
	q := fmt.Sprintf("recording:%q", stripQuotes(title))
	if artist != "" {
		q += fmt.Sprintf(" AND artist:%q", stripQuotes(artist))
	}
	q += " AND status:Official"

	var resp recordingSearchResponse
	path := fmt.Sprintf("/recording?query=%s&fmt=json&limit=50&inc=releases+artist-credits", url.QueryEscape(q))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("musicbrainz recording search failed: %w", err)
	}

	recs := make([]catalog.Recording, 0, len(resp.Recordings))
	for _, r := range resp.Recordings {
		recs = append(recs, r.toCatalog())
	}
	return recs, nil
}

// SearchReleaseGroups queries the release-group search index with an
// exact-phrase title match, optionally constrained to an artist.
func (c *Client) SearchReleaseGroups(ctx context.Context, title, artist string) ([]catalog.ReleaseGroup, error) {
	q := fmt.Sprintf("releasegroup:%q", stripQuotes(title))
	if artist != "" {
		q += fmt.Sprintf(" AND artist:%q", stripQuotes(artist))
	}

	var resp releaseGroupSearchResponse
	path := fmt.Sprintf("/release-group?query=%s&fmt=json&limit=20&inc=artist-credits", url.QueryEscape(q))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("musicbrainz release-group search failed: %w", err)
	}

	groups := make([]catalog.ReleaseGroup, 0, len(resp.ReleaseGroups))
	for _, rg := range resp.ReleaseGroups {
		groups = append(groups, rg.toCatalog())
	}
	return groups, nil
}

// LookupRecording fetches one recording with its full release list. Unlike
// search results, the lookup includes release-group secondary types, which
// the canonical-release ranker needs to tell live albums and compilations
// apart from studio albums.
func (c *Client) LookupRecording(ctx context.Context, id string) (*catalog.Recording, error) {
	var resp recording
	path := fmt.Sprintf("/recording/%s?fmt=json&inc=releases+artist-credits+release-groups", url.PathEscape(id))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("musicbrainz recording lookup failed: %w", err)
	}
	rec := resp.toCatalog()
	return &rec, nil
}

// LookupArtist fetches one artist record.
func (c *Client) LookupArtist(ctx context.Context, id string) (*catalog.ArtistDetail, error) {
	var resp artistRecord
	path := fmt.Sprintf("/artist/%s?fmt=json", url.PathEscape(id))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("musicbrainz artist lookup failed: %w", err)
	}

	detail := &catalog.ArtistDetail{
		Artist: catalog.Artist{ID: resp.ID, Name: resp.Name},
	}
	if resp.Area.Name != "" {
		detail.Area = resp.Area.Name
	} else {
		detail.Area = resp.BeginArea.Name
	}
	if resp.LifeSpan.Begin != "" {
		detail.ActiveFrom = strings.SplitN(resp.LifeSpan.Begin, "-", 2)[0]
	}
	return detail, nil
}

// ReleasesOnDate returns official releases issued on the exact date. The
// caller passes a full date; partial dates have no meaningful exact-day
// window and are degraded before reaching the client.
func (c *Client) ReleasesOnDate(ctx context.Context, pd dates.PartialDate) ([]catalog.Release, error) {
	q := fmt.Sprintf("date:%s AND status:Official", pd.ISO())

	var resp releaseSearchResponse
	path := fmt.Sprintf("/release?query=%s&fmt=json&limit=25&inc=artist-credits", url.QueryEscape(q))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("musicbrainz release search failed: %w", err)
	}

	releases := make([]catalog.Release, 0, len(resp.Releases))
	for _, r := range resp.Releases {
		releases = append(releases, r.toCatalog())
	}
	return releases, nil
}

// get performs one rate-limited GET against the API and decodes the JSON
// body into out. No retries: a failed call is reported as-is and the caller
// degrades.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// stripQuotes removes embedded double quotes so user input cannot break out
// of the exact-phrase terms in the Lucene query.
func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// MusicBrainz API response types

type recordingSearchResponse struct {
	Recordings []recording `json:"recordings"`
}

type releaseGroupSearchResponse struct {
	ReleaseGroups []releaseGroupRecord `json:"release-groups"`
}

type releaseSearchResponse struct {
	Releases []release `json:"releases"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Length       int            `json:"length"`
	Score        int            `json:"score"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Releases     []release      `json:"releases"`
}

type artistCredit struct {
	Artist artistInfo `json:"artist"`
}

type artistInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	Score        int            `json:"score"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	ReleaseGroup releaseGroup   `json:"release-group"`
}

type releaseGroup struct {
	ID             string   `json:"id"`
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
}

type releaseGroupRecord struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PrimaryType      string         `json:"primary-type"`
	FirstReleaseDate string         `json:"first-release-date"`
	Score            int            `json:"score"`
	ArtistCredit     []artistCredit `json:"artist-credit"`
}

type artistRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Area      area     `json:"area"`
	BeginArea area     `json:"begin-area"`
	LifeSpan  lifeSpan `json:"life-span"`
}

type area struct {
	Name string `json:"name"`
}

type lifeSpan struct {
	Begin string `json:"begin"`
}

func firstCredit(credits []artistCredit) catalog.Artist {
	if len(credits) == 0 {
		return catalog.Artist{}
	}
	return catalog.Artist{ID: credits[0].Artist.ID, Name: credits[0].Artist.Name}
}

func (r recording) toCatalog() catalog.Recording {
	rec := catalog.Recording{
		ID:     r.ID,
		Title:  r.Title,
		Artist: firstCredit(r.ArtistCredit),
		Length: r.Length,
		Score:  r.Score,
	}
	for _, rel := range r.Releases {
		rec.Releases = append(rec.Releases, rel.toCatalog())
	}
	return rec
}

func (r release) toCatalog() catalog.Release {
	date, _ := dates.ParseISO(r.Date)
	return catalog.Release{
		ID:             r.ID,
		Title:          r.Title,
		Status:         r.Status,
		Date:           date,
		Country:        r.Country,
		ReleaseGroupID: r.ReleaseGroup.ID,
		PrimaryType:    r.ReleaseGroup.PrimaryType,
		SecondaryTypes: r.ReleaseGroup.SecondaryTypes,
		Artist:         firstCredit(r.ArtistCredit),
		Score:          r.Score,
	}
}

func (rg releaseGroupRecord) toCatalog() catalog.ReleaseGroup {
	date, _ := dates.ParseISO(rg.FirstReleaseDate)
	return catalog.ReleaseGroup{
		ID:               rg.ID,
		Title:            rg.Title,
		Artist:           firstCredit(rg.ArtistCredit),
		PrimaryType:      rg.PrimaryType,
		FirstReleaseDate: date,
		Score:            rg.Score,
	}
}
