// Package wikipedia is a client for the Wikipedia REST API. It resolves
// page summaries through ranked title variants (so "Yellow (Coldplay song)"
// wins over the color article) and pools the on-this-day feed across a
// week-wide window around a date.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultAPIURL = "https://en.wikipedia.org/api/rest_v1"

// historyWindow is how many days either side of the target date feed the
// on-this-day pool, so a panel filtered down to one year still has material.
const historyWindow = 4

// Client is a Wikipedia REST API client.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// New creates a Wikipedia client. apiURL falls back to the public REST API
// when empty.
func New(apiURL string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
	}
}

// Summary is a page summary. Type distinguishes ordinary pages from
// disambiguation pages, which callers reject.
type Summary struct {
	Title        string `json:"title"`
	Type         string `json:"type"`
	Extract      string `json:"extract"`
	ThumbnailURL string
	PageURL      string
}

type summaryResponse struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the summary for one exact page title. A missing page is
// reported as an error like any other failure; callers treat all failures
// as absence.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	slug := url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	var resp summaryResponse
	if err := c.get(ctx, "/page/summary/"+slug, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia summary lookup failed: %w", err)
	}

	return &Summary{
		Title:        resp.Title,
		Type:         resp.Type,
		Extract:      resp.Extract,
		ThumbnailURL: resp.Thumbnail.Source,
		PageURL:      resp.ContentURLs.Desktop.Page,
	}, nil
}

// SongSummary resolves the article for a song, trying disambiguated titles
// first. The bare title is the last resort; it is often a different subject
// entirely.
func (c *Client) SongSummary(ctx context.Context, title, artist string) (*Summary, error) {
	return c.firstUsable(ctx,
		fmt.Sprintf("%s (%s song)", title, artist),
		fmt.Sprintf("%s (song)", title),
		title,
	)
}

// AlbumSummary resolves the article for an album, trying disambiguated
// titles first.
func (c *Client) AlbumSummary(ctx context.Context, title, artist string) (*Summary, error) {
	return c.firstUsable(ctx,
		fmt.Sprintf("%s (%s album)", title, artist),
		fmt.Sprintf("%s (album)", title),
		title,
	)
}

// ArtistSummary resolves the article for an artist. Disambiguation pages are
// rejected rather than laddered: there is no reliable qualifier variant for
// artist names.
func (c *Client) ArtistSummary(ctx context.Context, name string) (*Summary, error) {
	s, err := c.Summary(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.Type == "disambiguation" || s.Extract == "" {
		return nil, fmt.Errorf("no usable wikipedia article for %q", name)
	}
	return s, nil
}

// firstUsable walks the title variants in order and returns the first
// summary that is neither a disambiguation page nor extract-less.
func (c *Client) firstUsable(ctx context.Context, variants ...string) (*Summary, error) {
	for _, v := range variants {
		s, err := c.Summary(ctx, v)
		if err != nil {
			continue
		}
		if s.Type == "disambiguation" || s.Extract == "" {
			continue
		}
		return s, nil
	}
	return nil, fmt.Errorf("no usable wikipedia article among %d title variants", len(variants))
}

// HistoryEvent is one on-this-day entry.
type HistoryEvent struct {
	Year int    `json:"year"`
	Text string `json:"text"`
}

// HistoryPool collects on-this-day entries across a multi-day window,
// unfiltered by year. The aggregation layer narrows it to the year of
// interest.
type HistoryPool struct {
	Events []HistoryEvent
	Births []HistoryEvent
	Deaths []HistoryEvent
}

// DayEntries is the on-this-day feed for a single month/day.
type DayEntries struct {
	Events []HistoryEvent `json:"events"`
	Births []HistoryEvent `json:"births"`
	Deaths []HistoryEvent `json:"deaths"`
}

// OnThisDay fetches the feed for one month/day.
func (c *Client) OnThisDay(ctx context.Context, month, day int) (*DayEntries, error) {
	var resp DayEntries
	path := fmt.Sprintf("/feed/onthisday/all/%02d/%02d", month, day)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia onthisday lookup failed: %w", err)
	}
	return &resp, nil
}

// WeekInHistory pools the on-this-day feeds for the nine days centered on
// the given date. The fetches run concurrently; days that fail are skipped,
// and the pool is returned even when every day failed (empty, not an error).
func (c *Client) WeekInHistory(ctx context.Context, year, month, day int) (*HistoryPool, error) {
	center := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	pool := &HistoryPool{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for offset := -historyWindow; offset <= historyWindow; offset++ {
		d := center.AddDate(0, 0, offset)
		g.Go(func() error {
			entries, err := c.OnThisDay(gctx, int(d.Month()), d.Day())
			if err != nil {
				return nil // skip failed days, keep the rest of the pool
			}
			mu.Lock()
			pool.Events = append(pool.Events, entries.Events...)
			pool.Births = append(pool.Births, entries.Births...)
			pool.Deaths = append(pool.Deaths, entries.Deaths...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pool, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
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
