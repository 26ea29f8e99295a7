// Package tmdb is a client for The Movie Database API. It discovers films
// released in a short window around a date and joins in per-film credits so
// the panel can show directors and writers.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultAPIURL = "https://api.themoviedb.org/3"

// releaseWindow is how many days either side of the date count as "released
// around" it. Films open on varying weekdays, so an exact-day match would
// miss most of a release week.
const releaseWindow = 4

// maxFilms caps the panel: top films by popularity, one credits call each.
const maxFilms = 8

// Client is a TMDB API client using bearer-token auth.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
	imageBase  string
	siteBase   string
}

// New creates a TMDB client. apiURL falls back to the public API when empty;
// token is the API read access token.
func New(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     apiURL,
		token:      token,
		imageBase:  "https://image.tmdb.org/t/p/w200",
		siteBase:   "https://www.themoviedb.org/movie",
	}
}

// Film is one discovered film with its joined credits.
type Film struct {
	Title     string
	Date      string // release date, partial ISO
	PosterURL string
	PageURL   string
	Directors []string
	Writers   []string
}

type discoverResponse struct {
	Results []struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		ReleaseDate string `json:"release_date"`
		PosterPath  string `json:"poster_path"`
	} `json:"results"`
}

type creditsResponse struct {
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// writerJobs are the crew jobs that count as "writer" for the panel.
var writerJobs = map[string]bool{"Screenplay": true, "Writer": true, "Story": true}

// DiscoverWindow returns the most popular films whose primary release falls
// within the window around the date, with directors and writers joined in.
// A film whose credits call fails still appears, just without names.
func (c *Client) DiscoverWindow(ctx context.Context, year, month, day int) ([]Film, error) {
	center := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	start := center.AddDate(0, 0, -releaseWindow).Format("2006-01-02")
	end := center.AddDate(0, 0, releaseWindow).Format("2006-01-02")

	params := url.Values{}
	params.Set("primary_release_date.gte", start)
	params.Set("primary_release_date.lte", end)
	params.Set("sort_by", "popularity.desc")
	params.Set("language", "en-US")

	var resp discoverResponse
	if err := c.get(ctx, "/discover/movie?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("tmdb discover failed: %w", err)
	}

	top := resp.Results
	if len(top) > maxFilms {
		top = top[:maxFilms]
	}

	films := make([]Film, len(top))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range top {
		film := Film{
			Title:   m.Title,
			Date:    m.ReleaseDate,
			PageURL: fmt.Sprintf("%s/%d", c.siteBase, m.ID),
		}
		if m.PosterPath != "" {
			film.PosterURL = c.imageBase + m.PosterPath
		}
		films[i] = film

		i := i
		id := m.ID
		g.Go(func() error {
			directors, writers, err := c.credits(gctx, id)
			if err != nil {
				return nil // film renders without names
			}
			films[i].Directors = directors
			films[i].Writers = writers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return films, nil
}

// credits fetches one film's crew and extracts deduplicated director and
// writer names, writers capped at two.
func (c *Client) credits(ctx context.Context, id int) (directors, writers []string, err error) {
	var resp creditsResponse
	path := fmt.Sprintf("/movie/%d/credits?language=en-US", id)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, nil, fmt.Errorf("tmdb credits failed: %w", err)
	}

	seen := make(map[string]bool)
	uniq := func(name string) bool {
		if seen[name] {
			return false
		}
		seen[name] = true
		return true
	}

	for _, crew := range resp.Crew {
		if crew.Job == "Director" && uniq(crew.Name) {
			directors = append(directors, crew.Name)
		}
	}
	for _, crew := range resp.Crew {
		if writerJobs[crew.Job] && uniq(crew.Name) && len(writers) < 2 {
			writers = append(writers, crew.Name)
		}
	}
	return directors, writers, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

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
