// Package tvmaze is a client for the TVMaze broadcast-schedule API. The
// premiere window spans ±30 days around a date across the US and GB
// schedules; season filtering and deduplication happen above this package.
package tvmaze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"whendropped/internal/dates"
)

const defaultAPIURL = "https://api.tvmaze.com"

// premiereWindow is how many days either side of the date the schedule is
// scanned. A month in each direction catches the premieres "around" a
// release without one empty schedule day blanking the panel.
const premiereWindow = 30

// scheduleConcurrency bounds the parallel schedule fetches; 122 requests at
// once is unkind to a free API.
const scheduleConcurrency = 8

var countries = []string{"US", "GB"}

// Client is a TVMaze API client.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// New creates a TVMaze client. apiURL falls back to the public API when
// empty.
func New(apiURL string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
	}
}

// Episode is one scheduled broadcast.
type Episode struct {
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate"`
	Show    Show   `json:"show"`
}

// Show is the series an episode belongs to.
type Show struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Genres  []string `json:"genres"`
	Network *struct {
		Name string `json:"name"`
	} `json:"network"`
	WebChannel *struct {
		Name string `json:"name"`
	} `json:"webChannel"`
	Image *struct {
		Medium string `json:"medium"`
	} `json:"image"`
}

// NetworkName returns the broadcast network, falling back to the streaming
// channel.
func (s Show) NetworkName() string {
	if s.Network != nil {
		return s.Network.Name
	}
	if s.WebChannel != nil {
		return s.WebChannel.Name
	}
	return ""
}

// ImageURL returns the medium poster URL when the show has one.
func (s Show) ImageURL() string {
	if s.Image != nil {
		return s.Image.Medium
	}
	return ""
}

// Schedule fetches the full broadcast schedule for one date and country.
func (c *Client) Schedule(ctx context.Context, date, country string) ([]Episode, error) {
	var episodes []Episode
	path := fmt.Sprintf("/schedule?date=%s&country=%s", date, country)
	if err := c.get(ctx, path, &episodes); err != nil {
		return nil, fmt.Errorf("tvmaze schedule lookup failed: %w", err)
	}
	return episodes, nil
}

// PremiereWindow pools the US and GB schedules for the 61 days centered on
// the date. Days that fail to fetch are skipped; a fully failed window
// returns an empty slice, not an error.
func (c *Client) PremiereWindow(ctx context.Context, pd dates.PartialDate) ([]Episode, error) {
	center := time.Date(pd.Year, time.Month(pd.Month), pd.Day, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var pooled []Episode

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scheduleConcurrency)
	for _, country := range countries {
		country := country
		for offset := -premiereWindow; offset <= premiereWindow; offset++ {
			date := center.AddDate(0, 0, offset).Format("2006-01-02")
			g.Go(func() error {
				episodes, err := c.Schedule(gctx, date, country)
				if err != nil {
					return nil // one bad day must not blank the panel
				}
				mu.Lock()
				pooled = append(pooled, episodes...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pooled, nil
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
