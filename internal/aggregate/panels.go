package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"whendropped/internal/catalog"
	"whendropped/internal/dates"
	"whendropped/internal/provider/tmdb"
	"whendropped/internal/provider/tvmaze"
	"whendropped/internal/provider/wikipedia"
)

// Panel payloads. Every render call receives data that is already shaped,
// deduplicated and capped; the sink only formats. A nil pointer or empty
// slice is the panel's empty state.

// PickerEntry is one row of the disambiguation list.
type PickerEntry struct {
	Kind   string `json:"kind"` // "song" or "album"
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Date   string `json:"date,omitempty"`
	Detail string `json:"detail,omitempty"` // album title or release-group type
}

// Header announces the resolved entity above the panels.
type Header struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Date     string `json:"date,omitempty"`
}

// Field is one label/value pair of the detail panel.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DetailPanel describes the searched song or album itself.
type DetailPanel struct {
	ArtworkURL string  `json:"artwork_url,omitempty"`
	CatalogURL string  `json:"catalog_url,omitempty"`
	Fields     []Field `json:"fields"`
	Extract    string  `json:"extract,omitempty"`
	WikiURL    string  `json:"wiki_url,omitempty"`
}

// HistoryItem is one historical event near the resolved date.
type HistoryItem struct {
	Year int    `json:"year"`
	Text string `json:"text"`
}

// ConcurrentItem is another release issued on the same date.
type ConcurrentItem struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Date   string `json:"date,omitempty"`
}

// BroadcastItem is a series premiere near to the resolved date.
type BroadcastItem struct {
	Show     string `json:"show"`
	Network  string `json:"network,omitempty"`
	Genres   string `json:"genres,omitempty"`
	Airdate  string `json:"airdate,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	PageURL  string `json:"page_url,omitempty"`
}

// FilmItem is a film released near the resolved date.
type FilmItem struct {
	Title     string   `json:"title"`
	Date      string   `json:"date,omitempty"`
	PosterURL string   `json:"poster_url,omitempty"`
	PageURL   string   `json:"page_url,omitempty"`
	Directors []string `json:"directors,omitempty"`
	Writers   []string `json:"writers,omitempty"`
}

// ArtistPanel is the searched artist's biography.
type ArtistPanel struct {
	Name        string `json:"name"`
	Origin      string `json:"origin,omitempty"`
	ActiveSince string `json:"active_since,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Extract     string `json:"extract,omitempty"`
	WikiURL     string `json:"wiki_url,omitempty"`
}

// Sink receives shaped panel data and progress events. Implementations only
// format; they must not re-filter or re-order. Calls are serialized by the
// manager and never arrive for a superseded session. SetSession announces
// the new session before any of its frames, so sinks that tag output never
// attribute a frame to the wrong session.
type Sink interface {
	SetSession(id string)
	RenderPicker(entries []PickerEntry)
	RenderHeader(h Header)
	RenderDetail(d *DetailPanel)
	RenderHistory(items []HistoryItem)
	RenderConcurrent(items []ConcurrentItem)
	RenderBroadcast(items []BroadcastItem)
	RenderFilm(items []FilmItem)
	RenderArtist(a *ArtistPanel)
	ReportProgress(done, total int)
}

// Panel caps.
const (
	maxPickerEntries   = 8
	maxHistoryItems    = 4
	maxHistoryEvents   = 3
	maxConcurrent      = 8
	maxConcurrentWide  = 16
	maxBroadcastItems  = 8
	historyWidenYears  = 2
	detailSentences    = 4
	biographySentences = 5
)

// shapeHistory narrows a week-wide pool to the given year. When an exact
// year yields nothing the match widens by ±2 years so the panel is never
// needlessly empty. Plain events get priority (3 slots); one birth and one
// death fill the rest, 4 items at most.
func shapeHistory(pool *wikipedia.HistoryPool, year int) []HistoryItem {
	if pool == nil || year == 0 {
		return nil
	}

	exact := func(events []wikipedia.HistoryEvent) []wikipedia.HistoryEvent {
		var out []wikipedia.HistoryEvent
		for _, e := range events {
			if e.Year == year {
				out = append(out, e)
			}
		}
		return out
	}
	widened := func(events []wikipedia.HistoryEvent) []wikipedia.HistoryEvent {
		var out []wikipedia.HistoryEvent
		for _, e := range events {
			if abs(e.Year-year) <= historyWidenYears {
				out = append(out, e)
			}
		}
		return out
	}
	pick := func(events []wikipedia.HistoryEvent, cap int) []wikipedia.HistoryEvent {
		matched := exact(events)
		if len(matched) == 0 {
			matched = widened(events)
		}
		if len(matched) > cap {
			matched = matched[:cap]
		}
		return matched
	}

	var items []HistoryItem
	for _, e := range pick(pool.Events, maxHistoryEvents) {
		items = append(items, HistoryItem{Year: e.Year, Text: e.Text})
	}
	for _, e := range pick(pool.Births, 1) {
		items = append(items, HistoryItem{Year: e.Year, Text: "Born: " + e.Text})
	}
	for _, e := range pick(pool.Deaths, 1) {
		items = append(items, HistoryItem{Year: e.Year, Text: "Died: " + e.Text})
	}
	if len(items) > maxHistoryItems {
		items = items[:maxHistoryItems]
	}
	return items
}

// shapeConcurrent filters same-date releases for the panel: the searched
// artist is excluded (their own release is the header, not context),
// duplicate title+artist pairs collapse, and the most prominent releases by
// provider relevance come first.
func shapeConcurrent(releases []catalog.Release, excludeArtist string, max int) []ConcurrentItem {
	exclude := strings.ToLower(excludeArtist)

	filtered := make([]catalog.Release, 0, len(releases))
	seen := make(map[string]bool)
	for _, r := range releases {
		if exclude != "" && strings.ToLower(r.Artist.Name) == exclude {
			continue
		}
		key := r.Title + "||" + r.Artist.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) > max {
		filtered = filtered[:max]
	}

	items := make([]ConcurrentItem, 0, len(filtered))
	for _, r := range filtered {
		item := ConcurrentItem{Title: r.Title, Artist: r.Artist.Name}
		if !r.Date.IsZero() {
			item.Date = dates.Format(r.Date)
		}
		items = append(items, item)
	}
	return items
}

// shapeBroadcast keeps only series premieres (season 1 episode 1), one entry
// per show, earliest airdate first.
func shapeBroadcast(episodes []tvmaze.Episode) []BroadcastItem {
	seen := make(map[string]bool)
	premieres := make([]tvmaze.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Season != 1 || ep.Number != 1 {
			continue
		}
		if ep.Show.Name == "" || seen[ep.Show.Name] {
			continue
		}
		seen[ep.Show.Name] = true
		premieres = append(premieres, ep)
	}

	sort.SliceStable(premieres, func(i, j int) bool {
		return premieres[i].Airdate < premieres[j].Airdate
	})
	if len(premieres) > maxBroadcastItems {
		premieres = premieres[:maxBroadcastItems]
	}

	items := make([]BroadcastItem, 0, len(premieres))
	for _, ep := range premieres {
		item := BroadcastItem{
			Show:     ep.Show.Name,
			Network:  ep.Show.NetworkName(),
			ImageURL: ep.Show.ImageURL(),
			PageURL:  ep.Show.URL,
		}
		if len(ep.Show.Genres) > 0 {
			genres := ep.Show.Genres
			if len(genres) > 2 {
				genres = genres[:2]
			}
			item.Genres = strings.Join(genres, ", ")
		}
		if ep.Airdate != "" {
			if pd, ok := dates.ParseISO(ep.Airdate); ok {
				item.Airdate = dates.Format(pd)
			}
		}
		items = append(items, item)
	}
	return items
}

// shapeFilms converts provider films into panel items.
func shapeFilms(films []tmdb.Film) []FilmItem {
	items := make([]FilmItem, 0, len(films))
	for _, f := range films {
		item := FilmItem{
			Title:     f.Title,
			PosterURL: f.PosterURL,
			PageURL:   f.PageURL,
			Directors: f.Directors,
			Writers:   f.Writers,
		}
		if pd, ok := dates.ParseISO(f.Date); ok {
			item.Date = dates.Format(pd)
		}
		items = append(items, item)
	}
	return items
}

// shapeSongDetail builds the detail panel for a recording from whatever is
// actually known; a missing encyclopedia summary just means no extract.
func shapeSongDetail(rec *catalog.Recording, release *catalog.Release, summary *wikipedia.Summary) *DetailPanel {
	d := &DetailPanel{}

	if release != nil {
		if release.ReleaseGroupID != "" {
			d.ArtworkURL = artworkURL(release.ReleaseGroupID)
			d.CatalogURL = releaseGroupURL(release.ReleaseGroupID)
		}
		if !release.Date.IsZero() {
			d.Fields = append(d.Fields, Field{Label: "Release Date", Value: dates.Format(release.Date)})
		}
		if release.Title != "" {
			d.Fields = append(d.Fields, Field{Label: "Album / Release", Value: release.Title})
		}
		if release.Country != "" {
			d.Fields = append(d.Fields, Field{Label: "Country", Value: release.Country})
		}
	}
	if rec != nil && rec.Length > 0 {
		mins := rec.Length / 60000
		secs := (rec.Length % 60000) / 1000
		d.Fields = append(d.Fields, Field{Label: "Duration", Value: fmt.Sprintf("%d:%02d", mins, secs)})
	}
	applySummary(d, summary, detailSentences)

	if len(d.Fields) == 0 && d.Extract == "" && d.ArtworkURL == "" {
		return nil
	}
	return d
}

// shapeAlbumDetail builds the detail panel for a release group.
func shapeAlbumDetail(rg *catalog.ReleaseGroup, summary *wikipedia.Summary) *DetailPanel {
	d := &DetailPanel{}

	if rg.ID != "" {
		d.ArtworkURL = artworkURL(rg.ID)
		d.CatalogURL = releaseGroupURL(rg.ID)
	}
	if !rg.FirstReleaseDate.IsZero() {
		d.Fields = append(d.Fields, Field{Label: "Release Date", Value: dates.Format(rg.FirstReleaseDate)})
	}
	if rg.PrimaryType != "" {
		d.Fields = append(d.Fields, Field{Label: "Type", Value: rg.PrimaryType})
	}
	applySummary(d, summary, detailSentences)

	if len(d.Fields) == 0 && d.Extract == "" && d.ArtworkURL == "" {
		return nil
	}
	return d
}

func applySummary(d *DetailPanel, summary *wikipedia.Summary, sentences int) {
	if summary == nil || summary.Extract == "" {
		return
	}
	d.Extract = firstSentences(summary.Extract, sentences)
	d.WikiURL = summary.PageURL
}

// shapeArtist joins the catalog artist record and the encyclopedia summary
// into one panel. Either side may be missing; nil when both are.
func shapeArtist(detail *catalog.ArtistDetail, summary *wikipedia.Summary) *ArtistPanel {
	if detail == nil && summary == nil {
		return nil
	}

	a := &ArtistPanel{}
	if summary != nil {
		a.Name = summary.Title
		a.PhotoURL = summary.ThumbnailURL
		if summary.Extract != "" {
			a.Extract = firstSentences(summary.Extract, biographySentences)
			a.WikiURL = summary.PageURL
		}
	}
	if detail != nil {
		if a.Name == "" {
			a.Name = detail.Name
		}
		a.Origin = detail.Area
		a.ActiveSince = detail.ActiveFrom
	}
	if a.Name == "" && a.Extract == "" {
		return nil
	}
	return a
}

// firstSentences truncates an extract to its first n sentences.
func firstSentences(s string, n int) string {
	parts := strings.SplitN(s, ". ", n+1)
	if len(parts) <= n {
		return s
	}
	return strings.Join(parts[:n], ". ") + "."
}

func artworkURL(releaseGroupID string) string {
	return fmt.Sprintf("https://coverartarchive.org/release-group/%s/front-250", releaseGroupID)
}

func releaseGroupURL(releaseGroupID string) string {
	return fmt.Sprintf("https://musicbrainz.org/release-group/%s", releaseGroupID)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
