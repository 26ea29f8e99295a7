// Package aggregate orchestrates one resolution-and-aggregation run: it
// resolves a search hit to a canonical release and date, fans out to the
// contextual providers, and streams each panel to the sink as its data
// arrives. Only one session is live at a time; starting a new one silently
// discards the old session's late results.
package aggregate

import (
	"context"
	"fmt"
	"sync"

	"whendropped/internal/catalog"
	"whendropped/internal/dates"
	"whendropped/internal/logger"
	"whendropped/internal/provider/tmdb"
	"whendropped/internal/provider/tvmaze"
	"whendropped/internal/provider/wikipedia"
)

// Expected sub-fetch counts per session kind. An entity session adds the
// detail panel and the joined artist panel (one unit, two provider calls)
// to the four date panels.
const (
	totalDateSession   = 4
	totalEntitySession = 6
)

// Catalog is the metadata-provider surface the orchestrator consumes.
type Catalog interface {
	SearchRecordings(ctx context.Context, title, artist string) ([]catalog.Recording, error)
	SearchReleaseGroups(ctx context.Context, title, artist string) ([]catalog.ReleaseGroup, error)
	LookupRecording(ctx context.Context, id string) (*catalog.Recording, error)
	LookupArtist(ctx context.Context, id string) (*catalog.ArtistDetail, error)
	ReleasesOnDate(ctx context.Context, pd dates.PartialDate) ([]catalog.Release, error)
}

// Encyclopedia is the summary/on-this-day surface.
type Encyclopedia interface {
	SongSummary(ctx context.Context, title, artist string) (*wikipedia.Summary, error)
	AlbumSummary(ctx context.Context, title, artist string) (*wikipedia.Summary, error)
	ArtistSummary(ctx context.Context, name string) (*wikipedia.Summary, error)
	WeekInHistory(ctx context.Context, year, month, day int) (*wikipedia.HistoryPool, error)
}

// Broadcast is the schedule surface.
type Broadcast interface {
	PremiereWindow(ctx context.Context, pd dates.PartialDate) ([]tvmaze.Episode, error)
}

// FilmCatalog is the film-discovery surface.
type FilmCatalog interface {
	DiscoverWindow(ctx context.Context, year, month, day int) ([]tmdb.Film, error)
}

// Manager owns the current-session pointer and all sink dispatch. Provider
// failures never escape it; each one resolves to that panel's empty state.
type Manager struct {
	ctx  context.Context
	sink Sink
	log  *logger.Logger

	catalog Catalog
	wiki    Encyclopedia
	tv      Broadcast
	films   FilmCatalog

	mu      sync.Mutex
	current *Session

	// Picker results by entity ID, refreshed on every search, so a select
	// call only needs to carry the ID back.
	pickedRecordings map[string]catalog.Recording
	pickedGroups     map[string]catalog.ReleaseGroup
}

// NewManager creates a Manager. ctx bounds all session work; cancelling it
// stops in-flight fetches of every session.
func NewManager(ctx context.Context, sink Sink, log *logger.Logger, cat Catalog, wiki Encyclopedia, tv Broadcast, films FilmCatalog) *Manager {
	return &Manager{
		ctx:              ctx,
		sink:             sink,
		log:              log,
		catalog:          cat,
		wiki:             wiki,
		tv:               tv,
		films:            films,
		pickedRecordings: make(map[string]catalog.Recording),
		pickedGroups:     make(map[string]catalog.ReleaseGroup),
	}
}

// SearchSongs runs a recording search and renders the picker: earliest
// official release first, capped, one entry per hit. Provider failure and
// no-results are indistinguishable here; both render the empty picker.
// The search runs on the manager's lifetime context, not the triggering
// request's: callers return before results arrive.
func (m *Manager) SearchSongs(title, artist string) {
	recs, err := m.catalog.SearchRecordings(m.ctx, title, artist)
	if err != nil {
		m.log.Debug("recording search unavailable: %v", err)
		recs = nil
	}

	sorted := catalog.SortRecordingsForPicker(recs)
	if len(sorted) > maxPickerEntries {
		sorted = sorted[:maxPickerEntries]
	}

	entries := make([]PickerEntry, 0, len(sorted))
	m.mu.Lock()
	m.pickedRecordings = make(map[string]catalog.Recording, len(sorted))
	for _, rec := range sorted {
		m.pickedRecordings[rec.ID] = rec
		entry := PickerEntry{
			Kind:   string(KindSong),
			ID:     rec.ID,
			Title:  rec.Title,
			Artist: artistName(rec.Artist),
		}
		if best := catalog.SelectCanonical(rec.Releases); best != nil {
			if !best.Date.IsZero() {
				entry.Date = dates.Format(best.Date)
			}
			entry.Detail = best.Title
		}
		if entry.Date == "" {
			entry.Date = "Date unknown"
		}
		entries = append(entries, entry)
	}
	m.sink.RenderPicker(entries)
	m.mu.Unlock()
}

// SearchAlbums runs a release-group search and renders the picker sorted by
// first release date.
func (m *Manager) SearchAlbums(title, artist string) {
	groups, err := m.catalog.SearchReleaseGroups(m.ctx, title, artist)
	if err != nil {
		m.log.Debug("release-group search unavailable: %v", err)
		groups = nil
	}

	sorted := catalog.SortGroupsForPicker(groups)
	if len(sorted) > maxPickerEntries {
		sorted = sorted[:maxPickerEntries]
	}

	entries := make([]PickerEntry, 0, len(sorted))
	m.mu.Lock()
	m.pickedGroups = make(map[string]catalog.ReleaseGroup, len(sorted))
	for _, rg := range sorted {
		m.pickedGroups[rg.ID] = rg
		entry := PickerEntry{
			Kind:   string(KindAlbum),
			ID:     rg.ID,
			Title:  rg.Title,
			Artist: artistName(rg.Artist),
			Detail: rg.PrimaryType,
		}
		if !rg.FirstReleaseDate.IsZero() {
			entry.Date = fmt.Sprintf("%d", rg.FirstReleaseDate.Year)
		}
		entries = append(entries, entry)
	}
	m.sink.RenderPicker(entries)
	m.mu.Unlock()
}

// SelectSong resolves a picked recording and begins its session. The ID
// must come from the most recent picker.
func (m *Manager) SelectSong(id string) (*Session, error) {
	m.mu.Lock()
	rec, ok := m.pickedRecordings[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown recording %q: not in the current picker", id)
	}
	return m.beginSong(rec), nil
}

// SelectAlbum resolves a picked release group and begins its session.
func (m *Manager) SelectAlbum(id string) (*Session, error) {
	m.mu.Lock()
	rg, ok := m.pickedGroups[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown release group %q: not in the current picker", id)
	}
	return m.beginAlbum(rg), nil
}

// begin swaps the current-session pointer. The outgoing session is marked
// superseded; its in-flight callbacks will be dropped at delivery.
func (m *Manager) begin(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.superseded = true
		m.log.Debug("session %s superseded by %s", m.current.ID, sess.ID)
	}
	m.current = sess
	m.sink.SetSession(sess.ID)
	m.sink.ReportProgress(0, sess.total)
}

// Current returns the live session, or nil before the first search.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func artistName(a catalog.Artist) string {
	if a.Name == "" {
		return "Unknown Artist"
	}
	return a.Name
}
