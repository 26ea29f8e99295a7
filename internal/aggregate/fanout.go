package aggregate

import (
	"sync"

	"whendropped/internal/catalog"
	"whendropped/internal/dates"
	"whendropped/internal/provider/wikipedia"
)

// beginSong starts a song session. The full recording lookup runs first —
// search results carry a truncated release list without secondary types, so
// the canonical release can only be picked from the full record — and its
// resolved date feeds the date-dependent fetches.
func (m *Manager) beginSong(rec catalog.Recording) *Session {
	sess := newSession(m, KindSong, totalEntitySession)
	m.begin(sess)

	go func() {
		resolved := rec
		if full, err := m.catalog.LookupRecording(m.ctx, rec.ID); err != nil {
			m.log.Debug("recording lookup unavailable, using search-hit releases: %v", err)
		} else {
			resolved = *full
		}

		release := catalog.SelectCanonical(resolved.Releases)
		var date dates.PartialDate
		if release != nil {
			date = release.Date
		}

		m.deliver(sess, func() {
			sess.Date = date
			h := Header{Title: resolved.Title, Subtitle: artistName(resolved.Artist)}
			if !date.IsZero() {
				h.Date = "Released " + dates.Format(date)
			} else {
				h.Date = "Date unknown"
			}
			m.sink.RenderHeader(h)
		})

		go func() {
			summary, err := m.wiki.SongSummary(m.ctx, resolved.Title, resolved.Artist.Name)
			if err != nil {
				m.log.Debug("song summary unavailable: %v", err)
			}
			detail := shapeSongDetail(&resolved, release, summary)
			m.complete(sess, func() { m.sink.RenderDetail(detail) })
		}()

		m.fanOutDate(sess, date, resolved.Artist.Name, maxConcurrent)
		m.fetchArtist(sess, resolved.Artist)
	}()

	return sess
}

// beginAlbum starts an album session. Release groups already carry their
// first release date, so no extra lookup is needed before the fan-out.
func (m *Manager) beginAlbum(rg catalog.ReleaseGroup) *Session {
	sess := newSession(m, KindAlbum, totalEntitySession)
	m.begin(sess)

	date := rg.FirstReleaseDate
	m.deliver(sess, func() {
		sess.Date = date
		h := Header{Title: rg.Title, Subtitle: artistName(rg.Artist)}
		if !date.IsZero() {
			h.Date = "Released " + dates.Format(date)
		}
		m.sink.RenderHeader(h)
	})

	go func() {
		summary, err := m.wiki.AlbumSummary(m.ctx, rg.Title, rg.Artist.Name)
		if err != nil {
			m.log.Debug("album summary unavailable: %v", err)
		}
		detail := shapeAlbumDetail(&rg, summary)
		m.complete(sess, func() { m.sink.RenderDetail(detail) })
	}()

	m.fanOutDate(sess, date, rg.Artist.Name, maxConcurrent)
	m.fetchArtist(sess, rg.Artist)

	return sess
}

// BeginDate starts a date session: no entity, just the four contextual
// panels, with the concurrent-releases panel widened and no artist
// exclusion.
func (m *Manager) BeginDate(pd dates.PartialDate) *Session {
	sess := newSession(m, KindDate, totalDateSession)
	m.begin(sess)

	m.deliver(sess, func() {
		sess.Date = pd
		m.sink.RenderHeader(Header{
			Title:    dates.Format(pd),
			Subtitle: "Explore this date in history",
		})
	})

	m.fanOutDate(sess, pd, "", maxConcurrentWide)
	return sess
}

// fanOutDate issues the four date-dependent fetches concurrently. A date
// missing its month or day cannot drive any of them: synthesizing a day
// would fabricate "what else happened" results, so each panel degrades to
// its empty state immediately and still counts toward completion.
func (m *Manager) fanOutDate(sess *Session, pd dates.PartialDate, excludeArtist string, concurrentMax int) {
	if !pd.Full() {
		m.complete(sess, func() { m.sink.RenderHistory(nil) })
		m.complete(sess, func() { m.sink.RenderConcurrent(nil) })
		m.complete(sess, func() { m.sink.RenderBroadcast(nil) })
		m.complete(sess, func() { m.sink.RenderFilm(nil) })
		return
	}

	go func() {
		pool, err := m.wiki.WeekInHistory(m.ctx, pd.Year, pd.Month, pd.Day)
		if err != nil {
			m.log.Debug("history pool unavailable: %v", err)
			pool = nil
		}
		items := shapeHistory(pool, pd.Year)
		m.complete(sess, func() { m.sink.RenderHistory(items) })
	}()

	go func() {
		releases, err := m.catalog.ReleasesOnDate(m.ctx, pd)
		if err != nil {
			m.log.Debug("concurrent releases unavailable: %v", err)
			releases = nil
		}
		items := shapeConcurrent(releases, excludeArtist, concurrentMax)
		m.complete(sess, func() { m.sink.RenderConcurrent(items) })
	}()

	go func() {
		episodes, err := m.tv.PremiereWindow(m.ctx, pd)
		if err != nil {
			m.log.Debug("premiere window unavailable: %v", err)
			episodes = nil
		}
		items := shapeBroadcast(episodes)
		m.complete(sess, func() { m.sink.RenderBroadcast(items) })
	}()

	go func() {
		films, err := m.films.DiscoverWindow(m.ctx, pd.Year, pd.Month, pd.Day)
		if err != nil {
			m.log.Debug("film window unavailable: %v", err)
			films = nil
		}
		items := shapeFilms(films)
		m.complete(sess, func() { m.sink.RenderFilm(items) })
	}()
}

// fetchArtist runs the artist panel's two provider calls concurrently and
// joins them: the panel is one progress unit and renders only once both
// have completed or failed.
func (m *Manager) fetchArtist(sess *Session, artist catalog.Artist) {
	go func() {
		var (
			wg      sync.WaitGroup
			detail  *catalog.ArtistDetail
			summary *wikipedia.Summary
		)

		if artist.ID != "" {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := m.catalog.LookupArtist(m.ctx, artist.ID)
				if err != nil {
					m.log.Debug("artist lookup unavailable: %v", err)
					return
				}
				detail = d
			}()
		}

		if artist.Name != "" {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := m.wiki.ArtistSummary(m.ctx, artist.Name)
				if err != nil {
					m.log.Debug("artist summary unavailable: %v", err)
					return
				}
				summary = s
			}()
		}

		wg.Wait()
		panel := shapeArtist(detail, summary)
		m.complete(sess, func() { m.sink.RenderArtist(panel) })
	}()
}
