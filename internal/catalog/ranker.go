package catalog

import (
	"sort"

	"whendropped/internal/dates"
)

// Type rank for canonical-release selection. Lower is more canonical: the
// original studio album beats the single, which beats compilations and live
// recordings.
const (
	rankAlbum = iota
	rankSingle
	rankEP
	rankCompilation
	rankLive
	rankUnknown
)

var primaryTypeRank = map[string]int{
	"Album":       rankAlbum,
	"Single":      rankSingle,
	"EP":          rankEP,
	"Compilation": rankCompilation,
	"Live":        rankLive,
}

// typeRank classifies a release. Live albums carry primary type "Album" in
// the catalog, so secondary types are checked first; they are only populated
// on full recording lookups, not on search results.
func typeRank(r Release) int {
	for _, s := range r.SecondaryTypes {
		if s == "Live" {
			return rankLive
		}
	}
	for _, s := range r.SecondaryTypes {
		if s == "Compilation" {
			return rankCompilation
		}
	}
	if rank, ok := primaryTypeRank[r.PrimaryType]; ok {
		return rank
	}
	return rankUnknown
}

// SelectCanonical picks the release most representative of the original
// publication: official issues over promos, studio albums over compilations
// and live recordings, complete dates over year-only ones, earliest first.
// Country is deliberately not scored; a country bonus once let a later US
// compilation outrank the original UK album. Returns nil only for empty
// input.
func SelectCanonical(releases []Release) *Release {
	if len(releases) == 0 {
		return nil
	}

	pool := make([]Release, 0, len(releases))
	for _, r := range releases {
		if r.Status == "Official" || r.Status == "" {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		pool = releases
	}

	dated := make([]Release, 0, len(pool))
	for _, r := range pool {
		if !r.Date.IsZero() {
			dated = append(dated, r)
		}
	}
	if len(dated) == 0 {
		// Nothing carries a date; the first official entry is as good a
		// guess as any.
		return &pool[0]
	}

	score := func(r Release) int {
		s := typeRank(r) * 100
		if !r.Date.Full() {
			s += 10
		}
		return s
	}

	sort.SliceStable(dated, func(i, j int) bool {
		si, sj := score(dated[i]), score(dated[j])
		if si != sj {
			return si < sj
		}
		// Raw string comparison, matching how the catalog's own date
		// strings order: "1977-10" before "1977-10-28".
		return dated[i].Date.Key() < dated[j].Date.Key()
	})
	return &dated[0]
}

// EarliestOfficialDate returns the raw date key of the recording's earliest
// official dated release, or the unknown sentinel when it has none. Used to
// order disambiguation pickers so studio originals surface before the live
// and compilation entries that only exist on later dates.
func EarliestOfficialDate(rec Recording) string {
	earliest := dates.UnknownKey
	for _, r := range rec.Releases {
		if r.Status != "Official" && r.Status != "" {
			continue
		}
		if r.Date.IsZero() {
			continue
		}
		if key := r.Date.Key(); key < earliest {
			earliest = key
		}
	}
	return earliest
}

// SortRecordingsForPicker orders search hits by earliest official release
// date ascending, undated entries last, provider relevance as tiebreaker.
func SortRecordingsForPicker(recs []Recording) []Recording {
	sorted := make([]Recording, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := EarliestOfficialDate(sorted[i]), EarliestOfficialDate(sorted[j])
		if di != dj {
			return di < dj
		}
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// SortGroupsForPicker orders release groups by first release date, undated
// entries last.
func SortGroupsForPicker(groups []ReleaseGroup) []ReleaseGroup {
	sorted := make([]ReleaseGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstReleaseDate.Key() < sorted[j].FirstReleaseDate.Key()
	})
	return sorted
}
