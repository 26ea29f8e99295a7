// Package catalog defines the music-catalog domain model and the heuristics
// that pick one canonical release out of many candidate pressings. Provider
// packages fill these types; everything above them works only with this
// model.
package catalog

import "whendropped/internal/dates"

// Artist identifies a catalog artist. ID is the provider's opaque key and
// may be empty on sparse records.
type Artist struct {
	ID   string
	Name string
}

// ArtistDetail is the full artist record returned by a direct lookup.
type ArtistDetail struct {
	Artist
	Area       string // current area, or begin area when unset
	ActiveFrom string // year the artist/group began, "" when unknown
}

// Release is one concrete pressing or issue of a work.
type Release struct {
	ID             string
	Title          string
	Status         string // "Official", another status, or "" when unknown
	Date           dates.PartialDate
	Country        string
	ReleaseGroupID string // parent group, used for artwork lookup
	PrimaryType    string // release-group primary type ("Album", "Single", …)
	SecondaryTypes []string
	Artist         Artist
	Score          int // provider relevance, ordering hint only
}

// Recording is a searchable song entry with its candidate releases.
type Recording struct {
	ID       string
	Title    string
	Artist   Artist
	Length   int // milliseconds, 0 when unknown
	Releases []Release
	Score    int // provider relevance
}

// ReleaseGroup is the abstract album uniting all its pressings.
type ReleaseGroup struct {
	ID               string
	Title            string
	Artist           Artist
	PrimaryType      string
	FirstReleaseDate dates.PartialDate
	Score            int
}
