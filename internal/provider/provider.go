// Package provider contains API clients for the upstream services
// (MusicBrainz, Wikipedia, TVMaze, TMDB).
//
// The interfaces these clients satisfy are defined in internal/aggregate
// (Catalog, Encyclopedia, Broadcast, FilmCatalog), following the Go
// convention of defining interfaces where they are consumed. Each
// sub-package here implements one of them for a specific service.
package provider
