// Package repositories implements SQLite persistence for the catalog.
//
// Catalog repositories expose upsert operations keyed by the entity's Spotify
// identifier: the first sighting of an external id inserts a row, every later
// sighting overwrites the mutable fields in place (last-write-wins) and
// advances updated_at while leaving created_at untouched. Relationship rows
// use their full composite key the same way, so re-importing a playlist never
// duplicates links.
//
// Key implementations:
//   - [ArtistRepository], [AlbumRepository], [TrackRepository], [PlaylistRepository]
//   - [LinkRepository] : album↔artist, track↔artist, playlist→track joins
//   - [MediaRepository] : one stored asset per (parent, type)
//   - [ImportRunRepository] : history of ingestion runs
package repositories
