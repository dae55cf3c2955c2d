// Package models defines the domain entities for the spindle catalog store.
//
// The package contains two categories of types:
//
// 1. Catalog entities: rows in the local relational store, deduplicated by
// their Spotify identifier
//   - [Artist], [Album], [Track], [Playlist]
//
// 2. Relationship and asset rows
//   - [AlbumArtist], [TrackArtist] : many-to-many join rows keyed by the pair
//   - [PlaylistTrack] : playlist membership keyed by (playlist, track, position)
//   - [Media] : a stored binary asset, one per (parent, type)
//   - [ImportRun] : a record of one ingestion run
//
// Entities carry created_at/updated_at timestamps maintained by the
// repositories: created_at is set once on first insert and never changes,
// updated_at advances on every upsert.
package models
