// Package tasks implements the catalog ingestion pipeline.
//
// The core abstraction is [ImportEngine], which orchestrates one import run:
// authenticate, fetch every page of the playlist, upsert each record's
// artists, album, and track, link the relationship rows, archive cover art
// once per album, and link the playlist membership in source order. Progress
// is emitted via channels for non-blocking status reporting to CLI/UI layers.
//
// A run survives individual bad records: per-record failures are logged,
// counted, and reported in the final [ImportResult], while authentication and
// page-fetch failures abort the run.
package tasks
