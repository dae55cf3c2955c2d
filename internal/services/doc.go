// Package services contains clients for the external APIs the importer
// consumes.
//
// The [Catalog] interface abstracts the upstream music catalog so the import
// engine and the TUI can run against a fake in tests. [SpotifyClient] is the
// production implementation: it owns the client-credentials token exchange,
// paginated collection fetches, single-resource lookups, and cover image
// downloads.
package services
