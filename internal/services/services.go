package services

import "context"

// Catalog defines the operations the import pipeline needs from the upstream
// music catalog API.
type Catalog interface {
	// Authenticate obtains (or refreshes) an API credential.
	// Returns an error if the credential exchange fails.
	Authenticate(ctx context.Context) error

	// Playlist retrieves playlist metadata by ID.
	Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error)

	// PlaylistTracks retrieves the complete ordered track listing of a
	// playlist across however many pages the API requires.
	PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyPlaylistItem, error)

	// Album retrieves a single album by ID. A missing album is reported as
	// [shared.ErrNotFound], not a request failure.
	Album(ctx context.Context, albumID string) (*SpotifyAlbum, error)

	// DownloadImage fetches the bytes of an image URL and reports the
	// response's declared content type.
	DownloadImage(ctx context.Context, url string) ([]byte, string, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}
