package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
	"spindle/internal/shared"
)

// ArtistRepository persists artists keyed by their Spotify id.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Upsert creates the artist on first sight of its Spotify id and overwrites
// the mutable fields on every later sighting. Returns the stored row with its
// local id and timestamps.
func (r *ArtistRepository) Upsert(artist *models.Artist) (*models.Artist, error) {
	if err := artist.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO artists (id, spotify_id, name, external_url, popularity, genres, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			name = excluded.name,
			external_url = excluded.external_url,
			popularity = excluded.popularity,
			genres = excluded.genres,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		artist.SpotifyID,
		artist.Name,
		artist.ExternalURL,
		artist.Popularity,
		artist.Genres,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert artist: %w", err)
	}

	return r.GetBySpotifyID(artist.SpotifyID)
}

// GetBySpotifyID retrieves an artist by its Spotify id.
func (r *ArtistRepository) GetBySpotifyID(spotifyID string) (*models.Artist, error) {
	query := `
		SELECT id, spotify_id, name, external_url, popularity, genres, created_at, updated_at
		FROM artists
		WHERE spotify_id = ?
	`

	var a models.Artist
	err := r.db.QueryRow(query, spotifyID).Scan(
		&a.ID, &a.SpotifyID, &a.Name, &a.ExternalURL, &a.Popularity, &a.Genres, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist not found: %s", spotifyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	return &a, nil
}

// Count returns the number of stored artists.
func (r *ArtistRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM artists").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", err)
	}
	return count, nil
}
