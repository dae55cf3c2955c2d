package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
	"spindle/internal/shared"
)

// AlbumRepository persists albums keyed by their Spotify id.
type AlbumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new AlbumRepository with the given database connection
func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Upsert creates or updates an album by Spotify id and returns the stored row.
func (r *AlbumRepository) Upsert(album *models.Album) (*models.Album, error) {
	if err := album.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO albums (id, spotify_id, name, album_type, total_tracks, release_date, external_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			name = excluded.name,
			album_type = excluded.album_type,
			total_tracks = excluded.total_tracks,
			release_date = excluded.release_date,
			external_url = excluded.external_url,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		album.SpotifyID,
		album.Name,
		album.AlbumType,
		album.TotalTracks,
		album.ReleaseDate,
		album.ExternalURL,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert album: %w", err)
	}

	return r.GetBySpotifyID(album.SpotifyID)
}

// GetBySpotifyID retrieves an album by its Spotify id.
func (r *AlbumRepository) GetBySpotifyID(spotifyID string) (*models.Album, error) {
	query := `
		SELECT id, spotify_id, name, album_type, total_tracks, release_date, external_url, created_at, updated_at
		FROM albums
		WHERE spotify_id = ?
	`

	var a models.Album
	err := r.db.QueryRow(query, spotifyID).Scan(
		&a.ID, &a.SpotifyID, &a.Name, &a.AlbumType, &a.TotalTracks, &a.ReleaseDate, &a.ExternalURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("album not found: %s", spotifyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}

	return &a, nil
}

// Count returns the number of stored albums.
func (r *AlbumRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM albums").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count albums: %w", err)
	}
	return count, nil
}
