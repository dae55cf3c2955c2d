package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
	"spindle/internal/shared"
)

// TrackRepository persists tracks keyed by their Spotify id.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert creates or updates a track by Spotify id and returns the stored row.
// PreviewURL and ISRC are stored as NULL when the source data omits them.
func (r *TrackRepository) Upsert(track *models.Track) (*models.Track, error) {
	if err := track.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO tracks (id, spotify_id, name, album_id, track_number, disc_number, duration_ms, preview_url, isrc, explicit, available_markets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			name = excluded.name,
			album_id = excluded.album_id,
			track_number = excluded.track_number,
			disc_number = excluded.disc_number,
			duration_ms = excluded.duration_ms,
			preview_url = excluded.preview_url,
			isrc = excluded.isrc,
			explicit = excluded.explicit,
			available_markets = excluded.available_markets,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		track.SpotifyID,
		track.Name,
		track.AlbumID,
		track.TrackNumber,
		track.DiscNumber,
		track.DurationMS,
		nullString(track.PreviewURL),
		nullString(track.ISRC),
		track.Explicit,
		track.AvailableMarkets,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert track: %w", err)
	}

	return r.GetBySpotifyID(track.SpotifyID)
}

// GetBySpotifyID retrieves a track by its Spotify id.
func (r *TrackRepository) GetBySpotifyID(spotifyID string) (*models.Track, error) {
	query := `
		SELECT id, spotify_id, name, album_id, track_number, disc_number, duration_ms, preview_url, isrc, explicit, available_markets, created_at, updated_at
		FROM tracks
		WHERE spotify_id = ?
	`

	var (
		t          models.Track
		previewURL sql.NullString
		isrc       sql.NullString
	)

	err := r.db.QueryRow(query, spotifyID).Scan(
		&t.ID, &t.SpotifyID, &t.Name, &t.AlbumID, &t.TrackNumber, &t.DiscNumber, &t.DurationMS,
		&previewURL, &isrc, &t.Explicit, &t.AvailableMarkets, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found: %s", spotifyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	t.PreviewURL = previewURL.String
	t.ISRC = isrc.String

	return &t, nil
}

// Count returns the number of stored tracks.
func (r *TrackRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
