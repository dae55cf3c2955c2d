package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
)

// LinkRepository persists the many-to-many relationship rows.
//
// Every link operation is an idempotent upsert on the row's full composite
// key: pure join rows (album↔artist, track↔artist) are no-ops when the pair
// already exists, while playlist→track rows refresh the non-key fields
// (added_at, added_by) in place.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new LinkRepository with the given database connection
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// LinkAlbumArtists links an album to each artist id in the set. Links are
// independent: a failure on one artist id is returned but does not undo links
// already written in the same call.
func (r *LinkRepository) LinkAlbumArtists(albumID string, artistIDs []string) error {
	query := `
		INSERT INTO album_artists (album_id, artist_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(album_id, artist_id) DO NOTHING
	`

	for _, artistID := range artistIDs {
		if _, err := r.db.Exec(query, albumID, artistID, time.Now()); err != nil {
			return fmt.Errorf("failed to link album %s to artist %s: %w", albumID, artistID, err)
		}
	}

	return nil
}

// LinkTrackArtists links a track to each artist id in the set.
func (r *LinkRepository) LinkTrackArtists(trackID string, artistIDs []string) error {
	query := `
		INSERT INTO track_artists (track_id, artist_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(track_id, artist_id) DO NOTHING
	`

	for _, artistID := range artistIDs {
		if _, err := r.db.Exec(query, trackID, artistID, time.Now()); err != nil {
			return fmt.Errorf("failed to link track %s to artist %s: %w", trackID, artistID, err)
		}
	}

	return nil
}

// LinkPlaylistTrack records playlist membership at a position. Re-linking the
// same (playlist, track, position) refreshes added_at/added_by.
func (r *LinkRepository) LinkPlaylistTrack(link *models.PlaylistTrack) error {
	if link.Position < 1 {
		return fmt.Errorf("playlist track position must be 1-based, got %d", link.Position)
	}

	now := time.Now()

	query := `
		INSERT INTO playlist_tracks (playlist_id, track_id, position, added_at, added_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(playlist_id, track_id, position) DO UPDATE SET
			added_at = excluded.added_at,
			added_by = excluded.added_by,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		link.PlaylistID,
		link.TrackID,
		link.Position,
		link.AddedAt,
		link.AddedBy,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to link playlist %s to track %s: %w", link.PlaylistID, link.TrackID, err)
	}

	return nil
}

// PlaylistTracks returns a playlist's membership rows ordered by position.
func (r *LinkRepository) PlaylistTracks(playlistID string) ([]*models.PlaylistTrack, error) {
	query := `
		SELECT playlist_id, track_id, position, added_at, added_by, created_at, updated_at
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var links []*models.PlaylistTrack
	for rows.Next() {
		var link models.PlaylistTrack
		if err := rows.Scan(&link.PlaylistID, &link.TrackID, &link.Position, &link.AddedAt, &link.AddedBy, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return links, nil
}

// CountAlbumArtists returns the number of album↔artist rows.
func (r *LinkRepository) CountAlbumArtists() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM album_artists").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count album artists: %w", err)
	}
	return count, nil
}

// CountTrackArtists returns the number of track↔artist rows.
func (r *LinkRepository) CountTrackArtists() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM track_artists").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count track artists: %w", err)
	}
	return count, nil
}
