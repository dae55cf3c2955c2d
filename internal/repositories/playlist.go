package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
	"spindle/internal/shared"
)

// PlaylistRepository persists playlist snapshots keyed by their Spotify id.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert creates or updates a playlist by Spotify id and returns the stored row.
func (r *PlaylistRepository) Upsert(playlist *models.Playlist) (*models.Playlist, error) {
	if err := playlist.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO playlists (id, spotify_id, name, owner_id, owner_name, public, collaborative, track_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			owner_name = excluded.owner_name,
			public = excluded.public,
			collaborative = excluded.collaborative,
			track_count = excluded.track_count,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		playlist.SpotifyID,
		playlist.Name,
		playlist.OwnerID,
		playlist.OwnerName,
		playlist.Public,
		playlist.Collaborative,
		playlist.TrackCount,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert playlist: %w", err)
	}

	return r.GetBySpotifyID(playlist.SpotifyID)
}

// GetBySpotifyID retrieves a playlist by its Spotify id.
func (r *PlaylistRepository) GetBySpotifyID(spotifyID string) (*models.Playlist, error) {
	query := `
		SELECT id, spotify_id, name, owner_id, owner_name, public, collaborative, track_count, created_at, updated_at
		FROM playlists
		WHERE spotify_id = ?
	`

	var p models.Playlist
	err := r.db.QueryRow(query, spotifyID).Scan(
		&p.ID, &p.SpotifyID, &p.Name, &p.OwnerID, &p.OwnerName, &p.Public, &p.Collaborative, &p.TrackCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found: %s", spotifyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	return &p, nil
}

// Export assembles a playlist's full ordered track listing with album and
// artist names resolved, for file exports.
func (r *PlaylistRepository) Export(spotifyID string) (*models.PlaylistExport, error) {
	playlist, err := r.GetBySpotifyID(spotifyID)
	if err != nil {
		return nil, err
	}

	// Artist names are concatenated in link insertion order, which matches
	// the source item's artist order.
	query := `
		SELECT pt.position, t.spotify_id, t.name, al.name, t.duration_ms, t.isrc,
			COALESCE((
				SELECT GROUP_CONCAT(name, ', ') FROM (
					SELECT ar.name
					FROM track_artists ta
					JOIN artists ar ON ar.id = ta.artist_id
					WHERE ta.track_id = t.id
					ORDER BY ta.rowid
				)
			), '')
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		JOIN albums al ON al.id = t.album_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`

	rows, err := r.db.Query(query, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist export: %w", err)
	}
	defer rows.Close()

	export := &models.PlaylistExport{Playlist: *playlist}
	for rows.Next() {
		var (
			entry models.PlaylistTrackEntry
			isrc  sql.NullString
		)
		if err := rows.Scan(&entry.Position, &entry.SpotifyID, &entry.Title, &entry.Album, &entry.DurationMS, &isrc, &entry.Artists); err != nil {
			return nil, fmt.Errorf("failed to scan playlist export row: %w", err)
		}
		entry.ISRC = isrc.String
		export.Tracks = append(export.Tracks, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return export, nil
}

// Count returns the number of stored playlists.
func (r *PlaylistRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM playlists").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count playlists: %w", err)
	}
	return count, nil
}
