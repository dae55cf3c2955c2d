package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
	"spindle/internal/shared"
)

// MediaRepository persists stored-asset records, one per (parent, type).
type MediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new MediaRepository with the given database connection
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// GetByParent retrieves the media record for a parent and type. Returns
// (nil, nil) when no record exists, so callers can use absence as the
// idempotent-skip signal without treating it as a failure.
func (r *MediaRepository) GetByParent(parentID, mediaType string) (*models.Media, error) {
	query := `
		SELECT id, parent_id, media_type, object_key, url, source_url, width, height, byte_size, mime_type, created_at
		FROM media
		WHERE parent_id = ? AND media_type = ?
	`

	var m models.Media
	err := r.db.QueryRow(query, parentID, mediaType).Scan(
		&m.ID, &m.ParentID, &m.MediaType, &m.ObjectKey, &m.URL, &m.SourceURL,
		&m.Width, &m.Height, &m.ByteSize, &m.MimeType, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan media: %w", err)
	}

	return &m, nil
}

// Create inserts a new media record with a generated id.
func (r *MediaRepository) Create(media *models.Media) error {
	if media.ParentID == "" || media.MediaType == "" {
		return fmt.Errorf("media missing parent id or type")
	}

	media.ID = shared.GenerateID()
	media.CreatedAt = time.Now()

	query := `
		INSERT INTO media (id, parent_id, media_type, object_key, url, source_url, width, height, byte_size, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		media.ID,
		media.ParentID,
		media.MediaType,
		media.ObjectKey,
		media.URL,
		media.SourceURL,
		media.Width,
		media.Height,
		media.ByteSize,
		media.MimeType,
		media.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}

	return nil
}

// Count returns the number of media records.
func (r *MediaRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM media").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return count, nil
}
