package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spindle/internal/models"
	"spindle/internal/shared"
)

// ImportRunRepository records the history of ingestion runs.
//
// A run row is created when an import starts and finalized when it completes,
// fails fatally, or finishes with per-record errors.
type ImportRunRepository struct {
	db *sql.DB
}

// NewImportRunRepository creates a new ImportRunRepository with the given database connection
func NewImportRunRepository(db *sql.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// Start inserts a new run in the running state and fills in its id and start time.
func (r *ImportRunRepository) Start(run *models.ImportRun) error {
	if run.PlaylistSpotifyID == "" {
		return fmt.Errorf("import run missing playlist id")
	}

	run.ID = shared.GenerateID()
	run.Status = models.RunStatusRunning
	run.StartedAt = time.Now()

	query := `
		INSERT INTO import_runs (id, playlist_spotify_id, playlist_name, status, total_tracks, processed, failed, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.PlaylistSpotifyID,
		run.PlaylistName,
		run.Status,
		run.TotalTracks,
		run.Processed,
		run.Failed,
		run.Error,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	return nil
}

// Finish finalizes a run with its terminal status and counters.
func (r *ImportRunRepository) Finish(run *models.ImportRun) error {
	now := time.Now()
	run.FinishedAt = &now

	query := `
		UPDATE import_runs
		SET playlist_name = ?, status = ?, total_tracks = ?, processed = ?, failed = ?, error = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.PlaylistName,
		run.Status,
		run.TotalTracks,
		run.Processed,
		run.Failed,
		run.Error,
		now,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import run not found: %s", run.ID)
	}

	return nil
}

// Recent returns the most recent runs, newest first.
func (r *ImportRunRepository) Recent(limit int) ([]*models.ImportRun, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, playlist_spotify_id, playlist_name, status, total_tracks, processed, failed, error, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		var (
			run        models.ImportRun
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.PlaylistSpotifyID, &run.PlaylistName, &run.Status, &run.TotalTracks, &run.Processed, &run.Failed, &run.Error, &run.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}
