package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spindle/internal/shared"
	"spindle/internal/tasks"
)

// Import runs a full playlist import with progress streamed to the terminal.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	playlistID := cmd.String("id")

	if err := r.config.Validate(); err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		return r.dryRunImport(ctx, playlistID, cmd.Bool("json"), cmd.Bool("pretty"))
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := r.buildEngine(ctx, db)
	if err != nil {
		return err
	}

	r.logger.Info("starting import", "playlist", playlistID)
	r.writePlain("Importing playlist %s...\n\n", playlistID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Authenticating, tasks.FetchingPlaylist:
				r.writePlain("⚙ %s\n", update.Message)
			case tasks.FetchingTracks:
				r.writePlain("📥 %s\n\n", update.Message)
			case tasks.ProcessingRecords:
				r.writePlain("   %s\n", update.Message)
			case tasks.LinkingPlaylist:
				r.writePlain("\n🔗 %s\n", update.Message)
			}
		}
	}()

	result, err := engine.Run(ctx, progressCh, playlistID)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Playlist: %s\n", result.PlaylistName)
	r.writePlain("Imported: %d/%d tracks\n", result.Processed, result.TotalTracks)
	r.writePlain("Artists: %d  Albums: %d  Tracks: %d\n", result.ArtistsTouched, result.AlbumsTouched, result.TracksTouched)
	r.writePlain("Covers: %d archived, %d already present\n", result.CoversArchived, result.CoversSkipped)
	r.writePlain("Playlist entries linked: %d\n", result.LinkedTracks)

	if len(result.Errors) > 0 {
		r.writePlain("\n%d records had problems:\n", len(result.Errors))
		for _, record := range result.Errors {
			r.writePlain("  - %s: %s\n", record.Item, record.Message)
		}
	}

	return nil
}

// dryRunImport fetches a playlist and prints what an import would touch
// without opening the database or writing anything.
func (r *Runner) dryRunImport(ctx context.Context, playlistID string, asJSON, pretty bool) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: configure Spotify credentials first", shared.ErrMissingCredentials)
	}

	if err := r.catalog.Authenticate(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	playlist, err := r.catalog.Playlist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}

	items, err := r.catalog.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	artists := map[string]struct{}{}
	albums := map[string]struct{}{}
	for _, item := range items {
		for _, artist := range item.Track.Artists {
			artists[artist.ID] = struct{}{}
		}
		if item.Track.Album.ID != "" {
			albums[item.Track.Album.ID] = struct{}{}
		}
	}

	if asJSON {
		return r.writeJSON(map[string]any{
			"playlist": playlist.Name,
			"tracks":   len(items),
			"artists":  len(artists),
			"albums":   len(albums),
		}, pretty)
	}

	r.writePlainHeader("Dry Run")
	r.writePlain("Playlist: %s (%s)\n", playlist.Name, playlist.Owner.DisplayName)
	r.writePlain("Would import %d tracks, %d artists, %d albums\n\n", len(items), len(artists), len(albums))
	for i, item := range items {
		artist := "Unknown"
		if len(item.Track.Artists) > 0 {
			artist = item.Track.Artists[0].Name
		}
		r.writePlain("%3d. %s - %s [%s]\n", i+1, artist, item.Track.Name, shared.FormatDuration(item.Track.DurationMS))
	}

	return nil
}

// Status reports catalog counts and the most recent import runs.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stores := r.openStores(db)

	counts := map[string]int{}
	for name, count := range map[string]func() (int, error){
		"artists":   stores.Artists.Count,
		"albums":    stores.Albums.Count,
		"tracks":    stores.Tracks.Count,
		"playlists": stores.Playlists.Count,
		"covers":    stores.Media.Count,
	} {
		n, err := count()
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts[name] = n
	}

	runs, err := stores.Runs.Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"counts": counts, "runs": runs}, true)
	}

	r.writePlainHeader("Catalog Status")
	r.writePlain("Artists: %d\n", counts["artists"])
	r.writePlain("Albums: %d\n", counts["albums"])
	r.writePlain("Tracks: %d\n", counts["tracks"])
	r.writePlain("Playlists: %d\n", counts["playlists"])
	r.writePlain("Archived covers: %d\n", counts["covers"])

	if len(runs) == 0 {
		r.writePlainln("No import runs recorded yet.")
		return nil
	}

	r.writePlainln("Recent runs:")
	for _, run := range runs {
		line := fmt.Sprintf("  %s  %-9s  %s (%d/%d tracks)",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Status,
			run.PlaylistName,
			run.Processed,
			run.TotalTracks,
		)
		if run.Error != "" {
			line += fmt.Sprintf("  error: %s", run.Error)
		}
		r.writePlain("%s\n", line)
	}

	return nil
}
