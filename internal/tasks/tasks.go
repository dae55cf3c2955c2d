package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"spindle/internal/models"
	"spindle/internal/repositories"
	"spindle/internal/services"
	"spindle/internal/shared"
)

// Stores bundles the repositories the import engine writes through.
type Stores struct {
	Artists   *repositories.ArtistRepository
	Albums    *repositories.AlbumRepository
	Tracks    *repositories.TrackRepository
	Playlists *repositories.PlaylistRepository
	Links     *repositories.LinkRepository
	Media     *repositories.MediaRepository
	Runs      *repositories.ImportRunRepository
}

// RecordError describes one failed record or asset with enough context to
// diagnose it from the summary.
type RecordError struct {
	Item    string `json:"item"`
	Message string `json:"message"`
}

// ImportResult contains all data from one import run.
type ImportResult struct {
	PlaylistID     string        `json:"playlist_id"`
	PlaylistName   string        `json:"playlist_name"`
	TotalTracks    int           `json:"total_tracks"`
	Processed      int           `json:"processed"`
	Failed         int           `json:"failed"`
	ArtistsTouched int           `json:"artists_touched"`
	AlbumsTouched  int           `json:"albums_touched"`
	TracksTouched  int           `json:"tracks_touched"`
	CoversArchived int           `json:"covers_archived"`
	CoversSkipped  int           `json:"covers_skipped"`
	LinkedTracks   int           `json:"linked_tracks"`
	Errors         []RecordError `json:"errors,omitempty"`
}

// ImportEngine orchestrates one catalog ingestion run.
//
// Records are processed strictly sequentially: the upstream API enforces a
// rate limit, and processing order determines playlist positions. Per-record
// failures never abort the run; authentication and page-fetch failures do.
type ImportEngine struct {
	catalog  services.Catalog
	stores   Stores
	archiver *CoverArchiver
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewImportEngine creates a new ImportEngine with the provided dependencies.
// A nil limiter defaults to one request per second.
func NewImportEngine(catalog services.Catalog, stores Stores, archiver *CoverArchiver, limiter *rate.Limiter, logger *log.Logger) *ImportEngine {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(1), 1)
		limiter.Allow()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportEngine{
		catalog:  catalog,
		stores:   stores,
		archiver: archiver,
		limiter:  limiter,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ImportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// runState accumulates per-run bookkeeping across records.
type runState struct {
	seenAlbums    map[string]bool // external album ids already offered a cover this run
	artistsSeen   map[string]bool
	albumsSeen    map[string]bool
	tracksSeen    map[string]bool
	trackLocalIDs []string // local track id per source position; "" for failed records
}

// Run performs a full import of one playlist.
func (e *ImportEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*ImportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrAPIRequest)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	result := &ImportResult{PlaylistID: playlistID}

	e.sendProgress(progress, authenticatingUpdate())
	if err := e.catalog.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	e.sendProgress(progress, fetchingPlaylistUpdate(playlistID))
	playlist, err := e.catalog.Playlist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}
	result.PlaylistName = playlist.Name

	run := &models.ImportRun{
		PlaylistSpotifyID: playlistID,
		PlaylistName:      playlist.Name,
	}
	if err := e.stores.Runs.Start(run); err != nil {
		return nil, fmt.Errorf("failed to record import run: %w", err)
	}

	items, err := e.catalog.PlaylistTracks(ctx, playlistID)
	if err != nil {
		e.failRun(run, err)
		return nil, fmt.Errorf("%w: failed to fetch playlist tracks: %v", shared.ErrAPIRequest, err)
	}

	result.TotalTracks = len(items)
	run.TotalTracks = len(items)
	e.sendProgress(progress, foundPlaylistUpdate(playlist.Name, len(items)))

	state := &runState{
		seenAlbums:    make(map[string]bool),
		artistsSeen:   make(map[string]bool),
		albumsSeen:    make(map[string]bool),
		tracksSeen:    make(map[string]bool),
		trackLocalIDs: make([]string, len(items)),
	}

	for i, item := range items {
		e.sendProgress(progress, processTrackUpdate(i+1, len(items), primaryArtist(item.Track), item.Track.Name))

		if err := e.processRecord(ctx, item, state, i, result); err != nil {
			e.logger.Error("failed to import track",
				"track", item.Track.Name,
				"spotify_id", item.Track.ID,
				"error", err,
			)
			result.Failed++
			result.Errors = append(result.Errors, RecordError{
				Item:    fmt.Sprintf("track %s (%s)", item.Track.Name, item.Track.ID),
				Message: err.Error(),
			})
			e.sendProgress(progress, recordFailedUpdate(i+1, len(items), item.Track.Name, err))
		} else {
			result.Processed++
		}

		if i < len(items)-1 {
			if err := e.limiter.Wait(ctx); err != nil {
				e.failRun(run, err)
				return nil, fmt.Errorf("import interrupted: %w", err)
			}
		}
	}

	e.sendProgress(progress, linkingPlaylistUpdate(playlist.Name, len(items)))
	e.linkPlaylist(playlist, items, state, result)

	result.ArtistsTouched = len(state.artistsSeen)
	result.AlbumsTouched = len(state.albumsSeen)
	result.TracksTouched = len(state.tracksSeen)

	run.Processed = result.Processed
	run.Failed = result.Failed
	run.Status = models.RunStatusCompleted
	if err := e.stores.Runs.Finish(run); err != nil {
		e.logger.Warn("failed to finalize import run record", "error", err)
	}

	e.sendProgress(progress, summaryUpdate(result))
	return result, nil
}

// processRecord upserts one playlist item's artists, album, and track, links
// the relationship rows, and archives the album cover on the album's first
// sighting in this run. Any returned error fails only this record.
func (e *ImportEngine) processRecord(ctx context.Context, item services.SpotifyPlaylistItem, state *runState, index int, result *ImportResult) error {
	track := item.Track
	if track.ID == "" {
		return fmt.Errorf("%w: item has no track id", shared.ErrInvalidInput)
	}

	artistIDs := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		stored, err := e.stores.Artists.Upsert(&models.Artist{
			SpotifyID:   artist.ID,
			Name:        artist.Name,
			ExternalURL: artist.ExternalURLs.Spotify,
			Popularity:  artist.Popularity,
			Genres:      strings.Join(artist.Genres, ","),
		})
		if err != nil {
			return fmt.Errorf("artist %s: %w", artist.Name, err)
		}
		state.artistsSeen[artist.ID] = true
		artistIDs = append(artistIDs, stored.ID)
	}

	album, err := e.stores.Albums.Upsert(&models.Album{
		SpotifyID:   track.Album.ID,
		Name:        track.Album.Name,
		AlbumType:   track.Album.AlbumType,
		TotalTracks: track.Album.TotalTracks,
		ReleaseDate: track.Album.ReleaseDate,
		ExternalURL: track.Album.ExternalURLs.Spotify,
	})
	if err != nil {
		return fmt.Errorf("album %s: %w", track.Album.Name, err)
	}
	state.albumsSeen[track.Album.ID] = true

	// One archive attempt per external album id per run; later tracks from
	// the same album skip straight past.
	if !state.seenAlbums[track.Album.ID] {
		state.seenAlbums[track.Album.ID] = true
		e.archiveAlbumCover(ctx, &track.Album, album.ID, result)
	}

	if err := e.stores.Links.LinkAlbumArtists(album.ID, artistIDs); err != nil {
		return err
	}

	stored, err := e.stores.Tracks.Upsert(&models.Track{
		SpotifyID:        track.ID,
		Name:             track.Name,
		AlbumID:          album.ID,
		TrackNumber:      track.TrackNumber,
		DiscNumber:       track.DiscNumber,
		DurationMS:       track.DurationMS,
		PreviewURL:       track.PreviewURL,
		ISRC:             track.ISRC(),
		Explicit:         track.Explicit,
		AvailableMarkets: strings.Join(track.AvailableMarkets, ","),
	})
	if err != nil {
		return fmt.Errorf("track %s: %w", track.Name, err)
	}
	state.tracksSeen[track.ID] = true
	state.trackLocalIDs[index] = stored.ID

	if err := e.stores.Links.LinkTrackArtists(stored.ID, artistIDs); err != nil {
		return err
	}

	return nil
}

// archiveAlbumCover attempts cover archiving for an album. Failures are
// recorded in the summary but never fail the record: the album proceeds
// without a cover.
func (e *ImportEngine) archiveAlbumCover(ctx context.Context, album *services.SpotifyAlbum, albumID string, result *ImportResult) {
	if e.archiver == nil {
		return
	}

	media, err := e.archiver.ArchiveCover(ctx, album, albumID)
	if err != nil {
		e.logger.Warn("cover archiving failed", "album", album.Name, "error", err)
		result.Errors = append(result.Errors, RecordError{
			Item:    fmt.Sprintf("cover %s (%s)", album.Name, album.ID),
			Message: err.Error(),
		})
		return
	}

	if media != nil {
		result.CoversArchived++
	} else {
		result.CoversSkipped++
	}
}

// linkPlaylist upserts the playlist snapshot and records membership for every
// successfully imported track at its 1-based source position.
func (e *ImportEngine) linkPlaylist(playlist *services.SpotifyPlaylist, items []services.SpotifyPlaylistItem, state *runState, result *ImportResult) {
	stored, err := e.stores.Playlists.Upsert(&models.Playlist{
		SpotifyID:     playlist.ID,
		Name:          playlist.Name,
		OwnerID:       playlist.Owner.ID,
		OwnerName:     playlist.Owner.DisplayName,
		Public:        playlist.Public,
		Collaborative: playlist.Collaborative,
		TrackCount:    playlist.TrackCount(),
	})
	if err != nil {
		e.logger.Error("failed to upsert playlist", "playlist", playlist.Name, "error", err)
		result.Errors = append(result.Errors, RecordError{
			Item:    fmt.Sprintf("playlist %s (%s)", playlist.Name, playlist.ID),
			Message: err.Error(),
		})
		return
	}

	for i, item := range items {
		trackID := state.trackLocalIDs[i]
		if trackID == "" {
			// Record failed during processing; its position stays unlinked.
			continue
		}

		link := &models.PlaylistTrack{
			PlaylistID: stored.ID,
			TrackID:    trackID,
			Position:   i + 1,
			AddedAt:    item.AddedAt,
			AddedBy:    item.AddedBy.ID,
		}
		if err := e.stores.Links.LinkPlaylistTrack(link); err != nil {
			e.logger.Error("failed to link playlist track", "track", item.Track.Name, "position", i+1, "error", err)
			result.Errors = append(result.Errors, RecordError{
				Item:    fmt.Sprintf("playlist link %s at %d", item.Track.Name, i+1),
				Message: err.Error(),
			})
			continue
		}
		result.LinkedTracks++
	}
}

// failRun marks a run failed after a fatal error. Best effort: the fatal
// error is what the caller reports.
func (e *ImportEngine) failRun(run *models.ImportRun, cause error) {
	run.Status = models.RunStatusFailed
	run.Error = cause.Error()
	if err := e.stores.Runs.Finish(run); err != nil {
		e.logger.Warn("failed to finalize import run record", "error", err)
	}
}

func primaryArtist(track services.SpotifyTrack) string {
	if len(track.Artists) == 0 {
		return "Unknown"
	}
	return track.Artists[0].Name
}
