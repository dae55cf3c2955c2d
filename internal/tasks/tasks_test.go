package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/time/rate"

	"spindle/internal/blobstore"
	"spindle/internal/models"
	"spindle/internal/repositories"
	"spindle/internal/services"
	testutil "spindle/internal/testing"
)

func newTestStores(t *testing.T) Stores {
	t.Helper()
	db := testutil.MustOpenDB(t)
	return Stores{
		Artists:   repositories.NewArtistRepository(db),
		Albums:    repositories.NewAlbumRepository(db),
		Tracks:    repositories.NewTrackRepository(db),
		Playlists: repositories.NewPlaylistRepository(db),
		Links:     repositories.NewLinkRepository(db),
		Media:     repositories.NewMediaRepository(db),
		Runs:      repositories.NewImportRunRepository(db),
	}
}

func newTestStore(t *testing.T) blobstore.Store {
	t.Helper()
	store, err := blobstore.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.EnsureContainer(context.Background()); err != nil {
		t.Fatalf("failed to ensure container: %v", err)
	}
	return store
}

func artist(id, name string) services.SpotifyArtist {
	return services.SpotifyArtist{ID: id, Name: name}
}

func album(id, name string, withImage bool) services.SpotifyAlbum {
	a := services.SpotifyAlbum{ID: id, Name: name, AlbumType: "album", TotalTracks: 10}
	if withImage {
		a.Images = []services.SpotifyImage{{URL: "https://img/" + id, Width: 640, Height: 640}}
	}
	return a
}

// fixtureItems builds a three-track playlist spanning two artists and two
// albums, with one collaboration track.
func fixtureItems() []services.SpotifyPlaylistItem {
	alpha := artist("ar1", "Alpha")
	beta := artist("ar2", "Beta")
	lpOne := album("al1", "LP One", true)
	lpTwo := album("al2", "LP Two", true)

	return []services.SpotifyPlaylistItem{
		{
			AddedAt: "2024-01-01T00:00:00Z",
			AddedBy: services.SpotifyOwner{ID: "user1"},
			Track: services.SpotifyTrack{
				ID: "t1", Name: "One", Artists: []services.SpotifyArtist{alpha}, Album: lpOne, DurationMS: 180000,
			},
		},
		{
			AddedAt: "2024-01-02T00:00:00Z",
			AddedBy: services.SpotifyOwner{ID: "user1"},
			Track: services.SpotifyTrack{
				ID: "t2", Name: "Two", Artists: []services.SpotifyArtist{alpha, beta}, Album: lpOne, DurationMS: 200000,
			},
		},
		{
			AddedAt: "2024-01-03T00:00:00Z",
			AddedBy: services.SpotifyOwner{ID: "user2"},
			Track: services.SpotifyTrack{
				ID: "t3", Name: "Three", Artists: []services.SpotifyArtist{beta}, Album: lpTwo, DurationMS: 220000,
			},
		},
	}
}

func fixtureCatalog(items []services.SpotifyPlaylistItem) *testutil.MockCatalog {
	return &testutil.MockCatalog{
		PlaylistFunc: func(ctx context.Context, playlistID string) (*services.SpotifyPlaylist, error) {
			return &services.SpotifyPlaylist{
				ID:    playlistID,
				Name:  "Fixture Mix",
				Owner: services.SpotifyOwner{ID: "user1", DisplayName: "User One"},
			}, nil
		},
		PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]services.SpotifyPlaylistItem, error) {
			return items, nil
		},
	}
}

func newTestEngine(t *testing.T, catalog services.Catalog, stores Stores) *ImportEngine {
	t.Helper()
	archiver := NewCoverArchiver(stores.Media, newTestStore(t), catalog.(ImageDownloader), nil)
	return NewImportEngine(catalog, stores, archiver, rate.NewLimiter(rate.Inf, 0), nil)
}

func TestImportEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("imports a playlist end to end", func(t *testing.T) {
		stores := newTestStores(t)
		catalog := fixtureCatalog(fixtureItems())
		engine := newTestEngine(t, catalog, stores)

		result, err := engine.Run(ctx, nil, "pl1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if result.Processed != 3 || result.Failed != 0 {
			t.Errorf("expected 3 processed and 0 failed, got %d/%d", result.Processed, result.Failed)
		}
		if result.ArtistsTouched != 2 || result.AlbumsTouched != 2 || result.TracksTouched != 3 {
			t.Errorf("unexpected touch counts: %d artists, %d albums, %d tracks",
				result.ArtistsTouched, result.AlbumsTouched, result.TracksTouched)
		}
		if result.CoversArchived != 2 {
			t.Errorf("expected 2 archived covers, got %d", result.CoversArchived)
		}
		if result.LinkedTracks != 3 {
			t.Errorf("expected 3 linked tracks, got %d", result.LinkedTracks)
		}

		for name, want := range map[string]struct {
			count func() (int, error)
			n     int
		}{
			"artists":       {stores.Artists.Count, 2},
			"albums":        {stores.Albums.Count, 2},
			"tracks":        {stores.Tracks.Count, 3},
			"playlists":     {stores.Playlists.Count, 1},
			"covers":        {stores.Media.Count, 2},
			// LP One gets two artist links because t2 is a collaboration.
			"album artists": {stores.Links.CountAlbumArtists, 3},
			"track artists": {stores.Links.CountTrackArtists, 4},
		} {
			n, err := want.count()
			if err != nil {
				t.Fatalf("count %s failed: %v", name, err)
			}
			if n != want.n {
				t.Errorf("expected %d %s, got %d", want.n, name, n)
			}
		}

		playlist, err := stores.Playlists.GetBySpotifyID("pl1")
		if err != nil {
			t.Fatalf("playlist not stored: %v", err)
		}
		rows, err := stores.Links.PlaylistTracks(playlist.ID)
		if err != nil {
			t.Fatalf("membership fetch failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 membership rows, got %d", len(rows))
		}
		for i, row := range rows {
			if row.Position != i+1 {
				t.Errorf("expected position %d, got %d", i+1, row.Position)
			}
		}

		runs, err := stores.Runs.Recent(1)
		if err != nil {
			t.Fatalf("runs fetch failed: %v", err)
		}
		if len(runs) != 1 || runs[0].Status != models.RunStatusCompleted {
			t.Errorf("expected one completed run, got %+v", runs)
		}
	})

	t.Run("second run is idempotent", func(t *testing.T) {
		stores := newTestStores(t)
		catalog := fixtureCatalog(fixtureItems())
		engine := newTestEngine(t, catalog, stores)

		if _, err := engine.Run(ctx, nil, "pl1"); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		result, err := engine.Run(ctx, nil, "pl1")
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		if result.CoversArchived != 0 || result.CoversSkipped != 2 {
			t.Errorf("expected covers skipped on rerun, got %d archived %d skipped",
				result.CoversArchived, result.CoversSkipped)
		}

		counts := map[string]func() (int, error){
			"artists": stores.Artists.Count, "albums": stores.Albums.Count,
			"tracks": stores.Tracks.Count, "playlists": stores.Playlists.Count,
			"covers": stores.Media.Count,
		}
		want := map[string]int{"artists": 2, "albums": 2, "tracks": 3, "playlists": 1, "covers": 2}
		for name, count := range counts {
			n, err := count()
			if err != nil {
				t.Fatalf("count %s failed: %v", name, err)
			}
			if n != want[name] {
				t.Errorf("rerun changed %s count: expected %d, got %d", name, want[name], n)
			}
		}
	})

	t.Run("cover failure degrades gracefully", func(t *testing.T) {
		stores := newTestStores(t)
		catalog := fixtureCatalog(fixtureItems())
		catalog.DownloadImageFunc = func(ctx context.Context, url string) ([]byte, string, error) {
			if url == "https://img/al2" {
				return nil, "", errors.New("cdn unreachable")
			}
			return []byte("jpeg"), "image/jpeg", nil
		}
		engine := newTestEngine(t, catalog, stores)

		result, err := engine.Run(ctx, nil, "pl1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if result.Processed != 3 {
			t.Errorf("cover failure must not fail records: processed %d", result.Processed)
		}
		if result.CoversArchived != 1 {
			t.Errorf("expected 1 archived cover, got %d", result.CoversArchived)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 recorded error, got %d", len(result.Errors))
		}
		if result.Errors[0].Message == "" {
			t.Error("expected cover error message")
		}
	})

	t.Run("bad record is skipped, positions preserved", func(t *testing.T) {
		items := fixtureItems()
		items[1].Track.ID = ""
		stores := newTestStores(t)
		engine := newTestEngine(t, fixtureCatalog(items), stores)

		result, err := engine.Run(ctx, nil, "pl1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if result.Processed != 2 || result.Failed != 1 {
			t.Errorf("expected 2 processed and 1 failed, got %d/%d", result.Processed, result.Failed)
		}
		if result.LinkedTracks != 2 {
			t.Errorf("expected 2 linked tracks, got %d", result.LinkedTracks)
		}

		playlist, err := stores.Playlists.GetBySpotifyID("pl1")
		if err != nil {
			t.Fatalf("playlist not stored: %v", err)
		}
		rows, err := stores.Links.PlaylistTracks(playlist.ID)
		if err != nil {
			t.Fatalf("membership fetch failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 membership rows, got %d", len(rows))
		}
		if rows[0].Position != 1 || rows[1].Position != 3 {
			t.Errorf("failed record must keep its position unlinked: got %d,%d", rows[0].Position, rows[1].Position)
		}
	})

	t.Run("auth failure aborts before any write", func(t *testing.T) {
		stores := newTestStores(t)
		catalog := fixtureCatalog(fixtureItems())
		catalog.AuthenticateFunc = func(ctx context.Context) error {
			return errors.New("bad credentials")
		}
		engine := newTestEngine(t, catalog, stores)

		if _, err := engine.Run(ctx, nil, "pl1"); err == nil {
			t.Fatal("expected auth error")
		}

		n, err := stores.Artists.Count()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no writes after auth failure, got %d artists", n)
		}
	})

	t.Run("playlist fetch failure marks nothing imported", func(t *testing.T) {
		stores := newTestStores(t)
		catalog := fixtureCatalog(nil)
		catalog.PlaylistFunc = func(ctx context.Context, playlistID string) (*services.SpotifyPlaylist, error) {
			return nil, errors.New("404")
		}
		engine := newTestEngine(t, catalog, stores)

		if _, err := engine.Run(ctx, nil, "missing"); err == nil {
			t.Fatal("expected playlist error")
		}
	})

	t.Run("track fetch failure records a failed run", func(t *testing.T) {
		stores := newTestStores(t)
		catalog := fixtureCatalog(nil)
		catalog.PlaylistTracksFunc = func(ctx context.Context, playlistID string) ([]services.SpotifyPlaylistItem, error) {
			return nil, errors.New("rate limited")
		}
		engine := newTestEngine(t, catalog, stores)

		if _, err := engine.Run(ctx, nil, "pl1"); err == nil {
			t.Fatal("expected fetch error")
		}

		runs, err := stores.Runs.Recent(1)
		if err != nil {
			t.Fatalf("runs fetch failed: %v", err)
		}
		if len(runs) != 1 || runs[0].Status != models.RunStatusFailed {
			t.Errorf("expected one failed run, got %+v", runs)
		}
	})

	t.Run("requires playlist id", func(t *testing.T) {
		stores := newTestStores(t)
		engine := newTestEngine(t, fixtureCatalog(nil), stores)
		if _, err := engine.Run(ctx, nil, ""); err == nil {
			t.Fatal("expected missing argument error")
		}
	})

	t.Run("emits progress updates", func(t *testing.T) {
		stores := newTestStores(t)
		engine := newTestEngine(t, fixtureCatalog(fixtureItems()), stores)

		progress := make(chan ProgressUpdate, 100)
		if _, err := engine.Run(ctx, progress, "pl1"); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		close(progress)

		seen := map[Phase]int{}
		var last ProgressUpdate
		for update := range progress {
			seen[update.Phase]++
			last = update
		}

		for _, phase := range []Phase{Authenticating, FetchingPlaylist, FetchingTracks, ProcessingRecords, LinkingPlaylist, Summarizing} {
			if seen[phase] == 0 {
				t.Errorf("expected at least one %s update", phase)
			}
		}
		if seen[ProcessingRecords] != 3 {
			t.Errorf("expected 3 record updates, got %d", seen[ProcessingRecords])
		}
		if last.Phase != Summarizing {
			t.Errorf("expected summary last, got %s", last.Phase)
		}
		if _, ok := last.Data.(*ImportResult); !ok {
			t.Error("expected summary update to carry the result")
		}
	})

	t.Run("progress channel never blocks", func(t *testing.T) {
		stores := newTestStores(t)
		engine := newTestEngine(t, fixtureCatalog(fixtureItems()), stores)

		// Unbuffered channel with no reader: every send must fall through.
		progress := make(chan ProgressUpdate)
		if _, err := engine.Run(ctx, progress, "pl1"); err != nil {
			t.Fatalf("run failed: %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		Authenticating:    "authenticating",
		FetchingPlaylist:  "fetching_playlist",
		FetchingTracks:    "fetching_tracks",
		ProcessingRecords: "processing_records",
		LinkingPlaylist:   "linking_playlist",
		Summarizing:       "summarizing",
		Phase(99):         "",
	}
	for phase, want := range tc {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

func TestPrimaryArtist(t *testing.T) {
	track := services.SpotifyTrack{Artists: []services.SpotifyArtist{artist("ar1", "Alpha"), artist("ar2", "Beta")}}
	if got := primaryArtist(track); got != "Alpha" {
		t.Errorf("expected Alpha, got %s", got)
	}
	if got := primaryArtist(services.SpotifyTrack{}); got != "Unknown" {
		t.Errorf("expected Unknown fallback, got %s", got)
	}
}

func TestLargePlaylistPositions(t *testing.T) {
	items := make([]services.SpotifyPlaylistItem, 0, 10)
	lp := album("al1", "LP", false)
	for i := 0; i < 10; i++ {
		items = append(items, services.SpotifyPlaylistItem{
			Track: services.SpotifyTrack{
				ID:      fmt.Sprintf("t%d", i),
				Name:    fmt.Sprintf("Track %d", i),
				Artists: []services.SpotifyArtist{artist("ar1", "Alpha")},
				Album:   lp,
			},
		})
	}

	stores := newTestStores(t)
	engine := newTestEngine(t, fixtureCatalog(items), stores)

	result, err := engine.Run(context.Background(), nil, "pl-big")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.LinkedTracks != 10 {
		t.Fatalf("expected 10 linked tracks, got %d", result.LinkedTracks)
	}

	playlist, err := stores.Playlists.GetBySpotifyID("pl-big")
	if err != nil {
		t.Fatalf("playlist not stored: %v", err)
	}
	rows, err := stores.Links.PlaylistTracks(playlist.ID)
	if err != nil {
		t.Fatalf("membership fetch failed: %v", err)
	}
	for i, row := range rows {
		if row.Position != i+1 {
			t.Fatalf("expected source order preserved, position %d holds %d", i+1, row.Position)
		}
	}
}
