package repositories

import (
	"testing"
	"time"

	"spindle/internal/models"
	testutil "spindle/internal/testing"
)

func TestArtistRepository(t *testing.T) {
	db := testutil.MustOpenDB(t)
	repo := NewArtistRepository(db)

	t.Run("Upsert creates", func(t *testing.T) {
		artist, err := repo.Upsert(&models.Artist{
			SpotifyID: "ar1",
			Name:      "First Artist",
			Genres:    "indie,rock",
		})
		if err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		if artist.ID == "" {
			t.Error("expected generated local id")
		}
		if artist.Name != "First Artist" {
			t.Errorf("expected First Artist, got %s", artist.Name)
		}
	})

	t.Run("Upsert deduplicates by spotify id", func(t *testing.T) {
		first, err := repo.GetBySpotifyID("ar1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}

		time.Sleep(5 * time.Millisecond)

		updated, err := repo.Upsert(&models.Artist{
			SpotifyID:  "ar1",
			Name:       "Renamed Artist",
			Popularity: 80,
		})
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		if updated.ID != first.ID {
			t.Errorf("expected stable local id %s, got %s", first.ID, updated.ID)
		}
		if updated.Name != "Renamed Artist" {
			t.Errorf("expected updated name, got %s", updated.Name)
		}
		if !updated.CreatedAt.Equal(first.CreatedAt) {
			t.Errorf("created_at must not change on update: %v vs %v", first.CreatedAt, updated.CreatedAt)
		}
		if !updated.UpdatedAt.After(first.UpdatedAt) {
			t.Errorf("updated_at should advance: %v vs %v", first.UpdatedAt, updated.UpdatedAt)
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 artist, got %d", count)
		}
	})

	t.Run("Upsert rejects missing fields", func(t *testing.T) {
		if _, err := repo.Upsert(&models.Artist{Name: "No ID"}); err == nil {
			t.Error("expected validation error for missing spotify id")
		}
		if _, err := repo.Upsert(&models.Artist{SpotifyID: "ar2"}); err == nil {
			t.Error("expected validation error for missing name")
		}
	})
}

func TestTrackRepository(t *testing.T) {
	db := testutil.MustOpenDB(t)
	albums := NewAlbumRepository(db)
	repo := NewTrackRepository(db)

	album, err := albums.Upsert(&models.Album{SpotifyID: "al1", Name: "Album One"})
	if err != nil {
		t.Fatalf("album upsert failed: %v", err)
	}

	t.Run("optional fields stored as NULL", func(t *testing.T) {
		track, err := repo.Upsert(&models.Track{
			SpotifyID:  "t1",
			Name:       "No Extras",
			AlbumID:    album.ID,
			DurationMS: 200000,
		})
		if err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		if track.PreviewURL != "" || track.ISRC != "" {
			t.Errorf("expected empty optional fields, got %q %q", track.PreviewURL, track.ISRC)
		}

		var nullPreviews int
		if err := db.QueryRow("SELECT COUNT(*) FROM tracks WHERE spotify_id = 't1' AND preview_url IS NULL AND isrc IS NULL").Scan(&nullPreviews); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if nullPreviews != 1 {
			t.Error("expected optional fields stored as NULL")
		}
	})

	t.Run("refresh fills optional fields", func(t *testing.T) {
		track, err := repo.Upsert(&models.Track{
			SpotifyID:  "t1",
			Name:       "No Extras",
			AlbumID:    album.ID,
			DurationMS: 200000,
			PreviewURL: "https://preview/t1",
			ISRC:       "USRC11111111",
		})
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if track.PreviewURL != "https://preview/t1" {
			t.Errorf("expected refreshed preview url, got %q", track.PreviewURL)
		}
		if track.ISRC != "USRC11111111" {
			t.Errorf("expected refreshed isrc, got %q", track.ISRC)
		}
	})

	t.Run("requires album reference", func(t *testing.T) {
		if _, err := repo.Upsert(&models.Track{SpotifyID: "t2", Name: "Orphan"}); err == nil {
			t.Error("expected validation error for missing album id")
		}
	})
}

func TestLinkRepository(t *testing.T) {
	db := testutil.MustOpenDB(t)
	artists := NewArtistRepository(db)
	albums := NewAlbumRepository(db)
	tracks := NewTrackRepository(db)
	playlists := NewPlaylistRepository(db)
	links := NewLinkRepository(db)

	artistA, _ := artists.Upsert(&models.Artist{SpotifyID: "ar1", Name: "A"})
	artistB, _ := artists.Upsert(&models.Artist{SpotifyID: "ar2", Name: "B"})
	album, _ := albums.Upsert(&models.Album{SpotifyID: "al1", Name: "Album"})
	track, _ := tracks.Upsert(&models.Track{SpotifyID: "t1", Name: "Track", AlbumID: album.ID})
	playlist, _ := playlists.Upsert(&models.Playlist{SpotifyID: "pl1", Name: "Playlist"})

	t.Run("album artist links are unique per pair", func(t *testing.T) {
		ids := []string{artistA.ID, artistB.ID}
		if err := links.LinkAlbumArtists(album.ID, ids); err != nil {
			t.Fatalf("link failed: %v", err)
		}
		if err := links.LinkAlbumArtists(album.ID, ids); err != nil {
			t.Fatalf("relink failed: %v", err)
		}

		count, err := links.CountAlbumArtists()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 album artist rows, got %d", count)
		}
	})

	t.Run("track artist links are unique per pair", func(t *testing.T) {
		if err := links.LinkTrackArtists(track.ID, []string{artistA.ID}); err != nil {
			t.Fatalf("link failed: %v", err)
		}
		if err := links.LinkTrackArtists(track.ID, []string{artistA.ID, artistB.ID}); err != nil {
			t.Fatalf("relink failed: %v", err)
		}

		count, err := links.CountTrackArtists()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 track artist rows, got %d", count)
		}
	})

	t.Run("playlist membership keeps position and refreshes metadata", func(t *testing.T) {
		link := &models.PlaylistTrack{
			PlaylistID: playlist.ID,
			TrackID:    track.ID,
			Position:   3,
			AddedAt:    "2024-01-01T00:00:00Z",
			AddedBy:    "user1",
		}
		if err := links.LinkPlaylistTrack(link); err != nil {
			t.Fatalf("link failed: %v", err)
		}

		link.AddedBy = "user2"
		if err := links.LinkPlaylistTrack(link); err != nil {
			t.Fatalf("relink failed: %v", err)
		}

		rows, err := links.PlaylistTracks(playlist.ID)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 membership row, got %d", len(rows))
		}
		if rows[0].Position != 3 {
			t.Errorf("expected position 3, got %d", rows[0].Position)
		}
		if rows[0].AddedBy != "user2" {
			t.Errorf("expected refreshed added_by, got %s", rows[0].AddedBy)
		}
	})

	t.Run("same track may sit at two positions", func(t *testing.T) {
		if err := links.LinkPlaylistTrack(&models.PlaylistTrack{
			PlaylistID: playlist.ID,
			TrackID:    track.ID,
			Position:   7,
		}); err != nil {
			t.Fatalf("link failed: %v", err)
		}

		rows, err := links.PlaylistTracks(playlist.ID)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 membership rows, got %d", len(rows))
		}
		if rows[0].Position != 3 || rows[1].Position != 7 {
			t.Errorf("expected positions ordered 3,7, got %d,%d", rows[0].Position, rows[1].Position)
		}
	})

	t.Run("positions are 1-based", func(t *testing.T) {
		err := links.LinkPlaylistTrack(&models.PlaylistTrack{
			PlaylistID: playlist.ID,
			TrackID:    track.ID,
			Position:   0,
		})
		if err == nil {
			t.Error("expected error for position 0")
		}
	})
}

func TestMediaRepository(t *testing.T) {
	db := testutil.MustOpenDB(t)
	albums := NewAlbumRepository(db)
	repo := NewMediaRepository(db)

	album, _ := albums.Upsert(&models.Album{SpotifyID: "al1", Name: "Album"})

	t.Run("GetByParent returns nil before archive", func(t *testing.T) {
		media, err := repo.GetByParent(album.ID, models.MediaTypeAlbumCover)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if media != nil {
			t.Error("expected nil for unarchived cover")
		}
	})

	t.Run("Create then GetByParent", func(t *testing.T) {
		media := &models.Media{
			ParentID:  album.ID,
			MediaType: models.MediaTypeAlbumCover,
			ObjectKey: "covers/abc.jpg",
			URL:       "/covers/abc.jpg",
			SourceURL: "https://img/640",
			ByteSize:  1024,
			MimeType:  "image/jpeg",
		}
		if err := repo.Create(media); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if media.ID == "" {
			t.Error("expected generated media id")
		}

		stored, err := repo.GetByParent(album.ID, models.MediaTypeAlbumCover)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if stored == nil {
			t.Fatal("expected stored media")
		}
		if stored.ObjectKey != "covers/abc.jpg" {
			t.Errorf("unexpected object key %s", stored.ObjectKey)
		}
	})

	t.Run("one cover per parent and type", func(t *testing.T) {
		err := repo.Create(&models.Media{
			ParentID:  album.ID,
			MediaType: models.MediaTypeAlbumCover,
			ObjectKey: "covers/dup.jpg",
		})
		if err == nil {
			t.Error("expected uniqueness violation for second cover")
		}
	})
}

func TestImportRunRepository(t *testing.T) {
	db := testutil.MustOpenDB(t)
	repo := NewImportRunRepository(db)

	t.Run("Start and Finish", func(t *testing.T) {
		run := &models.ImportRun{PlaylistSpotifyID: "pl1", PlaylistName: "Mix"}
		if err := repo.Start(run); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if run.Status != models.RunStatusRunning {
			t.Errorf("expected running status, got %s", run.Status)
		}

		run.Status = models.RunStatusCompleted
		run.TotalTracks = 3
		run.Processed = 3
		if err := repo.Finish(run); err != nil {
			t.Fatalf("finish failed: %v", err)
		}

		runs, err := repo.Recent(10)
		if err != nil {
			t.Fatalf("recent failed: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Status != models.RunStatusCompleted {
			t.Errorf("expected completed, got %s", runs[0].Status)
		}
		if runs[0].FinishedAt == nil {
			t.Error("expected finished_at to be set")
		}
	})

	t.Run("Finish requires existing run", func(t *testing.T) {
		err := repo.Finish(&models.ImportRun{ID: "missing", Status: models.RunStatusFailed})
		if err == nil {
			t.Error("expected error for unknown run id")
		}
	})
}

func TestPlaylistExport(t *testing.T) {
	db := testutil.MustOpenDB(t)
	artists := NewArtistRepository(db)
	albums := NewAlbumRepository(db)
	tracks := NewTrackRepository(db)
	playlists := NewPlaylistRepository(db)
	links := NewLinkRepository(db)

	artistA, _ := artists.Upsert(&models.Artist{SpotifyID: "ar1", Name: "Alpha"})
	artistB, _ := artists.Upsert(&models.Artist{SpotifyID: "ar2", Name: "Beta"})
	album, _ := albums.Upsert(&models.Album{SpotifyID: "al1", Name: "LP"})
	trackOne, _ := tracks.Upsert(&models.Track{SpotifyID: "t1", Name: "One", AlbumID: album.ID, DurationMS: 180000, ISRC: "USRC1"})
	trackTwo, _ := tracks.Upsert(&models.Track{SpotifyID: "t2", Name: "Two", AlbumID: album.ID, DurationMS: 240000})
	playlist, _ := playlists.Upsert(&models.Playlist{SpotifyID: "pl1", Name: "Mix"})

	links.LinkTrackArtists(trackOne.ID, []string{artistA.ID, artistB.ID})
	links.LinkTrackArtists(trackTwo.ID, []string{artistA.ID})
	links.LinkPlaylistTrack(&models.PlaylistTrack{PlaylistID: playlist.ID, TrackID: trackTwo.ID, Position: 2})
	links.LinkPlaylistTrack(&models.PlaylistTrack{PlaylistID: playlist.ID, TrackID: trackOne.ID, Position: 1})

	export, err := playlists.Export("pl1")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if export.Playlist.Name != "Mix" {
		t.Errorf("expected playlist Mix, got %s", export.Playlist.Name)
	}
	if len(export.Tracks) != 2 {
		t.Fatalf("expected 2 export rows, got %d", len(export.Tracks))
	}

	first := export.Tracks[0]
	if first.Position != 1 || first.Title != "One" {
		t.Errorf("expected One at position 1, got %s at %d", first.Title, first.Position)
	}
	if first.Artists != "Alpha, Beta" {
		t.Errorf("expected joined artist names, got %q", first.Artists)
	}
	if first.Album != "LP" {
		t.Errorf("expected album LP, got %s", first.Album)
	}
	if first.ISRC != "USRC1" {
		t.Errorf("expected ISRC USRC1, got %q", first.ISRC)
	}

	second := export.Tracks[1]
	if second.Position != 2 || second.Title != "Two" {
		t.Errorf("expected Two at position 2, got %s at %d", second.Title, second.Position)
	}
	if second.ISRC != "" {
		t.Errorf("expected empty ISRC, got %q", second.ISRC)
	}
}
