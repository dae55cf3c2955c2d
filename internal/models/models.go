package models

import (
	"fmt"
	"time"
)

// Artist is a catalog artist, deduplicated by SpotifyID.
type Artist struct {
	ID          string
	SpotifyID   string
	Name        string
	ExternalURL string
	Popularity  int
	Genres      string // comma-delimited genre tags
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that the artist carries the fields required before upsert.
func (a *Artist) Validate() error {
	if a.SpotifyID == "" {
		return fmt.Errorf("artist missing spotify id")
	}
	if a.Name == "" {
		return fmt.Errorf("artist %s missing name", a.SpotifyID)
	}
	return nil
}

// Album is a catalog album, deduplicated by SpotifyID.
//
// ReleaseDate is kept as the source string to preserve its precision
// (year, year-month, or full date).
type Album struct {
	ID          string
	SpotifyID   string
	Name        string
	AlbumType   string
	TotalTracks int
	ReleaseDate string
	ExternalURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Album) Validate() error {
	if a.SpotifyID == "" {
		return fmt.Errorf("album missing spotify id")
	}
	if a.Name == "" {
		return fmt.Errorf("album %s missing name", a.SpotifyID)
	}
	return nil
}

// Track is a catalog track bound to its album's local id.
//
// PreviewURL and ISRC are optional in the source data and stored as NULL
// when absent.
type Track struct {
	ID               string
	SpotifyID        string
	Name             string
	AlbumID          string
	TrackNumber      int
	DiscNumber       int
	DurationMS       int
	PreviewURL       string
	ISRC             string
	Explicit         bool
	AvailableMarkets string // comma-delimited market codes
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t *Track) Validate() error {
	if t.SpotifyID == "" {
		return fmt.Errorf("track missing spotify id")
	}
	if t.Name == "" {
		return fmt.Errorf("track %s missing name", t.SpotifyID)
	}
	if t.AlbumID == "" {
		return fmt.Errorf("track %s missing album reference", t.SpotifyID)
	}
	return nil
}

// Playlist is the imported playlist snapshot.
type Playlist struct {
	ID            string
	SpotifyID     string
	Name          string
	OwnerID       string
	OwnerName     string
	Public        bool
	Collaborative bool
	TrackCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Playlist) Validate() error {
	if p.SpotifyID == "" {
		return fmt.Errorf("playlist missing spotify id")
	}
	if p.Name == "" {
		return fmt.Errorf("playlist %s missing name", p.SpotifyID)
	}
	return nil
}

// AlbumArtist links an album to an artist; the pair is unique.
type AlbumArtist struct {
	AlbumID   string
	ArtistID  string
	CreatedAt time.Time
}

// TrackArtist links a track to an artist; the pair is unique.
type TrackArtist struct {
	TrackID   string
	ArtistID  string
	CreatedAt time.Time
}

// PlaylistTrack records playlist membership at a 1-based position.
//
// The key includes position, so the same track may legitimately appear at two
// different positions in one playlist.
type PlaylistTrack struct {
	PlaylistID string
	TrackID    string
	Position   int
	AddedAt    string
	AddedBy    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MediaTypeAlbumCover is the media type recorded for archived album art.
const MediaTypeAlbumCover = "album_cover"

// Media is a stored binary asset for a parent entity.
type Media struct {
	ID        string
	ParentID  string
	MediaType string
	ObjectKey string
	URL       string
	SourceURL string
	Width     int
	Height    int
	ByteSize  int
	MimeType  string
	CreatedAt time.Time
}

// Import run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// PlaylistTrackEntry is one row of a playlist export: a track at its playlist
// position with its album and artist names resolved.
type PlaylistTrackEntry struct {
	Position   int    `json:"position"`
	SpotifyID  string `json:"spotify_id"`
	Title      string `json:"title"`
	Artists    string `json:"artists"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms"`
	ISRC       string `json:"isrc,omitempty"`
}

// PlaylistExport is a playlist with its ordered resolved track listing,
// assembled from the catalog for file exports.
type PlaylistExport struct {
	Playlist Playlist             `json:"playlist"`
	Tracks   []PlaylistTrackEntry `json:"tracks"`
}

// ImportRun records a single ingestion run against a playlist.
type ImportRun struct {
	ID                string
	PlaylistSpotifyID string
	PlaylistName      string
	Status            string
	TotalTracks       int
	Processed         int
	Failed            int
	Error             string
	StartedAt         time.Time
	FinishedAt        *time.Time
}
