// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"spindle/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maxPageSize is the largest page the playlist tracks endpoint accepts.
	maxPageSize = 100
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Popularity   int          `json:"popularity"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AlbumType    string          `json:"album_type"`
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// CoverImage returns the album's highest-resolution image reference, which the
// API lists first, or nil when the album has no images.
func (a *SpotifyAlbum) CoverImage() *SpotifyImage {
	if len(a.Images) == 0 {
		return nil
	}
	return &a.Images[0]
}

// SpotifyTrack represents a Spotify track.
//
// ExternalIDs is a pointer because the field is absent on relinked or local
// tracks; use [SpotifyTrack.ISRC] instead of dereferencing it directly.
type SpotifyTrack struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Artists          []SpotifyArtist `json:"artists"`
	Album            SpotifyAlbum    `json:"album"`
	TrackNumber      int             `json:"track_number"`
	DiscNumber       int             `json:"disc_number"`
	DurationMS       int             `json:"duration_ms"`
	Explicit         bool            `json:"explicit"`
	PreviewURL       string          `json:"preview_url"`
	AvailableMarkets []string        `json:"available_markets"`
	ExternalIDs      *externalIDs    `json:"external_ids"`
	ExternalURLs     externalURLs    `json:"external_urls"`
}

// ISRC returns the track's International Standard Recording Code, or "" when
// the source data omits it.
func (t *SpotifyTrack) ISRC() string {
	if t.ExternalIDs == nil {
		return ""
	}
	return t.ExternalIDs.ISRC
}

// SpotifyOwner represents a playlist owner.
type SpotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksSummary struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents playlist metadata.
type SpotifyPlaylist struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Owner         SpotifyOwner          `json:"owner"`
	Public        bool                  `json:"public"`
	Collaborative bool                  `json:"collaborative"`
	Tracks        playlistTracksSummary `json:"tracks"`
}

// TrackCount returns the playlist's track total snapshot.
func (p *SpotifyPlaylist) TrackCount() int {
	return p.Tracks.Total
}

// SpotifyPlaylistItem represents a track within a playlist context.
type SpotifyPlaylistItem struct {
	AddedAt string       `json:"added_at"`
	AddedBy SpotifyOwner `json:"added_by"`
	Track   SpotifyTrack `json:"track"`
}

// spotifyTrackPage is one page of a paginated playlist tracks response.
type spotifyTrackPage struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// SpotifyClient implements [Catalog] against the Spotify Web API.
//
// Authentication uses the client-credentials grant: the id/secret pair is
// exchanged for a bearer token which is cached until its expiry. Paginated
// fetches share a [rate.Limiter] so consecutive page requests respect the
// API's rate limits.
type SpotifyClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
	pageSize     int
	tokenURL     string
	baseURL      string

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

// SpotifyOpts contains configuration options for creating a SpotifyClient.
//
// BaseURL and TokenURL exist for tests; zero values target the real API.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Limiter      *rate.Limiter
	PageSize     int
	BaseURL      string
	TokenURL     string
}

// NewSpotifyClient creates a new Spotify client with the given credentials.
func NewSpotifyClient(opts SpotifyOpts) (*SpotifyClient, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(1), 1)
		// Spend the initial burst token so the first inter-request wait
		// already observes the one second spacing.
		opts.Limiter.Allow()
	}
	if opts.PageSize <= 0 || opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}

	return &SpotifyClient{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		httpClient:   opts.HTTPClient,
		limiter:      opts.Limiter,
		pageSize:     opts.PageSize,
		tokenURL:     opts.TokenURL,
		baseURL:      opts.BaseURL,
	}, nil
}

func (c *SpotifyClient) Name() string {
	return "Spotify"
}

// Authenticate performs the client-credentials exchange if the cached token
// has expired. Safe to call before every request.
func (c *SpotifyClient) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.tokenExpiry) {
		return nil
	}

	authHeader := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+authHeader)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: token endpoint returned status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	var token spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("%w: failed to decode token response: %v", shared.ErrAuthFailed, err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token response missing access_token", shared.ErrAuthFailed)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return nil
}

// bearer returns the cached token, refreshing it first when necessary.
func (c *SpotifyClient) bearer(ctx context.Context) (string, error) {
	c.mu.RLock()
	valid := time.Now().Before(c.tokenExpiry)
	token := c.accessToken
	c.mu.RUnlock()

	if valid {
		return token, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, nil
}

// doRequest performs an authenticated GET against the Spotify API and decodes
// the JSON response into result.
func (c *SpotifyClient) doRequest(ctx context.Context, endpoint string, result any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Playlist retrieves playlist metadata by ID.
func (c *SpotifyClient) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := c.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Album retrieves an album by ID.
func (c *SpotifyClient) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	endpoint := fmt.Sprintf("/albums/%s", albumID)
	if err := c.doRequest(ctx, endpoint, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// PlaylistTracks retrieves the complete ordered track listing of a playlist.
//
// The first page is fetched to learn the collection total; remaining pages
// are requested by offset with the limiter spacing consecutive requests. The
// limiter is not consulted before the first request or after the last. The
// returned slice preserves source order, which downstream position-based
// linking depends on.
func (c *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyPlaylistItem, error) {
	first, err := c.playlistTracksPage(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	items := make([]SpotifyPlaylistItem, 0, first.Total)
	items = append(items, first.Items...)

	pageCount := (first.Total + c.pageSize - 1) / c.pageSize
	for page := 1; page < pageCount; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		next, err := c.playlistTracksPage(ctx, playlistID, page*c.pageSize)
		if err != nil {
			return nil, err
		}
		items = append(items, next.Items...)
	}

	return items, nil
}

func (c *SpotifyClient) playlistTracksPage(ctx context.Context, playlistID string, offset int) (*spotifyTrackPage, error) {
	var page spotifyTrackPage
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, c.pageSize, offset)
	if err := c.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DownloadImage fetches an image by URL and returns its bytes and the
// response's declared content type. Image CDN URLs are unauthenticated.
func (c *SpotifyClient) DownloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: image download returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
