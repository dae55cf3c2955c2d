// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"spindle/internal/services"
	"spindle/internal/shared"
)

// MockCatalog is a configurable test double for [services.Catalog].
// Unset funcs return zero values.
type MockCatalog struct {
	AuthenticateFunc   func(ctx context.Context) error
	PlaylistFunc       func(ctx context.Context, playlistID string) (*services.SpotifyPlaylist, error)
	PlaylistTracksFunc func(ctx context.Context, playlistID string) ([]services.SpotifyPlaylistItem, error)
	AlbumFunc          func(ctx context.Context, albumID string) (*services.SpotifyAlbum, error)
	DownloadImageFunc  func(ctx context.Context, url string) ([]byte, string, error)
}

func (m *MockCatalog) Authenticate(ctx context.Context) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return nil
}

func (m *MockCatalog) Playlist(ctx context.Context, playlistID string) (*services.SpotifyPlaylist, error) {
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, playlistID)
	}
	return &services.SpotifyPlaylist{ID: playlistID, Name: "mock"}, nil
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, playlistID string) ([]services.SpotifyPlaylistItem, error) {
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockCatalog) Album(ctx context.Context, albumID string) (*services.SpotifyAlbum, error) {
	if m.AlbumFunc != nil {
		return m.AlbumFunc(ctx, albumID)
	}
	return nil, nil
}

func (m *MockCatalog) DownloadImage(ctx context.Context, url string) ([]byte, string, error) {
	if m.DownloadImageFunc != nil {
		return m.DownloadImageFunc(ctx, url)
	}
	return []byte("image-bytes"), "image/jpeg", nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MustOpenDB opens an in-memory database with the schema applied and closes it
// when the test finishes.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// A pooled second connection would see its own empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
