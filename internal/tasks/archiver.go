package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"spindle/internal/blobstore"
	"spindle/internal/models"
	"spindle/internal/repositories"
	"spindle/internal/services"
	"spindle/internal/shared"
)

// ImageDownloader fetches image bytes by URL.
// Satisfied by [services.SpotifyClient].
type ImageDownloader interface {
	DownloadImage(ctx context.Context, url string) ([]byte, string, error)
}

// CoverArchiver downloads an album's cover art into the content store and
// records a media row pointing at the stored object.
//
// Archiving is idempotent across runs: an existing media row for the album
// short-circuits before any download.
type CoverArchiver struct {
	media      *repositories.MediaRepository
	store      blobstore.Store
	downloader ImageDownloader
	logger     *log.Logger
}

// NewCoverArchiver creates a CoverArchiver with the provided dependencies.
func NewCoverArchiver(media *repositories.MediaRepository, store blobstore.Store, downloader ImageDownloader, logger *log.Logger) *CoverArchiver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CoverArchiver{
		media:      media,
		store:      store,
		downloader: downloader,
		logger:     logger,
	}
}

// ArchiveCover stores the album's highest-resolution cover image.
//
// Returns (nil, nil) when the album has no image or a cover is already
// archived; both are valid terminal outcomes, not errors. Errors from the
// download or the store write are returned for the caller to record, and the
// album is simply left without a cover.
func (a *CoverArchiver) ArchiveCover(ctx context.Context, album *services.SpotifyAlbum, albumID string) (*models.Media, error) {
	img := album.CoverImage()
	if img == nil {
		a.logger.Debug("album has no cover image", "album", album.Name)
		return nil, nil
	}

	existing, err := a.media.GetByParent(albumID, models.MediaTypeAlbumCover)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing cover: %w", err)
	}
	if existing != nil {
		a.logger.Debug("cover already archived", "album", album.Name)
		return nil, nil
	}

	data, contentType, err := a.downloader.DownloadImage(ctx, img.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover for %s: %w", album.Name, err)
	}

	ext := extensionForContentType(contentType)
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("covers/%s.%s", shared.GenerateID(), ext)

	url, err := a.store.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store cover for %s: %w", album.Name, err)
	}

	media := &models.Media{
		ParentID:  albumID,
		MediaType: models.MediaTypeAlbumCover,
		ObjectKey: key,
		URL:       url,
		SourceURL: img.URL,
		Width:     img.Width,
		Height:    img.Height,
		ByteSize:  len(data),
		MimeType:  contentType,
	}

	if err := a.media.Create(media); err != nil {
		return nil, fmt.Errorf("failed to record cover for %s: %w", album.Name, err)
	}

	a.logger.Info("archived album cover", "album", album.Name, "key", key, "bytes", len(data))
	return media, nil
}

// extensionForContentType maps a response content type to a file extension,
// defaulting to jpg.
func extensionForContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}
