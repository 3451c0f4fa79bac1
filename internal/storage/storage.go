// Package storage persists uploaded media and returns URLs clients can embed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fmeta/backend/internal/models"
)

// ErrUnsupportedMedia is returned for uploads that are neither images nor videos.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// MediaStorage stores a blob under key and returns its public URL.
type MediaStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// MediaTypeFor maps a Content-Type header to the media type stored on content.
func MediaTypeFor(contentType string) (models.MediaType, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrUnsupportedMedia
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.MediaImage, nil
	case strings.HasPrefix(mediaType, "video/"):
		return models.MediaVideo, nil
	default:
		return "", ErrUnsupportedMedia
	}
}

// ObjectKey builds a unique key for an upload owned by accountID, keeping the
// original file extension when it has one.
func ObjectKey(accountID, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("media/%s/%s/%s%s", accountID, now.UTC().Format("2006/01/02"), uuid.NewString(), ext)
}
