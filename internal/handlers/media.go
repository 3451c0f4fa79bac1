package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/storage"
)

// DefaultMaxUploadBytes caps media uploads when MediaHandler.MaxBytes is unset.
const DefaultMaxUploadBytes = 100 << 20

// MediaHandler accepts media uploads and returns URLs usable in content media
// descriptors.
type MediaHandler struct {
	Storage  storage.MediaStorage
	MaxBytes int64
	NowFunc  func() time.Time
}

func (h MediaHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}

func (h MediaHandler) maxBytes() int64 {
	if h.MaxBytes > 0 {
		return h.MaxBytes
	}
	return DefaultMaxUploadBytes
}

// Upload implements POST /api/media with a multipart "file" field.
func (h MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, apperr.Validation("File is too large"))
			return
		}
		respondError(ctx, w, apperr.Validation("A file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			respondError(ctx, w, apperr.Internal("rewind upload", err))
			return
		}
	}

	mediaType, err := storage.MediaTypeFor(contentType)
	if err != nil {
		respondError(ctx, w, apperr.ErrInvalidMedia.WithMessage("Only image and video uploads are supported"))
		return
	}

	accountID := logging.AccountIDFromContext(ctx)
	key := storage.ObjectKey(accountID, header.Filename, h.now())
	url, err := h.Storage.Save(ctx, key, file, contentType)
	if err != nil {
		respondError(ctx, w, apperr.Internal("store upload", err))
		return
	}

	logger.Info("media uploaded", "key", key, "type", mediaType, "size", header.Size)
	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success": true,
		"url":     url,
		"type":    mediaType,
	})
}
