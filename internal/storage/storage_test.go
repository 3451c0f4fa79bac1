package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fmeta/backend/internal/config"
	"github.com/fmeta/backend/internal/models"
)

func TestMediaTypeFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        models.MediaType
		wantErr     bool
	}{
		{contentType: "image/png", want: models.MediaImage},
		{contentType: "image/jpeg; charset=binary", want: models.MediaImage},
		{contentType: "video/mp4", want: models.MediaVideo},
		{contentType: "application/pdf", wantErr: true},
		{contentType: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := MediaTypeFor(tc.contentType)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedMedia) {
				t.Fatalf("%q: expected ErrUnsupportedMedia, got %v", tc.contentType, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q, %v", tc.contentType, got, err)
		}
	}
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	key := ObjectKey("user-1", `C:\photos\Beach.JPG`, now)
	if !strings.HasPrefix(key, "media/user-1/2024/03/09/") {
		t.Fatalf("unexpected key prefix %q", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("expected lowercase extension, got %q", key)
	}
	if ObjectKey("user-1", "a.png", now) == ObjectKey("user-1", "a.png", now) {
		t.Fatal("expected unique keys")
	}
}

func TestLocalStorageSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(dir, "uploads"), "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	url, err := store.Save(context.Background(), "media/u1/clip.mp4", strings.NewReader("data"), "video/mp4")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "http://localhost:8080/uploads/media/u1/clip.mp4" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "media", "u1", "clip.mp4"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestLocalStorageKeepsKeysInsideBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	url, err := store.Save(context.Background(), "../../escape.txt", strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/uploads/escape.txt" {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Fatalf("expected file inside base dir: %v", err)
	}
}

func TestS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected missing bucket to fail")
	}
}

func TestS3StorageObjectURL(t *testing.T) {
	s := &S3Storage{bucket: "media"}
	if got := s.objectURL("a/b.png"); got != "https://media.s3.amazonaws.com/a/b.png" {
		t.Fatalf("unexpected default url %q", got)
	}
	s.baseURL = "https://cdn.example.com"
	if got := s.objectURL("a/b.png"); got != "https://cdn.example.com/a/b.png" {
		t.Fatalf("unexpected cdn url %q", got)
	}
}
