// Package social implements the follow graph, content creation, feed assembly
// and engagement operations.
package social

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/repositories"
	"github.com/fmeta/backend/internal/videos"
)

// Service coordinates the account and content stores.
type Service struct {
	Accounts repositories.AccountRepository
	Contents repositories.ContentRepository
	// Prober fills in missing reel thumbnails and durations. Optional.
	Prober  videos.Prober
	NowFunc func() time.Time
	NewID   func() string
}

func (s Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s Service) findAccount(ctx context.Context, id string) (models.Account, error) {
	account, err := s.Accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Account{}, apperr.ErrAccountNotFound
		}
		return models.Account{}, apperr.Internal("find account", err)
	}
	return account, nil
}

// locate probes kinds in order and returns the first item with the given id.
// Ids carry no kind tag, so sequential probing is the only way to resolve them.
func (s Service) locate(ctx context.Context, id string, kinds []models.ContentKind, notFound error) (models.Content, error) {
	for _, kind := range kinds {
		content, err := s.Contents.Find(ctx, kind, id)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return models.Content{}, apperr.Internal("find content", err)
		}
	}
	return models.Content{}, notFound
}
