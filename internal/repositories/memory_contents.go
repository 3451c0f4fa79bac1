package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fmeta/backend/internal/models"
)

// MemoryContentRepository keeps content in process memory, one map per kind.
type MemoryContentRepository struct {
	mu    sync.RWMutex
	items map[models.ContentKind]map[string]models.Content
	now   func() time.Time
}

// NewMemoryContentRepository returns an empty in-memory content repository.
func NewMemoryContentRepository() *MemoryContentRepository {
	items := make(map[models.ContentKind]map[string]models.Content, len(models.ContentKinds))
	for _, kind := range models.ContentKinds {
		items[kind] = make(map[string]models.Content)
	}
	return &MemoryContentRepository{items: items, now: time.Now}
}

var _ ContentRepository = (*MemoryContentRepository)(nil)

// Create stores a new content item.
func (r *MemoryContentRepository) Create(_ context.Context, content models.Content) error {
	bucket, err := r.bucket(content.Kind)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := bucket[content.ID]; exists {
		return ErrConflict
	}
	bucket[content.ID] = content.Clone()
	return nil
}

// Find returns the item of the given kind and id.
func (r *MemoryContentRepository) Find(_ context.Context, kind models.ContentKind, id string) (models.Content, error) {
	bucket, err := r.bucket(kind)
	if err != nil {
		return models.Content{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	content, ok := bucket[id]
	if !ok {
		return models.Content{}, ErrNotFound
	}
	return content.Clone(), nil
}

// Delete removes the item of the given kind and id.
func (r *MemoryContentRepository) Delete(_ context.Context, kind models.ContentKind, id string) error {
	bucket, err := r.bucket(kind)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := bucket[id]; !ok {
		return ErrNotFound
	}
	delete(bucket, id)
	return nil
}

// List filters, orders and pages the items of one kind.
func (r *MemoryContentRepository) List(_ context.Context, query ContentQuery) ([]models.Content, int, error) {
	bucket, err := r.bucket(query.Kind)
	if err != nil {
		return nil, 0, err
	}

	var authors map[string]struct{}
	if query.AuthorIDs != nil {
		authors = make(map[string]struct{}, len(query.AuthorIDs))
		for _, id := range query.AuthorIDs {
			authors[id] = struct{}{}
		}
	}

	r.mu.RLock()
	var matches []models.Content
	for _, content := range bucket {
		if authors != nil {
			if _, ok := authors[content.AuthorID]; !ok {
				continue
			}
		}
		if !query.ActiveAt.IsZero() && !content.Active(query.ActiveAt) {
			continue
		}
		matches = append(matches, content.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	total := len(matches)
	if query.Offset > 0 {
		if query.Offset >= len(matches) {
			return nil, total, nil
		}
		matches = matches[query.Offset:]
	}
	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}
	return matches, total, nil
}

// ToggleLike flips viewerID's like and reports the resulting state.
func (r *MemoryContentRepository) ToggleLike(_ context.Context, kind models.ContentKind, id, viewerID string) (bool, int, error) {
	bucket, err := r.bucket(kind)
	if err != nil {
		return false, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := bucket[id]
	if !ok {
		return false, 0, ErrNotFound
	}
	content = content.Clone()

	liked := !content.LikedBy(viewerID)
	if liked {
		content.Likes = append(content.Likes, viewerID)
	} else {
		content.Likes = removeString(content.Likes, viewerID)
	}
	content.UpdatedAt = r.now().UTC()
	bucket[id] = content
	return liked, len(content.Likes), nil
}

// AddComment appends a comment to a post or reel.
func (r *MemoryContentRepository) AddComment(_ context.Context, kind models.ContentKind, id string, comment models.Comment) (int, error) {
	if !kind.SupportsComments() {
		return 0, ErrNotFound
	}
	bucket, err := r.bucket(kind)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := bucket[id]
	if !ok {
		return 0, ErrNotFound
	}
	content = content.Clone()
	content.Comments = append(content.Comments, comment)
	content.UpdatedAt = comment.CreatedAt
	bucket[id] = content
	return len(content.Comments), nil
}

// AddStoryView records the first view of a story by a viewer.
func (r *MemoryContentRepository) AddStoryView(_ context.Context, id string, view models.StoryView) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.items[models.KindStory][id]
	if !ok || content.Story == nil {
		return 0, ErrNotFound
	}
	if !content.ViewedBy(view.ViewerID) {
		content = content.Clone()
		content.Story.Views = append(content.Story.Views, view)
		r.items[models.KindStory][id] = content
	}
	return len(content.Story.Views), nil
}

func (r *MemoryContentRepository) bucket(kind models.ContentKind) (map[string]models.Content, error) {
	bucket, ok := r.items[kind]
	if !ok {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	return bucket, nil
}
