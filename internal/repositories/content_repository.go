package repositories

import (
	"context"
	"time"

	"github.com/fmeta/backend/internal/models"
)

// ContentQuery filters a listing of a single content kind. Results are ordered newest
// first with the id as a tiebreak.
type ContentQuery struct {
	Kind models.ContentKind
	// AuthorIDs restricts results to these authors. Nil means any author.
	AuthorIDs []string
	// ActiveAt drops stories whose expiry is at or before this instant when non-zero.
	ActiveAt time.Time
	Offset   int
	// Limit caps the page size. Zero means unlimited.
	Limit int
}

// ContentRepository defines the data access contract for posts, reels and stories.
type ContentRepository interface {
	Create(ctx context.Context, content models.Content) error
	Find(ctx context.Context, kind models.ContentKind, id string) (models.Content, error)
	Delete(ctx context.Context, kind models.ContentKind, id string) error
	// List returns one page of matching items together with the total match count.
	List(ctx context.Context, query ContentQuery) ([]models.Content, int, error)
	// ToggleLike flips viewerID's membership in the like set and reports the new state.
	ToggleLike(ctx context.Context, kind models.ContentKind, id, viewerID string) (bool, int, error)
	AddComment(ctx context.Context, kind models.ContentKind, id string, comment models.Comment) (int, error)
	// AddStoryView records a view unless viewer already viewed the story, returning
	// the number of distinct viewers.
	AddStoryView(ctx context.Context, id string, view models.StoryView) (int, error)
}
