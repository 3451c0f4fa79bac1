package social

import (
	"context"
	"sort"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/repositories"
)

const (
	// GlobalFeedPageSize is the default page size of the global post feed.
	GlobalFeedPageSize = 10
	// DefaultPageSize applies to the reels feed and per-kind listings.
	DefaultPageSize = 20
	// PersonalFeedLimit caps the personal feed.
	PersonalFeedLimit = 20
	// MaxPageSize bounds any requested page size.
	MaxPageSize = 100
)

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNextPage bool `json:"hasNextPage"`
	Limit       int  `json:"limit"`
}

// Page is one page of decorated content.
type Page struct {
	Items      []ContentView
	Pagination Pagination
}

// StoryGroup bundles one author's active stories.
type StoryGroup struct {
	Author  AuthorView    `json:"author"`
	Stories []ContentView `json:"stories"`
	// HasViewed is true when the viewer has seen at least one story in the group.
	HasViewed bool `json:"hasViewed"`
}

// normalizePage clamps page to at least 1 and limit to (0, MaxPageSize],
// substituting fallback for non-positive limits.
func normalizePage(page, limit, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = fallback
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// NewPagination computes page metadata for total items split into pages of limit.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNextPage: page < totalPages,
		Limit:       limit,
	}
}

func (s Service) list(ctx context.Context, query repositories.ContentQuery) ([]models.Content, int, error) {
	items, total, err := s.Contents.List(ctx, query)
	if err != nil {
		return nil, 0, apperr.Internal("list content", err)
	}
	return items, total, nil
}

func (s Service) page(ctx context.Context, viewer models.Account, withFlags bool, query repositories.ContentQuery, page, limit int) (Page, error) {
	query.Offset = (page - 1) * limit
	query.Limit = limit

	items, total, err := s.list(ctx, query)
	if err != nil {
		return Page{}, err
	}
	d, err := s.newDecorator(ctx, viewer, withFlags, items)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: d.contents(items), Pagination: NewPagination(page, limit, total)}, nil
}

// GlobalFeed pages through every post, newest first, marking which authors the
// viewer follows.
func (s Service) GlobalFeed(ctx context.Context, viewerID string, page, limit int) (Page, error) {
	viewer, err := s.findAccount(ctx, viewerID)
	if err != nil {
		return Page{}, err
	}
	page, limit = normalizePage(page, limit, GlobalFeedPageSize)
	return s.page(ctx, viewer, true, repositories.ContentQuery{Kind: models.KindPost}, page, limit)
}

// PersonalFeed returns the newest posts by the viewer and the accounts they follow.
func (s Service) PersonalFeed(ctx context.Context, viewerID string) ([]ContentView, error) {
	viewer, err := s.findAccount(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	items, _, err := s.list(ctx, repositories.ContentQuery{
		Kind:      models.KindPost,
		AuthorIDs: circle(viewer),
		Limit:     PersonalFeedLimit,
	})
	if err != nil {
		return nil, err
	}
	d, err := s.newDecorator(ctx, viewer, false, items)
	if err != nil {
		return nil, err
	}
	return d.contents(items), nil
}

// StoriesFeed groups the active stories of the viewer and the accounts they
// follow by author. Groups the viewer has not looked at come first; otherwise
// groups keep the order of their newest story.
func (s Service) StoriesFeed(ctx context.Context, viewerID string) ([]StoryGroup, error) {
	viewer, err := s.findAccount(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	items, _, err := s.list(ctx, repositories.ContentQuery{
		Kind:      models.KindStory,
		AuthorIDs: circle(viewer),
		ActiveAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	d, err := s.newDecorator(ctx, viewer, false, items)
	if err != nil {
		return nil, err
	}

	var groups []StoryGroup
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.AuthorID]
		if !ok {
			i = len(groups)
			index[item.AuthorID] = i
			groups = append(groups, StoryGroup{Author: d.author(item.AuthorID)})
		}
		groups[i].Stories = append(groups[i].Stories, d.content(item))
		if item.ViewedBy(viewer.ID) {
			groups[i].HasViewed = true
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return !groups[i].HasViewed && groups[j].HasViewed
	})
	return groups, nil
}

// ReelsFeed pages through every reel, newest first.
func (s Service) ReelsFeed(ctx context.Context, viewerID string, page, limit int) (Page, error) {
	page, limit = normalizePage(page, limit, DefaultPageSize)
	return s.page(ctx, models.Account{ID: viewerID}, false, repositories.ContentQuery{Kind: models.KindReel}, page, limit)
}

// ContentByKind pages through all items of one kind. Expired stories are skipped.
func (s Service) ContentByKind(ctx context.Context, viewerID string, kind models.ContentKind, page, limit int) (Page, error) {
	if _, ok := models.ParseContentKind(string(kind)); !ok {
		return Page{}, apperr.Validation("Invalid content type")
	}
	page, limit = normalizePage(page, limit, DefaultPageSize)

	query := repositories.ContentQuery{Kind: kind}
	if kind == models.KindStory {
		query.ActiveAt = s.now()
	}
	return s.page(ctx, models.Account{ID: viewerID}, false, query, page, limit)
}

// UserContent returns everything userID has published, optionally restricted to
// one kind. Mixed results are ordered newest first.
func (s Service) UserContent(ctx context.Context, viewerID, userID string, kind models.ContentKind) ([]ContentView, error) {
	kinds := models.ContentKinds
	if kind != "" {
		if _, ok := models.ParseContentKind(string(kind)); !ok {
			return nil, apperr.Validation("Invalid content type")
		}
		kinds = []models.ContentKind{kind}
	}

	now := s.now()
	var items []models.Content
	for _, k := range kinds {
		query := repositories.ContentQuery{Kind: k, AuthorIDs: []string{userID}}
		if k == models.KindStory {
			query.ActiveAt = now
		}
		found, _, err := s.list(ctx, query)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}

	if len(kinds) > 1 {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].ID > items[j].ID
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}

	d, err := s.newDecorator(ctx, models.Account{ID: viewerID}, false, items)
	if err != nil {
		return nil, err
	}
	return d.contents(items), nil
}

// UserPosts returns userID's posts, newest first.
func (s Service) UserPosts(ctx context.Context, viewerID, userID string) ([]ContentView, error) {
	return s.UserContent(ctx, viewerID, userID, models.KindPost)
}

// circle is the viewer together with everyone they follow.
func circle(viewer models.Account) []string {
	ids := make([]string, 0, len(viewer.Following)+1)
	ids = append(ids, viewer.Following...)
	return append(ids, viewer.ID)
}
