package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/social"
)

// FeedHandler serves the read-only feed endpoints.
type FeedHandler struct {
	Feeds FeedService
}

func emptyIfNil(items []social.ContentView) []social.ContentView {
	if items == nil {
		return []social.ContentView{}
	}
	return items
}

// Global implements GET /api/auth/posts.
func (h FeedHandler) Global(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Feeds.GlobalFeed(ctx, logging.AccountIDFromContext(ctx), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":    true,
		"posts":      emptyIfNil(page.Items),
		"pagination": page.Pagination,
	})
}

// Personal implements GET /api/auth/feed.
func (h FeedHandler) Personal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.Feeds.PersonalFeed(ctx, logging.AccountIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"posts":   emptyIfNil(items),
		"count":   len(items),
	})
}

// UserPosts implements GET /api/auth/users/{userId}/posts.
func (h FeedHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.Feeds.UserPosts(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"posts":   emptyIfNil(items),
		"count":   len(items),
	})
}

// ByKind implements GET /api/content/type/{contentType}.
func (h FeedHandler) ByKind(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind := models.ContentKind(chi.URLParam(r, "contentType"))
	page, err := h.Feeds.ContentByKind(ctx, logging.AccountIDFromContext(ctx), kind, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":     true,
		"contentType": kind,
		"contents":    emptyIfNil(page.Items),
		"pagination":  page.Pagination,
	})
}

// Stories implements GET /api/content/stories/feed.
func (h FeedHandler) Stories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.Feeds.StoriesFeed(ctx, logging.AccountIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if groups == nil {
		groups = []social.StoryGroup{}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":     true,
		"storiesFeed": groups,
	})
}

// Reels implements GET /api/content/reels/feed.
func (h FeedHandler) Reels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Feeds.ReelsFeed(ctx, logging.AccountIDFromContext(ctx), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":    true,
		"reels":      emptyIfNil(page.Items),
		"pagination": page.Pagination,
	})
}

// UserContent implements GET /api/content/user/{userId}?type=...
func (h FeedHandler) UserContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind := models.ContentKind(r.URL.Query().Get("type"))
	items, err := h.Feeds.UserContent(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "userId"), kind)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":  true,
		"contents": emptyIfNil(items),
		"count":    len(items),
	})
}
