package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fmeta/backend/internal/logging"
)

// GraphHandler serves follow and unfollow requests.
type GraphHandler struct {
	Graph GraphService
}

// Follow implements POST /api/auth/users/{userId}/follow.
func (h GraphHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Graph.Follow(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "userId")); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondMessage(ctx, w, http.StatusOK, "User followed successfully")
}

// Unfollow implements POST /api/auth/users/{userId}/unfollow.
func (h GraphHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Graph.Unfollow(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "userId")); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondMessage(ctx, w, http.StatusOK, "User unfollowed successfully")
}

// Status implements GET /api/auth/users/{userId}/follow-status.
func (h GraphHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.Graph.FollowStatus(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":       true,
		"isFollowing":   status.IsFollowing,
		"isFollowingMe": status.IsFollowingMe,
	})
}
