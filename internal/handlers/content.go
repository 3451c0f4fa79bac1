package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/social"
)

// ContentHandler serves content creation and engagement endpoints.
type ContentHandler struct {
	Content ContentService
}

type mediaItem struct {
	URL       string  `json:"url" validate:"required,max=2048"`
	Type      string  `json:"type" validate:"required,oneof=image video"`
	Thumbnail string  `json:"thumbnail" validate:"omitempty,max=2048"`
	Duration  float64 `json:"duration" validate:"gte=0"`
}

// mediaList accepts either a single media object or an array of them.
type mediaList []mediaItem

func (m *mediaList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item mediaItem
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		*m = mediaList{item}
		return nil
	}

	var items []mediaItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*m = items
	return nil
}

type createContentRequest struct {
	ContentType string     `json:"contentType"`
	Content     string     `json:"content" validate:"max=2200"`
	Media       mediaList  `json:"media" validate:"dive"`
	Location    string     `json:"location" validate:"max=200"`
	Hashtags    []string   `json:"hashtags" validate:"max=30"`
	Mentions    []string   `json:"mentions" validate:"max=30"`
	Visibility  string     `json:"visibility"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

func (req createContentRequest) input() social.CreateInput {
	in := social.CreateInput{
		Kind:       models.ContentKind(req.ContentType),
		Text:       req.Content,
		Location:   req.Location,
		Hashtags:   req.Hashtags,
		Mentions:   req.Mentions,
		Visibility: models.Visibility(req.Visibility),
	}
	for _, item := range req.Media {
		in.Media = append(in.Media, models.MediaItem{
			URL:       item.URL,
			Type:      models.MediaType(item.Type),
			Thumbnail: item.Thumbnail,
			Duration:  item.Duration,
		})
	}
	if req.ExpiresAt != nil {
		in.ExpiresAt = *req.ExpiresAt
	}
	return in
}

// kindLabel names a content kind for response messages, e.g. "Reel".
func kindLabel(kind models.ContentKind) string {
	switch kind {
	case models.KindReel:
		return "Reel"
	case models.KindStory:
		return "Story"
	default:
		return "Post"
	}
}

type commentRequest struct {
	Text string `json:"text"`
}

// Create implements POST /api/content/create.
func (h ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createContentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	view, err := h.Content.CreateContent(ctx, logging.AccountIDFromContext(ctx), req.input())
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success": true,
		"message": kindLabel(view.Kind) + " created successfully!",
		"content": view,
	})
}

// Like implements POST /api/content/{contentId}/like. Repeated calls toggle.
func (h ContentHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Content.ToggleLike(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "contentId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "Content unliked"
	if result.Liked {
		message = "Content liked"
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    message,
		"liked":      result.Liked,
		"likesCount": result.LikesCount,
	})
}

// Comment implements POST /api/content/{contentId}/comment.
func (h ContentHandler) Comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Content.AddComment(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "contentId"), req.Text)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success":       true,
		"message":       "Comment added",
		"comment":       result.Comment,
		"commentsCount": result.CommentsCount,
	})
}

// Delete implements DELETE /api/content/{contentId}.
func (h ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := h.Content.DeleteContent(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "contentId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     kindLabel(kind) + " deleted successfully",
		"contentType": kind,
	})
}

// ViewStory implements POST /api/content/story/{storyId}/view.
func (h ContentHandler) ViewStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.Content.ViewStory(ctx, logging.AccountIDFromContext(ctx), chi.URLParam(r, "storyId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Story viewed",
		"viewsCount": views,
	})
}
