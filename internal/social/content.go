package social

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/metrics"
	"github.com/fmeta/backend/internal/models"
)

// CreateInput carries a new post, reel or story.
type CreateInput struct {
	Kind       models.ContentKind
	Text       string
	Media      []models.MediaItem
	Location   string
	Hashtags   []string
	Mentions   []string
	Visibility models.Visibility
	// ExpiresAt overrides the default story lifetime. Ignored for other kinds.
	ExpiresAt time.Time
}

// CreateContent validates and stores a content item authored by authorID.
func (s Service) CreateContent(ctx context.Context, authorID string, in CreateInput) (ContentView, error) {
	ctx, span := logging.StartSpan(ctx, "social.CreateContent")
	content, author, err := s.createContent(ctx, authorID, in)
	span.End(internalOnly(err))
	if err != nil {
		return ContentView{}, err
	}

	metrics.ContentCreated.WithLabelValues(string(content.Kind)).Inc()

	d := decorator{viewerID: author.ID, accounts: map[string]models.Account{author.ID: author}}
	return d.content(content), nil
}

func (s Service) createContent(ctx context.Context, authorID string, in CreateInput) (models.Content, models.Account, error) {
	logger := logging.FromContext(ctx)

	if _, ok := models.ParseContentKind(string(in.Kind)); !ok {
		return models.Content{}, models.Account{}, apperr.Validation("Valid contentType is required (post, reel, or story)")
	}
	if len(in.Media) == 0 {
		return models.Content{}, models.Account{}, apperr.ErrInvalidMedia.WithMessage("At least one media item is required")
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return models.Content{}, models.Account{}, apperr.Validation("Visibility must be public, followers or close_friends")
	}

	author, err := s.findAccount(ctx, authorID)
	if err != nil {
		return models.Content{}, models.Account{}, err
	}

	now := s.now()
	content := models.Content{
		ID:         s.newID(),
		Kind:       in.Kind,
		AuthorID:   author.ID,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	text := strings.TrimSpace(in.Text)
	switch in.Kind {
	case models.KindPost:
		images := make([]string, 0, len(in.Media))
		for _, item := range in.Media {
			if strings.TrimSpace(item.URL) == "" || item.Type != models.MediaImage {
				return models.Content{}, models.Account{}, apperr.ErrInvalidMedia.WithMessage("Posts can only have images")
			}
			images = append(images, strings.TrimSpace(item.URL))
		}
		if text == "" {
			return models.Content{}, models.Account{}, apperr.Validation("Post text is required")
		}
		content.Post = &models.PostBody{
			Text:     text,
			Images:   images,
			Location: strings.TrimSpace(in.Location),
			Hashtags: normalizeTags(in.Hashtags, "#"),
		}

	case models.KindReel:
		if len(in.Media) != 1 || in.Media[0].Type != models.MediaVideo || strings.TrimSpace(in.Media[0].URL) == "" {
			return models.Content{}, models.Account{}, apperr.ErrInvalidMedia.WithMessage("Reels must have exactly one video")
		}
		video := in.Media[0]
		video.URL = strings.TrimSpace(video.URL)
		s.enrichVideo(ctx, &video)
		content.Reel = &models.ReelBody{
			Text:     text,
			Video:    video,
			Hashtags: normalizeTags(in.Hashtags, "#"),
			Mentions: normalizeTags(in.Mentions, "@"),
		}

	case models.KindStory:
		item := in.Media[0]
		if len(in.Media) != 1 || (item.Type != models.MediaImage && item.Type != models.MediaVideo) || strings.TrimSpace(item.URL) == "" {
			return models.Content{}, models.Account{}, apperr.ErrInvalidMedia.WithMessage("Stories must have one image or video")
		}
		item.URL = strings.TrimSpace(item.URL)
		expiresAt := in.ExpiresAt
		if expiresAt.IsZero() {
			expiresAt = now.Add(models.StoryLifetime)
		} else if !expiresAt.After(now) {
			return models.Content{}, models.Account{}, apperr.Validation("Story expiry must be in the future")
		}
		content.Story = &models.StoryBody{Media: item, ExpiresAt: expiresAt.UTC()}
	}

	if err := s.Contents.Create(ctx, content); err != nil {
		return models.Content{}, models.Account{}, apperr.Internal("store content", err)
	}

	if content.Kind == models.KindPost {
		if err := s.Accounts.AppendPost(ctx, author.ID, content.ID); err != nil {
			if delErr := s.Contents.Delete(ctx, content.Kind, content.ID); delErr != nil {
				logger.Error("failed to roll back orphaned post", "contentId", content.ID, "error", delErr)
			}
			return models.Content{}, models.Account{}, apperr.Internal("link post to author", err)
		}
	}

	logger.Info("content created", "kind", content.Kind, "contentId", content.ID)
	return content, author, nil
}

// enrichVideo fills a missing thumbnail or duration from the prober. Probe
// failures leave the video as submitted.
func (s Service) enrichVideo(ctx context.Context, video *models.MediaItem) {
	if s.Prober == nil || (video.Thumbnail != "" && video.Duration > 0) {
		return
	}
	if !probeableURL(video.URL) {
		logging.FromContext(ctx).Debug("skipping video probe for non-http url")
		return
	}
	info, err := s.Prober.Probe(ctx, video.URL)
	if err != nil {
		logging.FromContext(ctx).Warn("video probe failed", "url", video.URL, "error", err)
		return
	}
	if video.Thumbnail == "" {
		video.Thumbnail = info.Thumbnail
	}
	if video.Duration <= 0 {
		video.Duration = info.Duration
	}
}

// probeableURL accepts only absolute http(s) URLs with a host.
func probeableURL(raw string) bool {
	if strings.HasPrefix(raw, "-") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// normalizeTags trims the marker prefix and whitespace, drops empties and
// removes duplicates while keeping first-seen order.
func normalizeTags(tags []string, marker string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), marker))
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// internalOnly drops expected client errors so spans only flag real failures.
func internalOnly(err error) error {
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		return err
	}
	return nil
}
