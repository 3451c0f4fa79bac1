package social

import (
	"context"
	"errors"
	"strings"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/repositories"
)

// MaxCommentLength bounds comment text in bytes.
const MaxCommentLength = 2200

var commentableKinds = []models.ContentKind{models.KindPost, models.KindReel}

// LikeResult is the like state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// CommentResult is a newly added comment and the item's new comment count.
type CommentResult struct {
	Comment       CommentView `json:"comment"`
	CommentsCount int         `json:"commentsCount"`
}

// ToggleLike likes contentID for the viewer, or removes the like if present.
func (s Service) ToggleLike(ctx context.Context, viewerID, contentID string) (LikeResult, error) {
	content, err := s.locate(ctx, contentID, models.ContentKinds, apperr.ErrContentNotFound)
	if err != nil {
		return LikeResult{}, err
	}

	liked, count, err := s.Contents.ToggleLike(ctx, content.Kind, content.ID, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return LikeResult{}, apperr.ErrContentNotFound
		}
		return LikeResult{}, apperr.Internal("toggle like", err)
	}
	return LikeResult{Liked: liked, LikesCount: count}, nil
}

// AddComment appends a comment to a post or reel. Stories do not take comments.
func (s Service) AddComment(ctx context.Context, viewerID, contentID, text string) (CommentResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return CommentResult{}, apperr.Validation("Comment text is required")
	}
	if len(text) > MaxCommentLength {
		return CommentResult{}, apperr.Validation("Comment is too long")
	}

	content, err := s.locate(ctx, contentID, commentableKinds, apperr.ErrCommentsNotSupported)
	if err != nil {
		return CommentResult{}, err
	}
	viewer, err := s.findAccount(ctx, viewerID)
	if err != nil {
		return CommentResult{}, err
	}

	comment := models.Comment{ID: s.newID(), AuthorID: viewer.ID, Text: text, CreatedAt: s.now()}
	count, err := s.Contents.AddComment(ctx, content.Kind, content.ID, comment)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return CommentResult{}, apperr.ErrCommentsNotSupported
		}
		return CommentResult{}, apperr.Internal("add comment", err)
	}

	d := decorator{accounts: map[string]models.Account{viewer.ID: viewer}}
	return CommentResult{Comment: d.comment(comment), CommentsCount: count}, nil
}

// DeleteContent removes an item authored by actorID and reports its kind.
func (s Service) DeleteContent(ctx context.Context, actorID, contentID string) (models.ContentKind, error) {
	ctx, span := logging.StartSpan(ctx, "social.DeleteContent")
	kind, err := s.deleteContent(ctx, actorID, contentID)
	span.End(internalOnly(err))
	return kind, err
}

func (s Service) deleteContent(ctx context.Context, actorID, contentID string) (models.ContentKind, error) {
	logger := logging.FromContext(ctx)

	content, err := s.locate(ctx, contentID, models.ContentKinds, apperr.ErrContentNotFound)
	if err != nil {
		return "", err
	}
	if content.AuthorID != actorID {
		logger.Warn("delete rejected for non-author", "contentId", content.ID, "authorId", content.AuthorID)
		return "", apperr.ErrForbidden
	}

	if err := s.Contents.Delete(ctx, content.Kind, content.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.ErrContentNotFound
		}
		return "", apperr.Internal("delete content", err)
	}

	if content.Kind == models.KindPost {
		if err := s.Accounts.RemovePost(ctx, content.AuthorID, content.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.Internal("unlink post from author", err)
		}
	}

	logger.Info("content deleted", "kind", content.Kind, "contentId", content.ID)
	return content.Kind, nil
}

// ViewStory records that the viewer has seen a story and returns its view count.
// Repeat views are counted once.
func (s Service) ViewStory(ctx context.Context, viewerID, storyID string) (int, error) {
	story, err := s.Contents.Find(ctx, models.KindStory, storyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, apperr.ErrContentNotFound.WithMessage("Story not found")
		}
		return 0, apperr.Internal("find story", err)
	}

	now := s.now()
	if !story.Active(now) {
		return 0, apperr.ErrStoryExpired
	}

	count, err := s.Contents.AddStoryView(ctx, story.ID, models.StoryView{ViewerID: viewerID, ViewedAt: now})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, apperr.ErrContentNotFound.WithMessage("Story not found")
		}
		return 0, apperr.Internal("record story view", err)
	}
	return count, nil
}
