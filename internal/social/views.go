package social

import (
	"context"
	"time"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/models"
)

// AuthorView identifies the author of an item. The follow flags are only set
// on feeds that compute them.
type AuthorView struct {
	ID                      string `json:"id"`
	Username                string `json:"username"`
	Name                    string `json:"name"`
	IsFollowedByCurrentUser *bool  `json:"isFollowedByCurrentUser,omitempty"`
	IsCurrentUser           *bool  `json:"isCurrentUser,omitempty"`
}

// MediaView is a media descriptor as returned to clients.
type MediaView struct {
	URL       string           `json:"url"`
	Type      models.MediaType `json:"type"`
	Thumbnail string           `json:"thumbnail,omitempty"`
	Duration  float64          `json:"duration,omitempty"`
}

// CommentView is a comment with its resolved author.
type CommentView struct {
	ID        string     `json:"id"`
	Author    AuthorView `json:"author"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ContentView is a content item decorated for a particular viewer.
type ContentView struct {
	ID                   string             `json:"id"`
	Kind                 models.ContentKind `json:"contentType"`
	Author               AuthorView         `json:"author"`
	Text                 string             `json:"content,omitempty"`
	ImageURL             string             `json:"imageUrl,omitempty"`
	Images               []string           `json:"images,omitempty"`
	Video                *MediaView         `json:"video,omitempty"`
	Media                *MediaView         `json:"media,omitempty"`
	Location             string             `json:"location,omitempty"`
	Hashtags             []string           `json:"hashtags,omitempty"`
	Mentions             []string           `json:"mentions,omitempty"`
	Visibility           models.Visibility  `json:"visibility"`
	LikesCount           int                `json:"likesCount"`
	CommentsCount        int                `json:"commentsCount"`
	IsLikedByCurrentUser bool               `json:"isLikedByCurrentUser"`
	Comments             []CommentView      `json:"comments,omitempty"`
	ViewsCount           *int               `json:"viewsCount,omitempty"`
	HasViewed            *bool              `json:"hasViewed,omitempty"`
	ExpiresAt            *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// decorator turns stored items into views for one viewer.
type decorator struct {
	viewerID string
	// following is the viewer's following set. Nil disables author follow flags.
	following map[string]struct{}
	accounts  map[string]models.Account
}

// newDecorator loads every author and commenter referenced by items.
func (s Service) newDecorator(ctx context.Context, viewer models.Account, withFlags bool, items []models.Content) (decorator, error) {
	d := decorator{viewerID: viewer.ID}
	if withFlags {
		d.following = make(map[string]struct{}, len(viewer.Following))
		for _, id := range viewer.Following {
			d.following[id] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, item := range items {
		add(item.AuthorID)
		for _, c := range item.Comments {
			add(c.AuthorID)
		}
	}

	d.accounts = make(map[string]models.Account, len(ids))
	if len(ids) == 0 {
		return d, nil
	}
	accounts, err := s.Accounts.FindByIDs(ctx, ids)
	if err != nil {
		return decorator{}, apperr.Internal("load authors", err)
	}
	for _, a := range accounts {
		d.accounts[a.ID] = a
	}
	return d, nil
}

func (d decorator) author(id string) AuthorView {
	view := AuthorView{ID: id}
	if a, ok := d.accounts[id]; ok {
		view.Username = a.Username
		view.Name = a.Name
	}
	if d.following != nil {
		_, followed := d.following[id]
		self := id == d.viewerID
		view.IsFollowedByCurrentUser = &followed
		view.IsCurrentUser = &self
	}
	return view
}

func (d decorator) comment(c models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		Author:    AuthorView{ID: c.AuthorID, Username: d.accounts[c.AuthorID].Username, Name: d.accounts[c.AuthorID].Name},
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func (d decorator) content(c models.Content) ContentView {
	view := ContentView{
		ID:                   c.ID,
		Kind:                 c.Kind,
		Author:               d.author(c.AuthorID),
		Visibility:           c.Visibility,
		LikesCount:           len(c.Likes),
		CommentsCount:        len(c.Comments),
		IsLikedByCurrentUser: d.viewerID != "" && c.LikedBy(d.viewerID),
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	for _, comment := range c.Comments {
		view.Comments = append(view.Comments, d.comment(comment))
	}

	switch {
	case c.Post != nil:
		view.Text = c.Post.Text
		view.Images = c.Post.Images
		if len(c.Post.Images) > 0 {
			view.ImageURL = c.Post.Images[0]
		}
		view.Location = c.Post.Location
		view.Hashtags = c.Post.Hashtags
	case c.Reel != nil:
		view.Text = c.Reel.Text
		view.Video = mediaView(c.Reel.Video)
		view.Hashtags = c.Reel.Hashtags
		view.Mentions = c.Reel.Mentions
	case c.Story != nil:
		view.Media = mediaView(c.Story.Media)
		views := len(c.Story.Views)
		viewed := d.viewerID != "" && c.ViewedBy(d.viewerID)
		expires := c.Story.ExpiresAt
		view.ViewsCount = &views
		view.HasViewed = &viewed
		view.ExpiresAt = &expires
	}
	return view
}

func (d decorator) contents(items []models.Content) []ContentView {
	out := make([]ContentView, 0, len(items))
	for _, item := range items {
		out = append(out, d.content(item))
	}
	return out
}

func mediaView(m models.MediaItem) *MediaView {
	return &MediaView{URL: m.URL, Type: m.Type, Thumbnail: m.Thumbnail, Duration: m.Duration}
}
