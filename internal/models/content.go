package models

import "time"

// StoryLifetime is how long a story stays visible when no explicit expiry is given.
const StoryLifetime = 24 * time.Hour

// ContentKind identifies which variant a Content value carries.
type ContentKind string

const (
	KindPost  ContentKind = "post"
	KindReel  ContentKind = "reel"
	KindStory ContentKind = "story"
)

// ContentKinds lists every kind in the order lookups probe them.
var ContentKinds = []ContentKind{KindPost, KindReel, KindStory}

// ParseContentKind converts an external tag into a ContentKind.
func ParseContentKind(raw string) (ContentKind, bool) {
	switch ContentKind(raw) {
	case KindPost, KindReel, KindStory:
		return ContentKind(raw), true
	}
	return "", false
}

// SupportsComments reports whether items of this kind accept comments.
func (k ContentKind) SupportsComments() bool {
	return k == KindPost || k == KindReel
}

// Visibility is the audience tag stored with every content item.
type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityFollowers    Visibility = "followers"
	VisibilityCloseFriends Visibility = "close_friends"
)

// Valid reports whether v is a known visibility tag.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityCloseFriends:
		return true
	}
	return false
}

// MediaType classifies a media item.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaItem describes an uploaded image or video referenced by URL.
type MediaItem struct {
	URL       string
	Type      MediaType
	Thumbnail string
	Duration  float64
}

// Comment is a single comment on a post or reel.
type Comment struct {
	ID        string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}

// StoryView records the first time an account viewed a story.
type StoryView struct {
	ViewerID string
	ViewedAt time.Time
}

// PostBody holds the post-specific fields.
type PostBody struct {
	Text     string
	Images   []string
	Location string
	Hashtags []string
}

// ReelBody holds the reel-specific fields.
type ReelBody struct {
	Text     string
	Video    MediaItem
	Hashtags []string
	Mentions []string
}

// StoryBody holds the story-specific fields.
type StoryBody struct {
	Media     MediaItem
	Views     []StoryView
	ExpiresAt time.Time
}

// Content is a post, reel or story. Exactly one of Post, Reel and Story is set,
// matching Kind.
type Content struct {
	ID         string
	Kind       ContentKind
	AuthorID   string
	Visibility Visibility
	Likes      []string
	Comments   []Comment
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Post  *PostBody
	Reel  *ReelBody
	Story *StoryBody
}

// Active reports whether the item is still visible at now. Only stories expire.
func (c Content) Active(now time.Time) bool {
	if c.Kind != KindStory || c.Story == nil {
		return true
	}
	return now.Before(c.Story.ExpiresAt)
}

// LikedBy reports whether accountID has liked the item.
func (c Content) LikedBy(accountID string) bool {
	return containsID(c.Likes, accountID)
}

// ViewedBy reports whether accountID has viewed the story.
func (c Content) ViewedBy(accountID string) bool {
	if c.Story == nil {
		return false
	}
	for _, view := range c.Story.Views {
		if view.ViewerID == accountID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the item.
func (c Content) Clone() Content {
	c.Likes = cloneStrings(c.Likes)
	if c.Comments != nil {
		c.Comments = append([]Comment(nil), c.Comments...)
	}
	if c.Post != nil {
		post := *c.Post
		post.Images = cloneStrings(post.Images)
		post.Hashtags = cloneStrings(post.Hashtags)
		c.Post = &post
	}
	if c.Reel != nil {
		reel := *c.Reel
		reel.Hashtags = cloneStrings(reel.Hashtags)
		reel.Mentions = cloneStrings(reel.Mentions)
		c.Reel = &reel
	}
	if c.Story != nil {
		story := *c.Story
		if story.Views != nil {
			story.Views = append([]StoryView(nil), story.Views...)
		}
		c.Story = &story
	}
	return c
}
