package handlers

import (
	"context"

	"github.com/fmeta/backend/internal/accounts"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/social"
)

// AccountService captures the account operations used by the account handlers.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (accounts.RegisterResult, error)
	VerifyEmail(ctx context.Context, token string) (accounts.VerifyResult, error)
	Login(ctx context.Context, identifier, password string) (accounts.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, viewerID string) (models.Account, error)
	Profile(ctx context.Context, userID string) (accounts.Profile, error)
	UpdateProfile(ctx context.Context, viewerID string, update accounts.ProfileUpdate) (models.Account, error)
	Search(ctx context.Context, query string) ([]models.Account, error)
}

// GraphService captures the follow graph operations.
type GraphService interface {
	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
	FollowStatus(ctx context.Context, actorID, targetID string) (social.FollowStatus, error)
}

// ContentService captures content creation and engagement.
type ContentService interface {
	CreateContent(ctx context.Context, authorID string, in social.CreateInput) (social.ContentView, error)
	ToggleLike(ctx context.Context, viewerID, contentID string) (social.LikeResult, error)
	AddComment(ctx context.Context, viewerID, contentID, text string) (social.CommentResult, error)
	DeleteContent(ctx context.Context, actorID, contentID string) (models.ContentKind, error)
	ViewStory(ctx context.Context, viewerID, storyID string) (int, error)
}

// FeedService captures the read models.
type FeedService interface {
	GlobalFeed(ctx context.Context, viewerID string, page, limit int) (social.Page, error)
	PersonalFeed(ctx context.Context, viewerID string) ([]social.ContentView, error)
	StoriesFeed(ctx context.Context, viewerID string) ([]social.StoryGroup, error)
	ReelsFeed(ctx context.Context, viewerID string, page, limit int) (social.Page, error)
	ContentByKind(ctx context.Context, viewerID string, kind models.ContentKind, page, limit int) (social.Page, error)
	UserContent(ctx context.Context, viewerID, userID string, kind models.ContentKind) ([]social.ContentView, error)
	UserPosts(ctx context.Context, viewerID, userID string) ([]social.ContentView, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
