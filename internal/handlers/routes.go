package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fmeta/backend/internal/middleware"
	"github.com/fmeta/backend/internal/storage"
)

// UploadsPath is where locally stored media is served from.
const UploadsPath = "/uploads"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts    AccountService
	Graph       GraphService
	Content     ContentService
	Feeds       FeedService
	Tokens      middleware.TokenVerifier
	Storage     storage.MediaStorage
	RateLimiter middleware.RateLimiter
	Store       Pinger
	// UploadDir is served under UploadsPath when media is stored locally.
	UploadDir string
}

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{Store: deps.Store}
	accounts := AccountHandler{Accounts: deps.Accounts}
	graph := GraphHandler{Graph: deps.Graph}
	content := ContentHandler{Content: deps.Content}
	feeds := FeedHandler{Feeds: deps.Feeds}
	media := MediaHandler{Storage: deps.Storage}

	authenticated := middleware.Authenticate(deps.Tokens)
	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.RateLimiter, scope)(h)
	}

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Method(http.MethodPost, "/register", limited("register", accounts.Register))
		r.Method(http.MethodPost, "/login", limited("login", accounts.Login))
		r.Method(http.MethodGet, "/verify-email", limited("verify", accounts.VerifyEmail))
		r.Post("/refresh", accounts.Refresh)
		r.Post("/logout", accounts.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/profile", accounts.Me)
			r.Patch("/profile", accounts.UpdateProfile)
			r.Get("/posts", feeds.Global)
			r.Get("/feed", feeds.Personal)

			r.Get("/users/search", accounts.Search)
			r.Get("/users/{userId}", accounts.Profile)
			r.Get("/users/{userId}/posts", feeds.UserPosts)
			r.Post("/users/{userId}/follow", graph.Follow)
			r.Post("/users/{userId}/unfollow", graph.Unfollow)
			r.Get("/users/{userId}/follow-status", graph.Status)
		})
	})

	r.Route("/api/content", func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/create", content.Create)
		r.Get("/type/{contentType}", feeds.ByKind)
		r.Get("/stories/feed", feeds.Stories)
		r.Post("/story/{storyId}/view", content.ViewStory)
		r.Get("/reels/feed", feeds.Reels)
		r.Get("/user/{userId}", feeds.UserContent)
		r.Post("/{contentId}/like", content.Like)
		r.Post("/{contentId}/comment", content.Comment)
		r.Delete("/{contentId}", content.Delete)
	})

	if deps.Storage != nil {
		r.With(authenticated).Post("/api/media", media.Upload)
	}

	if deps.UploadDir != "" {
		files := http.StripPrefix(UploadsPath+"/", http.FileServer(http.Dir(deps.UploadDir)))
		r.Handle(UploadsPath+"/*", files)
	}
}
