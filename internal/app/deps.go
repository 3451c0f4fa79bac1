package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fmeta/backend/internal/accounts"
	"github.com/fmeta/backend/internal/auth"
	"github.com/fmeta/backend/internal/config"
	"github.com/fmeta/backend/internal/db"
	"github.com/fmeta/backend/internal/handlers"
	"github.com/fmeta/backend/internal/mailer"
	"github.com/fmeta/backend/internal/middleware"
	"github.com/fmeta/backend/internal/repositories"
	"github.com/fmeta/backend/internal/social"
	"github.com/fmeta/backend/internal/storage"
	"github.com/fmeta/backend/internal/videos"
)

// components holds the wired services along with what serve needs to run and
// tear them down.
type components struct {
	HTTP     handlers.Dependencies
	Sessions *auth.Manager
	cleanup  []func(context.Context) error
}

// Close releases background workers in reverse construction order.
func (c *components) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		if err := c.cleanup[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. A nil pool selects the in-memory stores.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (*components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	signer, err := auth.NewTokenSigner(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	var (
		accountRepo  repositories.AccountRepository
		contentRepo  repositories.ContentRepository
		sessionStore auth.SessionStore
		store        handlers.Pinger
	)
	if pool != nil {
		accountRepo = repositories.NewPostgresAccountRepository(pool)
		contentRepo = repositories.NewPostgresContentRepository(pool)
		sessionStore = repositories.NewPostgresSessionStore(pool)
		if pinger, ok := pool.(handlers.Pinger); ok {
			store = pinger
		}
	} else {
		accountRepo = repositories.NewMemoryAccountRepository()
		contentRepo = repositories.NewMemoryContentRepository()
		sessionStore = auth.NewInMemorySessionStore()
	}

	sessions := auth.NewManager(signer, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, sessionStore)
	c := &components{Sessions: sessions}

	var sender mailer.Sender = mailer.LogSender{Logger: logger, FrontendURL: cfg.FrontendURL}
	if cfg.Mail.Host != "" {
		smtp, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:        cfg.Mail.Host,
			Port:        cfg.Mail.Port,
			Username:    cfg.Mail.Username,
			Password:    cfg.Mail.Password,
			From:        cfg.Mail.From,
			FrontendURL: cfg.FrontendURL,
		})
		if err != nil {
			return nil, err
		}
		sender = smtp
	}
	dispatcher := mailer.NewDispatcher(sender, mailer.DispatcherConfig{Workers: cfg.Mail.Workers}, logger)
	c.cleanup = append(c.cleanup, dispatcher.Shutdown)

	media, uploadDir, err := buildStorage(ctx, cfg)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	prober := videos.NewCachingProber(videos.NewYTDLPProber(cfg.YTDLPPath, cfg.YTDLPTimeout), cfg.MetadataCacheTTL)

	accountSvc := accounts.Service{
		Accounts: accountRepo,
		Sessions: sessions,
		Hasher:   auth.BcryptHasher{},
		Mailer:   dispatcher,
	}
	socialSvc := social.Service{
		Accounts: accountRepo,
		Contents: contentRepo,
		Prober:   prober,
	}

	c.HTTP = handlers.Dependencies{
		Accounts:    accountSvc,
		Graph:       socialSvc,
		Content:     socialSvc,
		Feeds:       socialSvc,
		Tokens:      sessions,
		Storage:     media,
		RateLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute, cfg.RateLimit.Burst, 10*time.Minute),
		Store:       store,
		UploadDir:   uploadDir,
	}
	return c, nil
}

// buildStorage prefers the configured bucket and falls back to the local upload
// directory, which is then served by the API itself.
func buildStorage(ctx context.Context, cfg config.Config) (storage.MediaStorage, string, error) {
	if cfg.ObjectStore.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	}

	baseURL := cfg.ObjectStore.PublicBaseURL
	if baseURL == "" {
		baseURL = handlers.UploadsPath
	}
	local, err := storage.NewLocalStorage(cfg.UploadDir, baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("local storage: %w", err)
	}
	return local, local.Dir(), nil
}

// newRouter assembles the middleware chain and mounts the API.
func newRouter(cfg config.Config, logger *slog.Logger, deps handlers.Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handlers.RegisterRoutes(r, deps)
	return r
}
