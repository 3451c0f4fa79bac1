package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/fmeta/backend/internal/auth"
	"github.com/fmeta/backend/internal/config"
	"github.com/fmeta/backend/internal/db"
	"github.com/fmeta/backend/internal/httpserver"
	"github.com/fmeta/backend/internal/logging"
)

// sessionPurgeInterval controls how often expired refresh tokens are removed.
const sessionPurgeInterval = time.Hour

// Run bootstraps the F-Meta backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:], os.Stdout)
	case "seed":
		return runSeed(ctx, args[1:], os.Stdout)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     logging.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	var pool db.Pool
	if cfg.StoreDriver == config.StorePostgres {
		pgPool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{})
		if err != nil {
			return err
		}
		defer pgPool.Close()
		pool = pgPool
	} else {
		logger.Warn("using in-memory store, data is lost on restart")
	}

	deps, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := deps.Close(closeCtx); err != nil {
			logger.Error("shutdown background workers", "error", err)
		}
	}()

	go purgeSessions(ctx, logger, deps.Sessions, sessionPurgeInterval)

	srv := httpserver.New(cfg.AppPort, newRouter(cfg, logger, deps.HTTP))
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.StoreDriver, "env", cfg.Environment)
	if err := srv.Run(ctx, ln); err != nil {
		return err
	}
	logger.Info("http server stopped")
	return nil
}

// purgeSessions removes expired refresh tokens until ctx is canceled.
func purgeSessions(ctx context.Context, logger *slog.Logger, sessions *auth.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Error("purge expired sessions", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("purged expired sessions", "count", removed)
			}
		}
	}
}

func runMigrations(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	if command != "up" && command != "status" {
		if command == "down" {
			return errors.New("down migrations are not supported yet")
		}
		return fmt.Errorf("unknown migrate command %q", command)
	}

	migrationDir, err := absPath(cfg.MigrationDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := db.Migrator{Pool: pool, Dir: migrationDir, Out: out}
	if command == "status" {
		migrations, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			mark := " "
			if m.Applied {
				mark = "x"
			}
			fmt.Fprintf(out, "[%s] %s\n", mark, m.Name)
		}
		return nil
	}

	_, err = migrator.Up(ctx)
	return err
}

func runSeed(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	seedDir, err := absPath(cfg.SeedDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.ApplySeed(ctx, pool, seedDir, args[0]); err != nil {
		return err
	}

	fmt.Fprintf(out, "applied seed %s\n", args[0])
	return nil
}

func absPath(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
