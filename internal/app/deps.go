package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidgate/backend/internal/access"
	"github.com/vidgate/backend/internal/audit"
	"github.com/vidgate/backend/internal/auth"
	"github.com/vidgate/backend/internal/config"
	"github.com/vidgate/backend/internal/db"
	"github.com/vidgate/backend/internal/handlers"
	"github.com/vidgate/backend/internal/repositories"
	"github.com/vidgate/backend/internal/storage"
)

// services groups the wired handler dependencies with the background workers
// the serve loop owns.
type services struct {
	deps handlers.Dependencies

	accessLog *access.AsyncLogger
	sweeper   *access.Sweeper
	archiver  *audit.Archiver
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers and background jobs. The archiver stays nil when no archive bucket
// is configured.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (services, error) {
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	tokenRepo := repositories.NewPostgresShareTokenRepository(pool)
	logRepo := repositories.NewPostgresAccessLogRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	accessLog := access.NewAsyncLogger(logRepo, access.AsyncLoggerConfig{
		QueueSize: cfg.AccessLogQueueSize,
		Workers:   cfg.AccessLogWorkers,
	}, logger)

	validator := access.NewValidator(tokenRepo)
	controller := access.NewController(videoRepo, validator, accessLog)
	issuer := access.NewIssuer(videoRepo, tokenRepo, cfg.ShareBaseURL)

	svc := services{
		deps: handlers.Dependencies{
			Users:    repositories.NewPostgresUserRepository(pool),
			Sessions: auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
			Videos:   videoRepo,
			Access:   controller,
			Tokens:   issuer,
		},
		accessLog: accessLog,
		sweeper:   access.NewSweeper(tokenRepo, cfg.CleanupInterval, logger),
	}

	if cfg.ObjectStore.Bucket != "" {
		archiveStore, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return services{}, fmt.Errorf("configure log archive storage: %w", err)
		}
		svc.archiver = audit.NewArchiver(logRepo, archiveStore, audit.ArchiverConfig{
			Retention: cfg.LogRetention,
			Interval:  cfg.ArchiveInterval,
		}, logger)
	}

	return svc, nil
}
